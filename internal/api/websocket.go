package api

import (
	"encoding/json"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/peerpractice/server/internal/auth"
	"github.com/peerpractice/server/internal/metrics"
	"github.com/peerpractice/server/internal/model"
)

type wsHandler struct {
	deps     Deps
	upgrader websocket.Upgrader
}

func newWSHandler(deps Deps) *wsHandler {
	return &wsHandler{
		deps: deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(deps.Config.CORSAllowedOrigins, origin)
			},
		},
	}
}

// Handle authenticates the cookie, upgrades the connection, and runs the
// session until either side goes away.
func (h *wsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserFromRequest(h.deps.Config.JWTSecret, r)
	if err != nil {
		h.deps.Log.Warn().Err(err).Msg("websocket auth rejected")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.deps.Log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer ws.Close()

	h.deps.Log.Info().Stringer("user_id", userID).Msg("websocket connected")
	metrics.WebsocketSessions.Inc()
	defer metrics.WebsocketSessions.Dec()

	h.runSession(ws, userID, r)
}

func (h *wsHandler) runSession(ws *websocket.Conn, userID model.UserID, r *http.Request) {
	ctx := r.Context()

	conn, events, ok := h.deps.Hub.Join(ctx, userID)
	if !ok {
		h.deps.Log.Error().Stringer("user_id", userID).Msg("hub join failed")
		return
	}
	defer conn.Close()

	if err := ws.WriteJSON(model.YouAreEvent(userID)); err != nil {
		return
	}

	// The read loop runs on its own goroutine; all socket writes stay on
	// this one so dispatch replies never interleave with hub events. done
	// unblocks a read loop parked on the command send when this function
	// returns first, since closing the socket cannot.
	incoming := make(chan model.ClientCommand)
	done := make(chan struct{})
	defer close(done)
	go h.readLoop(ws, userID, incoming, done)

	sess := &session{deps: h.deps, ws: ws, userID: userID}
	for {
		select {
		case event, open := <-events:
			if !open {
				// Hub closed our queue; end the session.
				return
			}
			if err := ws.WriteJSON(event); err != nil {
				return
			}
		case cmd, open := <-incoming:
			if !open {
				return
			}
			sess.dispatch(ctx, cmd)
		}
	}
}

func (h *wsHandler) readLoop(ws *websocket.Conn, userID model.UserID, incoming chan<- model.ClientCommand, done <-chan struct{}) {
	defer close(incoming)
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.deps.Log.Warn().Err(err).Stringer("user_id", userID).Msg("websocket read error")
			}
			return
		}
		var cmd model.ClientCommand
		if err := json.Unmarshal(raw, &cmd); err != nil {
			// A malformed command does not end the session.
			h.deps.Log.Error().Err(err).Stringer("user_id", userID).Msg("unparseable client command")
			continue
		}
		select {
		case incoming <- cmd:
		case <-done:
			return
		}
	}
}
