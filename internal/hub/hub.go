// Package hub owns the registry of live connections and fans events out to
// them. One actor goroutine serializes registry mutations and broadcasts,
// so a broadcast racing a join can never corrupt the registry.
package hub

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/metrics"
	"github.com/peerpractice/server/internal/model"
)

const mailboxSize = 128

// connQueueSize bounds each connection's outbound queue. When a consumer
// stalls long enough to fill it, further deliveries to that connection are
// dropped and counted rather than blocking the broadcaster.
const connQueueSize = 256

// ConnID identifies one live connection within a user's group.
type ConnID struct {
	id uuid.UUID
}

func newConnID() ConnID { return ConnID{id: uuid.New()} }

func (c ConnID) String() string { return c.id.String() }

type message interface{ isMessage() }

type join struct {
	userID model.UserID
	reply  chan<- joinReply
}
type leave struct {
	userID model.UserID
	connID ConnID
}
type broadcastAll struct{ event model.ServerEvent }
type broadcastUser struct {
	userID model.UserID
	event  model.ServerEvent
}

type joinReply struct {
	conn   *Conn
	events <-chan model.ServerEvent
}

func (join) isMessage()          {}
func (leave) isMessage()         {}
func (broadcastAll) isMessage()  {}
func (broadcastUser) isMessage() {}

// Hub is the connection-hub actor.
type Hub struct {
	in  chan message
	log zerolog.Logger
}

// NewHub spawns the hub actor.
func NewHub(log zerolog.Logger) *Hub {
	h := &Hub{
		in:  make(chan message, mailboxSize),
		log: log.With().Str("actor", "hub").Logger(),
	}
	go h.loop()
	return h
}

// Conn is the owning handle for one registered connection. Closing it
// deregisters the connection from the hub; Close is idempotent and never
// blocks, even if the hub's mailbox is full.
type Conn struct {
	hub    *Hub
	userID model.UserID
	connID ConnID
	once   sync.Once
}

// ID returns the connection's id.
func (c *Conn) ID() ConnID { return c.connID }

// Close enqueues a best-effort deregistration. Call it from the
// transport's connection-teardown path.
func (c *Conn) Close() {
	c.once.Do(func() {
		select {
		case c.hub.in <- leave{userID: c.userID, connID: c.connID}:
		default:
			// Hub mailbox full or gone; the group entry leaks until
			// process exit, which only happens at shutdown anyway.
		}
	})
}

// Join registers a new connection for the user and returns the owning
// handle plus the channel to drain. The second return is false if the
// context ended before the hub answered.
func (h *Hub) Join(ctx context.Context, userID model.UserID) (*Conn, <-chan model.ServerEvent, bool) {
	reply := make(chan joinReply, 1)
	select {
	case h.in <- join{userID: userID, reply: reply}:
	case <-ctx.Done():
		return nil, nil, false
	}
	select {
	case r := <-reply:
		return r.conn, r.events, true
	case <-ctx.Done():
		return nil, nil, false
	}
}

// Leave removes exactly that connection from the user's group. A no-op if
// the group or connection is already gone.
func (h *Hub) Leave(ctx context.Context, userID model.UserID, connID ConnID) {
	select {
	case h.in <- leave{userID: userID, connID: connID}:
	case <-ctx.Done():
	}
}

// BroadcastAll enqueues the event on every live connection's queue.
func (h *Hub) BroadcastAll(ctx context.Context, event model.ServerEvent) {
	select {
	case h.in <- broadcastAll{event: event}:
	case <-ctx.Done():
	}
}

// BroadcastUser enqueues the event on each of one user's connections.
// A no-op if the user has no live connections.
func (h *Hub) BroadcastUser(ctx context.Context, userID model.UserID, event model.ServerEvent) {
	select {
	case h.in <- broadcastUser{userID: userID, event: event}:
	case <-ctx.Done():
	}
}

func (h *Hub) loop() {
	groups := make(map[model.UserID]map[ConnID]chan model.ServerEvent)

	for msg := range h.in {
		switch m := msg.(type) {
		case join:
			connID := newConnID()
			queue := make(chan model.ServerEvent, connQueueSize)
			if groups[m.userID] == nil {
				groups[m.userID] = make(map[ConnID]chan model.ServerEvent)
			}
			groups[m.userID][connID] = queue
			m.reply <- joinReply{
				conn:   &Conn{hub: h, userID: m.userID, connID: connID},
				events: queue,
			}
			h.log.Debug().Stringer("user_id", m.userID).Stringer("conn_id", connID).Msg("connection joined")

		case leave:
			conns, ok := groups[m.userID]
			if !ok {
				continue
			}
			if queue, ok := conns[m.connID]; ok {
				delete(conns, m.connID)
				close(queue)
			}
			if len(conns) == 0 {
				delete(groups, m.userID)
			}

		case broadcastAll:
			for _, conns := range groups {
				for _, queue := range conns {
					deliver(queue, m.event)
				}
			}
			metrics.BroadcastsTotal.WithLabelValues(string(m.event.Type)).Inc()

		case broadcastUser:
			for _, queue := range groups[m.userID] {
				deliver(queue, m.event)
			}
		}
	}
}

func deliver(queue chan model.ServerEvent, event model.ServerEvent) {
	select {
	case queue <- event:
	default:
		metrics.BroadcastDropsTotal.Inc()
	}
}
