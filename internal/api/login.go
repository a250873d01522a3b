package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/peerpractice/server/internal/api/respond"
	"github.com/peerpractice/server/internal/auth"
	"github.com/peerpractice/server/internal/metrics"
	"github.com/peerpractice/server/internal/model"
)

type loginHandler struct {
	deps    Deps
	limiter *rate.Limiter
}

func newLoginHandler(deps Deps) *loginHandler {
	perMinute := deps.Config.LoginRatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &loginHandler{
		deps:    deps,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
	}
}

type loginRequest struct {
	Email string `json:"email"`
}

type pinRequest struct {
	ID  model.UserID `json:"id"`
	PIN string       `json:"pin"`
}

// RequestPIN looks up (or provisions) the user for the submitted address,
// stores a fresh 6-digit code, and emails it. Replies with the user id so
// the client can reference it in the PIN step.
func (h *loginHandler) RequestPIN(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		respond.WriteTooManyRequests(w, "too many login requests")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid request body")
		return
	}
	email, err := model.ParseEmail(req.Email)
	if err != nil {
		respond.WriteBadRequest(w, "invalid email address")
		return
	}

	ctx := r.Context()
	metrics.LoginRequestsTotal.Inc()

	userID, ok := h.deps.Users.GetByEmail(ctx, email)
	if !ok {
		respond.WriteInternalError(w, "user lookup failed")
		return
	}

	pin := uint32(rand.Intn(900_000) + 100_000)
	h.deps.Pending.Upsert(ctx, email, pin)

	// The send outcome lands on the reply channel; the mailer actor already
	// logs failures, and the client cannot act on them anyway.
	_ = h.deps.Mailer.SendLoginMail(ctx, email, pin)

	h.deps.Log.Info().Stringer("user_id", userID).Msg("login code issued")
	respond.WriteJSON(w, http.StatusOK, userID)
}

// VerifyPIN checks the submitted code against the pending entry for the
// user's address and issues the access-token cookie on success.
func (h *loginHandler) VerifyPIN(w http.ResponseWriter, r *http.Request) {
	var req pinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "invalid request body")
		return
	}

	ctx := r.Context()

	user, ok := h.deps.Users.GetByID(ctx, req.ID)
	if !ok {
		respond.WriteUnauthorized(w, "unknown user")
		return
	}

	stored, ok := h.deps.Pending.GetByAddress(ctx, user.Email)
	if !ok {
		respond.WriteUnauthorized(w, "no valid code")
		return
	}

	provided, err := strconv.ParseUint(req.PIN, 10, 32)
	if err != nil || uint32(provided) != stored {
		respond.WriteUnauthorized(w, "wrong code")
		return
	}

	token, err := auth.NewToken(h.deps.Config.JWTSecret, req.ID)
	if err != nil {
		h.deps.Log.Error().Err(err).Msg("token signing failed")
		respond.WriteInternalError(w, "could not issue token")
		return
	}

	http.SetCookie(w, auth.NewCookie(token))
	h.deps.Log.Info().Stringer("user_id", req.ID).Msg("login completed")
	respond.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
