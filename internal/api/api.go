// Package api is the transport layer: HTTP routes, the login flow, and the
// websocket session pump. It is a thin translation layer over the actors;
// all authorization checks (post ownership, self-only profile edits) live
// here because the actors trust their callers.
package api

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/config"
	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/model"
	"github.com/peerpractice/server/internal/posts"
)

// Users is the slice of the users actor the transport needs.
type Users interface {
	GetByEmail(ctx context.Context, email model.Email) (model.UserID, bool)
	GetByID(ctx context.Context, id model.UserID) (model.User, bool)
	Update(ctx context.Context, id model.UserID, user model.User)
}

// Posts is the slice of the posts actor the transport needs.
type Posts interface {
	New(ctx context.Context, post model.Post) (model.PostID, bool)
	Upsert(ctx context.Context, id model.PostID, post model.Post)
	UserJoins(ctx context.Context, id model.PostID, userID model.UserID)
	UserLeaves(ctx context.Context, id model.PostID, userID model.UserID)
	Remove(ctx context.Context, id model.PostID)
	Get(ctx context.Context, id model.PostID) (model.Post, bool)
	List(ctx context.Context) []posts.Entry
}

// PendingLogins is the slice of the pending-logins actor the transport needs.
type PendingLogins interface {
	Upsert(ctx context.Context, address model.Email, code uint32)
	GetByAddress(ctx context.Context, address model.Email) (uint32, bool)
	Remove(ctx context.Context, address model.Email)
}

// LoginMailer sends one-time login codes.
type LoginMailer interface {
	SendLoginMail(ctx context.Context, target model.Email, code uint32) <-chan error
}

// ConnectionHub registers live connections.
type ConnectionHub interface {
	Join(ctx context.Context, userID model.UserID) (*hub.Conn, <-chan model.ServerEvent, bool)
}

// Health reports whether the service can do useful work.
type Health interface {
	IsHealthy() bool
}

// Deps bundles everything the handlers need.
type Deps struct {
	Users   Users
	Posts   Posts
	Pending PendingLogins
	Mailer  LoginMailer
	Hub     ConnectionHub
	Health  Health
	Config  *config.Config
	Log     zerolog.Logger
}
