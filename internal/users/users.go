// Package users owns the identity registry, keyed both by id and by email.
// Every mutation funnels through one actor goroutine, so minting an id for
// a brand-new address can never race another signup for the same address.
package users

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/model"
	"github.com/peerpractice/server/internal/snapshot"
)

const mailboxSize = 64

type message interface{ isMessage() }

type getByEmail struct {
	email model.Email
	reply chan<- idReply
}
type getByID struct {
	id    model.UserID
	reply chan<- userReply
}
type update struct {
	id   model.UserID
	user model.User
}
type remove struct{ id model.UserID }

type idReply struct {
	id model.UserID
	ok bool
}
type userReply struct {
	user model.User
	ok   bool
}

func (getByEmail) isMessage() {}
func (getByID) isMessage()    {}
func (update) isMessage()     {}
func (remove) isMessage()     {}

// Registry is the users actor.
type Registry struct {
	in    chan message
	store *snapshot.Store
	hub   *hub.Hub
	log   zerolog.Logger
}

// NewRegistry spawns the users actor. The snapshot is loaded before the
// first message is served, so reads never observe a partially rebuilt
// registry.
func NewRegistry(store *snapshot.Store, h *hub.Hub, log zerolog.Logger) *Registry {
	r := &Registry{
		in:    make(chan message, mailboxSize),
		store: store,
		hub:   h,
		log:   log.With().Str("actor", "users").Logger(),
	}
	go r.loop()
	return r
}

// GetByEmail resolves an address to its user id, provisioning a fresh user
// on first sight. The bool is false only when the context ended before the
// actor answered.
func (r *Registry) GetByEmail(ctx context.Context, email model.Email) (model.UserID, bool) {
	reply := make(chan idReply, 1)
	select {
	case r.in <- getByEmail{email: email, reply: reply}:
	case <-ctx.Done():
		return model.NilUserID, false
	}
	select {
	case resp := <-reply:
		return resp.id, resp.ok
	case <-ctx.Done():
		return model.NilUserID, false
	}
}

// GetByID returns the user record for an id, if present.
func (r *Registry) GetByID(ctx context.Context, id model.UserID) (model.User, bool) {
	reply := make(chan userReply, 1)
	select {
	case r.in <- getByID{id: id, reply: reply}:
	case <-ctx.Done():
		return model.User{}, false
	}
	select {
	case resp := <-reply:
		return resp.user, resp.ok
	case <-ctx.Done():
		return model.User{}, false
	}
}

// Update replaces the record at id, persists, and broadcasts the updated
// profile. If the email changed, the old address no longer resolves.
func (r *Registry) Update(ctx context.Context, id model.UserID, user model.User) {
	select {
	case r.in <- update{id: id, user: user}:
	case <-ctx.Done():
	}
}

// Remove deletes the user from both mappings and persists.
func (r *Registry) Remove(ctx context.Context, id model.UserID) {
	select {
	case r.in <- remove{id: id}:
	case <-ctx.Done():
	}
}

func (r *Registry) loop() {
	ctx := context.Background()

	idToUser := make(map[model.UserID]model.User)
	emailToID := make(map[model.Email]model.UserID)
	for id, user := range r.store.RetrieveUsers(ctx) {
		idToUser[id] = user
		emailToID[user.Email] = id
		r.log.Debug().Stringer("user_id", id).Str("email", user.Email.String()).Msg("user loaded")
	}

	for msg := range r.in {
		switch m := msg.(type) {
		case getByEmail:
			if id, ok := emailToID[m.email]; ok {
				m.reply <- idReply{id: id, ok: true}
				continue
			}
			id := r.mintID(idToUser, emailToID)
			emailToID[m.email] = id
			idToUser[id] = model.User{ID: id, Email: m.email}
			r.store.SaveUsers(ctx, cloneUsers(idToUser))
			r.log.Info().Stringer("user_id", id).Msg("user provisioned")
			m.reply <- idReply{id: id, ok: true}

		case getByID:
			user, ok := idToUser[m.id]
			m.reply <- userReply{user: user, ok: ok}

		case update:
			if existing, ok := idToUser[m.id]; ok && existing.Email != m.user.Email {
				delete(emailToID, existing.Email)
			}
			idToUser[m.id] = m.user
			emailToID[m.user.Email] = m.id
			r.store.SaveUsers(ctx, cloneUsers(idToUser))
			r.hub.BroadcastAll(ctx, model.UserEvent(m.id, m.user.Display()))

		case remove:
			if removed, ok := idToUser[m.id]; ok {
				delete(idToUser, m.id)
				delete(emailToID, removed.Email)
			}
			r.store.SaveUsers(ctx, cloneUsers(idToUser))
		}
	}
}

// mintID draws random ids until one is free in both mappings.
func (r *Registry) mintID(idToUser map[model.UserID]model.User, emailToID map[model.Email]model.UserID) model.UserID {
	for {
		id := model.NewUserID()
		if _, taken := idToUser[id]; taken {
			continue
		}
		taken := false
		for _, existing := range emailToID {
			if existing == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}
}

// cloneUsers hands the storage actor its own copy so later registry
// mutations cannot race the save.
func cloneUsers(m map[model.UserID]model.User) map[model.UserID]model.User {
	out := make(map[model.UserID]model.User, len(m))
	for id, user := range m {
		out[id] = user
	}
	return out
}
