// Package posts owns the practice-post registry. Every mutation applies in
// memory first, then broadcasts the result to live connections, then
// persists the full registry snapshot.
package posts

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/model"
	"github.com/peerpractice/server/internal/snapshot"
)

const mailboxSize = 100

// Entry pairs a post with its id for listings.
type Entry struct {
	ID   model.PostID
	Post model.Post
}

type message interface{ isMessage() }

type newPost struct {
	post  model.Post
	reply chan<- model.PostID
}
type upsert struct {
	id   model.PostID
	post model.Post
}
type userJoins struct {
	id     model.PostID
	userID model.UserID
}
type userLeaves struct {
	id     model.PostID
	userID model.UserID
}
type remove struct{ id model.PostID }
type get struct {
	id    model.PostID
	reply chan<- getReply
}
type list struct {
	reply chan<- []Entry
}

type getReply struct {
	post model.Post
	ok   bool
}

func (newPost) isMessage()    {}
func (upsert) isMessage()     {}
func (userJoins) isMessage()  {}
func (userLeaves) isMessage() {}
func (remove) isMessage()     {}
func (get) isMessage()        {}
func (list) isMessage()       {}

// Registry is the posts actor.
type Registry struct {
	in    chan message
	store *snapshot.Store
	hub   *hub.Hub
	log   zerolog.Logger
}

// NewRegistry spawns the posts actor. Like the users actor it rebuilds its
// state from the snapshot before serving the first message.
func NewRegistry(store *snapshot.Store, h *hub.Hub, log zerolog.Logger) *Registry {
	r := &Registry{
		in:    make(chan message, mailboxSize),
		store: store,
		hub:   h,
		log:   log.With().Str("actor", "posts").Logger(),
	}
	go r.loop()
	return r
}

// New inserts the post under a freshly allocated id and returns that id.
// Any id the caller may have carried is ignored. The bool is false only
// when the context ended before the actor answered.
func (r *Registry) New(ctx context.Context, post model.Post) (model.PostID, bool) {
	reply := make(chan model.PostID, 1)
	select {
	case r.in <- newPost{post: post, reply: reply}:
	case <-ctx.Done():
		return model.NilPostID, false
	}
	select {
	case id := <-reply:
		return id, true
	case <-ctx.Done():
		return model.NilPostID, false
	}
}

// Upsert fully replaces the post at id. Ownership is enforced by the
// caller; the actor trusts it.
func (r *Registry) Upsert(ctx context.Context, id model.PostID, post model.Post) {
	select {
	case r.in <- upsert{id: id, post: post}:
	case <-ctx.Done():
	}
}

// UserJoins adds the user to the post's roster. Unknown ids are a silent
// no-op.
func (r *Registry) UserJoins(ctx context.Context, id model.PostID, userID model.UserID) {
	select {
	case r.in <- userJoins{id: id, userID: userID}:
	case <-ctx.Done():
	}
}

// UserLeaves removes the user from the post's roster. Unknown ids are a
// silent no-op.
func (r *Registry) UserLeaves(ctx context.Context, id model.PostID, userID model.UserID) {
	select {
	case r.in <- userLeaves{id: id, userID: userID}:
	case <-ctx.Done():
	}
}

// Remove deletes the post and announces the removal.
func (r *Registry) Remove(ctx context.Context, id model.PostID) {
	select {
	case r.in <- remove{id: id}:
	case <-ctx.Done():
	}
}

// Get returns the post at id, if present.
func (r *Registry) Get(ctx context.Context, id model.PostID) (model.Post, bool) {
	reply := make(chan getReply, 1)
	select {
	case r.in <- get{id: id, reply: reply}:
	case <-ctx.Done():
		return model.Post{}, false
	}
	select {
	case resp := <-reply:
		return resp.post, resp.ok
	case <-ctx.Done():
		return model.Post{}, false
	}
}

// List returns every post with its id, in no particular order.
func (r *Registry) List(ctx context.Context) []Entry {
	reply := make(chan []Entry, 1)
	select {
	case r.in <- list{reply: reply}:
	case <-ctx.Done():
		return nil
	}
	select {
	case entries := <-reply:
		return entries
	case <-ctx.Done():
		return nil
	}
}

func (r *Registry) loop() {
	ctx := context.Background()

	posts := make(map[model.PostID]model.Post)
	for id, post := range r.store.RetrievePosts(ctx) {
		// Old snapshots may omit the roster field entirely.
		if post.PartakingUsers == nil {
			post.PartakingUsers = model.NewUserSet()
		}
		posts[id] = post
	}

	for msg := range r.in {
		switch m := msg.(type) {
		case newPost:
			id := model.NewPostID()
			if m.post.PartakingUsers == nil {
				m.post.PartakingUsers = model.NewUserSet()
			}
			posts[id] = m.post
			r.hub.BroadcastAll(ctx, model.PostEvent(id, m.post.Clone()))
			r.store.SavePosts(ctx, clonePosts(posts))
			r.log.Info().Stringer("post_id", id).Stringer("owner", m.post.Owner).Msg("post created")
			m.reply <- id

		case upsert:
			if m.post.PartakingUsers == nil {
				m.post.PartakingUsers = model.NewUserSet()
			}
			posts[m.id] = m.post
			r.hub.BroadcastAll(ctx, model.PostEvent(m.id, m.post.Clone()))
			r.store.SavePosts(ctx, clonePosts(posts))

		case userJoins:
			post, ok := posts[m.id]
			if !ok {
				continue
			}
			post.PartakingUsers.Add(m.userID)
			r.hub.BroadcastAll(ctx, model.PostEvent(m.id, post.Clone()))
			r.store.SavePosts(ctx, clonePosts(posts))

		case userLeaves:
			post, ok := posts[m.id]
			if !ok {
				continue
			}
			post.PartakingUsers.Remove(m.userID)
			r.hub.BroadcastAll(ctx, model.PostEvent(m.id, post.Clone()))
			r.store.SavePosts(ctx, clonePosts(posts))

		case remove:
			delete(posts, m.id)
			r.hub.BroadcastAll(ctx, model.RemovedPostEvent(m.id))
			r.store.SavePosts(ctx, clonePosts(posts))

		case get:
			post, ok := posts[m.id]
			if ok {
				post = post.Clone()
			}
			m.reply <- getReply{post: post, ok: ok}

		case list:
			entries := make([]Entry, 0, len(posts))
			for id, post := range posts {
				entries = append(entries, Entry{ID: id, Post: post.Clone()})
			}
			m.reply <- entries
		}
	}
}

// clonePosts deep-copies the registry for the storage actor so roster edits
// after the save message cannot race serialization.
func clonePosts(m map[model.PostID]model.Post) map[model.PostID]model.Post {
	out := make(map[model.PostID]model.Post, len(m))
	for id, post := range m {
		out[id] = post.Clone()
	}
	return out
}
