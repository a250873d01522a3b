package api

import (
	"context"

	"github.com/gorilla/websocket"
	"github.com/microcosm-cc/bluemonday"

	"github.com/peerpractice/server/internal/model"
)

// contentPolicy strips everything from post content that the UI's markdown
// renderer should never see.
var contentPolicy = bluemonday.UGCPolicy()

// session handles commands for one authenticated websocket connection.
// Direct replies (get_user, get_posts) are written from the session's pump
// goroutine, never concurrently with hub events.
type session struct {
	deps   Deps
	ws     *websocket.Conn
	userID model.UserID
}

func (s *session) dispatch(ctx context.Context, cmd model.ClientCommand) {
	log := s.deps.Log.With().
		Stringer("user_id", s.userID).
		Str("command", string(cmd.Type)).
		Logger()
	log.Info().Msg("received client command")

	switch cmd.Type {
	case model.CommandGetUser:
		if cmd.UserID == nil {
			return
		}
		if user, ok := s.deps.Users.GetByID(ctx, *cmd.UserID); ok {
			if err := s.ws.WriteJSON(model.UserEvent(user.ID, user.Display())); err != nil {
				log.Error().Err(err).Msg("error sending user")
			}
		}

	case model.CommandUpdateUser:
		// Users may only edit their own profile.
		if cmd.User == nil || cmd.User.ID != s.userID {
			return
		}
		if user, ok := s.deps.Users.GetByID(ctx, s.userID); ok {
			user.DisplayName = cmd.User.DisplayName
			s.deps.Users.Update(ctx, s.userID, user)
		}

	case model.CommandGetPosts:
		for _, entry := range s.deps.Posts.List(ctx) {
			if err := s.ws.WriteJSON(model.PostEvent(entry.ID, entry.Post)); err != nil {
				return
			}
		}

	case model.CommandJoin:
		if cmd.PostID != nil {
			s.deps.Posts.UserJoins(ctx, *cmd.PostID, s.userID)
		}

	case model.CommandLeave:
		if cmd.PostID != nil {
			s.deps.Posts.UserLeaves(ctx, *cmd.PostID, s.userID)
		}

	case model.CommandUpdatePost:
		// Only the owner may replace a post's content.
		if cmd.PostID == nil || cmd.Post == nil || cmd.Post.Owner != s.userID {
			return
		}
		post := *cmd.Post
		post.Content = contentPolicy.Sanitize(post.Content)
		s.deps.Posts.Upsert(ctx, *cmd.PostID, post)

	case model.CommandNewPost:
		if cmd.Post == nil {
			return
		}
		post := *cmd.Post
		post.Owner = s.userID
		post.Content = contentPolicy.Sanitize(post.Content)
		if post.PartakingUsers == nil {
			post.PartakingUsers = model.NewUserSet()
		}
		post.PartakingUsers.Add(s.userID)
		s.deps.Posts.New(ctx, post)

	case model.CommandDeletePost:
		if cmd.PostID == nil {
			return
		}
		if post, ok := s.deps.Posts.Get(ctx, *cmd.PostID); ok && post.Owner == s.userID {
			s.deps.Posts.Remove(ctx, *cmd.PostID)
		}

	default:
		log.Warn().Msg("unknown client command")
	}
}
