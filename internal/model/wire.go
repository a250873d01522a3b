package model

// Events pushed to live connections and commands received from them. Both
// directions use a single tagged JSON shape; only the fields relevant to a
// given type are populated.

// EventType tags a server-to-client event.
type EventType string

const (
	EventYouAre      EventType = "you_are"
	EventUser        EventType = "user"
	EventPost        EventType = "post"
	EventRemovedPost EventType = "removed_post"
)

// ServerEvent is one message pushed to a live connection.
type ServerEvent struct {
	Type   EventType    `json:"type"`
	UserID *UserID      `json:"userId,omitempty"`
	User   *UserDisplay `json:"user,omitempty"`
	PostID *PostID      `json:"postId,omitempty"`
	Post   *Post        `json:"post,omitempty"`
}

// YouAreEvent is the identity assertion sent once per connection at join.
func YouAreEvent(id UserID) ServerEvent {
	return ServerEvent{Type: EventYouAre, UserID: &id}
}

// UserEvent announces an updated user profile.
func UserEvent(id UserID, display UserDisplay) ServerEvent {
	return ServerEvent{Type: EventUser, UserID: &id, User: &display}
}

// PostEvent announces a created or updated post in full.
func PostEvent(id PostID, post Post) ServerEvent {
	return ServerEvent{Type: EventPost, PostID: &id, Post: &post}
}

// RemovedPostEvent announces a deleted post by id.
func RemovedPostEvent(id PostID) ServerEvent {
	return ServerEvent{Type: EventRemovedPost, PostID: &id}
}

// CommandType tags a client-to-server command.
type CommandType string

const (
	CommandGetUser    CommandType = "get_user"
	CommandUpdateUser CommandType = "update_user"
	CommandGetPosts   CommandType = "get_posts"
	CommandJoin       CommandType = "join"
	CommandLeave      CommandType = "leave"
	CommandUpdatePost CommandType = "update_post"
	CommandNewPost    CommandType = "new_post"
	CommandDeletePost CommandType = "delete_post"
)

// ClientCommand is one message received from a live connection.
type ClientCommand struct {
	Type   CommandType  `json:"type"`
	UserID *UserID      `json:"userId,omitempty"`
	User   *UserDisplay `json:"user,omitempty"`
	PostID *PostID      `json:"postId,omitempty"`
	Post   *Post        `json:"post,omitempty"`
}
