package model

import "github.com/google/uuid"

// UserID uniquely identifies a user account.
type UserID struct {
	id uuid.UUID
}

// NewUserID returns a fresh random user id.
func NewUserID() UserID { return UserID{id: uuid.New()} }

// NilUserID is the zero user id. It never identifies a real user.
var NilUserID = UserID{}

func (u UserID) IsNil() bool    { return u.id == uuid.Nil }
func (u UserID) String() string { return u.id.String() }

func (u UserID) MarshalText() ([]byte, error) { return []byte(u.id.String()), nil }

func (u *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	u.id = parsed
	return nil
}

// PostID uniquely identifies a practice post.
type PostID struct {
	id uuid.UUID
}

// NewPostID returns a fresh random post id.
func NewPostID() PostID { return PostID{id: uuid.New()} }

// NilPostID is the zero post id.
var NilPostID = PostID{}

func (p PostID) IsNil() bool    { return p.id == uuid.Nil }
func (p PostID) String() string { return p.id.String() }

func (p PostID) MarshalText() ([]byte, error) { return []byte(p.id.String()), nil }

func (p *PostID) UnmarshalText(b []byte) error {
	parsed, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	p.id = parsed
	return nil
}

// ParseUserID parses the canonical string form of a user id.
func ParseUserID(s string) (UserID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilUserID, err
	}
	return UserID{id: parsed}, nil
}

// ParsePostID parses the canonical string form of a post id.
func ParsePostID(s string) (PostID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return NilPostID, err
	}
	return PostID{id: parsed}, nil
}
