package model

import (
	"encoding/json"
	"sort"
	"time"
)

// Post is a scheduled practice event with a participant roster.
type Post struct {
	Title          Topic     `json:"title"`
	Content        string    `json:"content"`
	Level          Level     `json:"level"`
	Owner          UserID    `json:"owner"`
	Date           time.Time `json:"date"`
	PartakingUsers UserSet   `json:"partakingUsers"`
}

// Clone returns a deep copy. The roster set is the only reference field.
func (p Post) Clone() Post {
	p.PartakingUsers = p.PartakingUsers.Clone()
	return p
}

// UserSet is an unordered set of user ids, serialized as a JSON array.
type UserSet map[UserID]struct{}

// NewUserSet builds a set from the given ids.
func NewUserSet(ids ...UserID) UserSet {
	s := make(UserSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s UserSet) Has(id UserID) bool {
	_, ok := s[id]
	return ok
}

func (s UserSet) Add(id UserID)    { s[id] = struct{}{} }
func (s UserSet) Remove(id UserID) { delete(s, id) }

// Clone returns an independent copy of the set.
func (s UserSet) Clone() UserSet {
	out := make(UserSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array for stable snapshots.
func (s UserSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

func (s *UserSet) UnmarshalJSON(b []byte) error {
	var ids []UserID
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	out := make(UserSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	*s = out
	return nil
}
