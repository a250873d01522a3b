package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail(t *testing.T) {
	e, err := ParseEmail("Alice@Example.COM")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", e.String())

	_, err = ParseEmail("not-an-address")
	assert.Error(t, err)

	_, err = ParseEmail("")
	assert.Error(t, err)
}

func TestEmailJSONRoundTrip(t *testing.T) {
	e, err := ParseEmail("bob@example.com")
	require.NoError(t, err)

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Equal(t, `"bob@example.com"`, string(raw))

	var back Email
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, e, back)
}

func TestParseTopic(t *testing.T) {
	assert.Equal(t, TopicRockAndGo, ParseTopic("Rock & Go"))
	assert.Equal(t, TopicRockAndGo, ParseTopic("RockAndGo"))
	assert.Equal(t, TopicFootWork, ParseTopic("Footwork"))
	assert.Equal(t, TopicPattern, ParseTopic("Patterns"))
	// Unknown strings fall back to Basics.
	assert.Equal(t, TopicBasics, ParseTopic("Tango"))
}

func TestTopicDisplay(t *testing.T) {
	assert.Equal(t, "Rock & Go", TopicRockAndGo.Display())
	assert.Equal(t, "Footwork", TopicFootWork.Display())
	assert.Equal(t, "Swing", TopicSwing.Display())
}

func TestLevelParseAndDisplay(t *testing.T) {
	for _, level := range AllLevels() {
		assert.Equal(t, level, ParseLevel(level.Display()))
	}
	assert.Equal(t, LevelBeginner1, ParseLevel("advanced"))
}

func TestUserSetJSON(t *testing.T) {
	a, b := NewUserID(), NewUserID()
	set := NewUserSet(a, b)

	raw, err := json.Marshal(set)
	require.NoError(t, err)

	var back UserSet
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Len(t, back, 2)
	assert.True(t, back.Has(a))
	assert.True(t, back.Has(b))
}

func TestPostCloneIsIndependent(t *testing.T) {
	owner := NewUserID()
	post := Post{Title: TopicSwing, Level: LevelClub, Owner: owner, PartakingUsers: NewUserSet(owner)}

	clone := post.Clone()
	clone.PartakingUsers.Add(NewUserID())

	assert.Len(t, post.PartakingUsers, 1)
	assert.Len(t, clone.PartakingUsers, 2)
}

func TestUserIDTextRoundTrip(t *testing.T) {
	id := NewUserID()
	raw, err := id.MarshalText()
	require.NoError(t, err)

	var back UserID
	require.NoError(t, back.UnmarshalText(raw))
	assert.Equal(t, id, back)

	assert.True(t, NilUserID.IsNil())
	assert.False(t, id.IsNil())
}
