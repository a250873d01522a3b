package posts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/model"
	"github.com/peerpractice/server/internal/snapshot"
)

func testRegistry(t *testing.T) (*Registry, *snapshot.Store, *hub.Hub) {
	t.Helper()
	store := snapshot.NewStore(t.TempDir(), zerolog.Nop())
	h := hub.NewHub(zerolog.Nop())
	return NewRegistry(store, h, zerolog.Nop()), store, h
}

func practicePost(owner model.UserID, date time.Time) model.Post {
	return model.Post{
		Title:          model.TopicConnection,
		Content:        "focus on frame",
		Level:          model.LevelBeginner3,
		Owner:          owner,
		Date:           date,
		PartakingUsers: model.NewUserSet(owner),
	}
}

func recvEvent(t *testing.T, events <-chan model.ServerEvent) model.ServerEvent {
	t.Helper()
	select {
	case event, ok := <-events:
		require.True(t, ok, "event channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return model.ServerEvent{}
	}
}

func TestNewAllocatesFreshID(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)
	owner := model.NewUserID()

	first, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)
	second, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	assert.NotEqual(t, first, second)
	assert.False(t, first.IsNil())
}

func TestGetReturnsInsertedPost(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)
	owner := model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	post, ok := registry.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, model.TopicConnection, post.Title)
	assert.Equal(t, owner, post.Owner)

	_, ok = registry.Get(ctx, model.NewPostID())
	assert.False(t, ok)
}

func TestJoinAndLeaveEditRoster(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)
	owner, guest := model.NewUserID(), model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	registry.UserJoins(ctx, id, guest)
	post, ok := registry.Get(ctx, id)
	require.True(t, ok)
	assert.True(t, post.PartakingUsers.Has(owner))
	assert.True(t, post.PartakingUsers.Has(guest))
	assert.Len(t, post.PartakingUsers, 2)

	registry.UserLeaves(ctx, id, guest)
	post, ok = registry.Get(ctx, id)
	require.True(t, ok)
	assert.False(t, post.PartakingUsers.Has(guest))
}

func TestJoinOnUnknownPostIsNoop(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)

	registry.UserJoins(ctx, model.NewPostID(), model.NewUserID())
	registry.UserLeaves(ctx, model.NewPostID(), model.NewUserID())

	assert.Empty(t, registry.List(ctx))
}

func TestJoinBroadcastsUpdatedPostExactlyOnce(t *testing.T) {
	ctx := context.Background()
	registry, _, h := testRegistry(t)
	owner, guest := model.NewUserID(), model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	_, events, ok := h.Join(ctx, guest)
	require.True(t, ok)

	registry.UserJoins(ctx, id, guest)

	event := recvEvent(t, events)
	assert.Equal(t, model.EventPost, event.Type)
	require.NotNil(t, event.Post)
	assert.True(t, event.Post.PartakingUsers.Has(owner))
	assert.True(t, event.Post.PartakingUsers.Has(guest))

	// Exactly once: nothing else arrives.
	select {
	case extra := <-events:
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRemoveBroadcastsRemoval(t *testing.T) {
	ctx := context.Background()
	registry, _, h := testRegistry(t)
	owner := model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	_, events, ok := h.Join(ctx, owner)
	require.True(t, ok)

	registry.Remove(ctx, id)

	event := recvEvent(t, events)
	assert.Equal(t, model.EventRemovedPost, event.Type)
	require.NotNil(t, event.PostID)
	assert.Equal(t, id, *event.PostID)

	_, ok = registry.Get(ctx, id)
	assert.False(t, ok)
}

func TestUpsertReplacesPost(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)
	owner := model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)

	replacement := practicePost(owner, time.Now())
	replacement.Title = model.TopicBlues
	replacement.Content = "slow it down"
	registry.Upsert(ctx, id, replacement)

	post, ok := registry.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, model.TopicBlues, post.Title)
	assert.Equal(t, "slow it down", post.Content)
}

func TestStartupRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	registry, store, h := testRegistry(t)
	owner := model.NewUserID()

	id, ok := registry.New(ctx, practicePost(owner, time.Now()))
	require.True(t, ok)
	// Sync with the storage mailbox so the save has landed.
	store.RetrievePosts(ctx)

	reborn := NewRegistry(store, h, zerolog.Nop())
	post, ok := reborn.Get(ctx, id)
	require.True(t, ok)
	assert.Equal(t, owner, post.Owner)
}

func TestStartupNormalizesRosterlessSnapshotEntry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	id := model.NewPostID()
	owner := model.NewUserID()

	// Pre-roster snapshots carry posts without a partakingUsers field.
	raw := fmt.Sprintf(`[[%q,{"title":"Basics","content":"","level":"Beginner1","owner":%q,"date":"2026-01-01T10:00:00Z"}]]`, id, owner)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte(raw), 0o600))

	store := snapshot.NewStore(dir, zerolog.Nop())
	registry := NewRegistry(store, hub.NewHub(zerolog.Nop()), zerolog.Nop())

	guest := model.NewUserID()
	registry.UserJoins(ctx, id, guest)

	post, ok := registry.Get(ctx, id)
	require.True(t, ok)
	assert.True(t, post.PartakingUsers.Has(guest))

	registry.UserLeaves(ctx, id, guest)
	post, ok = registry.Get(ctx, id)
	require.True(t, ok)
	assert.False(t, post.PartakingUsers.Has(guest))
}

func TestListReturnsAllPosts(t *testing.T) {
	ctx := context.Background()
	registry, _, _ := testRegistry(t)
	owner := model.NewUserID()

	seen := map[model.PostID]bool{}
	for i := 0; i < 3; i++ {
		id, ok := registry.New(ctx, practicePost(owner, time.Now()))
		require.True(t, ok)
		seen[id] = false
	}

	entries := registry.List(ctx)
	require.Len(t, entries, 3)
	for _, entry := range entries {
		_, known := seen[entry.ID]
		assert.True(t, known)
	}
}
