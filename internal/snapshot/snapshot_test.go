package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpractice/server/internal/model"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir, zerolog.Nop()), dir
}

func somePost(owner model.UserID) model.Post {
	return model.Post{
		Title:          model.TopicSwing,
		Content:        "bring sticky shoes",
		Level:          model.LevelBeginner2,
		Owner:          owner,
		Date:           time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC),
		PartakingUsers: model.NewUserSet(owner),
	}
}

func TestPostsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, dir := testStore(t)

	owner := model.NewUserID()
	id := model.NewPostID()
	store.SavePosts(ctx, map[model.PostID]model.Post{id: somePost(owner)})

	// Simulate a restart: a fresh actor over the same directory.
	reopened := NewStore(dir, zerolog.Nop())
	got := reopened.RetrievePosts(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, model.TopicSwing, got[id].Title)
	assert.True(t, got[id].PartakingUsers.Has(owner))
	assert.True(t, got[id].Date.Equal(somePost(owner).Date))
}

func TestEmptyCollectionRoundTrips(t *testing.T) {
	ctx := context.Background()
	store, dir := testStore(t)

	store.SaveUsers(ctx, map[model.UserID]model.User{})

	reopened := NewStore(dir, zerolog.Nop())
	got := reopened.RetrieveUsers(ctx)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestColdStartYieldsEmpty(t *testing.T) {
	store, _ := testStore(t)
	assert.Empty(t, store.RetrievePosts(context.Background()))
	assert.Empty(t, store.RetrieveUsers(context.Background()))
}

func TestLegacyUnwrappedFileStillLoads(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	id := model.NewUserID()
	email, err := model.ParseEmail("legacy@example.com")
	require.NoError(t, err)
	user := model.User{ID: id, Email: email}

	// Write the bare collection without the version envelope.
	pair, err := json.Marshal([2]any{id, user})
	require.NoError(t, err)
	legacy := []byte("[" + string(pair) + "]")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), legacy, 0o600))

	store := NewStore(dir, zerolog.Nop())
	got := store.RetrieveUsers(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, email, got[id].Email)
}

func TestSavedFileCarriesVersionEnvelope(t *testing.T) {
	ctx := context.Background()
	store, dir := testStore(t)

	store.SaveUsers(ctx, map[model.UserID]model.User{})
	// A retrieve through the same mailbox proves the save completed.
	store.RetrieveUsers(ctx)

	raw, err := os.ReadFile(filepath.Join(dir, "users.json"))
	require.NoError(t, err)

	var env struct {
		Version string          `json:"version"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, schemaVersion, env.Version)

	// No leftover temp file after the atomic rename.
	_, err = os.Stat(filepath.Join(dir, "users.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestMalformedEntrySkippedNotFatal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	id := model.NewPostID()
	post := somePost(model.NewUserID())
	goodPair, err := json.Marshal([2]any{id, post})
	require.NoError(t, err)

	data := `{"version":"v2025_10_14","data":[["garbage"],` + string(goodPair) + `,[1,2]]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte(data), 0o600))

	store := NewStore(dir, zerolog.Nop())
	got := store.RetrievePosts(ctx)
	require.Len(t, got, 1)
	assert.Equal(t, post.Content, got[id].Content)
}

func TestCorruptFileTreatedAsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posts.json"), []byte("{{{{"), 0o600))

	store := NewStore(dir, zerolog.Nop())
	assert.Empty(t, store.RetrievePosts(context.Background()))
}

func TestNamespaceSanitizedForFilePath(t *testing.T) {
	store := &Store{dir: "/data"}
	assert.Equal(t, "/data/.._etc_passwd.json", store.filePath("../etc/passwd"))
	assert.Equal(t, "/data/posts.json", store.filePath("posts"))
}
