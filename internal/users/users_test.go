package users

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerpractice/server/internal/hub"
	"github.com/peerpractice/server/internal/model"
	"github.com/peerpractice/server/internal/snapshot"
)

func testRegistry(t *testing.T) (*Registry, *snapshot.Store, *hub.Hub, string) {
	t.Helper()
	dir := t.TempDir()
	store := snapshot.NewStore(dir, zerolog.Nop())
	h := hub.NewHub(zerolog.Nop())
	return NewRegistry(store, h, zerolog.Nop()), store, h, dir
}

func mustEmail(t *testing.T, s string) model.Email {
	t.Helper()
	e, err := model.ParseEmail(s)
	require.NoError(t, err)
	return e
}

func TestGetByEmailProvisionsOnFirstSight(t *testing.T) {
	ctx := context.Background()
	registry, _, _, _ := testRegistry(t)
	email := mustEmail(t, "new@example.com")

	id, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)
	assert.False(t, id.IsNil())

	user, ok := registry.GetByID(ctx, id)
	require.True(t, ok)
	assert.Equal(t, email, user.Email)
	assert.Nil(t, user.DisplayName)
}

func TestGetByEmailIdempotent(t *testing.T) {
	ctx := context.Background()
	registry, _, _, _ := testRegistry(t)
	email := mustEmail(t, "repeat@example.com")

	first, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)
	second, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)

	assert.Equal(t, first, second)
}

func TestUpdateChangesEmailMapping(t *testing.T) {
	ctx := context.Background()
	registry, _, _, _ := testRegistry(t)
	oldEmail := mustEmail(t, "old@example.com")
	newEmail := mustEmail(t, "new@example.com")

	id, ok := registry.GetByEmail(ctx, oldEmail)
	require.True(t, ok)

	name := "Dancer"
	registry.Update(ctx, id, model.User{ID: id, Email: newEmail, DisplayName: &name})

	// The new address resolves to the same id.
	resolved, ok := registry.GetByEmail(ctx, newEmail)
	require.True(t, ok)
	assert.Equal(t, id, resolved)

	// The old address no longer maps to this user; looking it up
	// provisions a fresh account instead.
	fresh, ok := registry.GetByEmail(ctx, oldEmail)
	require.True(t, ok)
	assert.NotEqual(t, id, fresh)

	user, ok := registry.GetByID(ctx, id)
	require.True(t, ok)
	require.NotNil(t, user.DisplayName)
	assert.Equal(t, "Dancer", *user.DisplayName)
}

func TestUpdateBroadcastsProfile(t *testing.T) {
	ctx := context.Background()
	registry, _, h, _ := testRegistry(t)

	id, ok := registry.GetByEmail(ctx, mustEmail(t, "seen@example.com"))
	require.True(t, ok)

	_, events, ok := h.Join(ctx, id)
	require.True(t, ok)

	name := "Lead"
	registry.Update(ctx, id, model.User{ID: id, Email: mustEmail(t, "seen@example.com"), DisplayName: &name})

	select {
	case event := <-events:
		assert.Equal(t, model.EventUser, event.Type)
		require.NotNil(t, event.User)
		require.NotNil(t, event.User.DisplayName)
		assert.Equal(t, "Lead", *event.User.DisplayName)
	case <-time.After(2 * time.Second):
		t.Fatal("no profile broadcast")
	}
}

func TestRemoveDropsBothMappings(t *testing.T) {
	ctx := context.Background()
	registry, _, _, _ := testRegistry(t)
	email := mustEmail(t, "gone@example.com")

	id, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)

	registry.Remove(ctx, id)

	_, ok = registry.GetByID(ctx, id)
	assert.False(t, ok)

	// The address now provisions a new user.
	fresh, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)
	assert.NotEqual(t, id, fresh)
}

func TestStartupRestoresSnapshot(t *testing.T) {
	ctx := context.Background()
	registry, store, h, _ := testRegistry(t)
	email := mustEmail(t, "persisted@example.com")

	id, ok := registry.GetByEmail(ctx, email)
	require.True(t, ok)
	// Sync with the storage mailbox so the save has landed.
	store.RetrieveUsers(ctx)

	// A second actor over the same store sees the provisioned user.
	reborn := NewRegistry(store, h, zerolog.Nop())
	resolved, ok := reborn.GetByEmail(ctx, email)
	require.True(t, ok)
	assert.Equal(t, id, resolved)

	user, ok := reborn.GetByID(ctx, id)
	require.True(t, ok)
	assert.Equal(t, email, user.Email)
}
