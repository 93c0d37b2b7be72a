package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	store, err := NewRedisStore("redis://" + mr.Addr())
	require.NoError(t, err)

	return store, mr
}

func TestRedisStore_SaveAndGet(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	err := store.Save(ctx, "session-1", "user-1", 1*time.Hour)
	require.NoError(t, err)

	userID, err := store.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestRedisStore_GetUnknownSession(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	_, err := store.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SessionExpires(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", "user-1", 1*time.Hour))

	mr.FastForward(61 * time.Minute)

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Delete(t *testing.T) {
	store, mr := setupTestStore(t)
	defer mr.Close()
	defer store.Close()

	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", "user-1", 1*time.Hour))
	require.NoError(t, store.Delete(ctx, "session-1"))

	_, err := store.Get(ctx, "session-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
