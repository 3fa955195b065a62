package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/dmitrymomot/soon/pkg/session"
)

func newTestStore(t *testing.T) *session.GormStore {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	store := session.NewGormStore(gdb)
	require.NoError(t, store.Migrate())
	return store
}

func TestGormStore_CreateGet(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sess := session.New("sess-1", "token-1", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	got, err := store.Get(ctx, "token-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	assert.Nil(t, got.UserID)
	assert.False(t, got.IsAuthenticated())
}

func TestGormStore_GetUnknownToken(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestGormStore_GetExpired(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sess := session.New("sess-2", "token-2", time.Now().Add(-time.Minute))
	require.NoError(t, store.Create(ctx, sess))

	_, err := store.Get(ctx, "token-2")
	assert.ErrorIs(t, err, session.ErrExpired)

	// expired rows are reaped on access
	_, err = store.Get(ctx, "token-2")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestGormStore_Update(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	sess := session.New("sess-3", "token-3", time.Now().Add(time.Hour))
	require.NoError(t, store.Create(ctx, sess))

	uid := uint(42)
	sess.UserID = &uid
	sess.Token = "token-3b"
	require.NoError(t, store.Update(ctx, sess))

	got, err := store.Get(ctx, "token-3b")
	require.NoError(t, err)
	require.NotNil(t, got.UserID)
	assert.Equal(t, uint(42), *got.UserID)
	assert.True(t, got.IsAuthenticated())

	_, err = store.Get(ctx, "token-3")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestGormStore_DeleteExpired(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	live := session.New("live", "token-live", time.Now().Add(time.Hour))
	dead := session.New("dead", "token-dead", time.Now().Add(-time.Hour))
	require.NoError(t, store.Create(ctx, live))
	require.NoError(t, store.Create(ctx, dead))

	require.NoError(t, store.DeleteExpired(ctx))

	_, err := store.Get(ctx, "token-live")
	assert.NoError(t, err)
}
