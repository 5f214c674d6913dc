package dialogue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "logo-workers/internal/common/errors"
)

// ==========================
// Test Helper Functions
// ==========================

func setupRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

// storeContract runs the behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	ctx := context.Background()

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	preview := *previewOffer()
	require.NoError(t, store.Put(ctx, "alice", preview))

	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, preview.ID, got.ID)
	assert.Equal(t, StateAwaitingGenerationConfirmation, got.State())
	assert.Equal(t, preview.Preview.FinalPrompt, got.Preview.FinalPrompt)

	selection := *selectionOffer(3)
	require.NoError(t, store.Put(ctx, "alice", selection))

	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, StateAwaitingSearchSelection, got.State())
	assert.Nil(t, got.Preview)
	assert.Len(t, got.Selection.Results, 3)

	other, err := store.Get(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, store.Clear(ctx, "alice"))
	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Clear(ctx, "nobody"))
}

// ==========================
// Memory Store Tests
// ==========================

func TestMemoryStore_Contract(t *testing.T) {
	storeContract(t, NewMemoryStore(0))
}

func TestMemoryStore_TTL(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(10 * time.Minute)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alice", *previewOffer()))
	require.NoError(t, store.Put(ctx, "bob", *previewOffer()))

	now = now.Add(9 * time.Minute)
	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, got)

	now = now.Add(time.Minute)
	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, store.Len())
}

// ==========================
// Redis Store Tests
// ==========================

func TestRedisStore_Contract(t *testing.T) {
	client, _ := setupRedis(t)
	storeContract(t, NewRedisStore(client, time.Hour))
}

func TestRedisStore_TTLAndKey(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisStore(client, 30*time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alice", *selectionOffer(2)))
	assert.True(t, mr.Exists("dialogue:pending:alice"))
	assert.Equal(t, 30*time.Minute, mr.TTL("dialogue:pending:alice"))

	mr.FastForward(31 * time.Minute)
	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRedisStore_CorruptEntryIsDropped(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisStore(client, time.Hour)

	require.NoError(t, mr.Set("dialogue:pending:alice", `{"kind": "search_selection"}`))

	got, err := store.Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, mr.Exists("dialogue:pending:alice"))
}

func TestRedisStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	mock.ExpectGet("dialogue:pending:alice").SetErr(errors.New("connection refused"))
	_, err := store.Get(ctx, "alice")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreOperationFailed))

	mock.ExpectDel("dialogue:pending:alice").SetErr(errors.New("connection refused"))
	err = store.Clear(ctx, "alice")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreOperationFailed))

	assert.NoError(t, mock.ExpectationsWereMet())
}
