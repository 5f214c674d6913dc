package store

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

func fixedClock(at time.Time) (func() time.Time, func(time.Duration)) {
	now := at
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

// ==========================
// Quota Tests
// ==========================

func TestRedisQuotaStore_DailyLimit(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisQuotaStore(client, 2)
	now, advance := fixedClock(time.Date(2026, 5, 4, 22, 0, 0, 0, time.UTC))
	store.now = now
	ctx := context.Background()

	first, err := store.CheckAndConsume(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	require.NotNil(t, first.Remaining)
	assert.Equal(t, 1, *first.Remaining)

	second, err := store.CheckAndConsume(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, second.Allowed)
	assert.Equal(t, 0, *second.Remaining)

	third, err := store.CheckAndConsume(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, third.Allowed)
	assert.Equal(t, 0, *third.Remaining)
	assert.Equal(t, 2, third.Limit)

	count, err := mr.Get("quota:alice:2026-05-04")
	require.NoError(t, err)
	assert.Equal(t, "2", count, "refusals are not counted")
	assert.Equal(t, 48*time.Hour, mr.TTL("quota:alice:2026-05-04"))

	other, err := store.CheckAndConsume(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	advance(3 * time.Hour)
	nextDay, err := store.CheckAndConsume(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, nextDay.Allowed)
	assert.Equal(t, 1, *nextDay.Remaining)
}

func TestRedisQuotaStore_ProUsersAreUnlimited(t *testing.T) {
	client, mr := setupRedis(t)
	store := NewRedisQuotaStore(client, 1)
	_, err := mr.SAdd(ProUsersKey, "carol")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		decision, err := store.CheckAndConsume(context.Background(), "carol")
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
		assert.Nil(t, decision.Remaining)
	}
}

func TestRedisQuotaStore_Commands(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisQuotaStore(client, 5)
	now, _ := fixedClock(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))
	store.now = now
	key := "quota:alice:2026-01-02"

	mock.ExpectSIsMember(ProUsersKey, "alice").SetVal(false)
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, 48*time.Hour).SetVal(true)

	decision, err := store.CheckAndConsume(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 4, *decision.Remaining)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisQuotaStore_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewRedisQuotaStore(client, 5)
	now, _ := fixedClock(time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC))
	store.now = now

	mock.ExpectSIsMember(ProUsersKey, "alice").SetVal(false)
	mock.ExpectIncr("quota:alice:2026-01-02").SetErr(errors.New("connection reset"))

	_, err := store.CheckAndConsume(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStoreOperationFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}
