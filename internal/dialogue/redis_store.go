package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "logo-workers/internal/common/errors"
)

const redisKeyPrefix = "dialogue:pending:"

// RedisStore shares pending offers between worker replicas.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*PendingOffer, error) {
	data, err := s.client.Get(ctx, redisKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStoreOperationFailedError("get pending offer", err)
	}

	var offer PendingOffer
	if err := json.Unmarshal(data, &offer); err != nil || !offer.valid() {
		// An unreadable slot is treated as idle and dropped.
		_ = s.client.Del(ctx, redisKey(userID)).Err()
		return nil, nil
	}
	return &offer, nil
}

func (s *RedisStore) Put(ctx context.Context, userID string, offer PendingOffer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return apperrors.NewStoreOperationFailedError("encode pending offer", err)
	}
	if err := s.client.Set(ctx, redisKey(userID), data, s.ttl).Err(); err != nil {
		return apperrors.NewStoreOperationFailedError("put pending offer", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, redisKey(userID)).Err(); err != nil {
		return apperrors.NewStoreOperationFailedError("clear pending offer", err)
	}
	return nil
}
