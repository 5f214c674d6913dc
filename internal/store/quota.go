// Package store holds the persistence adapters behind the conversation
// pipeline: daily generation quota, chat history and the archive of
// confirmed reference selections.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "logo-workers/internal/common/errors"
	"logo-workers/internal/common/metrics"
	"logo-workers/internal/models"
)

const (
	quotaKeyPrefix = "quota:"
	// ProUsersKey is the set of user IDs without a daily limit.
	ProUsersKey = "quota:pro_users"

	// Counters outlive their day so a late request never recreates one.
	quotaKeyTTL = 48 * time.Hour
)

// RedisQuotaStore counts generations per user per UTC day.
type RedisQuotaStore struct {
	client *redis.Client
	limit  int
	now    func() time.Time
}

func NewRedisQuotaStore(client *redis.Client, dailyLimit int) *RedisQuotaStore {
	return &RedisQuotaStore{client: client, limit: dailyLimit, now: time.Now}
}

func (s *RedisQuotaStore) key(userID string) string {
	return fmt.Sprintf("%s%s:%s", quotaKeyPrefix, userID, s.now().UTC().Format("2006-01-02"))
}

// CheckAndConsume takes one generation from today's allowance. A refused
// request does not count against the user.
func (s *RedisQuotaStore) CheckAndConsume(ctx context.Context, userID string) (models.QuotaDecision, error) {
	pro, err := s.client.SIsMember(ctx, ProUsersKey, userID).Result()
	if err != nil {
		return models.QuotaDecision{}, apperrors.NewStoreOperationFailedError("check plan", err)
	}
	if pro {
		metrics.QuotaDecisions.WithLabelValues("unlimited").Inc()
		return models.QuotaDecision{Allowed: true, Limit: s.limit}, nil
	}

	key := s.key(userID)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return models.QuotaDecision{}, apperrors.NewStoreOperationFailedError("consume quota", err)
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, quotaKeyTTL).Err(); err != nil {
			return models.QuotaDecision{}, apperrors.NewStoreOperationFailedError("expire quota", err)
		}
	}

	if int(count) > s.limit {
		if err := s.client.Decr(ctx, key).Err(); err != nil {
			return models.QuotaDecision{}, apperrors.NewStoreOperationFailedError("release quota", err)
		}
		metrics.QuotaDecisions.WithLabelValues("refused").Inc()
		zero := 0
		return models.QuotaDecision{Allowed: false, Remaining: &zero, Limit: s.limit}, nil
	}

	remaining := s.limit - int(count)
	metrics.QuotaDecisions.WithLabelValues("allowed").Inc()
	return models.QuotaDecision{Allowed: true, Remaining: &remaining, Limit: s.limit}, nil
}
