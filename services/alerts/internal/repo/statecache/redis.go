package statecache

import (
	"context"
	"errors"
	"fmt"

	"pocketledger/services/alerts/internal/entity"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "balance_state:"

// RedisStore keeps balance states across process restarts. States are tiny
// and overwritten on every transition, so no expiry is set.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (entity.BalanceState, bool, error) {
	value, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get balance state: %w", err)
	}
	return entity.BalanceState(value), true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, state entity.BalanceState) error {
	if err := s.client.Set(ctx, redisKeyPrefix+key, string(state), 0).Err(); err != nil {
		return fmt.Errorf("failed to set balance state: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to clear balance state: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearPrefix(ctx context.Context, prefix string) error {
	return s.clearPattern(ctx, redisKeyPrefix+prefix+"*")
}

func (s *RedisStore) ClearAll(ctx context.Context) error {
	return s.clearPattern(ctx, redisKeyPrefix+"*")
}

func (s *RedisStore) clearPattern(ctx context.Context, pattern string) error {
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to clear balance state %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan balance states: %w", err)
	}
	return nil
}
