package repository

import (
	"context"
	"fmt"

	"github.com/Dmitrij-bot/vinabook/pkg/redis"
)

const redisKeyPrefix = "vinabook:"

// RedisRepository shares the local state between machines. It has no
// outbox, so checkout events are not relayed when it is selected.
type RedisRepository struct {
	db *redis.RedisDB
}

func NewRedisRepository(db *redis.RedisDB) *RedisRepository {
	return &RedisRepository{db: db}
}

func (r *RedisRepository) Get(ctx context.Context, key string) (string, bool, error) {
	v, found, err := r.db.Get(ctx, redisKeyPrefix+key)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return v, found, nil
}

func (r *RedisRepository) Set(ctx context.Context, key, value string) error {
	if err := r.db.Set(ctx, redisKeyPrefix+key, value, 0); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (r *RedisRepository) SetMany(ctx context.Context, values map[string]string) error {
	prefixed := make(map[string]string, len(values))
	for k, v := range values {
		prefixed[redisKeyPrefix+k] = v
	}

	if err := r.db.SetAll(ctx, prefixed); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, 0, len(keys))
	for _, k := range keys {
		prefixed = append(prefixed, redisKeyPrefix+k)
	}

	if err := r.db.Del(ctx, prefixed...); err != nil {
		return fmt.Errorf("failed to delete %v: %w", keys, err)
	}
	return nil
}
