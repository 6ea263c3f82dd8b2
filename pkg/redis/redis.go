package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Config struct {
	Host     string `json:"host" yaml:"host" env:"VINABOOK_REDIS_HOST"`
	Port     string `json:"port" yaml:"port" env:"VINABOOK_REDIS_PORT"`
	Password string `json:"password" yaml:"password" env:"VINABOOK_REDIS_PASSWORD"`
	DB       int    `json:"db" yaml:"db" env:"VINABOOK_REDIS_DB"`
}

type RedisDB struct {
	Client *redis.Client
	cfg    Config
}

func NewRedisDB(config Config) *RedisDB {
	return &RedisDB{cfg: config}
}

func (r *RedisDB) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%s",
		r.cfg.Host,
		r.cfg.Port,
	)

	r.Client = redis.NewClient(&redis.Options{
		Addr:     address,
		Password: r.cfg.Password,
		DB:       r.cfg.DB,
	})

	if _, err := r.Client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping redis at %s: %w", address, err)
	}

	return nil
}

func (r *RedisDB) Stop(ctx context.Context) error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *RedisDB) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return r.Client.Set(ctx, key, value, expiration).Err()
}

// Get reports a missing key as found == false rather than an error.
func (r *RedisDB) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisDB) Del(ctx context.Context, keys ...string) error {
	return r.Client.Del(ctx, keys...).Err()
}

// SetAll writes every pair inside one MULTI/EXEC block.
func (r *RedisDB) SetAll(ctx context.Context, values map[string]string) error {
	_, err := r.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, k, v, 0)
		}
		return nil
	})
	return err
}
