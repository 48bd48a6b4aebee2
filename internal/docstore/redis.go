package docstore

import (
	"context"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"
)

// RedisSlot keeps the value under one Redis key.
type RedisSlot struct {
	client *redis.Client
	key    string
}

// NewRedisSlot connects to redisURL and verifies the connection with PING.
func NewRedisSlot(ctx context.Context, redisURL, key string) (*RedisSlot, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	c := redis.NewClient(opt)
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisSlot{client: c, key: key}, nil
}

func (r *RedisSlot) Load(ctx context.Context) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", r.key, err)
	}
	return v, true, nil
}

func (r *RedisSlot) Save(ctx context.Context, value string) error {
	if err := r.client.Set(ctx, r.key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}

func (r *RedisSlot) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", r.key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (r *RedisSlot) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *RedisSlot) Close() error { return r.client.Close() }
