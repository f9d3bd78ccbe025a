package adapter

import (
	"context"
	"errors"
	"time"

	"quizbook/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisKVAdapter implements the domain.KeyValueStore interface using a Redis client.
type RedisKVAdapter struct {
	client *redis.Client
}

// NewRedisKVAdapter creates a new instance of RedisKVAdapter.
// It expects a connected *redis.Client.
func NewRedisKVAdapter(client *redis.Client) domain.KeyValueStore {
	return &RedisKVAdapter{client: client}
}

// Get retrieves a value from Redis.
// It translates redis.Nil to domain.ErrKeyNotFound.
func (r *RedisKVAdapter) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrKeyNotFound
		}
		return "", err
	}
	return val, nil
}

// Set stores a value in Redis.
func (r *RedisKVAdapter) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	return r.client.Set(ctx, key, value, expiration).Err()
}

// Delete removes a value from Redis.
func (r *RedisKVAdapter) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Ping checks the health of the Redis server.
func (r *RedisKVAdapter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
