package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/inkpress/inkpress/internal/config"
)

// RedisClient is a read-through cache for article responses. Keys are
// namespaced under the configured prefix; mutations invalidate by prefix
// scan so list pages never serve stale pages.
type RedisClient struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisClient(cfg *config.Config) (*RedisClient, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	// Test the connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		prefix: cfg.RedisPrefix,
		ttl:    cfg.CacheTTL,
	}, nil
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Get returns the cached payload for key, if present.
func (r *RedisClient) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get error: %w", err)
	}
	return data, true, nil
}

// Set stores the payload under key with the configured TTL.
func (r *RedisClient) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, r.ttl).Err()
}

// Invalidate deletes every cached entry whose key starts with the given
// prefix (below the client's namespace).
func (r *RedisClient) Invalidate(ctx context.Context, keyPrefix string) error {
	iter := r.client.Scan(ctx, 0, r.prefix+keyPrefix+"*", 0).Iterator()
	var keys []string

	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("error scanning keys: %w", err)
	}

	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("error deleting keys: %w", err)
		}
	}

	return nil
}
