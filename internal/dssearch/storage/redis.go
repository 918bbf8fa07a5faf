// Package storage holds the concrete driver adapters shared across
// DS-Search components (Redis, Spanner, Supabase), so that cache, policy
// and the orchestrator each depend only on the narrow interface they
// need — patterned on internal/fabric.RedisClient.
package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter wraps *redis.Client to satisfy the small client interfaces
// declared by the cache (RedisClient) and policy (DistributedCounter)
// packages.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter constructs a client from an address and DB index. Pass
// an empty addr to signal "no Redis configured" — callers should check
// for that before constructing the adapter and pass nil instead.
func NewRedisAdapter(addr string, db int) *RedisAdapter {
	return &RedisAdapter{client: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}

func (r *RedisAdapter) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// Incr atomically increments a counter key, setting its TTL on first
// creation. Used by the policy package's distributed rate-limit windows.
func (r *RedisAdapter) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// Peek reads a counter's current value without incrementing it, returning
// 0 if the key has not been created yet. Used to check a rate-limit
// window's occupancy without consuming it.
func (r *RedisAdapter) Peek(ctx context.Context, key string) (int64, error) {
	n, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
