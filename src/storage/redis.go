package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const indexKey = "index"

// RedisStore implements Store using Redis. Every field of a run is its own
// string key, <prefix><runID><field>, and a sorted set under <prefix>index
// tracks run ids scored by their last save.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and checks the connection.
func NewRedisStore(ctx context.Context, redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

// key generates the Redis key of one run field
func (r *RedisStore) key(runID, field string) string {
	return r.prefix + runID + field
}

func (r *RedisStore) index() string {
	return r.prefix + indexKey
}

// Get reads the requested fields with a single MGET
func (r *RedisStore) Get(ctx context.Context, runID string, fields ...string) (map[string]string, error) {
	if len(fields) == 0 {
		fields = RunFields
	}
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = r.key(runID, f)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get run fields: %w", err)
	}

	out := make(map[string]string, len(fields))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[fields[i]] = s
		}
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Save writes and deletes fields inside one MULTI/EXEC
func (r *RedisStore) Save(ctx context.Context, runID string, set map[string]string, del []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for f, v := range set {
			pipe.Set(ctx, r.key(runID, f), v, r.ttl)
		}
		if len(del) > 0 {
			keys := make([]string, len(del))
			for i, f := range del {
				keys[i] = r.key(runID, f)
			}
			pipe.Del(ctx, keys...)
		}
		pipe.ZAdd(ctx, r.index(), redis.Z{
			Score:  float64(time.Now().Unix()),
			Member: runID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save run fields: %w", err)
	}
	return nil
}

// Delete removes every field of a run and drops it from the index
func (r *RedisStore) Delete(ctx context.Context, runID string) error {
	keys := make([]string, len(RunFields))
	for i, f := range RunFields {
		keys[i] = r.key(runID, f)
	}
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.index(), runID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}

// Runs prunes index entries older than the TTL and returns the rest
func (r *RedisStore) Runs(ctx context.Context) ([]string, error) {
	cutoff := time.Now().Add(-r.ttl).Unix()
	err := r.client.ZRemRangeByScore(ctx, r.index(), "-inf", "("+strconv.FormatInt(cutoff, 10)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune run index: %w", err)
	}
	runs, err := r.client.ZRange(ctx, r.index(), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// TTL gets the remaining TTL of a run
func (r *RedisStore) TTL(ctx context.Context, runID string) (time.Duration, error) {
	ttl, err := r.client.TTL(ctx, r.key(runID, FieldFirstLoad)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get TTL: %w", err)
	}
	return ttl, nil
}

// Ping tests Redis connection
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}
