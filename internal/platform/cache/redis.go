package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// scanCount is the COUNT hint passed to SCAN when listing keys by prefix.
const scanCount = 200

// RedisBackend stores entries as plain Redis strings.
type RedisBackend struct {
	rdb *redis.Client
}

var _ Backend = (*RedisBackend)(nil)

// NewRedisBackend wraps an already connected client.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (r *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

// Set applies retention as the Redis key expiry so abandoned keys do not pile up.
func (r *RedisBackend) Set(ctx context.Context, key string, value []byte, retention time.Duration) error {
	return r.rdb.Set(ctx, key, value, retention).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.rdb.Del(ctx, keys...).Err()
}

// Keys lists keys starting with prefix using SCAN so large keyspaces are not blocked.
func (r *RedisBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	pattern := escapeGlob(prefix) + "*"
	for {
		keys, cur, err := r.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, keys...)
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

// escapeGlob escapes characters that SCAN MATCH treats as glob syntax.
func escapeGlob(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)
	return r.Replace(s)
}
