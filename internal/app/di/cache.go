package di

import (
	"context"
	"log/slog"

	"bullion_backend/internal/app/config"
	"bullion_backend/internal/platform/cache"
	"bullion_backend/internal/platform/db"
	platformredis "bullion_backend/internal/platform/redis"
)

// NewCacheBackend creates the cache Backend selected by kind.
// If Redis or the database cannot be reached, it falls back to process memory so the
// service keeps serving live quotes. The returned closer releases the connection.
func NewCacheBackend(ctx context.Context, kind string, log *slog.Logger) (cache.Backend, func() error) {
	noop := func() error { return nil }

	switch kind {
	case config.CacheRedis:
		rdb, err := platformredis.NewRedisClient(ctx, platformredis.LoadConfig())
		if err != nil {
			log.Warn("Redis unavailable, using in-memory cache", "error", err)
			return cache.NewMemoryBackend(), noop
		}
		return cache.NewRedisBackend(rdb), rdb.Close

	case config.CacheSQLite, config.CachePostgres:
		gdb, err := db.OpenDB(db.LoadConfig(kind))
		if err != nil {
			log.Warn("database unavailable, using in-memory cache", "driver", kind, "error", err)
			return cache.NewMemoryBackend(), noop
		}
		backend, err := cache.NewGormBackend(gdb)
		if err != nil {
			log.Warn("cache table migration failed, using in-memory cache", "error", err)
			return cache.NewMemoryBackend(), noop
		}
		closer := noop
		if sqlDB, err := gdb.DB(); err == nil {
			closer = sqlDB.Close
		}
		return backend, closer

	default:
		return cache.NewMemoryBackend(), noop
	}
}
