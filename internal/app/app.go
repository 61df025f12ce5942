// Package app assembles the storage chain and event plumbing from config.
package app

import (
	"context"
	"fmt"

	"todo-app/internal/cache"
	"todo-app/internal/config"
	"todo-app/internal/database"
	"todo-app/internal/repository"
	"todo-app/internal/store"
	"todo-app/internal/store/jsonfile"
	"todo-app/pkg/logger"
)

// OpenBackend builds the backend the config names, wrapped in the Redis cache
// when REDIS_URL is set. closeFn releases any pools it opened.
func OpenBackend(ctx context.Context, cfg *config.Config) (backend store.Backend, closeFn func(), err error) {
	var closers []func()
	closeFn = func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	defer func() {
		if err != nil {
			closeFn()
		}
	}()

	switch cfg.StorageDriver {
	case config.DriverJSON:
		backend = jsonfile.New(cfg.DataFile)
		logger.Info(ctx, "Using JSON file storage", "path", cfg.DataFile)
	case config.DriverMemory:
		backend = store.NewMemoryBackend()
		logger.Warn(ctx, "Using in-memory storage; todos are lost on exit")
	case config.DriverPostgres:
		db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBPoolSize)
		if err != nil {
			return nil, closeFn, fmt.Errorf("%w: %v", store.ErrStorageUnavailable, err)
		}
		closers = append(closers, func() { db.Close() })
		if err := database.MigrateOrCreateSchema(ctx, db); err != nil {
			return nil, closeFn, fmt.Errorf("schema: %w", err)
		}
		backend = repository.NewTodoRepository(db)
		logger.Info(ctx, "Using PostgreSQL storage")
	default:
		return nil, closeFn, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisURL != "" {
		client, err := cache.NewClient(ctx, cfg.RedisURL, cfg.RedisPoolSize)
		if err != nil {
			// the cache is optional; run without it
			logger.Warn(ctx, "Redis unavailable, running without cache", "error", err)
			return backend, closeFn, nil
		}
		closers = append(closers, func() { client.Close() })
		backend = cache.NewCachedBackend(backend, client, cfg.CacheTTLDuration())
	}
	return backend, closeFn, nil
}

// NewStore opens the backend and returns a Store configured from cfg.
func NewStore(ctx context.Context, cfg *config.Config, pub store.Publisher) (*store.Store, func(), error) {
	backend, closeFn, err := OpenBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	opts := []store.Option{
		store.WithLockTimeout(cfg.LockTimeout()),
		store.WithRepair(cfg.StorageRepair),
	}
	if pub != nil {
		opts = append(opts, store.WithPublisher(pub))
	}
	return store.New(backend, opts...), closeFn, nil
}
