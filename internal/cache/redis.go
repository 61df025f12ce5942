package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"todo-app/internal/models"
	"todo-app/internal/store"
	"todo-app/pkg/logger"
)

const collectionCacheKey = "todos:collection"

// NewClient parses a redis:// URL, applies the pool size and pings the server.
func NewClient(ctx context.Context, url string, poolSize int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.PoolSize = poolSize
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	logger.Info(ctx, "Redis client initialized", "pool_size", poolSize)
	return client, nil
}

// CachedBackend keeps a copy of the Collection in Redis in front of another
// Backend. The inner backend stays authoritative: cache failures are logged
// and fall through, never failing a call. Only the write lock holder fills
// the cache, through Save or LoadFresh, so a slow reader cannot put back an
// older Collection.
type CachedBackend struct {
	inner  store.Backend
	client redis.Cmdable
	ttl    time.Duration
	key    string
}

func NewCachedBackend(inner store.Backend, client redis.Cmdable, ttl time.Duration) *CachedBackend {
	return &CachedBackend{inner: inner, client: client, ttl: ttl, key: collectionCacheKey}
}

func (b *CachedBackend) Load(ctx context.Context) (models.Collection, error) {
	if c, ok := b.get(ctx); ok {
		return c, nil
	}
	return b.inner.Load(ctx)
}

// LoadFresh reads the inner backend and refreshes the cache with the result.
func (b *CachedBackend) LoadFresh(ctx context.Context) (models.Collection, error) {
	var (
		c   models.Collection
		err error
	)
	if fresh, ok := b.inner.(store.FreshLoader); ok {
		c, err = fresh.LoadFresh(ctx)
	} else {
		c, err = b.inner.Load(ctx)
	}
	if err != nil {
		return models.Collection{}, err
	}
	if c.Validate() == nil {
		b.set(ctx, c)
	}
	return c, nil
}

// Lock delegates to the inner backend's lock, if it has one.
func (b *CachedBackend) Lock(ctx context.Context) (func(), error) {
	if l, ok := b.inner.(store.Locker); ok {
		return l.Lock(ctx)
	}
	return func() {}, nil
}

func (b *CachedBackend) Save(ctx context.Context, c models.Collection) error {
	if err := b.inner.Save(ctx, c); err != nil {
		return err
	}
	// The inner write has committed; refresh the cache even if the caller is gone.
	b.set(context.WithoutCancel(ctx), c)
	return nil
}

// Invalidate drops the cached Collection so the next Load reads the inner backend.
func (b *CachedBackend) Invalidate(ctx context.Context) {
	if err := b.client.Del(ctx, b.key).Err(); err != nil {
		logger.Debug(ctx, "Redis invalidate collection failed", "error", err)
	}
}

func (b *CachedBackend) get(ctx context.Context) (models.Collection, bool) {
	raw, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Collection{}, false
	}
	if err != nil {
		logger.Debug(ctx, "Redis get collection failed", "error", err)
		return models.Collection{}, false
	}
	var c models.Collection
	if err := json.Unmarshal(raw, &c); err != nil {
		logger.Debug(ctx, "Redis unmarshal collection failed", "error", err)
		return models.Collection{}, false
	}
	if err := c.Validate(); err != nil {
		logger.Debug(ctx, "Redis cached collection invalid", "error", err)
		return models.Collection{}, false
	}
	if c.Todos == nil {
		c.Todos = []models.Todo{}
	}
	return c, true
}

func (b *CachedBackend) set(ctx context.Context, c models.Collection) {
	raw, err := json.Marshal(c)
	if err != nil {
		logger.Debug(ctx, "Marshal collection for cache failed", "error", err)
		return
	}
	if err := b.client.Set(ctx, b.key, raw, b.ttl).Err(); err != nil {
		logger.Debug(ctx, "Redis set collection failed", "error", err)
		// a stale entry must not outlive a failed refresh
		b.Invalidate(ctx)
	}
}

var (
	_ store.Backend     = (*CachedBackend)(nil)
	_ store.FreshLoader = (*CachedBackend)(nil)
	_ store.Locker      = (*CachedBackend)(nil)
)
