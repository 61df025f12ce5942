package store

import (
	"context"
	"sync"

	"todo-app/internal/models"
)

// Backend is the durable home of a Collection. Load returns an empty
// Collection when nothing has been written yet; Save replaces everything
// atomically. Failures are wrapped with ErrStorageCorrupt,
// ErrStorageUnavailable or ErrStorageConflict.
type Backend interface {
	Load(ctx context.Context) (models.Collection, error)
	Save(ctx context.Context, c models.Collection) error
}

// FreshLoader is implemented by backends whose Load may be served from a
// cache. The Store calls LoadFresh while holding its write lock, so a
// mutation never builds on a stale copy.
type FreshLoader interface {
	LoadFresh(ctx context.Context) (models.Collection, error)
}

// Locker is implemented by backends shared between processes. The Store holds
// the lock across load, mutate and save; unlock must not fail.
type Locker interface {
	Lock(ctx context.Context) (unlock func(), err error)
}

// Publisher receives an event after each committed mutation.
type Publisher interface {
	Publish(ctx context.Context, ev models.TodoEvent) error
}

// MemoryBackend keeps the Collection in process memory.
type MemoryBackend struct {
	mu   sync.RWMutex
	data models.Collection
	set  bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Load(ctx context.Context) (models.Collection, error) {
	if err := ctx.Err(); err != nil {
		return models.Collection{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.set {
		return models.EmptyCollection(), nil
	}
	return m.data.Clone(), nil
}

func (m *MemoryBackend) Save(ctx context.Context, c models.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = c.Clone()
	m.set = true
	return nil
}

var _ Backend = (*MemoryBackend)(nil)
