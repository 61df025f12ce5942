// Package store holds the todo collection's read-modify-write core: every call
// loads the whole Collection from a Backend, works on it in memory and, for
// mutations, writes the whole Collection back before returning.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"todo-app/internal/models"
	"todo-app/pkg/logger"
)

const DefaultLockTimeout = 5 * time.Second

type Option func(*Store)

// WithLockTimeout bounds how long a mutation waits for the store's lock.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.lockTimeout = d
		}
	}
}

// WithRepair makes Load treat a corrupt backend as empty instead of failing.
// The next mutation then overwrites whatever was stored.
func WithRepair(on bool) Option {
	return func(s *Store) { s.repair = on }
}

// WithPublisher sets where events go after a mutation commits.
func WithPublisher(p Publisher) Option {
	return func(s *Store) { s.publisher = p }
}

type Store struct {
	backend     Backend
	publisher   Publisher
	lockTimeout time.Duration
	repair      bool

	// one-slot semaphore serializing load-mutate-persist
	sem   chan struct{}
	loads singleflight.Group
	// bumped after every persist; reads only share a load started in the same generation
	gen atomic.Uint64
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend:     backend,
		lockTimeout: DefaultLockTimeout,
		sem:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the Collection from the backend and checks its invariants.
func (s *Store) Load(ctx context.Context) (models.Collection, error) {
	return s.check(ctx, s.backend.Load)
}

func (s *Store) check(ctx context.Context, load func(context.Context) (models.Collection, error)) (models.Collection, error) {
	c, err := load(ctx)
	if err == nil {
		if verr := c.Validate(); verr != nil {
			err = fmt.Errorf("%w: %v", ErrStorageCorrupt, verr)
		}
	}
	if err != nil {
		if s.repair && errors.Is(err, ErrStorageCorrupt) {
			logger.Warn(ctx, "Corrupt todo storage treated as empty", "error", err)
			return models.EmptyCollection(), nil
		}
		return models.Collection{}, err
	}
	if c.Todos == nil {
		c.Todos = []models.Todo{}
	}
	return c, nil
}

// loadLatest is Load for the lock holder: it bypasses any read cache.
func (s *Store) loadLatest(ctx context.Context) (models.Collection, error) {
	fresh, ok := s.backend.(FreshLoader)
	if !ok {
		return s.Load(ctx)
	}
	return s.check(ctx, fresh.LoadFresh)
}

// Persist overwrites the backend with c.
func (s *Store) Persist(ctx context.Context, c models.Collection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: refusing to persist: %v", ErrValidation, err)
	}
	return s.backend.Save(ctx, c)
}

// List returns every todo in insertion order.
func (s *Store) List(ctx context.Context) ([]models.Todo, error) {
	c, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return c.Todos, nil
}

// Get returns the todo with the given id.
func (s *Store) Get(ctx context.Context, id int64) (models.Todo, error) {
	c, err := s.snapshot(ctx)
	if err != nil {
		return models.Todo{}, err
	}
	i := c.Find(id)
	if i < 0 {
		return models.Todo{}, notFound(id)
	}
	return c.Todos[i], nil
}

// Create appends a new, not yet completed todo and returns it.
func (s *Store) Create(ctx context.Context, title, description string) (models.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return models.Todo{}, fmt.Errorf("%w: title is required", ErrValidation)
	}

	return s.mutate(ctx, models.EventCreated, func(c *models.Collection) (models.Todo, error) {
		c.Counter++
		todo := models.Todo{
			ID:          c.Counter,
			Title:       title,
			Description: description,
			Completed:   false,
		}
		c.Todos = append(c.Todos, todo)
		return todo, nil
	})
}

// Update sets the completion flag of a todo to the given value.
func (s *Store) Update(ctx context.Context, id int64, completed bool) (models.Todo, error) {
	return s.mutate(ctx, models.EventUpdated, func(c *models.Collection) (models.Todo, error) {
		i := c.Find(id)
		if i < 0 {
			return models.Todo{}, notFound(id)
		}
		c.Todos[i].Completed = completed
		return c.Todos[i], nil
	})
}

// Toggle inverts the completion flag of a todo.
func (s *Store) Toggle(ctx context.Context, id int64) (models.Todo, error) {
	return s.mutate(ctx, models.EventUpdated, func(c *models.Collection) (models.Todo, error) {
		i := c.Find(id)
		if i < 0 {
			return models.Todo{}, notFound(id)
		}
		c.Todos[i].Completed = !c.Todos[i].Completed
		return c.Todos[i], nil
	})
}

// Delete removes a todo and returns its last state.
func (s *Store) Delete(ctx context.Context, id int64) (models.Todo, error) {
	return s.mutate(ctx, models.EventDeleted, func(c *models.Collection) (models.Todo, error) {
		i := c.Find(id)
		if i < 0 {
			return models.Todo{}, notFound(id)
		}
		removed := c.Todos[i]
		c.Todos = append(c.Todos[:i], c.Todos[i+1:]...)
		return removed, nil
	})
}

// snapshot loads a private copy of the Collection. Concurrent readers share
// one backend load, but never one that started before the last commit.
func (s *Store) snapshot(ctx context.Context) (models.Collection, error) {
	key := strconv.FormatUint(s.gen.Load(), 10)
	v, err, _ := s.loads.Do(key, func() (any, error) {
		return s.Load(context.WithoutCancel(ctx))
	})
	if err != nil {
		return models.Collection{}, err
	}
	return v.(models.Collection).Clone(), nil
}

func (s *Store) mutate(ctx context.Context, action models.EventAction, apply func(*models.Collection) (models.Todo, error)) (models.Todo, error) {
	if err := s.acquire(ctx); err != nil {
		return models.Todo{}, err
	}
	defer s.release()

	unlock, err := s.lockBackend(ctx)
	if err != nil {
		return models.Todo{}, err
	}
	defer unlock()

	c, err := s.loadLatest(ctx)
	if err != nil {
		return models.Todo{}, err
	}
	todo, err := apply(&c)
	if err != nil {
		return models.Todo{}, err
	}
	// Last point where the caller may abort; nothing has been written yet.
	if err := ctx.Err(); err != nil {
		return models.Todo{}, err
	}
	err = s.Persist(ctx, c)
	// a failed save may still have reached the backend
	s.gen.Add(1)
	if err != nil {
		return models.Todo{}, err
	}

	s.publish(context.WithoutCancel(ctx), action, todo, c.Counter)
	return todo, nil
}

func (s *Store) acquire(ctx context.Context) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("%w: lock not acquired within %s", ErrBusy, s.lockTimeout)
	}
}

func (s *Store) release() {
	<-s.sem
}

// lockBackend takes the backend's cross-process lock when it has one, waiting
// no longer than the lock timeout.
func (s *Store) lockBackend(ctx context.Context) (func(), error) {
	l, ok := s.backend.(Locker)
	if !ok {
		return func() {}, nil
	}
	lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
	defer cancel()
	unlock, err := l.Lock(lockCtx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: backend lock not acquired within %s", ErrBusy, s.lockTimeout)
		}
		return nil, err
	}
	return unlock, nil
}

func (s *Store) publish(ctx context.Context, action models.EventAction, todo models.Todo, counter int64) {
	if s.publisher == nil {
		return
	}
	ev := models.TodoEvent{
		ID:         uuid.NewString(),
		Action:     action,
		Todo:       todo,
		Counter:    counter,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		logger.Error(ctx, "Publish todo event failed", "error", err, "action", action, "id", todo.ID)
	}
}

func notFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrNotFound, id)
}
