package models

import (
	"fmt"
	"time"
)

// Todo represents a todo item.
type Todo struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Collection is the aggregate persisted as one unit: every todo plus the id watermark.
type Collection struct {
	Todos   []Todo `json:"todos"`
	Counter int64  `json:"counter"`
}

// EmptyCollection is what a store holds before anything was ever written.
func EmptyCollection() Collection {
	return Collection{Todos: []Todo{}, Counter: 0}
}

// Clone returns a deep copy so callers never share the backing slice.
func (c Collection) Clone() Collection {
	todos := make([]Todo, len(c.Todos))
	copy(todos, c.Todos)
	return Collection{Todos: todos, Counter: c.Counter}
}

// Find returns the index of the first todo with the given id, or -1.
func (c Collection) Find(id int64) int {
	for i := range c.Todos {
		if c.Todos[i].ID == id {
			return i
		}
	}
	return -1
}

// Validate checks the id/counter invariants.
func (c Collection) Validate() error {
	if c.Counter < 0 {
		return fmt.Errorf("counter is negative: %d", c.Counter)
	}
	seen := make(map[int64]struct{}, len(c.Todos))
	for i, t := range c.Todos {
		if t.ID <= 0 {
			return fmt.Errorf("todos[%d]: id must be positive, got %d", i, t.ID)
		}
		if t.ID > c.Counter {
			return fmt.Errorf("todos[%d]: id %d exceeds counter %d", i, t.ID, c.Counter)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("todos[%d]: duplicate id %d", i, t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// EventAction names the mutation a TodoEvent reports.
type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

// TodoEvent is the message published after a mutation has been persisted.
type TodoEvent struct {
	ID         string      `json:"id"`
	Action     EventAction `json:"action"` // created, updated, deleted
	Todo       Todo        `json:"todo"`
	Counter    int64       `json:"counter"`
	OccurredAt time.Time   `json:"occurred_at"`
}
