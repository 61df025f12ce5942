// Package events fans todo change events out to in-process subscribers such
// as the web UI's live feed.
package events

import (
	"context"
	"sync"

	"todo-app/internal/models"
	"todo-app/pkg/logger"
)

const subscriberBuffer = 16

type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan models.TodoEvent
	nextID int
	closed bool
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan models.TodoEvent)}
}

// Subscribe returns a channel of future events and a func that ends the subscription.
func (h *Hub) Subscribe() (<-chan models.TodoEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan models.TodoEvent, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers ev to every subscriber without blocking; a subscriber whose
// buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, ev models.TodoEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			logger.Debug(ctx, "Dropping todo event for slow subscriber", "subscriber", id, "event", ev.ID)
		}
	}
	return nil
}

// Subscribers reports how many subscriptions are open.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
