package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"

	"todo-app/internal/models"
)

// fakeReader serves queued messages, then blocks until ctx is cancelled.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	fetchErrs []error
	committed []kafka.Message
	closed    bool
	drained   chan struct{}
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	return &fakeReader{queue: msgs, drained: make(chan struct{})}
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		f.mu.Unlock()
		return kafka.Message{}, err
	}
	if len(f.queue) > 0 {
		m := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return m, nil
	}
	f.mu.Unlock()
	select {
	case <-f.drained:
	default:
		close(f.drained)
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func message(t *testing.T, ev models.TodoEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(ev)
	if err != nil {
		t.Fatal(err)
	}
	return kafka.Message{Value: b}
}

// runUntilDrained runs the worker and stops it once every queued message was fetched.
func runUntilDrained(t *testing.T, r *fakeReader, h Handler) int64 {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int64)
	go func() { done <- Run(ctx, r, h) }()
	<-r.drained
	cancel()
	return <-done
}

func TestRun_DeliversEventsAndCommits(t *testing.T) {
	r := newFakeReader(
		message(t, models.TodoEvent{ID: "1", Action: models.EventCreated, Todo: models.Todo{ID: 1, Title: "a"}, Counter: 1}),
		message(t, models.TodoEvent{ID: "2", Action: models.EventDeleted, Todo: models.Todo{ID: 1, Title: "a"}, Counter: 1}),
	)
	var got []string
	processed := runUntilDrained(t, r, func(ctx context.Context, ev models.TodoEvent) error {
		got = append(got, ev.ID)
		return nil
	})

	if processed != 2 {
		t.Errorf("processed = %d, want 2", processed)
	}
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("handled = %v", got)
	}
	if len(r.committed) != 2 {
		t.Errorf("committed = %d, want 2", len(r.committed))
	}
	if !r.closed {
		t.Error("reader not closed on exit")
	}
}

func TestRun_PoisonMessagesAreCommitted(t *testing.T) {
	r := newFakeReader(
		kafka.Message{Value: []byte("not json")},
		message(t, models.TodoEvent{ID: "x", Action: "archived"}),
		message(t, models.TodoEvent{ID: "y", Action: models.EventUpdated}),
	)
	handled := 0
	processed := runUntilDrained(t, r, func(ctx context.Context, ev models.TodoEvent) error {
		handled++
		return nil
	})

	if handled != 1 || processed != 1 {
		t.Errorf("handled = %d processed = %d, want 1/1", handled, processed)
	}
	if len(r.committed) != 3 {
		t.Errorf("committed = %d, want all 3 so the partition keeps moving", len(r.committed))
	}
}

func TestRun_HandlerErrorStillCommits(t *testing.T) {
	r := newFakeReader(message(t, models.TodoEvent{ID: "1", Action: models.EventCreated}))
	processed := runUntilDrained(t, r, func(ctx context.Context, ev models.TodoEvent) error {
		return errors.New("hub closed")
	})
	if processed != 0 {
		t.Errorf("processed = %d, want 0", processed)
	}
	if len(r.committed) != 1 {
		t.Errorf("committed = %d, want 1", len(r.committed))
	}
}

func TestRun_FetchErrorIsRetried(t *testing.T) {
	r := newFakeReader(message(t, models.TodoEvent{ID: "1", Action: models.EventCreated}))
	r.fetchErrs = []error{errors.New("broker not available")}
	processed := runUntilDrained(t, r, func(ctx context.Context, ev models.TodoEvent) error { return nil })
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
}
