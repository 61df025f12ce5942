package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/segmentio/kafka-go"

	"todo-app/internal/models"
	"todo-app/pkg/logger"
)

// Reader is the subset of *kafka.Reader the worker needs.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler receives each decoded todo event.
type Handler func(ctx context.Context, ev models.TodoEvent) error

// Run consumes todo events until ctx is done and hands each one to handle.
// One consumer per process; every replica uses its own group so each sees all events.
// Returns the number of events handled successfully.
func Run(ctx context.Context, reader Reader, handle Handler) int64 {
	defer reader.Close()

	var processed int64
	logger.Info(ctx, "Kafka consumer started")
	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", atomic.LoadInt64(&processed))
				return atomic.LoadInt64(&processed)
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			continue
		}
		if err := handleMessage(ctx, msg.Value, handle); err != nil {
			logger.Error(ctx, "Worker handle failed", "error", err, "payload", string(msg.Value))
			// Commit anyway to avoid poison pill blocking the partition
			_ = reader.CommitMessages(ctx, msg)
			continue
		}
		if err := reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		atomic.AddInt64(&processed, 1)
	}
}

func handleMessage(ctx context.Context, payload []byte, handle Handler) error {
	var ev models.TodoEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return err
	}
	switch ev.Action {
	case models.EventCreated, models.EventUpdated, models.EventDeleted:
	default:
		return fmt.Errorf("unknown event action %q", ev.Action)
	}
	return handle(ctx, ev)
}
