package app

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"todo-app/internal/config"
	"todo-app/internal/events"
	"todo-app/internal/models"
	"todo-app/internal/queue"
	"todo-app/internal/store"
	"todo-app/internal/worker"
	"todo-app/pkg/logger"
)

// StartEvents decides where the Store publishes. Without Kafka the Store
// publishes straight to hub. With Kafka it publishes to the topic and a
// consumer feeds hub, so clients of every replica see every change.
// stop flushes the producer and waits for the consumer to exit.
func StartEvents(ctx context.Context, cfg *config.Config, hub *events.Hub) (store.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info(ctx, "Kafka disabled, publishing todo events in-process")
		return hub, func() {}
	}

	queue.EnsureTopic(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaPartitions)
	pub := queue.NewPublisher(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)

	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "todo-app-" + uuid.NewString()
	}
	reader := queue.NewReader(cfg.KafkaBrokers, cfg.KafkaTopic, groupID)

	consumeCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(consumeCtx, reader, func(ctx context.Context, ev models.TodoEvent) error {
			return hub.Publish(ctx, ev)
		})
	}()
	logger.Info(ctx, "Kafka todo events enabled", "topic", cfg.KafkaTopic, "group", groupID)

	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Error(ctx, "Kafka producer close failed", "error", err)
		}
		cancel()
		wg.Wait()
	}
}
