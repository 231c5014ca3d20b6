package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/ioutboxrepo"
	outboxmodel "github.com/corray333/backend-labs/fooddelivery/internal/service/models/outbox"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// publisher is the publishing side of an AMQP channel.
type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Worker redelivers messages parked in the outbox table.
type Worker struct {
	outboxRepo   ioutboxrepo.IOutboxRepository
	publisher    publisher
	pollInterval time.Duration
	batchSize    int
	backoffBase  time.Duration
	now          func() time.Time
}

// NewWorker creates a new outbox worker.
func NewWorker(
	outboxRepo ioutboxrepo.IOutboxRepository,
	publisher publisher,
) *Worker {
	pollIntervalSeconds := viper.GetInt("rabbitmq.outbox.poll_interval_seconds")
	if pollIntervalSeconds == 0 {
		pollIntervalSeconds = 10
	}

	batchSize := viper.GetInt("rabbitmq.outbox.batch_size")
	if batchSize == 0 {
		batchSize = 100
	}

	backoffSeconds := viper.GetInt("rabbitmq.outbox.backoff_base_seconds")
	if backoffSeconds == 0 {
		backoffSeconds = 30
	}

	return &Worker{
		outboxRepo:   outboxRepo,
		publisher:    publisher,
		pollInterval: time.Duration(pollIntervalSeconds) * time.Second,
		batchSize:    batchSize,
		backoffBase:  time.Duration(backoffSeconds) * time.Second,
		now:          time.Now,
	}
}

// Run processes the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	slog.Info("Outbox worker started", "poll_interval", w.pollInterval, "batch_size", w.batchSize)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker shutting down")

			return nil
		case <-ticker.C:
			w.ProcessMessages(ctx)
		}
	}
}

// ProcessMessages makes one delivery attempt for every due message.
func (w *Worker) ProcessMessages(ctx context.Context) {
	messages, err := w.outboxRepo.GetPendingMessages(ctx, w.now(), w.batchSize)
	if err != nil {
		slog.Error("Failed to get pending messages from outbox", "error", err)

		return
	}

	if len(messages) == 0 {
		return
	}

	slog.Info("Processing outbox messages", "count", len(messages))

	for _, msg := range messages {
		err := w.publisher.Publish(
			msg.ExchangeName,
			msg.RoutingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  msg.ContentType,
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.MessageID,
				Body:         msg.Payload,
			},
		)
		if err != nil {
			w.reschedule(ctx, msg, err)

			continue
		}

		if err := w.outboxRepo.Delete(ctx, msg.ID); err != nil {
			slog.Error("Failed to delete message from outbox after successful publish",
				"outbox_id", msg.ID,
				"error", err,
			)

			continue
		}

		slog.Info("Message published from outbox", "outbox_id", msg.ID, "message_id", msg.MessageID)
	}
}

func (w *Worker) reschedule(ctx context.Context, msg outboxmodel.OutboxMessage, publishErr error) {
	retryCount := msg.RetryCount + 1
	nextRetryAt := outboxmodel.NextAttempt(w.now(), retryCount, w.backoffBase)

	if retryCount >= msg.MaxRetries {
		slog.Error("Outbox message exhausted its retries",
			"outbox_id", msg.ID,
			"queue", msg.QueueName,
			"error", publishErr,
		)
	} else {
		slog.Warn("Failed to publish message from outbox, will retry",
			"outbox_id", msg.ID,
			"retry_count", retryCount,
			"next_retry", nextRetryAt,
			"error", publishErr,
		)
	}

	if err := w.outboxRepo.UpdateRetry(ctx, msg.ID, retryCount, publishErr.Error(), nextRetryAt); err != nil {
		slog.Error("Failed to update retry information", "outbox_id", msg.ID, "error", err)
	}
}
