package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/notification"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/outbox"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"golang.org/x/sync/errgroup"
)

const contentTypeJSON = "application/json"

// Queue names.
const (
	EmailQueue       = "notifications.email"
	OrderEventsQueue = "orders.events"
)

// channel is the publishing side of an AMQP channel.
type channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// NotificationRepository publishes emails and order events. A publication the broker
// rejects is parked in the outbox for the outbox worker.
type NotificationRepository struct {
	channel    channel
	outboxRepo ioutboxrepo.IOutboxRepository
	now        func() time.Time
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(ch channel, outboxRepo ioutboxrepo.IOutboxRepository) *NotificationRepository {
	return &NotificationRepository{
		channel:    ch,
		outboxRepo: outboxRepo,
		now:        time.Now,
	}
}

// SendEmail publishes an email envelope to the mail queue.
func (r *NotificationRepository) SendEmail(ctx context.Context, to, subject, body string) error {
	email := notification.Email{
		MessageID: uuid.NewString(),
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: r.now(),
	}

	payload, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to marshal email: %w", err)
	}

	return r.publish(ctx, EmailQueue, email.MessageID, payload)
}

// PublishOrderEvents publishes order events, at most three at a time.
func (r *NotificationRepository) PublishOrderEvents(ctx context.Context, events []notification.OrderEvent) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, event := range events {
		g.Go(func() error {
			if event.MessageID == "" {
				event.MessageID = uuid.NewString()
			}

			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("failed to marshal order event: %w", err)
			}

			return r.publish(ctx, OrderEventsQueue, event.MessageID, payload)
		})
	}

	return g.Wait()
}

func (r *NotificationRepository) publish(ctx context.Context, queue, messageID string, payload []byte) error {
	err := r.channel.Publish(
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         payload,
		},
	)
	if err == nil {
		return nil
	}

	slog.Warn("Publish failed, parking message in outbox", "queue", queue, "message_id", messageID, "error", err)

	now := r.now()
	if err := r.outboxRepo.Insert(ctx, outbox.OutboxMessage{
		MessageID:   messageID,
		QueueName:   queue,
		RoutingKey:  queue,
		Payload:     payload,
		ContentType: contentTypeJSON,
		MaxRetries:  outbox.DefaultMaxRetries,
		LastError:   err.Error(),
		CreatedAt:   now,
		UpdatedAt:   now,
		NextRetryAt: now,
	}); err != nil {
		return fmt.Errorf("failed to store message in outbox: %w", err)
	}

	return nil
}
