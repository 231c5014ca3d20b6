// Package logsink writes notifications to the log instead of a broker, for local runs.
package logsink

import (
	"context"
	"log/slog"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/notification"
)

type LogNotificationRepository struct {
	logger *slog.Logger
}

func NewLogNotificationRepository(logger *slog.Logger) *LogNotificationRepository {
	return &LogNotificationRepository{logger: logger}
}

func (r *LogNotificationRepository) SendEmail(_ context.Context, to, subject, body string) error {
	r.logger.Info("Email", "to", to, "subject", subject, "body", body)

	return nil
}

func (r *LogNotificationRepository) PublishOrderEvents(_ context.Context, events []notification.OrderEvent) error {
	for _, e := range events {
		r.logger.Info("Order event", "type", e.Type, "order_id", e.OrderID, "status", e.Status)
	}

	return nil
}
