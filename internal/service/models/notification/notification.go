package notification

import "time"

// Email is the envelope published for the mail delivery service.
type Email struct {
	MessageID string    `json:"messageId"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventType names an order lifecycle event.
type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

// OrderEvent is published after an order change is committed.
type OrderEvent struct {
	MessageID  string    `json:"messageId"`
	Type       EventType `json:"type"`
	OrderID    int64     `json:"orderId"`
	UserID     int64     `json:"userId"`
	Status     string    `json:"status"`
	GrandTotal string    `json:"grandTotal"`
	OccurredAt time.Time `json:"occurredAt"`
}
