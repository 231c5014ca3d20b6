package outbox

import (
	"math"
	"time"
)

// DefaultMaxRetries bounds redelivery attempts of a message.
const DefaultMaxRetries = 5

// OutboxMessage is a broker publication that has not been delivered yet.
type OutboxMessage struct {
	ID           int64
	MessageID    string
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// NextAttempt returns the time of the next delivery attempt after retryCount failures
// using exponential backoff over base: base*2, base*4, base*8...
func NextAttempt(now time.Time, retryCount int, base time.Duration) time.Time {
	backoff := time.Duration(math.Pow(2, float64(retryCount))) * base

	return now.Add(backoff)
}
