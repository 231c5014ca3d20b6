package rabbitmq

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Client owns the broker connection and the single channel notifications are published on.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// MustNewClient dials the broker, retrying while it starts up, and opens a channel.
// Credentials come from RABBITMQ_DEFAULT_USER and RABBITMQ_DEFAULT_PASS.
func MustNewClient() *Client {
	attempts := viper.GetInt("rabbitmq.connect_attempts")
	if attempts <= 0 {
		attempts = 5
	}
	delay := time.Duration(viper.GetInt("rabbitmq.connect_retry_seconds")) * time.Second
	if delay <= 0 {
		delay = 2 * time.Second
	}

	dsn := brokerURL()

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err = amqp.Dial(dsn)
		if err == nil {
			break
		}
		slog.Warn("RabbitMQ not reachable yet", "attempt", attempt, "of", attempts, "error", err)
		time.Sleep(delay)
	}
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ: %v", err))
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	go logClose(conn.NotifyClose(make(chan *amqp.Error, 1)))
	slog.Info("RabbitMQ connected", "host", viperOrEnv("rabbitmq.host", "RABBITMQ_HOST", "rabbitmq"))

	return &Client{conn: conn, channel: channel}
}

func brokerURL() string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(os.Getenv("RABBITMQ_DEFAULT_USER"), os.Getenv("RABBITMQ_DEFAULT_PASS")),
		Host: fmt.Sprintf("%s:%s",
			viperOrEnv("rabbitmq.host", "RABBITMQ_HOST", "rabbitmq"),
			viperOrEnv("rabbitmq.port", "RABBITMQ_PORT", "5672"),
		),
		Path: "/" + viper.GetString("rabbitmq.vhost"),
	}

	return u.String()
}

func viperOrEnv(key, env, fallback string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	if v := viper.GetString(key); v != "" {
		return v
	}

	return fallback
}

func logClose(closed <-chan *amqp.Error) {
	if err, ok := <-closed; ok && err != nil {
		slog.Error("RabbitMQ connection lost, publications will be parked in the outbox", "error", err)
	}
}

// Channel returns the publishing channel.
func (r *Client) Channel() *amqp.Channel {
	return r.channel
}

// MustDeclareDurableQueues declares the given durable queues or panics.
func (r *Client) MustDeclareDurableQueues(names ...string) {
	for _, name := range names {
		if _, err := r.channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
			panic(fmt.Sprintf("Failed to declare queue %s: %v", name, err))
		}
		slog.Debug("Queue declared", "queue", name)
	}
}

// Close closes the channel and then the connection.
func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}
