package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ExchangeName is the topic exchange shared by reconciliation events and
// time-tracker messages.
const ExchangeName = "taskpulse.events"

// ErrConnectionClosed is returned by Check once the broker connection dropped.
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// amqpLink is one connection and channel with the exchange declared.
type amqpLink struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
}

func dialExchange(url, exchange string) (*amqpLink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	// durable topic exchange, not auto-deleted
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &amqpLink{conn: conn, channel: ch, exchange: exchange}, nil
}

func (l *amqpLink) Check(context.Context) error {
	if l.conn == nil || l.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

func (l *amqpLink) close(logger *slog.Logger) error {
	if err := l.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		logger.Warn("error closing channel", "error", err)
	}
	if err := l.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}
