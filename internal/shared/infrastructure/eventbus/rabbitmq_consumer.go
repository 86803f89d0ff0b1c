package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// DefaultConsumerQueueName is the worker's durable queue.
const DefaultConsumerQueueName = "taskpulse.worker"

// RabbitMQConsumerConfig configures the RabbitMQ consumer.
type RabbitMQConsumerConfig struct {
	URL       string
	QueueName string
	// Exchange defaults to ExchangeName.
	Exchange string
	Logger   *slog.Logger
}

// RabbitMQConsumer reads one message at a time from a durable queue bound
// to the routing keys of its registered consumers.
type RabbitMQConsumer struct {
	*amqpLink
	queue  string
	router *Router
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewRabbitMQConsumer dials the broker and declares the queue. Bindings are
// added as consumers register.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, router *Router) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = observability.DiscardLogger()
	}
	if cfg.QueueName == "" {
		cfg.QueueName = DefaultConsumerQueueName
	}
	if cfg.Exchange == "" {
		cfg.Exchange = ExchangeName
	}
	if router == nil {
		router = NewRouter(cfg.Logger)
	}

	link, err := dialExchange(cfg.URL, cfg.Exchange)
	if err != nil {
		return nil, err
	}
	// durable, not auto-deleted, shared
	if _, err := link.channel.QueueDeclare(cfg.QueueName, true, false, false, false, nil); err != nil {
		_ = link.close(cfg.Logger)
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.QueueName, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.QueueName, "exchange", cfg.Exchange)
	return &RabbitMQConsumer{
		amqpLink: link,
		queue:    cfg.QueueName,
		router:   router,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// RegisterConsumer binds the queue to each routing key of consumer. A
// failed bind is logged; the consumer still handles keys bound elsewhere.
func (c *RabbitMQConsumer) RegisterConsumer(consumer EventConsumer) {
	c.router.Add(consumer)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		if err := c.channel.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			c.logger.Error("failed to bind queue", "queue", c.queue, "routing_key", key, "error", err)
		}
	}
}

// Start consumes until ctx is done or Close is called.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	// Reconciliation against the task backend is sequential.
	if err := c.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}
	c.logger.Info("consuming", "queue", c.queue, "routing_keys", c.router.RoutingKeys())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.settle(d, c.process(ctx, d))
		}
	}
}

func (c *RabbitMQConsumer) process(ctx context.Context, d amqp.Delivery) error {
	event, err := decodeMessage(d.RoutingKey, d.Body)
	if err != nil {
		c.logger.Warn("dropping undecodable message", "routing_key", d.RoutingKey, "error", err)
		return nil
	}
	if event.Metadata.CorrelationID == "" {
		event.Metadata.CorrelationID = d.CorrelationId
	}
	return c.router.Route(ctx, event)
}

// Disposition is how a delivery is settled.
type Disposition int

const (
	Ack Disposition = iota
	// Requeue puts the message back for one more attempt.
	Requeue
	// Discard rejects the message for good.
	Discard
)

// Settle decides a delivery's fate. A failed message is retried once; a
// second failure drops it so one bad entry cannot block the queue.
func Settle(err error, redelivered bool) Disposition {
	switch {
	case err == nil:
		return Ack
	case redelivered:
		return Discard
	default:
		return Requeue
	}
}

func (c *RabbitMQConsumer) settle(d amqp.Delivery, err error) {
	var ackErr error
	switch Settle(err, d.Redelivered) {
	case Ack:
		ackErr = d.Ack(false)
	case Requeue:
		c.logger.Warn("requeueing failed message", "routing_key", d.RoutingKey, "error", err)
		ackErr = d.Nack(false, true)
	case Discard:
		c.logger.Error("discarding message after retry", "routing_key", d.RoutingKey, "error", err)
		ackErr = d.Nack(false, false)
	}
	if ackErr != nil {
		c.logger.Error("failed to settle message", "routing_key", d.RoutingKey, "error", ackErr)
	}
}

func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return nil
	default:
		close(c.done)
	}
	c.running = false
	return c.close(c.logger)
}
