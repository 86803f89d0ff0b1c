package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// InProcessEventBus is the broker used when RABBITMQ_URL is unset: Publish
// routes straight to the registered consumers on the caller's goroutine.
type InProcessEventBus struct {
	router *Router
	logger *slog.Logger
	// serializes deliveries like a prefetch of one on the broker
	mu sync.Mutex
}

var (
	_ Publisher = (*InProcessEventBus)(nil)
	_ Consumer  = (*InProcessEventBus)(nil)
)

// NewInProcessEventBus creates a bus with no consumers.
func NewInProcessEventBus(logger *slog.Logger) *InProcessEventBus {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &InProcessEventBus{router: NewRouter(logger), logger: logger}
}

func (b *InProcessEventBus) RegisterConsumer(consumer EventConsumer) {
	b.router.Add(consumer)
}

// Publish never fails because of a consumer: undecodable messages and
// consumer errors are logged so the publishing command still succeeds.
func (b *InProcessEventBus) Publish(ctx context.Context, routingKey string, payload []byte) error {
	event, err := decodeMessage(routingKey, payload)
	if err != nil {
		b.logger.Warn("dropping undecodable message", "routing_key", routingKey, "error", err)
		return nil
	}
	if err := b.Deliver(ctx, event); err != nil {
		b.logger.Error("in-process delivery failed", "routing_key", routingKey, "error", err)
	}
	return nil
}

// deliveringKey marks a context that is inside a delivery of the bus it holds.
type deliveringKey struct{}

// Deliver routes an already decoded event and returns consumer errors.
// Deliveries from different goroutines run one at a time. A consumer that
// publishes while handling an event has the nested event routed inline.
func (b *InProcessEventBus) Deliver(ctx context.Context, event *ConsumedEvent) error {
	if owner, _ := ctx.Value(deliveringKey{}).(*InProcessEventBus); owner == b {
		return b.router.Route(ctx, event)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.router.Route(context.WithValue(ctx, deliveringKey{}, b), event)
}

// Start blocks until ctx is done.
func (b *InProcessEventBus) Start(ctx context.Context) error {
	b.logger.Info("in-process bus ready", "routing_keys", b.router.RoutingKeys())
	<-ctx.Done()
	return ctx.Err()
}

func (b *InProcessEventBus) Check(context.Context) error { return nil }

func (b *InProcessEventBus) Close() error { return nil }
