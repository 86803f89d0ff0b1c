package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// Router fans a consumed event out to every consumer bound to its routing
// key. Both the in-process bus and the RabbitMQ consumer route through it.
type Router struct {
	mu     sync.RWMutex
	routes map[string][]EventConsumer
	logger *slog.Logger
}

// NewRouter creates an empty router.
func NewRouter(logger *slog.Logger) *Router {
	if logger == nil {
		logger = observability.DiscardLogger()
	}
	return &Router{routes: make(map[string][]EventConsumer), logger: logger}
}

// Add binds consumer to each of its routing keys.
func (r *Router) Add(consumer EventConsumer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, key := range consumer.EventTypes() {
		r.routes[key] = append(r.routes[key], consumer)
	}
}

// RoutingKeys lists the bound keys in order.
func (r *Router) RoutingKeys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.routes))
	for k := range r.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Router) consumers(key string) []EventConsumer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventConsumer(nil), r.routes[key]...)
}

// Route hands event to every bound consumer, even after one fails, and
// returns the joined failures. A panicking consumer counts as a failure.
// The event's correlation id is carried on the consumers' context.
func (r *Router) Route(ctx context.Context, event *ConsumedEvent) error {
	targets := r.consumers(event.RoutingKey)
	if len(targets) == 0 {
		r.logger.Debug("no consumer bound", "routing_key", event.RoutingKey)
		return nil
	}
	if id := event.Metadata.CorrelationID; id != "" {
		ctx = observability.WithCorrelationID(ctx, id)
	}

	var errs []error
	for _, c := range targets {
		if err := handle(ctx, c, event); err != nil {
			r.logger.ErrorContext(ctx, "consumer failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func handle(ctx context.Context, c EventConsumer, event *ConsumedEvent) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("consumer panic on %s: %v", event.RoutingKey, p)
		}
	}()
	return c.Handle(ctx, event)
}
