package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
	"github.com/google/uuid"
)

// Publisher sends raw messages to a broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload []byte) error
	Close() error
}

// Envelope is the wire format of a published domain event.
type Envelope struct {
	EventID       uuid.UUID       `json:"event_id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	RoutingKey    string          `json:"routing_key"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Metadata      EventMetadata   `json:"metadata,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// NewEnvelope wraps a domain event. The payload is the event's own exported
// fields.
func NewEnvelope(event domain.DomainEvent) (Envelope, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s: %w", event.RoutingKey(), err)
	}
	meta := event.Metadata()
	return Envelope{
		EventID:       event.EventID(),
		AggregateID:   event.AggregateID(),
		AggregateType: event.AggregateType(),
		RoutingKey:    event.RoutingKey(),
		OccurredAt:    event.OccurredAt(),
		Metadata:      EventMetadata{CorrelationID: meta.CorrelationID, CausationID: meta.CausationID},
		Payload:       payload,
	}, nil
}

// DomainEventPublisher adapts a Publisher to the application's
// EventPublisher, one message per event.
type DomainEventPublisher struct {
	publisher Publisher
}

var _ sharedApplication.EventPublisher = (*DomainEventPublisher)(nil)

// NewDomainEventPublisher creates a new DomainEventPublisher.
func NewDomainEventPublisher(publisher Publisher) *DomainEventPublisher {
	return &DomainEventPublisher{publisher: publisher}
}

// PublishEvents publishes every event and returns the joined failures.
// A failing event does not stop the rest.
func (p *DomainEventPublisher) PublishEvents(ctx context.Context, events ...domain.DomainEvent) error {
	var errs []error
	for _, event := range events {
		env, err := NewEnvelope(event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		body, err := json.Marshal(env)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := p.publisher.Publish(ctx, env.RoutingKey, body); err != nil {
			errs = append(errs, fmt.Errorf("publish %s: %w", env.RoutingKey, err))
		}
	}
	return errors.Join(errs...)
}
