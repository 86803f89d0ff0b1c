package application

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
)

// EventPublisher delivers domain events after the writes that produced them
// were committed.
type EventPublisher interface {
	PublishEvents(ctx context.Context, events ...domain.DomainEvent) error
}

// NopEventPublisher drops events.
type NopEventPublisher struct{}

// PublishEvents implements EventPublisher.
func (NopEventPublisher) PublishEvents(context.Context, ...domain.DomainEvent) error { return nil }
