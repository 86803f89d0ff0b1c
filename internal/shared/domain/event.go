// Package domain holds the event contract shared by the reconcile context
// and the event bus.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact emitted by an engine run and published on the bus
// under its routing key.
type DomainEvent interface {
	EventID() uuid.UUID
	AggregateID() string
	AggregateType() string
	RoutingKey() string
	OccurredAt() time.Time
	Metadata() EventMetadata
}

// EventMetadata links events back to the invocation that caused them.
type EventMetadata struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// Header is the envelope data common to every event. Embedding BaseEvent
// keeps it out of the event's JSON payload.
type Header struct {
	ID            uuid.UUID
	AggregateID   string
	AggregateType string
	RoutingKey    string
	OccurredAt    time.Time
	Metadata      EventMetadata
}

// BaseEvent implements DomainEvent for embedding.
type BaseEvent struct {
	h Header
}

// NewBaseEvent stamps a new event about a backend object. aggregateID is
// the backend's opaque id, such as a task id.
func NewBaseEvent(aggregateID, aggregateType, routingKey string) BaseEvent {
	return BaseEvent{h: Header{
		ID:            uuid.New(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		RoutingKey:    routingKey,
		OccurredAt:    time.Now().UTC(),
	}}
}

func (e BaseEvent) Header() Header          { return e.h }
func (e BaseEvent) EventID() uuid.UUID      { return e.h.ID }
func (e BaseEvent) AggregateID() string     { return e.h.AggregateID }
func (e BaseEvent) AggregateType() string   { return e.h.AggregateType }
func (e BaseEvent) RoutingKey() string      { return e.h.RoutingKey }
func (e BaseEvent) OccurredAt() time.Time   { return e.h.OccurredAt }
func (e BaseEvent) Metadata() EventMetadata { return e.h.Metadata }

func (e *BaseEvent) SetMetadata(metadata EventMetadata) {
	e.h.Metadata = metadata
}
