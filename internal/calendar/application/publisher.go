package application

import (
	"context"
	"time"
)

// TimedEvent is a timed task projected onto a calendar.
type TimedEvent struct {
	// TaskID identifies the task; publishers key events by it so republishing
	// the same day updates instead of duplicating.
	TaskID      string
	Title       string
	Start       time.Time
	End         time.Time
	Description string
}

// PublishResult describes the outcome of a publish run.
type PublishResult struct {
	Created int
	Updated int
	Failed  int
}

// Publisher writes timed events into an external calendar.
type Publisher interface {
	Publish(ctx context.Context, events []TimedEvent) (*PublishResult, error)
}

// NopPublisher is used when no calendar is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(_ context.Context, events []TimedEvent) (*PublishResult, error) {
	return &PublishResult{}, nil
}
