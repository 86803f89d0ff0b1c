package task

import (
	"context"
	"time"
)

// Repository reads tasks from the backend and buffers writes into the
// unit of work carried by ctx.
type Repository interface {
	// FindByFilter returns every matching task, across all pages.
	FindByFilter(ctx context.Context, filter Filter) ([]*Task, error)
	FindByID(ctx context.Context, id string) (*Task, error)

	// Complete closes a task for good.
	Complete(ctx context.Context, id string) error
	// UpdateContent replaces the task's text.
	UpdateContent(ctx context.Context, id, content string) error
	// RescheduleRecurring moves a task's due date keeping dateString. With
	// forward set the recurrence advances to its next occurrence and newDate
	// is ignored; otherwise the current occurrence is relocated to newDate.
	RescheduleRecurring(ctx context.Context, id, dateString string, newDate *time.Time, forward bool) error
}

// ActivityLog returns recent backend activity.
type ActivityLog interface {
	Recent(ctx context.Context) ([]ActivityEvent, error)
}

// Directory resolves display names.
type Directory interface {
	LabelName(ctx context.Context, id string) (string, error)
	ProjectName(ctx context.Context, id string) (string, error)
}

// KarmaSource returns the backend's opaque productivity trend.
type KarmaSource interface {
	KarmaTrend(ctx context.Context) (string, error)
}
