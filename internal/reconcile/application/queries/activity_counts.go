package queries

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// ActivityCounter tallies today's activity.
type ActivityCounter interface {
	ActivityCounts(ctx context.Context) (task.ActivityCounts, error)
	Window() task.DayWindow
}

// ActivityCountsDTO is today's activity with the day it covers.
type ActivityCountsDTO struct {
	Day string `json:"day"`
	task.ActivityCounts
}

// ActivityCountsHandler returns today's added, completed and updated counts.
type ActivityCountsHandler struct {
	counter ActivityCounter
}

// NewActivityCountsHandler creates a new ActivityCountsHandler.
func NewActivityCountsHandler(counter ActivityCounter) *ActivityCountsHandler {
	return &ActivityCountsHandler{counter: counter}
}

// Handle executes the query.
func (h *ActivityCountsHandler) Handle(ctx context.Context) (ActivityCountsDTO, error) {
	counts, err := h.counter.ActivityCounts(ctx)
	if err != nil {
		return ActivityCountsDTO{}, err
	}
	return ActivityCountsDTO{
		Day:            h.counter.Window().Start.Format("2006-01-02"),
		ActivityCounts: counts,
	}, nil
}
