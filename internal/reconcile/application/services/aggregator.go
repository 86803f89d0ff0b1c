package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// Aggregator builds the overdue and today task sets.
type Aggregator struct {
	repo task.Repository
}

// NewAggregator creates a new Aggregator.
func NewAggregator(repo task.Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// Overdue returns the tasks due one to seven days ago, one query per day,
// concatenated from the oldest offset to the newest.
func (a *Aggregator) Overdue(ctx context.Context) ([]*task.Task, error) {
	var tasks []*task.Task
	for _, f := range task.OverdueFilters() {
		found, err := a.query(ctx, f)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, found...)
	}
	return tasks, nil
}

// OverdueCount returns the number of overdue tasks.
func (a *Aggregator) OverdueCount(ctx context.Context) (int, error) {
	tasks, err := a.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// OverduePoints returns the penalty points of the overdue tasks.
func (a *Aggregator) OverduePoints(ctx context.Context) (int, error) {
	tasks, err := a.Overdue(ctx)
	if err != nil {
		return 0, err
	}
	return task.Points(tasks), nil
}

// OverdueMode selects what OverdueBy computes.
type OverdueMode string

const (
	ModeAll   OverdueMode = "all"
	ModeCount OverdueMode = "count"
	ModePoint OverdueMode = "point"
)

// ErrUnknownMode is returned for an OverdueMode outside all, count and point.
var ErrUnknownMode = errors.New("unknown overdue mode")

// OverdueResult holds the field selected by the mode; the others stay zero.
type OverdueResult struct {
	Tasks  []*task.Task `json:"tasks,omitempty"`
	Count  int          `json:"count"`
	Points int          `json:"points"`
}

// OverdueBy runs Overdue and reduces it according to mode.
func (a *Aggregator) OverdueBy(ctx context.Context, mode OverdueMode) (OverdueResult, error) {
	switch mode {
	case ModeAll, ModeCount, ModePoint:
	default:
		return OverdueResult{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	tasks, err := a.Overdue(ctx)
	if err != nil {
		return OverdueResult{}, err
	}
	switch mode {
	case ModeCount:
		return OverdueResult{Count: len(tasks)}, nil
	case ModePoint:
		return OverdueResult{Points: task.Points(tasks)}, nil
	}
	return OverdueResult{Tasks: tasks, Count: len(tasks), Points: task.Points(tasks)}, nil
}

// Today returns the tasks due today in backend order.
func (a *Aggregator) Today(ctx context.Context) ([]*task.Task, error) {
	return a.query(ctx, task.Today())
}

// OverdueAndToday returns overdue tasks followed by today's. A task the
// backend reports in both sets appears twice.
func (a *Aggregator) OverdueAndToday(ctx context.Context) ([]*task.Task, error) {
	overdue, err := a.Overdue(ctx)
	if err != nil {
		return nil, err
	}
	today, err := a.Today(ctx)
	if err != nil {
		return nil, err
	}
	return append(overdue, today...), nil
}

func (a *Aggregator) query(ctx context.Context, f task.Filter) ([]*task.Task, error) {
	tasks, err := a.repo.FindByFilter(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", f.String(), err)
	}
	return tasks, nil
}
