package services

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
)

// Clock returns the current time.
type Clock func() time.Time

// DeferredTask is one task moved by a sweep.
type DeferredTask struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Normalized bool   `json:"normalized"`
}

// SweepResult describes a committed sweep.
type SweepResult struct {
	Day      time.Time
	Deferred []DeferredTask
	Events   []domain.DomainEvent
}

// TaskIDs returns the ids of the deferred tasks in sweep order.
func (r SweepResult) TaskIDs() []string {
	ids := make([]string, len(r.Deferred))
	for i, d := range r.Deferred {
		ids[i] = d.ID
	}
	return ids
}

// DeferralEngine relocates overdue tasks to today.
type DeferralEngine struct {
	aggregator *Aggregator
	repo       task.Repository
	uow        sharedApplication.UnitOfWork
	reconciler *DurationReconciler
	loc        *time.Location
	now        Clock
}

// NewDeferralEngine creates a DeferralEngine that computes "today" in loc.
func NewDeferralEngine(aggregator *Aggregator, repo task.Repository, uow sharedApplication.UnitOfWork, rules task.Rules, loc *time.Location, now Clock) *DeferralEngine {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DeferralEngine{
		aggregator: aggregator,
		repo:       repo,
		uow:        uow,
		reconciler: NewDurationReconciler(repo, rules),
		loc:        loc,
		now:        now,
	}
}

// Sweep normalizes every overdue task's annotation and moves its current
// occurrence to today at midnight without advancing the recurrence. Nothing
// is completed. With no overdue tasks no commit is issued.
func (e *DeferralEngine) Sweep(ctx context.Context) (SweepResult, error) {
	today := task.DayWindowAt(e.now(), e.loc).Start

	overdue, err := e.aggregator.Overdue(ctx)
	if err != nil {
		return SweepResult{}, err
	}
	if len(overdue) == 0 {
		return SweepResult{Day: today}, nil
	}

	return sharedApplication.WithUnitOfWorkResult(ctx, e.uow, func(txCtx context.Context) (SweepResult, error) {
		result := SweepResult{Day: today}
		for _, t := range overdue {
			content, normalized, err := e.reconciler.Reconcile(txCtx, t)
			if err != nil {
				return SweepResult{}, err
			}
			if err := e.repo.RescheduleRecurring(txCtx, t.ID, t.DateString, &today, false); err != nil {
				return SweepResult{}, err
			}
			result.Deferred = append(result.Deferred, DeferredTask{ID: t.ID, Content: content, Normalized: normalized})
			result.Events = append(result.Events, task.NewTaskDeferred(t.ID, content, today))
		}
		result.Events = append(result.Events, task.NewSweepCompleted(today, result.TaskIDs()))
		return result, nil
	})
}
