package services

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// DurationReconciler resets a task's remaining-time annotation to the
// policy default of its recurrence category.
type DurationReconciler struct {
	repo  task.Repository
	rules task.Rules
}

// NewDurationReconciler creates a new DurationReconciler.
func NewDurationReconciler(repo task.Repository, rules task.Rules) *DurationReconciler {
	return &DurationReconciler{repo: repo, rules: rules}
}

// Reconcile buffers the content update in the unit of work carried by ctx.
// Tasks without an annotation are left alone.
func (r *DurationReconciler) Reconcile(ctx context.Context, t *task.Task) (string, bool, error) {
	content, changed := r.rules.NormalizedContent(t)
	if !changed {
		return t.Content, false, nil
	}
	if err := r.repo.UpdateContent(ctx, t.ID, content); err != nil {
		return t.Content, false, err
	}
	return content, true, nil
}
