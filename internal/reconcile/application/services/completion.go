package services

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
)

// Outcome is what the completion engine did with a task.
type Outcome string

const (
	// OutcomeCompleted means a one-off task was closed.
	OutcomeCompleted Outcome = "completed"
	// OutcomeAdvanced means a recurring task moved to its next occurrence.
	OutcomeAdvanced Outcome = "advanced"
	// OutcomeProgressed means the remaining-time annotation was reduced.
	OutcomeProgressed Outcome = "progressed"
)

// Decision is the completion rule's verdict before the recurrence check.
type Decision int

const (
	DecisionComplete Decision = iota
	DecisionPartial
)

// Decide applies the completion rule. An untimed task, or one whose logged
// time reached the assignment, completes.
func Decide(assigned *int, logged int) Decision {
	if assigned == nil || logged >= *assigned {
		return DecisionComplete
	}
	return DecisionPartial
}

// CompletionResult describes a committed completion.
type CompletionResult struct {
	TaskID  string
	Content string
	Outcome Outcome
	Logged  int
	// Remaining is only meaningful for OutcomeProgressed.
	Remaining int
	Events    []domain.DomainEvent
}

// CompletionEngine turns logged time into task writes.
type CompletionEngine struct {
	repo       task.Repository
	uow        sharedApplication.UnitOfWork
	rules      task.Rules
	reconciler *DurationReconciler
}

// NewCompletionEngine creates a new CompletionEngine.
func NewCompletionEngine(repo task.Repository, uow sharedApplication.UnitOfWork, rules task.Rules) *CompletionEngine {
	return &CompletionEngine{
		repo:       repo,
		uow:        uow,
		rules:      rules,
		reconciler: NewDurationReconciler(repo, rules),
	}
}

// Apply fetches a fresh view of the task, buffers the writes the completion
// rule calls for and commits them in one batch.
func (e *CompletionEngine) Apply(ctx context.Context, taskID string, assigned *int, logged int) (CompletionResult, error) {
	return sharedApplication.WithUnitOfWorkResult(ctx, e.uow, func(txCtx context.Context) (CompletionResult, error) {
		t, err := e.repo.FindByID(txCtx, taskID)
		if err != nil {
			return CompletionResult{}, fmt.Errorf("fetch task %s: %w", taskID, err)
		}

		if Decide(assigned, logged) == DecisionPartial {
			return e.progress(txCtx, t, *assigned, logged)
		}
		return e.complete(txCtx, t, logged)
	})
}

func (e *CompletionEngine) complete(ctx context.Context, t *task.Task, logged int) (CompletionResult, error) {
	content, _, err := e.reconciler.Reconcile(ctx, t)
	if err != nil {
		return CompletionResult{}, err
	}

	result := CompletionResult{TaskID: t.ID, Content: content, Logged: logged}

	if e.rules.IsRecurring(t) {
		if err := e.repo.RescheduleRecurring(ctx, t.ID, t.DateString, nil, true); err != nil {
			return CompletionResult{}, err
		}
		result.Outcome = OutcomeAdvanced
		result.Events = []domain.DomainEvent{task.NewTaskAdvanced(t.ID, content, t.DateString, logged)}
		return result, nil
	}

	if err := e.repo.Complete(ctx, t.ID); err != nil {
		return CompletionResult{}, err
	}
	result.Outcome = OutcomeCompleted
	result.Events = []domain.DomainEvent{task.NewTaskCompleted(t.ID, content, logged)}
	return result, nil
}

func (e *CompletionEngine) progress(ctx context.Context, t *task.Task, assigned, logged int) (CompletionResult, error) {
	remaining := assigned - logged
	content := e.rules.RemainingContent(t, remaining)
	if err := e.repo.UpdateContent(ctx, t.ID, content); err != nil {
		return CompletionResult{}, err
	}
	return CompletionResult{
		TaskID:    t.ID,
		Content:   content,
		Outcome:   OutcomeProgressed,
		Logged:    logged,
		Remaining: remaining,
		Events:    []domain.DomainEvent{task.NewTaskProgressed(t.ID, content, logged, remaining)},
	}, nil
}
