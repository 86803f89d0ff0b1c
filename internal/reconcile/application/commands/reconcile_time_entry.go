package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// ErrNegativeMinutes is returned for a time entry with negative duration.
var ErrNegativeMinutes = errors.New("logged minutes must not be negative")

// ReconcileTimeEntryCommand carries a stopped time entry.
type ReconcileTimeEntryCommand struct {
	Description string
	Minutes     int
}

// ReconcileTimeEntryResult reports what happened to the matched task.
// Matched is false when no open task contains the entry's key.
type ReconcileTimeEntryResult struct {
	Matched   bool             `json:"matched"`
	Key       string           `json:"key"`
	TaskID    string           `json:"task_id,omitempty"`
	Content   string           `json:"content,omitempty"`
	Outcome   services.Outcome `json:"outcome,omitempty"`
	Assigned  *int             `json:"assigned_minutes,omitempty"`
	Remaining int              `json:"remaining_minutes,omitempty"`
}

// TaskResolver finds the open task a time entry refers to.
type TaskResolver interface {
	Resolve(ctx context.Context, description string) (services.Match, bool, error)
}

// Completer applies logged time to a task.
type Completer interface {
	Apply(ctx context.Context, taskID string, assigned *int, logged int) (services.CompletionResult, error)
}

// ReconcileTimeEntryHandler handles the ReconcileTimeEntryCommand.
type ReconcileTimeEntryHandler struct {
	resolver  TaskResolver
	completer Completer
	publisher sharedApplication.EventPublisher
	history   history.Repository
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewReconcileTimeEntryHandler creates a new ReconcileTimeEntryHandler.
// Nil publisher, history, metrics and logger fall back to no-ops.
func NewReconcileTimeEntryHandler(
	resolver TaskResolver,
	completer Completer,
	publisher sharedApplication.EventPublisher,
	historyRepo history.Repository,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ReconcileTimeEntryHandler {
	if publisher == nil {
		publisher = sharedApplication.NopEventPublisher{}
	}
	if historyRepo == nil {
		historyRepo = history.NopRepository{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileTimeEntryHandler{
		resolver:  resolver,
		completer: completer,
		publisher: publisher,
		history:   historyRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle executes the ReconcileTimeEntryCommand.
func (h *ReconcileTimeEntryHandler) Handle(ctx context.Context, cmd ReconcileTimeEntryCommand) (ReconcileTimeEntryResult, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "reconcile_time_entry",
		func(ctx context.Context) (ReconcileTimeEntryResult, error) { return h.handle(ctx, cmd) })
}

func (h *ReconcileTimeEntryHandler) handle(ctx context.Context, cmd ReconcileTimeEntryCommand) (ReconcileTimeEntryResult, error) {
	if cmd.Minutes < 0 {
		return ReconcileTimeEntryResult{}, ErrNegativeMinutes
	}

	match, found, err := h.resolver.Resolve(ctx, cmd.Description)
	if err != nil {
		return ReconcileTimeEntryResult{}, err
	}
	result := ReconcileTimeEntryResult{Key: match.Key}
	if !found {
		h.metrics.Counter(observability.MetricReconcileUnmatched, 1)
		h.logger.InfoContext(ctx, "no open task matches time entry", "key", match.Key)
		return result, nil
	}

	applied, err := h.completer.Apply(ctx, match.Task.ID, match.AssignedDuration(), cmd.Minutes)
	if err != nil {
		return ReconcileTimeEntryResult{}, err
	}

	result.Matched = true
	result.TaskID = applied.TaskID
	result.Content = applied.Content
	result.Outcome = applied.Outcome
	result.Assigned = match.AssignedDuration()
	if applied.Outcome == services.OutcomeProgressed {
		result.Remaining = applied.Remaining
	}

	h.metrics.Counter(outcomeMetric(applied.Outcome), 1)
	h.logger.InfoContext(ctx, "time entry reconciled",
		"task_id", applied.TaskID,
		"outcome", string(applied.Outcome),
		"logged_minutes", cmd.Minutes,
	)

	sharedApplication.ApplyEventMetadata(applied.Events, sharedApplication.NewEventMetadata(ctx))
	if err := h.publisher.PublishEvents(ctx, applied.Events...); err != nil {
		h.logger.WarnContext(ctx, "failed to publish reconciliation events", "error", err)
	} else {
		h.metrics.Counter(observability.MetricEventsPublished, int64(len(applied.Events)))
	}

	record := history.NewRecord(history.KindCompletion, cmd.Description, string(applied.Outcome), cmd.Minutes, applied.TaskID)
	if err := h.history.SaveRecord(ctx, record); err != nil {
		h.logger.WarnContext(ctx, "failed to record reconciliation", "error", err)
	}

	return result, nil
}

func outcomeMetric(o services.Outcome) string {
	switch o {
	case services.OutcomeAdvanced:
		return observability.MetricReconcileAdvanced
	case services.OutcomeProgressed:
		return observability.MetricReconcileProgressed
	default:
		return observability.MetricReconcileCompleted
	}
}
