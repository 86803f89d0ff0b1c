package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/felixgeelhaar/taskpulse/internal/notification"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
	sharedApplication "github.com/felixgeelhaar/taskpulse/internal/shared/application"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// SweepOverdueCommand requests an overdue sweep. Channel overrides the
// notifier's default destination when set.
type SweepOverdueCommand struct {
	Channel string
}

// SweepOverdueResult lists the tasks moved to today.
type SweepOverdueResult struct {
	Day      string                  `json:"day"`
	Deferred []services.DeferredTask `json:"deferred"`
}

// Count returns the number of deferred tasks.
func (r SweepOverdueResult) Count() int { return len(r.Deferred) }

// Sweeper defers overdue tasks.
type Sweeper interface {
	Sweep(ctx context.Context) (services.SweepResult, error)
}

// SweepOverdueHandler handles the SweepOverdueCommand.
type SweepOverdueHandler struct {
	sweeper   Sweeper
	notifier  notification.Notifier
	publisher sharedApplication.EventPublisher
	history   history.Repository
	metrics   observability.Metrics
	logger    *slog.Logger
}

// NewSweepOverdueHandler creates a new SweepOverdueHandler.
func NewSweepOverdueHandler(
	sweeper Sweeper,
	notifier notification.Notifier,
	publisher sharedApplication.EventPublisher,
	historyRepo history.Repository,
	metrics observability.Metrics,
	logger *slog.Logger,
) *SweepOverdueHandler {
	if notifier == nil {
		notifier = notification.NopNotifier{}
	}
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
	return &SweepOverdueHandler{
		sweeper:   sweeper,
		notifier:  notifier,
		publisher: publisher,
		history:   historyRepo,
		metrics:   metrics,
		logger:    logger,
	}
}

// Handle executes the SweepOverdueCommand. A failed sweep sends nothing;
// a successful one always notifies, even when nothing was overdue.
func (h *SweepOverdueHandler) Handle(ctx context.Context, cmd SweepOverdueCommand) (SweepOverdueResult, error) {
	return observability.TimeOperationResult(ctx, h.logger, h.metrics, "sweep_overdue",
		func(ctx context.Context) (SweepOverdueResult, error) { return h.handle(ctx, cmd) })
}

func (h *SweepOverdueHandler) handle(ctx context.Context, cmd SweepOverdueCommand) (SweepOverdueResult, error) {
	swept, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return SweepOverdueResult{}, err
	}

	result := SweepOverdueResult{
		Day:      swept.Day.Format("2006-01-02"),
		Deferred: swept.Deferred,
	}
	if result.Deferred == nil {
		result.Deferred = []services.DeferredTask{}
	}

	h.metrics.Counter(observability.MetricSweepDeferred, int64(result.Count()))
	h.logger.InfoContext(ctx, "overdue sweep finished", "day", result.Day, "deferred", result.Count())

	if len(swept.Events) > 0 {
		sharedApplication.ApplyEventMetadata(swept.Events, sharedApplication.NewEventMetadata(ctx))
		if err := h.publisher.PublishEvents(ctx, swept.Events...); err != nil {
			h.logger.WarnContext(ctx, "failed to publish sweep events", "error", err)
		} else {
			h.metrics.Counter(observability.MetricEventsPublished, int64(len(swept.Events)))
		}
		record := history.NewRecord(history.KindSweep, "overdue sweep", "deferred", 0, swept.TaskIDs()...)
		if err := h.history.SaveRecord(ctx, record); err != nil {
			h.logger.WarnContext(ctx, "failed to record sweep", "error", err)
		}
	}

	if err := h.notifier.Send(ctx, sweepMessage(cmd.Channel, result)); err != nil {
		h.logger.WarnContext(ctx, "failed to send sweep notification",
			"notifier", h.notifier.Name(),
			"error", err,
		)
	}

	return result, nil
}

func sweepMessage(channel string, result SweepOverdueResult) notification.Message {
	msg := notification.Message{
		Channel: channel,
		Text:    fmt.Sprintf("Moved %d overdue task(s) to today.", result.Count()),
	}
	if result.Count() == 0 {
		return msg
	}
	lines := make([]string, len(result.Deferred))
	for i, d := range result.Deferred {
		lines[i] = "- " + d.Content
	}
	msg.Attachments = []notification.Attachment{{
		Title: "Deferred to " + result.Day,
		Text:  strings.Join(lines, "\n"),
	}}
	return msg
}
