package timetracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/cache"
	"github.com/felixgeelhaar/taskpulse/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// DedupeTTL is how long a handled entry id is remembered.
const DedupeTTL = 24 * time.Hour

// EntrySource fetches an entry the message did not describe in full.
type EntrySource interface {
	Entry(ctx context.Context, id string) (TimeEntry, error)
}

// Reconciler applies a time entry to the task list.
type Reconciler interface {
	Handle(ctx context.Context, cmd commands.ReconcileTimeEntryCommand) (commands.ReconcileTimeEntryResult, error)
}

// EntryStoppedConsumer reconciles every stopped entry once.
type EntryStoppedConsumer struct {
	reconciler Reconciler
	source     EntrySource
	seen       cache.Store
	metrics    observability.Metrics
	logger     *slog.Logger
}

var _ eventbus.EventConsumer = (*EntryStoppedConsumer)(nil)

// NewEntryStoppedConsumer creates a new EntryStoppedConsumer. A nil source
// drops messages that lack a description or duration.
func NewEntryStoppedConsumer(reconciler Reconciler, source EntrySource, seen cache.Store, metrics observability.Metrics, logger *slog.Logger) *EntryStoppedConsumer {
	if seen == nil {
		seen = cache.NewMemoryStore()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EntryStoppedConsumer{
		reconciler: reconciler,
		source:     source,
		seen:       seen,
		metrics:    metrics,
		logger:     logger,
	}
}

// EventTypes implements eventbus.EventConsumer.
func (c *EntryStoppedConsumer) EventTypes() []string {
	return []string{RoutingKeyEntryStopped}
}

// Handle implements eventbus.EventConsumer. Malformed and duplicate
// messages are dropped. On failure the entry is forgotten so that a
// redelivery retries it.
func (c *EntryStoppedConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	c.metrics.Counter(observability.MetricEventsConsumed, 1, observability.T("routing_key", event.RoutingKey))

	var msg EntryStopped
	if err := json.Unmarshal(event.Payload, &msg); err != nil || msg.EntryID == "" {
		c.logger.WarnContext(ctx, "dropping malformed time entry message", "event_id", event.EventID, "error", err)
		return nil
	}
	if event.Metadata.CorrelationID != "" {
		ctx = observability.WithCorrelationID(ctx, event.Metadata.CorrelationID)
	}

	key := "entry:" + msg.EntryID
	fresh, err := c.seen.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), DedupeTTL)
	if err != nil {
		return fmt.Errorf("dedupe entry %s: %w", msg.EntryID, err)
	}
	if !fresh {
		c.logger.DebugContext(ctx, "skipping already reconciled entry", "entry_id", msg.EntryID)
		return nil
	}

	err = c.reconcile(ctx, msg)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEntryNotFound):
		c.logger.WarnContext(ctx, "dropping unknown time entry", "entry_id", msg.EntryID)
		return nil
	}
	if delErr := c.seen.Delete(ctx, key); delErr != nil {
		c.logger.WarnContext(ctx, "failed to release dedupe key", "entry_id", msg.EntryID, "error", delErr)
	}
	if errors.Is(err, ErrEntryRunning) {
		// A later stop message will carry it.
		c.logger.InfoContext(ctx, "ignoring running time entry", "entry_id", msg.EntryID)
		return nil
	}
	return err
}

func (c *EntryStoppedConsumer) reconcile(ctx context.Context, msg EntryStopped) error {
	entry := msg.Entry()
	if !msg.Complete() {
		if c.source == nil {
			c.logger.WarnContext(ctx, "incomplete time entry and no tracker configured", "entry_id", msg.EntryID)
			return nil
		}
		fetched, err := c.source.Entry(ctx, msg.EntryID)
		if err != nil {
			return fmt.Errorf("fetch entry %s: %w", msg.EntryID, err)
		}
		entry = fetched
	}
	if entry.Running() && !msg.Complete() {
		return fmt.Errorf("entry %s: %w", msg.EntryID, ErrEntryRunning)
	}

	result, err := c.reconciler.Handle(ctx, commands.ReconcileTimeEntryCommand{
		Description: entry.Description,
		Minutes:     entry.Minutes(),
	})
	if err != nil {
		return err
	}
	c.logger.InfoContext(ctx, "time entry handled",
		"entry_id", entry.ID,
		"matched", result.Matched,
		"outcome", string(result.Outcome),
	)
	return nil
}
