package app

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/history"
)

// RetentionCutoff is the first local day kept when retaining days of history
// as of now.
func RetentionCutoff(now time.Time, loc *time.Location, days int) time.Time {
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return start.AddDate(0, 0, -days)
}

// PruneHistory drops history older than the configured retention. It is a
// no-op when retention is disabled or the store cannot prune.
func (c *Container) PruneHistory(ctx context.Context, now time.Time) (int, error) {
	days := c.Config.HistoryRetentionDays
	pruner, ok := c.HistoryRepo.(history.Pruner)
	if days <= 0 || !ok {
		return 0, nil
	}

	cutoff := RetentionCutoff(now, c.Location, days)
	removed, err := pruner.Prune(ctx, time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.UTC))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		c.Logger.Info("pruned history", "before", cutoff.Format("2006-01-02"), "rows", removed)
		c.Metrics.Counter("history_pruned_rows", int64(removed))
	}
	return removed, nil
}
