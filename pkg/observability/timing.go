package observability

import (
	"context"
	"log/slog"
	"time"
)

// TimeOperation runs fn with operation attached to ctx, then logs the
// outcome and records MetricOperationTotal, MetricOperationDuration and
// MetricOperationErrors tagged with the operation name.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) error) error {
	_, err := TimeOperationResult(ctx, logger, metrics, operation, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// TimeOperationResult is TimeOperation for functions returning a value.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx = WithOperation(ctx, operation)
	start := time.Now()
	result, err := fn(ctx)
	observe(ctx, logger, metrics, operation, time.Since(start), err)
	return result, err
}

func observe(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, elapsed time.Duration, err error) {
	if logger != nil {
		if err != nil {
			logger.ErrorContext(ctx, "operation failed", DurationKey, elapsed.Milliseconds(), ErrorKey, err.Error())
		} else {
			logger.DebugContext(ctx, "operation completed", DurationKey, elapsed.Milliseconds())
		}
	}
	if metrics == nil {
		return
	}
	tag := T("operation", operation)
	metrics.Timing(MetricOperationDuration, elapsed, tag)
	metrics.Counter(MetricOperationTotal, 1, tag)
	if err != nil {
		metrics.Counter(MetricOperationErrors, 1, tag)
	}
}
