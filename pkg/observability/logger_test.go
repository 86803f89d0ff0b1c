package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	t.Run("creates text logger", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelInfo, Format: LogFormatText, Output: &buf})
		require.NotNil(t, logger)

		logger.Info("test message", "key", "value")

		assert.Contains(t, buf.String(), "test message")
		assert.Contains(t, buf.String(), "key=value")
	})

	t.Run("creates JSON logger with service attributes", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{
			Level:       LogLevelInfo,
			Format:      LogFormatJSON,
			Output:      &buf,
			ServiceName: "taskpulse-test",
		})

		logger.Info("test message", "key", "value")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "test message", entry["msg"])
		assert.Equal(t, "value", entry["key"])
		assert.Equal(t, "taskpulse-test", entry["service"])
	})

	t.Run("respects log level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Level: LogLevelWarn, Output: &buf})

		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("adds correlation id and operation from context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf})

		ctx := WithCorrelationID(context.Background(), "corr-1")
		ctx = WithOperation(ctx, "sweep")
		logger.InfoContext(ctx, "with context")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "corr-1", entry[CorrelationIDKey])
		assert.Equal(t, "sweep", entry[OperationKey])
	})
}

func TestLogConfigFor(t *testing.T) {
	cfg := LogConfigFor("worker", "DEBUG", "json")

	assert.Equal(t, "worker", cfg.ServiceName)
	assert.Equal(t, LogLevelDebug, cfg.Level)
	assert.Equal(t, LogFormatJSON, cfg.Format)
	assert.True(t, cfg.AddSource)

	cfg = LogConfigFor("cli", "", "")
	assert.Equal(t, LogLevelInfo, cfg.Level)
	assert.Equal(t, LogFormatText, cfg.Format)
}

func TestCorrelationID(t *testing.T) {
	t.Run("generates when empty", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	})

	t.Run("ensure keeps existing", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "keep")
		assert.Equal(t, "keep", CorrelationIDFromContext(EnsureCorrelationID(ctx)))
	})

	t.Run("nil context", func(t *testing.T) {
		//nolint:staticcheck
		assert.Empty(t, CorrelationIDFromContext(nil))
	})
}

func TestTimeOperation(t *testing.T) {
	metrics := NewInMemoryMetrics()
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Level: LogLevelDebug, Output: &buf})

	var seenOp string
	err := TimeOperation(context.Background(), logger, metrics, "score", func(ctx context.Context) error {
		seenOp = OperationFromContext(ctx)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "score", seenOp)
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationTotal, T("operation", "score")))

	boom := errors.New("boom")
	_, err = TimeOperationResult(context.Background(), logger, metrics, "score", func(ctx context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), metrics.GetCounter(MetricOperationErrors, T("operation", "score")))
	assert.Contains(t, buf.String(), "operation failed")
}

func TestLogLevel_Level(t *testing.T) {
	tests := map[LogLevel]slog.Level{
		LogLevelDebug: slog.LevelDebug,
		"WARN":        slog.LevelWarn,
		LogLevelError: slog.LevelError,
		"":            slog.LevelInfo,
		"verbose":     slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, in.Level(), string(in))
	}
}

func TestNewLogger_WithAttrsKeepsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{Format: LogFormatJSON, Output: &buf, ServiceName: "worker"}).
		With("queue", "taskpulse.time-entries")

	logger.InfoContext(WithCorrelationID(context.Background(), "corr-2"), "consumed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-2", entry[CorrelationIDKey])
	assert.Equal(t, "taskpulse.time-entries", entry["queue"])
	assert.Equal(t, "worker", entry["service"])
}
