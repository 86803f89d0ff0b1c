package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInMemoryMetrics(t *testing.T) {
	t.Run("counter accumulates", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter(MetricReconcileCompleted, 1)
		m.Counter(MetricReconcileCompleted, 2)

		assert.Equal(t, int64(3), m.GetCounter(MetricReconcileCompleted))
	})

	t.Run("tags are order independent", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("c", 1, T("a", "1"), T("b", "2"))

		assert.Equal(t, int64(1), m.GetCounter("c", T("b", "2"), T("a", "1")))
	})

	t.Run("gauge overwrites", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Gauge("score", 80)
		m.Gauge("score", 94)

		assert.Equal(t, 94.0, m.GetGauge("score"))
	})

	t.Run("timings append", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Timing("t", time.Second)
		m.Timing("t", 2*time.Second)

		assert.Len(t, m.GetTimings("t"), 2)
	})

	t.Run("snapshot includes counters gauges and histogram means", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Counter("c", 2)
		m.Gauge("g", 1.5)
		m.Histogram(MetricBackendLatency, 100)
		m.Histogram(MetricBackendLatency, 300)

		snap := m.Snapshot()
		assert.Equal(t, 2.0, snap["c"])
		assert.Equal(t, 1.5, snap["g"])
		assert.Equal(t, 200.0, snap[MetricBackendLatency+".avg"])
	})

	t.Run("timings are copied", func(t *testing.T) {
		m := NewInMemoryMetrics()
		m.Timing("t", time.Second)
		got := m.GetTimings("t")
		got[0] = 0

		assert.Equal(t, time.Second, m.GetTimings("t")[0])
	})
}

func TestNoopMetrics(t *testing.T) {
	var m Metrics = NoopMetrics{}
	assert.NotPanics(t, func() {
		m.Counter("c", 1)
		m.Gauge("g", 1)
		m.Histogram("h", 1)
		m.Timing("t", time.Millisecond)
	})
}

func TestHealthRegistry(t *testing.T) {
	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("down") }

	t.Run("healthy when all pass", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("todoist", PingChecker("todoist", true, ok))

		health := r.GetOverallHealth(context.Background())
		assert.Equal(t, HealthStatusHealthy, health.Status)
		assert.Contains(t, health.Checks, "todoist")
	})

	t.Run("degraded for non critical failure", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("todoist", PingChecker("todoist", true, ok))
		r.Register("redis", PingChecker("redis", false, fail))

		assert.Equal(t, HealthStatusDegraded, r.GetOverallHealth(context.Background()).Status)
	})

	t.Run("unhealthy wins over degraded", func(t *testing.T) {
		r := NewHealthRegistry()
		r.Register("todoist", PingChecker("todoist", true, fail))
		r.Register("redis", PingChecker("redis", false, fail))

		health := r.GetOverallHealth(context.Background())
		assert.Equal(t, HealthStatusUnhealthy, health.Status)
		assert.Contains(t, health.Checks["todoist"].Message, "down")

		data, err := health.ToJSON()
		assert.NoError(t, err)
		assert.Contains(t, string(data), `"unhealthy"`)
	})
}
