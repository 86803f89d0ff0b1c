package task

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func TestDayWindowAt(t *testing.T) {
	loc := seoul(t)

	// 2026-10-17 20:00 UTC is already 2026-10-18 05:00 in Seoul.
	now := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	w := DayWindowAt(now, loc)

	assert.Equal(t, time.Date(2026, 10, 18, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, loc), w.End)

	t.Run("half open", func(t *testing.T) {
		assert.True(t, w.Contains(w.Start))
		assert.False(t, w.Contains(w.End))
		assert.True(t, w.Contains(w.End.Add(-time.Nanosecond)))
		assert.False(t, w.Contains(w.Start.Add(-time.Nanosecond)))
	})

	t.Run("nil location is utc", func(t *testing.T) {
		w := DayWindowAt(now, nil)
		assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), w.Start)
	})
}

func TestCountActivity(t *testing.T) {
	loc := seoul(t)
	w := DayWindowAt(time.Date(2026, 10, 18, 12, 0, 0, 0, loc), loc)

	events := []ActivityEvent{
		{EventType: EventAdded, EventDate: w.Start},
		{EventType: EventAdded, EventDate: w.Start.Add(time.Hour)},
		{EventType: EventCompleted, EventDate: w.Start.Add(2 * time.Hour)},
		{EventType: EventUpdated, EventDate: w.End.Add(-time.Second)},
		{EventType: EventUpdated, EventDate: w.End},
		{EventType: EventCompleted, EventDate: w.Start.Add(-time.Second)},
		{EventType: "deleted", EventDate: w.Start.Add(time.Hour)},
		{EventType: "note_added", EventDate: w.Start.Add(time.Hour)},
	}

	counts := CountActivity(events, w)

	assert.Equal(t, ActivityCounts{Added: 2, Completed: 1, Updated: 1}, counts)
}

func TestCountActivity_Empty(t *testing.T) {
	w := DayWindowAt(time.Now(), time.UTC)
	assert.Equal(t, ActivityCounts{}, CountActivity(nil, w))
}

func TestParseEventDate(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"legacy format", "18 Oct 2026 03:04:05 +0000", time.Date(2026, 10, 18, 3, 4, 5, 0, time.UTC)},
		{"legacy with weekday", "Sun 18 Oct 2026 03:04:05 +0000", time.Date(2026, 10, 18, 3, 4, 5, 0, time.UTC)},
		{"rfc3339", "2026-10-18T03:04:05Z", time.Date(2026, 10, 18, 3, 4, 5, 0, time.UTC)},
		{"naive utc", "2026-10-18T03:04:05.000000", time.Date(2026, 10, 18, 3, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEventDate(tt.value)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}

	t.Run("offset converts to reference zone", func(t *testing.T) {
		got, err := ParseEventDate("17 Oct 2026 15:00:00 +0000")
		require.NoError(t, err)
		assert.Equal(t, 18, got.In(seoul(t)).Day())
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseEventDate("yesterday-ish")
		assert.Error(t, err)
	})
}
