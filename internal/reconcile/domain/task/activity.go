package task

import (
	"fmt"
	"strings"
	"time"
)

// EventType is the kind of an activity log entry.
type EventType string

const (
	EventAdded     EventType = "added"
	EventCompleted EventType = "completed"
	EventUpdated   EventType = "updated"
)

// ActivityEvent is one entry of the backend's activity log.
type ActivityEvent struct {
	EventType EventType
	EventDate time.Time
	ObjectID  string
}

// ActivityCounts tallies the tracked event types of one day.
type ActivityCounts struct {
	Added     int `json:"added"`
	Completed int `json:"completed"`
	Updated   int `json:"updated"`
}

// DayWindow is the half-open interval [Start, End) of one local day.
type DayWindow struct {
	Start time.Time
	End   time.Time
}

// DayWindowAt returns the local day containing now in loc.
func DayWindowAt(now time.Time, loc *time.Location) DayWindow {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return DayWindow{Start: start, End: start.AddDate(0, 0, 1)}
}

// Contains reports whether t falls inside the window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CountActivity tallies events inside the window. Unknown event types are ignored.
func CountActivity(events []ActivityEvent, window DayWindow) ActivityCounts {
	var counts ActivityCounts
	for _, e := range events {
		if !window.Contains(e.EventDate) {
			continue
		}
		switch e.EventType {
		case EventAdded:
			counts.Added++
		case EventCompleted:
			counts.Completed++
		case EventUpdated:
			counts.Updated++
		}
	}
	return counts
}

var eventDateLayouts = []string{
	"02 Jan 2006 15:04:05 -0700",
	"Mon 02 Jan 2006 15:04:05 -0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
}

// ParseEventDate parses the backend's activity timestamps. Timestamps
// without an offset are read as UTC.
func ParseEventDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized event date %q", value)
}
