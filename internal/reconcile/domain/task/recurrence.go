package task

import "strings"

// RecurrenceCategory selects the default duration of a task.
type RecurrenceCategory int

const (
	RecurrenceOther RecurrenceCategory = iota
	RecurrenceDaily
	RecurrenceWeekday
)

func (c RecurrenceCategory) String() string {
	switch c {
	case RecurrenceDaily:
		return "daily"
	case RecurrenceWeekday:
		return "weekday"
	default:
		return "other"
	}
}

// Markers are the substrings of a due-date expression that identify recurrence.
type Markers struct {
	// Recurring marks any repeating expression ("every").
	Recurring string
	// Daily marks an every-day expression.
	Daily string
	// Weekday marks an every-weekday expression.
	Weekday string
}

// DefaultMarkers returns the Korean markers used by Todoist's natural language dates.
func DefaultMarkers() Markers {
	return Markers{Recurring: "매", Daily: "매일", Weekday: "평일"}
}

// Classify maps a due-date expression to its category. The daily marker
// wins over the weekday marker.
func (m Markers) Classify(dateString string) RecurrenceCategory {
	switch {
	case m.Daily != "" && strings.Contains(dateString, m.Daily):
		return RecurrenceDaily
	case m.Weekday != "" && strings.Contains(dateString, m.Weekday):
		return RecurrenceWeekday
	default:
		return RecurrenceOther
	}
}

// IsRecurring reports whether the expression repeats.
func (m Markers) IsRecurring(dateString string) bool {
	return m.Recurring != "" && strings.Contains(dateString, m.Recurring)
}
