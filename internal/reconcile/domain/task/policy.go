package task

import "strings"

// DurationPolicy holds the default minutes per recurrence category.
type DurationPolicy struct {
	EveryDay     int
	EveryWeekday int
	SomeWeekday  int
}

// For returns the default duration for the category.
func (p DurationPolicy) For(category RecurrenceCategory) int {
	switch category {
	case RecurrenceDaily:
		return p.EveryDay
	case RecurrenceWeekday:
		return p.EveryWeekday
	default:
		return p.SomeWeekday
	}
}

// Rules bundles the content conventions the engine applies to tasks.
type Rules struct {
	Annotation Annotation
	Markers    Markers
	Policy     DurationPolicy
}

// NewRules creates rules with the default unit and markers.
func NewRules(policy DurationPolicy) Rules {
	return Rules{
		Annotation: NewAnnotation(DefaultDurationUnit),
		Markers:    DefaultMarkers(),
		Policy:     policy,
	}
}

// AssignedDuration extracts the task's assigned minutes.
func (r Rules) AssignedDuration(t *Task) (int, bool) {
	return r.Annotation.Extract(t.Content)
}

// Category classifies the task's due-date expression.
func (r Rules) Category(t *Task) RecurrenceCategory {
	return r.Markers.Classify(t.DateString)
}

// IsRecurring reports whether completing the task should advance it.
func (r Rules) IsRecurring(t *Task) bool {
	return r.Markers.IsRecurring(t.DateString)
}

// NormalizedContent resets the task's annotation to the policy default for
// its category. changed is false when the task has no annotation; applying
// it to its own output yields the same content.
func (r Rules) NormalizedContent(t *Task) (content string, changed bool) {
	if _, ok := r.AssignedDuration(t); !ok {
		return t.Content, false
	}
	return r.Annotation.Rewrite(t.Content, r.Policy.For(r.Category(t))), true
}

// RemainingContent rewrites the annotation to the remaining minutes.
func (r Rules) RemainingContent(t *Task, remaining int) string {
	return r.Annotation.Rewrite(t.Content, remaining)
}

// IsTimed reports whether the task has a specific time of day worth showing
// in a schedule: a UTC due time and an expression naming a clock time or
// duration.
func (r Rules) IsTimed(t *Task) bool {
	if t.DueDateUTC == nil {
		return false
	}
	return containsAny(t.DateString, ":", r.Annotation.Unit())
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
