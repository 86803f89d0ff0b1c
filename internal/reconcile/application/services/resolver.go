package services

import (
	"context"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// Match is a task resolved from a time-entry description.
type Match struct {
	Task *task.Task
	// Key is the text that was looked for.
	Key           string
	Assigned      int
	HasAssignment bool
}

// AssignedDuration returns the assigned minutes, nil when the task is untimed.
func (m Match) AssignedDuration() *int {
	if !m.HasAssignment {
		return nil
	}
	v := m.Assigned
	return &v
}

// Resolver finds the task a time entry was logged against.
type Resolver struct {
	aggregator *Aggregator
	matcher    task.Matcher
	rules      task.Rules
}

// NewResolver creates a Resolver. A nil matcher means substring matching.
func NewResolver(aggregator *Aggregator, matcher task.Matcher, rules task.Rules) *Resolver {
	if matcher == nil {
		matcher = task.SubstringMatcher{}
	}
	return &Resolver{aggregator: aggregator, matcher: matcher, rules: rules}
}

// Resolve matches the description against overdue then today's tasks.
// found is false when nothing matched; that is not an error. An empty match
// key matches nothing and does not query the backend.
func (r *Resolver) Resolve(ctx context.Context, description string) (Match, bool, error) {
	key := task.MatchKey(description)
	if key == "" {
		return Match{Key: key}, false, nil
	}

	candidates, err := r.aggregator.OverdueAndToday(ctx)
	if err != nil {
		return Match{}, false, err
	}

	t, ok := r.matcher.Match(key, candidates)
	if !ok {
		return Match{Key: key}, false, nil
	}

	assigned, has := r.rules.AssignedDuration(t)
	return Match{Task: t, Key: key, Assigned: assigned, HasAssignment: has}, true, nil
}
