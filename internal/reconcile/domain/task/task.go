// Package task holds the reconciliation view of backend tasks: the duration
// annotation codec, recurrence classification, duration policy, activity
// window and score rules.
package task

import "time"

// Task is a transient view of a backend item. It is fetched fresh for each
// operation and never persisted by the engine.
type Task struct {
	ID      string
	Content string
	// DueDateUTC is set only when the due date has a time-of-day component.
	DueDateUTC *time.Time
	DateString string
	Priority   int
	ProjectID  string
	// Labels holds label ids in backend order.
	Labels []string
}

// Points is the penalty weight of the task.
func (t *Task) Points() int {
	return t.Priority + 1
}

// FirstLabel returns the first label id, if any.
func (t *Task) FirstLabel() (string, bool) {
	if len(t.Labels) == 0 {
		return "", false
	}
	return t.Labels[0], true
}

// Points sums the penalty weight of tasks.
func Points(tasks []*Task) int {
	total := 0
	for _, t := range tasks {
		total += t.Points()
	}
	return total
}

// MaxScore is the score of a day without outstanding tasks.
const MaxScore = 100

// Score computes the productivity score from overdue and today penalty points.
// The penalty is capped so the score never drops below zero.
func Score(overduePoints, todayPoints int) int {
	penalty := overduePoints + todayPoints
	if penalty > MaxScore {
		penalty = MaxScore
	}
	if penalty < 0 {
		penalty = 0
	}
	return MaxScore - penalty
}
