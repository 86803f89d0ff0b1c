package task

import (
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/shared/domain"
)

const (
	AggregateType      = "Task"
	SweepAggregateType = "Sweep"

	RoutingKeyCompleted      = "reconcile.task.completed"
	RoutingKeyAdvanced       = "reconcile.task.advanced"
	RoutingKeyProgressed     = "reconcile.task.progressed"
	RoutingKeyDeferred       = "reconcile.task.deferred"
	RoutingKeySweepCompleted = "reconcile.sweep.completed"
)

// TaskCompleted is emitted when a time entry closes a one-off task.
type TaskCompleted struct {
	domain.BaseEvent
	Content       string `json:"content"`
	LoggedMinutes int    `json:"logged_minutes"`
}

// NewTaskCompleted creates a TaskCompleted event.
func NewTaskCompleted(taskID, content string, logged int) *TaskCompleted {
	return &TaskCompleted{
		BaseEvent:     domain.NewBaseEvent(taskID, AggregateType, RoutingKeyCompleted),
		Content:       content,
		LoggedMinutes: logged,
	}
}

// TaskAdvanced is emitted when a recurring task moves to its next occurrence.
type TaskAdvanced struct {
	domain.BaseEvent
	Content       string `json:"content"`
	DateString    string `json:"date_string"`
	LoggedMinutes int    `json:"logged_minutes"`
}

// NewTaskAdvanced creates a TaskAdvanced event.
func NewTaskAdvanced(taskID, content, dateString string, logged int) *TaskAdvanced {
	return &TaskAdvanced{
		BaseEvent:     domain.NewBaseEvent(taskID, AggregateType, RoutingKeyAdvanced),
		Content:       content,
		DateString:    dateString,
		LoggedMinutes: logged,
	}
}

// TaskProgressed is emitted when logged time shrinks a task's remaining minutes.
type TaskProgressed struct {
	domain.BaseEvent
	Content          string `json:"content"`
	LoggedMinutes    int    `json:"logged_minutes"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// NewTaskProgressed creates a TaskProgressed event.
func NewTaskProgressed(taskID, content string, logged, remaining int) *TaskProgressed {
	return &TaskProgressed{
		BaseEvent:        domain.NewBaseEvent(taskID, AggregateType, RoutingKeyProgressed),
		Content:          content,
		LoggedMinutes:    logged,
		RemainingMinutes: remaining,
	}
}

// TaskDeferred is emitted for each task relocated by a sweep.
type TaskDeferred struct {
	domain.BaseEvent
	Content string    `json:"content"`
	DueDate time.Time `json:"due_date"`
}

// NewTaskDeferred creates a TaskDeferred event.
func NewTaskDeferred(taskID, content string, due time.Time) *TaskDeferred {
	return &TaskDeferred{
		BaseEvent: domain.NewBaseEvent(taskID, AggregateType, RoutingKeyDeferred),
		Content:   content,
		DueDate:   due,
	}
}

// SweepCompleted is emitted once per committed sweep.
type SweepCompleted struct {
	domain.BaseEvent
	Deferred int      `json:"deferred"`
	TaskIDs  []string `json:"task_ids"`
}

// NewSweepCompleted creates a SweepCompleted event keyed by the sweep day.
func NewSweepCompleted(day time.Time, taskIDs []string) *SweepCompleted {
	return &SweepCompleted{
		BaseEvent: domain.NewBaseEvent(day.Format("2006-01-02"), SweepAggregateType, RoutingKeySweepCompleted),
		Deferred:  len(taskIDs),
		TaskIDs:   taskIDs,
	}
}
