package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// ListOpenTasksHandler lists the overdue tasks followed by today's.
type ListOpenTasksHandler struct {
	sets  TaskSets
	dir   task.Directory
	rules task.Rules
	loc   *time.Location
}

// NewListOpenTasksHandler creates a new ListOpenTasksHandler. A nil
// directory leaves project names empty.
func NewListOpenTasksHandler(sets TaskSets, dir task.Directory, rules task.Rules, loc *time.Location) *ListOpenTasksHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ListOpenTasksHandler{sets: sets, dir: dir, rules: rules, loc: loc}
}

// Handle returns overdue then today tasks. A task in both sets is listed
// twice, once per bucket.
func (h *ListOpenTasksHandler) Handle(ctx context.Context) ([]TaskDTO, error) {
	overdue, err := h.sets.Overdue(ctx)
	if err != nil {
		return nil, err
	}
	today, err := h.sets.Today(ctx)
	if err != nil {
		return nil, err
	}

	names := newNameCache(h.dir)
	dtos := make([]TaskDTO, 0, len(overdue)+len(today))
	for _, group := range []struct {
		bucket Bucket
		tasks  []*task.Task
	}{{BucketOverdue, overdue}, {BucketToday, today}} {
		for _, t := range group.tasks {
			dto, err := h.toDTO(ctx, names, t, group.bucket)
			if err != nil {
				return nil, err
			}
			dtos = append(dtos, dto)
		}
	}
	return dtos, nil
}

func (h *ListOpenTasksHandler) toDTO(ctx context.Context, names *nameCache, t *task.Task, bucket Bucket) (TaskDTO, error) {
	project, err := names.project(ctx, t.ProjectID)
	if err != nil {
		return TaskDTO{}, err
	}
	dto := TaskDTO{
		ID:         t.ID,
		Content:    t.Content,
		Bucket:     bucket,
		Priority:   t.Priority,
		DateString: t.DateString,
		ProjectID:  t.ProjectID,
		Project:    project,
		Labels:     t.Labels,
	}
	if t.DueDateUTC != nil {
		due := t.DueDateUTC.In(h.loc)
		dto.Due = &due
	}
	if minutes, ok := h.rules.AssignedDuration(t); ok {
		dto.AssignedMinutes = &minutes
	}
	return dto, nil
}
