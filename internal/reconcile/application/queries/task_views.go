package queries

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// Bucket tells whether a listed task came from the overdue or today query.
type Bucket string

const (
	BucketOverdue Bucket = "overdue"
	BucketToday   Bucket = "today"
)

// TaskDTO is a data transfer object for open tasks.
type TaskDTO struct {
	ID              string     `json:"id"`
	Content         string     `json:"content"`
	Bucket          Bucket     `json:"bucket"`
	Priority        int        `json:"priority"`
	DateString      string     `json:"date_string,omitempty"`
	Due             *time.Time `json:"due,omitempty"`
	ProjectID       string     `json:"project_id,omitempty"`
	Project         string     `json:"project,omitempty"`
	Labels          []string   `json:"labels,omitempty"`
	AssignedMinutes *int       `json:"assigned_minutes,omitempty"`
}

// TaskSets is the read side of the aggregator.
type TaskSets interface {
	Overdue(ctx context.Context) ([]*task.Task, error)
	Today(ctx context.Context) ([]*task.Task, error)
}

// nameCache memoizes directory lookups for one query. Unknown ids resolve
// to the empty string.
type nameCache struct {
	dir      task.Directory
	projects map[string]string
	labels   map[string]string
}

func newNameCache(dir task.Directory) *nameCache {
	return &nameCache{dir: dir, projects: map[string]string{}, labels: map[string]string{}}
}

func (c *nameCache) project(ctx context.Context, id string) (string, error) {
	if c.dir == nil || id == "" {
		return "", nil
	}
	return c.lookup(ctx, c.projects, id, c.dir.ProjectName)
}

func (c *nameCache) label(ctx context.Context, id string) (string, error) {
	if c.dir == nil {
		return id, nil
	}
	return c.lookup(ctx, c.labels, id, c.dir.LabelName)
}

func (c *nameCache) lookup(ctx context.Context, seen map[string]string, id string, fetch func(context.Context, string) (string, error)) (string, error) {
	if name, ok := seen[id]; ok {
		return name, nil
	}
	name, err := fetch(ctx, id)
	if errors.Is(err, task.ErrNameNotFound) {
		name, err = "", nil
	}
	if err != nil {
		return "", err
	}
	seen[id] = name
	return name, nil
}
