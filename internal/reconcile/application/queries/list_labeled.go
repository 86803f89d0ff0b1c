package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// ErrInvalidScope is returned for a scope other than today or all.
var ErrInvalidScope = errors.New("scope must be today or all")

// Scope selects the task set of ListLabeled.
type Scope string

const (
	ScopeToday Scope = "today"
	ScopeAll   Scope = "all"
)

// ParseScope validates a scope string. Empty means today.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "", ScopeToday:
		return ScopeToday, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// LabeledTask pairs a task with the name of its first label.
type LabeledTask struct {
	Content string `json:"content"`
	Label   string `json:"label"`
}

// ListLabeledQuery contains the parameters for listing labeled tasks.
type ListLabeledQuery struct {
	Scope Scope
}

// ListLabeledHandler handles the ListLabeledQuery.
type ListLabeledHandler struct {
	sets TaskSets
	dir  task.Directory
}

// NewListLabeledHandler creates a new ListLabeledHandler.
func NewListLabeledHandler(sets TaskSets, dir task.Directory) *ListLabeledHandler {
	return &ListLabeledHandler{sets: sets, dir: dir}
}

// Handle returns the labeled tasks of the scope in task order. Unlabeled
// tasks are skipped; a label the directory does not know keeps its id.
func (h *ListLabeledHandler) Handle(ctx context.Context, query ListLabeledQuery) ([]LabeledTask, error) {
	scope, err := ParseScope(string(query.Scope))
	if err != nil {
		return nil, err
	}

	var tasks []*task.Task
	if scope == ScopeAll {
		overdue, err := h.sets.Overdue(ctx)
		if err != nil {
			return nil, err
		}
		tasks = overdue
	}
	today, err := h.sets.Today(ctx)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, today...)

	names := newNameCache(h.dir)
	labeled := []LabeledTask{}
	for _, t := range tasks {
		id, ok := t.FirstLabel()
		if !ok {
			continue
		}
		name, err := names.label(ctx, id)
		if err != nil {
			return nil, err
		}
		if name == "" {
			name = id
		}
		labeled = append(labeled, LabeledTask{Content: t.Content, Label: name})
	}
	return labeled, nil
}
