package todoist

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/domain/task"
)

// Directory implements task.Directory against the REST API.
type Directory struct {
	client *Client
}

// NewDirectory creates a new Directory.
func NewDirectory(client *Client) *Directory {
	return &Directory{client: client}
}

// LabelName resolves a label id. Newer accounts carry label names on tasks
// directly, so an id that matches a label name resolves to itself.
func (d *Directory) LabelName(ctx context.Context, id string) (string, error) {
	var labels []namedDTO
	if err := d.client.getREST(ctx, "labels", "/labels", nil, &labels); err != nil {
		return "", err
	}
	for _, l := range labels {
		if l.ID == id || l.Name == id {
			return l.Name, nil
		}
	}
	return "", fmt.Errorf("label %s: %w", id, task.ErrNameNotFound)
}

// ProjectName resolves a project id.
func (d *Directory) ProjectName(ctx context.Context, id string) (string, error) {
	var project namedDTO
	err := d.client.getREST(ctx, "project", "/projects/"+url.PathEscape(id), nil, &project)
	if errors.Is(err, task.ErrTaskNotFound) {
		return "", fmt.Errorf("project %s: %w", id, task.ErrNameNotFound)
	}
	if err != nil {
		return "", err
	}
	return project.Name, nil
}
