package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
)

type labeledInput struct {
	Scope string `json:"scope,omitempty"`
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("tasks.open").
		Description("List overdue and today tasks").
		Handler(func(ctx context.Context, input emptyInput) ([]queries.TaskDTO, error) {
			if app.ListOpenTasksHandler == nil {
				return nil, errors.New("task listing requires a task backend")
			}
			return app.ListOpenTasksHandler.Handle(ctx)
		})

	srv.Tool("tasks.labeled").
		Description("List labeled tasks with their first label name").
		Handler(func(ctx context.Context, input labeledInput) ([]queries.LabeledTask, error) {
			if app.ListLabeledHandler == nil {
				return nil, errors.New("task listing requires a task backend")
			}
			scope, err := queries.ParseScope(input.Scope)
			if err != nil {
				return nil, err
			}
			return app.ListLabeledHandler.Handle(ctx, queries.ListLabeledQuery{Scope: scope})
		})

	return nil
}
