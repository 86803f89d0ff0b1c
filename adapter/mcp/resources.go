package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
)

// RegisterResources registers MCP resources that expose task and history data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	if err := registerTaskResources(srv, deps); err != nil {
		return err
	}
	return registerHistoryResources(srv, deps)
}

func registerTaskResources(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Resource("taskpulse://tasks/open").
		Name("Open Tasks").
		Description("Overdue and today tasks with project and label names").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ListOpenTasksHandler == nil {
				return nil, fmt.Errorf("task listing requires a task backend")
			}
			tasks, err := app.ListOpenTasksHandler.Handle(ctx)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, tasks)
		})

	srv.Resource("taskpulse://score").
		Name("Today's Score").
		Description("Score breakdown for the current day").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ComputeScoreHandler == nil {
				return nil, fmt.Errorf("scoring requires a task backend")
			}
			breakdown, err := app.ComputeScoreHandler.Handle(ctx)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, breakdown)
		})

	return nil
}

func registerHistoryResources(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Resource("taskpulse://history").
		Name("History").
		Description("Stored daily scores and reconciliation runs, newest first. Accepts a limit parameter.").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			if app == nil || app.ScoreHistoryHandler == nil {
				return nil, fmt.Errorf("history requires a history store")
			}
			limit, err := parseLimit(params["limit"])
			if err != nil {
				return nil, err
			}
			h, err := app.ScoreHistoryHandler.Handle(ctx, queries.ScoreHistoryQuery{Limit: limit})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, h)
		})

	return nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}

// parseLimit reads an optional positive limit. Empty selects the default.
func parseLimit(value string) (int, error) {
	if value == "" {
		return queries.DefaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid limit %q", value)
	}
	return n, nil
}
