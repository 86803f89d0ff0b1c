package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

type emptyInput struct{}

func registerCoreTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("cli.health").
		Description("Check backend and infrastructure health").
		Handler(func(ctx context.Context, input emptyInput) (observability.OverallHealth, error) {
			if app.Health == nil {
				return observability.OverallHealth{Status: observability.HealthStatusHealthy}, nil
			}
			return app.Health.GetOverallHealth(ctx), nil
		})

	srv.Tool("score.karma").
		Description("Return the backend's karma trend").
		Handler(func(ctx context.Context, input emptyInput) (map[string]any, error) {
			if app.KarmaTrendHandler == nil {
				return nil, errors.New("karma trend requires a task backend")
			}
			trend, err := app.KarmaTrendHandler.Handle(ctx)
			if err != nil {
				return nil, err
			}
			return map[string]any{"trend": trend}, nil
		})

	return nil
}
