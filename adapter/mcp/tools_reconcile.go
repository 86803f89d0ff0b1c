package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/services"
)

type timeEntryInput struct {
	Description string `json:"description" jsonschema:"required"`
	Minutes     int    `json:"minutes" jsonschema:"required"`
}

func registerReconcileTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("reconcile.time_entry").
		Description("Apply a stopped time entry to the open task it refers to").
		Handler(func(ctx context.Context, input timeEntryInput) (commands.ReconcileTimeEntryResult, error) {
			if app.ReconcileTimeEntryHandler == nil {
				return commands.ReconcileTimeEntryResult{}, errors.New("reconciliation requires a task backend")
			}
			if strings.TrimSpace(input.Description) == "" {
				return commands.ReconcileTimeEntryResult{}, errors.New("description is required")
			}
			return app.ReconcileTimeEntryHandler.Handle(ctx, commands.ReconcileTimeEntryCommand{
				Description: input.Description,
				Minutes:     input.Minutes,
			})
		})

	srv.Tool("tasks.sweep").
		Description("Move every overdue task to today and reset its duration annotation").
		Handler(func(ctx context.Context, input channelInput) (commands.SweepOverdueResult, error) {
			if app.SweepOverdueHandler == nil {
				return commands.SweepOverdueResult{}, errors.New("sweeping requires a task backend")
			}
			return app.SweepOverdueHandler.Handle(ctx, commands.SweepOverdueCommand{
				Channel: channelOr(input.Channel, deps.Channel),
			})
		})

	srv.Tool("score.compute").
		Description("Compute today's score from overdue and today task priorities").
		Handler(func(ctx context.Context, input emptyInput) (services.ScoreBreakdown, error) {
			if app.ComputeScoreHandler == nil {
				return services.ScoreBreakdown{}, errors.New("scoring requires a task backend")
			}
			return app.ComputeScoreHandler.Handle(ctx)
		})

	srv.Tool("activity.today").
		Description("Count tasks added, completed and updated today").
		Handler(func(ctx context.Context, input emptyInput) (queries.ActivityCountsDTO, error) {
			if app.ActivityCountsHandler == nil {
				return queries.ActivityCountsDTO{}, errors.New("activity counts require a task backend")
			}
			return app.ActivityCountsHandler.Handle(ctx)
		})

	return nil
}
