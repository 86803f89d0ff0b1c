package mcp

import (
	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/internal/app"
)

// NewCLIApp creates a CLI application instance backed by the provided container.
func NewCLIApp(container *app.Container) *cli.App {
	return &cli.App{
		ReconcileTimeEntryHandler: container.ReconcileTimeEntryHandler,
		SweepOverdueHandler:       container.SweepOverdueHandler,
		ListOpenTasksHandler:      container.ListOpenTasksHandler,
		ListLabeledHandler:        container.ListLabeledHandler,
		ComputeScoreHandler:       container.ComputeScoreHandler,
		ActivityCountsHandler:     container.ActivityCountsHandler,
		ScoreHistoryHandler:       container.ScoreHistoryHandler,
		KarmaTrendHandler:         container.KarmaTrendHandler,
		Briefing:                  container.Briefing,
		Health:                    container.Health,
	}
}
