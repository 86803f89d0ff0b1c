package cli

import (
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/briefing"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/felixgeelhaar/taskpulse/pkg/observability"
)

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	ReconcileTimeEntryHandler *commands.ReconcileTimeEntryHandler
	SweepOverdueHandler       *commands.SweepOverdueHandler

	// Query Handlers
	ListOpenTasksHandler  *queries.ListOpenTasksHandler
	ListLabeledHandler    *queries.ListLabeledHandler
	ComputeScoreHandler   *queries.ComputeScoreHandler
	ActivityCountsHandler *queries.ActivityCountsHandler
	ScoreHistoryHandler   *queries.ScoreHistoryHandler
	KarmaTrendHandler     *queries.KarmaTrendHandler

	// Briefings
	Briefing *briefing.Service

	// Health
	Health *observability.HealthRegistry
}

// app is the global CLI application instance
var app *App

// SetApp sets the global CLI application instance.
func SetApp(a *App) {
	app = a
}

// GetApp returns the global CLI application instance.
func GetApp() *App {
	return app
}
