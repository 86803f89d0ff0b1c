package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/briefing"
)

type channelInput struct {
	Channel string `json:"channel,omitempty"`
}

var errNoBriefing = errors.New("briefings require a task backend")

func registerBriefingTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("briefing.schedule").
		Description("Send the morning briefing: overdue and today counts, timed tasks and karma trend").
		Handler(func(ctx context.Context, input channelInput) (briefing.ScheduleReport, error) {
			if app.Briefing == nil {
				return briefing.ScheduleReport{}, errNoBriefing
			}
			return app.Briefing.Schedule(ctx, channelOr(input.Channel, deps.Channel))
		})

	srv.Tool("briefing.feedback").
		Description("Send the evening feedback and store the day's score").
		Handler(func(ctx context.Context, input channelInput) (briefing.FeedbackReport, error) {
			if app.Briefing == nil {
				return briefing.FeedbackReport{}, errNoBriefing
			}
			return app.Briefing.Feedback(ctx, channelOr(input.Channel, deps.Channel))
		})

	srv.Tool("briefing.remaining").
		Description("Send the list of tasks still due today").
		Handler(func(ctx context.Context, input channelInput) (briefing.RemainingReport, error) {
			if app.Briefing == nil {
				return briefing.RemainingReport{}, errNoBriefing
			}
			return app.Briefing.Remaining(ctx, channelOr(input.Channel, deps.Channel))
		})

	return nil
}
