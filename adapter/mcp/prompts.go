package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
)

// RegisterPrompts registers MCP prompts for the daily reconciliation workflow.
func RegisterPrompts(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}

	srv.Prompt("daily_review").
		Description("Review the day: open tasks, score and activity, and decide what to move to tomorrow.").
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			return &mcp.PromptResult{
				Description: "Daily Review",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: `Help me close out my day.

1. Read taskpulse://tasks/open to see what is still overdue or due today
2. Call score.compute and activity.today for the day's numbers
3. Read taskpulse://history to compare with the last few days

Then:
- Point out overdue tasks that keep coming back
- Suggest which open tasks to finish now and which to leave for tomorrow
- If I agree that overdue tasks should move to today, call tasks.sweep
- Finish with briefing.feedback to send the evening summary`,
						},
					},
				},
			}, nil
		})

	srv.Prompt("log_time").
		Description("Apply time spent on a task and report what changed.").
		Argument("description", "Time entry description, e.g. \"Work - Write report\"", true).
		Argument("minutes", "Minutes spent", true).
		Handler(func(ctx context.Context, args map[string]string) (*mcp.PromptResult, error) {
			description := args["description"]
			if description == "" {
				description = "[Please describe what you worked on]"
			}
			minutes := args["minutes"]
			if minutes == "" {
				minutes = "[minutes]"
			}

			return &mcp.PromptResult{
				Description: "Log Time",
				Messages: []mcp.PromptMessage{
					{
						Role: string(mcp.RoleUser),
						Content: mcp.TextContent{
							Type: "text",
							Text: fmt.Sprintf(`I spent %s minutes on: %s

Call reconcile.time_entry with this description and duration. Tell me whether
the task was completed, moved to its next occurrence, or how many minutes are
left. If no task matched, list the open tasks from taskpulse://tasks/open that
look closest.`, minutes, description),
						},
					},
				},
			}, nil
		})

	return nil
}
