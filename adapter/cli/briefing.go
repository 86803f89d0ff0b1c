package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/briefing"
	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Send the morning briefing",
	Long: `Count overdue and today's tasks, list today's timed tasks with the
karma trend, and send them to the notification channel. Timed tasks are also
published to the configured calendar.

Examples:
  taskpulse schedule
  taskpulse schedule --channel "#daily"
  taskpulse schedule --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		report, err := app.Briefing.Schedule(cmd.Context(), channel)
		if err != nil {
			return fmt.Errorf("failed to build schedule: %w", err)
		}
		return Render(cmd, report, func(w io.Writer) {
			fmt.Fprintf(w, "Overdue: %d task(s)\n", report.OverdueCount)
			fmt.Fprintf(w, "Today:   %d task(s)\n", report.TodayCount)
			if report.KarmaTrend != "" {
				fmt.Fprintf(w, "Karma:   %s\n", report.KarmaTrend)
			}
			writeTimedTasks(w, report.Timed)
			if report.Calendar != nil {
				fmt.Fprintf(w, "Calendar: %d created, %d updated, %d failed\n",
					report.Calendar.Created, report.Calendar.Updated, report.Calendar.Failed)
			}
		})
	},
}

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Send the evening feedback",
	Long: `Report today's open task count, the score and the added, completed and
updated counts, and store the day's snapshot in history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		report, err := app.Briefing.Feedback(cmd.Context(), channel)
		if err != nil {
			return fmt.Errorf("failed to build feedback: %w", err)
		}
		return Render(cmd, report, func(w io.Writer) {
			fmt.Fprintf(w, "%s\n", report.Day)
			fmt.Fprintf(w, "Open:      %d\n", report.Open)
			fmt.Fprintf(w, "Score:     %d\n", report.Score)
			fmt.Fprintf(w, "Added:     %d\n", report.Activity.Added)
			fmt.Fprintf(w, "Completed: %d\n", report.Activity.Completed)
			fmt.Fprintf(w, "Updated:   %d\n", report.Activity.Updated)
		})
	},
}

// writeTimedTasks prints one line per task.
func writeTimedTasks(w io.Writer, tasks []briefing.TimedTask) {
	for _, t := range tasks {
		project := ""
		if t.Project != "" {
			project = "[" + t.Project + "] "
		}
		fmt.Fprintf(w, "  %-7s %s%s%s\n", t.Time, project, t.Content, priorityBadge(t.Priority))
	}
}

func priorityBadge(priority int) string {
	switch priority {
	case 4:
		return " (!!!)"
	case 3:
		return " (!!)"
	case 2:
		return " (!)"
	default:
		return ""
	}
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(feedbackCmd)
}
