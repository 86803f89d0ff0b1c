package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute today's score",
	Long: `Score the day from 100 down: every overdue and today task costs its
priority plus one point, and the score never drops below zero.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		breakdown, err := app.ComputeScoreHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to compute score: %w", err)
		}
		return Render(cmd, breakdown, func(w io.Writer) {
			fmt.Fprintf(w, "Score: %d\n", breakdown.Score)
			fmt.Fprintf(w, "   Overdue: %d task(s), %d point(s)\n", breakdown.OverdueCount, breakdown.OverduePoints)
			fmt.Fprintf(w, "   Today:   %d task(s), %d point(s)\n", breakdown.TodayCount, breakdown.TodayPoints)
		})
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show today's added, completed and updated counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		counts, err := app.ActivityCountsHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to count activity: %w", err)
		}
		return Render(cmd, counts, func(w io.Writer) {
			fmt.Fprintf(w, "%s: added %d, completed %d, updated %d\n",
				counts.Day, counts.Added, counts.Completed, counts.Updated)
		})
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(activityCmd)
}
