package cli

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Move every overdue task to today",
	Long: `Reset each overdue task's duration annotation to its policy default and
move it to today without completing it. All changes go to the backend in one
batch, and a summary is sent to the notification channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		result, err := app.SweepOverdueHandler.Handle(cmd.Context(), commands.SweepOverdueCommand{Channel: channel})
		if err != nil {
			return fmt.Errorf("failed to sweep overdue tasks: %w", err)
		}
		return Render(cmd, result, func(w io.Writer) {
			fmt.Fprintf(w, "Moved %d overdue task(s) to %s.\n", result.Count(), result.Day)
			for _, d := range result.Deferred {
				marker := ""
				if d.Normalized {
					marker = " (duration reset)"
				}
				fmt.Fprintf(w, "  - %s%s\n", d.Content, marker)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
