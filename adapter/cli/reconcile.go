package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/commands"
	"github.com/spf13/cobra"
)

var minutes int

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <description>",
	Short: "Apply a time entry to the matching task",
	Long: `Find the open task a time-entry description refers to and apply the
logged minutes: complete it (or advance a recurring task) when the assigned
duration is used up, otherwise rewrite the remaining minutes.

A "<project> - <title>" description matches on the title.

Examples:
  taskpulse reconcile "Work - Write report" --minutes 35
  taskpulse reconcile "운동" -m 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		result, err := app.ReconcileTimeEntryHandler.Handle(cmd.Context(), commands.ReconcileTimeEntryCommand{
			Description: strings.Join(args, " "),
			Minutes:     minutes,
		})
		if err != nil {
			return fmt.Errorf("failed to reconcile time entry: %w", err)
		}
		return Render(cmd, result, func(w io.Writer) {
			if !result.Matched {
				fmt.Fprintf(w, "No open task matches %q.\n", result.Key)
				return
			}
			fmt.Fprintf(w, "%s: %s\n", result.Outcome, result.Content)
			if result.Remaining > 0 {
				fmt.Fprintf(w, "   Remaining: %d min\n", result.Remaining)
			}
		})
	},
}

func init() {
	reconcileCmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "logged minutes")
	_ = reconcileCmd.MarkFlagRequired("minutes")
	rootCmd.AddCommand(reconcileCmd)
}
