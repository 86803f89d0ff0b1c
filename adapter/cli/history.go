package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show stored daily scores and reconciliation runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		h, err := app.ScoreHistoryHandler.Handle(cmd.Context(), queries.ScoreHistoryQuery{Limit: historyLimit})
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}
		return Render(cmd, h, func(w io.Writer) {
			if len(h.Snapshots) == 0 && len(h.Records) == 0 {
				fmt.Fprintln(w, "No history recorded.")
				return
			}
			if len(h.Snapshots) > 0 {
				fmt.Fprintln(w, "Scores:")
				for _, s := range h.Snapshots {
					fmt.Fprintf(w, "  %s  %3d  overdue %d, today %d, +%d/%d done/%d updated\n",
						s.DayKey(), s.Score, s.OverdueCount, s.TodayCount, s.Added, s.Completed, s.Updated)
				}
			}
			if len(h.Records) > 0 {
				fmt.Fprintln(w, "Runs:")
				for _, r := range h.Records {
					fmt.Fprintf(w, "  %s  %-10s %-10s %s\n",
						r.RecordedAt.Format("2006-01-02 15:04"), r.Kind, r.Outcome, strings.TrimSpace(r.Description))
				}
			}
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", queries.DefaultHistoryLimit, "entries per list")
	rootCmd.AddCommand(historyCmd)
}
