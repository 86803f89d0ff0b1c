package task

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/spf13/cobra"
)

var remainingCmd = &cobra.Command{
	Use:   "remaining",
	Short: "Show what is left for today",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		ch := cli.Channel()
		report, err := app.Briefing.Remaining(cmd.Context(), ch)
		if err != nil {
			return fmt.Errorf("failed to list remaining tasks: %w", err)
		}

		return cli.Render(cmd, report, func(w io.Writer) {
			fmt.Fprintf(w, "%d task(s) left today\n", report.Count)
			for _, t := range report.Tasks {
				project := ""
				if t.Project != "" {
					project = "[" + t.Project + "] "
				}
				fmt.Fprintf(w, "  %-7s %s%s%s\n", t.Time, project, t.Content, priorityBadge(t.Priority))
			}
		})
	},
}
