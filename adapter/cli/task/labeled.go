package task

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/spf13/cobra"
)

var scope string

var labeledCmd = &cobra.Command{
	Use:   "labeled",
	Short: "List labeled tasks with their first label",
	Long: `List tasks carrying at least one label, paired with the name of the
first label. --scope today looks at today's tasks only, --scope all adds the
overdue ones first.

Examples:
  taskpulse task labeled
  taskpulse task labeled --scope all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}
		s, err := queries.ParseScope(scope)
		if err != nil {
			return err
		}

		tasks, err := app.ListLabeledHandler.Handle(cmd.Context(), queries.ListLabeledQuery{Scope: s})
		if err != nil {
			return fmt.Errorf("failed to list labeled tasks: %w", err)
		}

		return cli.Render(cmd, tasks, func(w io.Writer) {
			if len(tasks) == 0 {
				fmt.Fprintln(w, "No labeled tasks.")
				return
			}
			for _, t := range tasks {
				fmt.Fprintf(w, "@%s  %s\n", t.Label, t.Content)
			}
		})
	},
}

func init() {
	labeledCmd.Flags().StringVarP(&scope, "scope", "s", string(queries.ScopeToday), "task set to scan (today, all)")
}
