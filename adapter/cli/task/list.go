package task

import (
	"fmt"
	"io"
	"strings"

	"github.com/felixgeelhaar/taskpulse/adapter/cli"
	"github.com/felixgeelhaar/taskpulse/internal/reconcile/application/queries"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List overdue and today's tasks",
	Long: `List the open tasks: overdue tasks from the last seven days first, then
today's tasks in backend order. A task due both in the past week and today
shows up twice.

Examples:
  taskpulse task list
  taskpulse task list --json`,
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.RequireApp()
		if err != nil {
			return err
		}

		tasks, err := app.ListOpenTasksHandler.Handle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list tasks: %w", err)
		}

		return cli.Render(cmd, tasks, func(w io.Writer) {
			if len(tasks) == 0 {
				fmt.Fprintln(w, "No tasks found.")
				return
			}
			fmt.Fprintf(w, "Tasks (%d):\n", len(tasks))
			fmt.Fprintln(w, strings.Repeat("-", 60))
			for _, t := range tasks {
				writeTask(w, t)
			}
		})
	},
}

func writeTask(w io.Writer, t queries.TaskDTO) {
	marker := "[TODAY]"
	if t.Bucket == queries.BucketOverdue {
		marker = "[OVERDUE]"
	}
	fmt.Fprintf(w, "%s %s%s\n", marker, t.Content, priorityBadge(t.Priority))
	fmt.Fprintf(w, "   ID: %s\n", t.ID)
	if t.Project != "" {
		fmt.Fprintf(w, "   Project: %s\n", t.Project)
	}
	if len(t.Labels) > 0 {
		fmt.Fprintf(w, "   Labels: %s\n", strings.Join(t.Labels, ", "))
	}
	if t.AssignedMinutes != nil {
		fmt.Fprintf(w, "   Duration: %d min\n", *t.AssignedMinutes)
	}
	if t.DateString != "" {
		fmt.Fprintf(w, "   Due: %s\n", t.DateString)
	}
	fmt.Fprintln(w)
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
