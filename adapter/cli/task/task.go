package task

import (
	"github.com/spf13/cobra"
)

// Cmd is the task command group
var Cmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect open tasks",
	Long:  `List overdue and today's tasks, labeled tasks and what is left for today.`,
}

func init() {
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(labeledCmd)
	Cmd.AddCommand(remainingCmd)
}
