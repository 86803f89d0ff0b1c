package cli

import (
	"fmt"
	"sort"

	"github.com/felixgeelhaar/taskpulse/pkg/observability"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend and infrastructure health",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := RequireApp()
		if err != nil {
			return err
		}
		if app.Health == nil {
			Println(cmd, "ok")
			return nil
		}

		overall := app.Health.GetOverallHealth(cmd.Context())
		if jsonOutput {
			if err := PrintJSON(cmd, overall); err != nil {
				return err
			}
		} else {
			Printf(cmd, "status: %s\n", overall.Status)
			names := make([]string, 0, len(overall.Checks))
			for name := range overall.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				check := overall.Checks[name]
				line := fmt.Sprintf("  %-10s %s", name, check.Status)
				if check.Message != "" {
					line += " (" + check.Message + ")"
				}
				Println(cmd, line)
			}
		}
		if overall.Status == observability.HealthStatusUnhealthy {
			return fmt.Errorf("unhealthy")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
