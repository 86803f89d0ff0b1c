package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Build metadata, set with -ldflags "-X".
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// BuildInfo is the version report.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := BuildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
		return Render(cmd, info, func(w io.Writer) {
			fmt.Fprintf(w, "taskpulse %s (commit %s, built %s)\n", info.Version, info.Commit, info.BuildDate)
		})
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
