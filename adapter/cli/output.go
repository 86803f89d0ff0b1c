package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ErrNotInitialized is returned when a command runs without a wired App.
var ErrNotInitialized = errors.New("application not initialized - check TODOIST_TOKEN and configuration")

// RequireApp returns the wired App or ErrNotInitialized.
func RequireApp() (*App, error) {
	if app == nil {
		return nil, ErrNotInitialized
	}
	return app, nil
}

// PrintJSON writes v as indented JSON to the command's output.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Printf writes to the command's output.
func Printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}

// Println writes a line to the command's output.
func Println(cmd *cobra.Command, args ...any) {
	fmt.Fprintln(cmd.OutOrStdout(), args...)
}

// Render prints v as JSON with --json and calls text otherwise.
func Render(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	if jsonOutput {
		return PrintJSON(cmd, v)
	}
	text(cmd.OutOrStdout())
	return nil
}
