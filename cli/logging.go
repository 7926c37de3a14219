package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// newLogger builds the command logger from the root --verbose/--quiet
// flags. Logs go to stderr so stdout stays parseable.
func newLogger(cmd *cobra.Command) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	var w io.Writer = os.Stderr
	level := slog.LevelInfo
	switch {
	case quiet:
		w = io.Discard
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
