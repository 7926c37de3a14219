package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/readyscan/cli"
)

// Set via ldflags at build time.
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "readyscan",
	Short: "Operational-readiness scanner for tool manifests and MCP configurations",
	Long: "readyscan analyzes agent tool manifests and MCP server configurations for\n" +
		"operational-readiness risks: missing timeouts, unsafe retries, silent failure\n" +
		"paths, and more. Results render as SARIF 2.1.0 for code-scanning dashboards.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress all output except errors")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("readyscan version %s\n", version))

	rootCmd.AddCommand(cli.NewScanCmd())
	rootCmd.AddCommand(cli.NewScanConfigCmd())
	rootCmd.AddCommand(cli.NewRulesCmd())
	rootCmd.AddCommand(cli.NewHistoryCmd())
	rootCmd.AddCommand(cli.NewWatchCmd())
}
