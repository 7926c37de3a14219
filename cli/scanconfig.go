package cli

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/readyscan/core"
)

// NewScanConfigCmd creates the "scan-config" subcommand. It shares the
// scan pipeline but rejects documents that are not MCP server
// configurations, so CI jobs fail loudly on the wrong file.
func NewScanConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan-config <file>",
		Short: "Scan an MCP server configuration for readiness risks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return scanFile(cmd, args[0], core.TargetConfig)
		},
	}
	addScanFlags(cmd)
	return cmd
}
