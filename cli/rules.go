package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/readyscan/heuristic"
	"github.com/petal-labs/readyscan/taxonomy"
)

// NewRulesCmd creates the "rules" subcommand listing the built-in rules
// and risk categories.
func NewRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List built-in rules and risk categories",
		Args:  cobra.NoArgs,
		RunE:  runRules,
	}
	cmd.Flags().StringP("format", "F", "table", "Output format: table | json")
	return cmd
}

func runRules(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	rules := heuristic.Rules()

	switch format {
	case "json":
		type jsonRule struct {
			ID       string `json:"id"`
			Category string `json:"category"`
			Severity string `json:"default_severity"`
			Summary  string `json:"summary"`
		}
		out := make([]jsonRule, 0, len(rules))
		for _, r := range rules {
			out = append(out, jsonRule{
				ID:       r.ID,
				Category: string(r.Category),
				Severity: string(r.DefaultSeverity),
				Summary:  r.Summary,
			})
		}
		encoded, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return exitError(exitRuntime, "encoding rules: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	case "table":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RULE\tCATEGORY\tSEVERITY\tSUMMARY")
		for _, r := range rules {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.ID, r.Category, r.DefaultSeverity, r.Summary)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "\nRisk categories:")
		for _, entry := range taxonomy.Global().All() {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", entry.Category, entry.ShortDescription)
		}
		return nil
	default:
		return exitError(exitInputParse, "unknown format %q (table, json)", format)
	}
}
