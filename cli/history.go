package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/petal-labs/readyscan/history"
)

// NewHistoryCmd creates the "history" subcommand with list and show verbs.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded scan results",
	}
	cmd.PersistentFlags().String("db", "readyscan.db", "Path to the history database")
	cmd.AddCommand(newHistoryListCmd(), newHistoryShowCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded scans, newest first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	cmd.Flags().String("target", "", "Only show scans of this target")
	cmd.Flags().Int("limit", 20, "Maximum number of scans to show")
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <scan-id>",
		Short: "Print one recorded scan result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}
}

func openHistory(cmd *cobra.Command) (*history.Store, error) {
	dsn, _ := cmd.Flags().GetString("db")
	store, err := history.Open(dsn)
	if err != nil {
		return nil, exitError(exitRuntime, "%v", err)
	}
	return store, nil
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	target, _ := cmd.Flags().GetString("target")
	limit, _ := cmd.Flags().GetInt("limit")
	records, err := store.List(cmd.Context(), target, limit)
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SCAN\tTARGET\tWHEN\tSCORE\tREADY\tFINDINGS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%v\t%d\n",
			r.ScanID, r.Target, r.CreatedAt.Format(time.RFC3339), r.Score, r.Ready, r.Findings)
	}
	return w.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return exitError(exitRuntime, "encoding result: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
