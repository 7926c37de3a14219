package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/history"
	"github.com/petal-labs/readyscan/llmjudge"
	"github.com/petal-labs/readyscan/loader"
	"github.com/petal-labs/readyscan/sarif"
	"github.com/petal-labs/readyscan/scan"
	"github.com/petal-labs/readyscan/suppress"
)

// NewScanCmd creates the "scan" subcommand.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <file>",
		Short: "Scan a tool manifest or MCP configuration for readiness risks",
		Long: "Scan analyzes a tool manifest (single tool or tools list) or an MCP server\n" +
			"configuration with every available provider, applies suppressions, and reports\n" +
			"a readiness score. Exit code 1 means the target is not production-ready.",
		Args: cobra.ExactArgs(1),
		RunE: runScan,
	}
	addScanFlags(cmd)
	return cmd
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "F", "sarif", "Output format: sarif | sarif-summary | json | summary")
	cmd.Flags().StringP("output", "o", "", "Write output to file (default: stdout)")
	cmd.Flags().StringSlice("suppress", nil, "Rule ids to suppress (repeatable or comma-separated)")
	cmd.Flags().String("ignore-file", suppress.DefaultIgnoreFile, "Path to the ignore file")
	cmd.Flags().Bool("no-ignore-file", false, "Skip loading the ignore file")
	cmd.Flags().Duration("provider-timeout", scan.DefaultProviderTimeout, "Per-provider analysis timeout")
	cmd.Flags().Bool("llm-judge", false, "Also run the LLM judge provider (requires READYSCAN_LLM_PROVIDER)")
	cmd.Flags().String("history-db", "", "SQLite database to record scan results in")
	cmd.Flags().String("otlp-endpoint", "", "OTLP HTTP endpoint for traces (e.g. localhost:4318)")
}

func runScan(cmd *cobra.Command, args []string) error {
	return scanFile(cmd, args[0], "")
}

// scanFile loads, scans, renders, and optionally persists one manifest.
// A non-empty wantKind rejects documents of any other shape.
func scanFile(cmd *cobra.Command, path string, wantKind core.TargetKind) error {
	logger := newLogger(cmd)

	doc, err := loadDocument(path, wantKind)
	if err != nil {
		return err
	}

	suppressor, err := buildSuppressor(cmd)
	if err != nil {
		return err
	}

	orchestrator, shutdown, err := buildOrchestrator(cmd, logger, suppressor)
	if err != nil {
		return err
	}
	defer shutdown(cmd.Context())

	results, err := scanTargets(cmd.Context(), orchestrator, doc)
	if err != nil {
		return exitError(exitRuntime, "scan failed: %v", err)
	}

	if db, _ := cmd.Flags().GetString("history-db"); db != "" {
		if err := saveHistory(cmd.Context(), db, results); err != nil {
			return exitError(exitRuntime, "recording history: %v", err)
		}
	}

	if err := writeResults(cmd, results); err != nil {
		return err
	}

	for _, result := range results {
		if !result.ProductionReady {
			return exitError(exitNotReady, "%s is not production-ready (score %d)",
				result.Target, result.ReadinessScore)
		}
	}
	return nil
}

func loadDocument(path string, wantKind core.TargetKind) (*loader.Document, error) {
	doc, err := loader.Load(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, exitError(exitFileNotFound, "%v", err)
		}
		// Load wraps read errors; re-check the underlying cause.
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil, exitError(exitFileNotFound, "%v", err)
		}
		return nil, exitError(exitInputParse, "%v", err)
	}
	if wantKind != "" && doc.Kind != wantKind {
		return nil, exitError(exitInputParse, "%s: expected a %s document, got %s", path, wantKind, doc.Kind)
	}
	return doc, nil
}

func buildSuppressor(cmd *cobra.Command) (*suppress.Manager, error) {
	ruleIDs, _ := cmd.Flags().GetStringSlice("suppress")
	suppressor := suppress.NewManager(ruleIDs)

	if skip, _ := cmd.Flags().GetBool("no-ignore-file"); skip {
		return suppressor, nil
	}
	ignorePath, _ := cmd.Flags().GetString("ignore-file")
	if err := suppressor.LoadIgnoreFile(ignorePath); err != nil {
		return nil, exitError(exitInputParse, "%v (use --no-ignore-file to skip)", err)
	}
	return suppressor, nil
}

// buildOrchestrator resolves providers, wires telemetry, and returns the
// orchestrator plus a telemetry shutdown func.
func buildOrchestrator(cmd *cobra.Command, logger *slog.Logger, suppressor *suppress.Manager) (*scan.Orchestrator, func(context.Context), error) {
	providers := scan.Global().Resolve(logger)

	if useJudge, _ := cmd.Flags().GetBool("llm-judge"); useJudge {
		judge, err := llmjudge.New(llmjudge.ConfigFromEnv())
		if err != nil {
			return nil, nil, exitError(exitRuntime, "%v", err)
		}
		providers = append(providers, judge)
	}

	endpoint, _ := cmd.Flags().GetString("otlp-endpoint")
	emitter, shutdown, err := setupTelemetry(cmd.Context(), endpoint)
	if err != nil {
		return nil, nil, exitError(exitRuntime, "setting up telemetry: %v", err)
	}

	timeout, _ := cmd.Flags().GetDuration("provider-timeout")
	orchestrator := scan.New(scan.Config{
		Providers:       providers,
		Suppressor:      suppressor,
		ProviderTimeout: timeout,
		Logger:          logger,
		Emitter:         emitter,
	})
	return orchestrator, shutdown, nil
}

func scanTargets(ctx context.Context, o *scan.Orchestrator, doc *loader.Document) ([]*core.ScanResult, error) {
	results := make([]*core.ScanResult, 0, len(doc.Targets))
	for _, target := range doc.Targets {
		name := doc.Path
		if len(doc.Targets) > 1 {
			if toolName := target.String("name"); toolName != "" {
				name = fmt.Sprintf("%s#%s", doc.Path, toolName)
			}
		}
		result, err := o.Scan(ctx, name, target, doc.Kind)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

func saveHistory(ctx context.Context, dsn string, results []*core.ScanResult) error {
	store, err := history.Open(dsn)
	if err != nil {
		return err
	}
	defer store.Close()
	for _, result := range results {
		if err := store.Save(ctx, result); err != nil {
			return err
		}
	}
	return nil
}

func writeResults(cmd *cobra.Command, results []*core.ScanResult) error {
	format, _ := cmd.Flags().GetString("format")

	var out []byte
	var err error
	switch format {
	case "sarif":
		out, err = sarif.RenderAll(results)
	case "sarif-summary":
		out, err = sarif.RenderSummaryAll(results)
	case "json":
		out, err = json.MarshalIndent(results, "", "  ")
	case "summary":
		out = []byte(renderReport(results))
	default:
		return exitError(exitInputParse, "unknown format %q (sarif, sarif-summary, json, summary)", format)
	}
	if err != nil {
		return exitError(exitRuntime, "rendering output: %v", err)
	}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return exitError(exitRuntime, "writing output: %v", err)
		}
		return nil
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
