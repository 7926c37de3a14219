package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var standardCronParser = cron.NewParser(
	cron.Minute |
		cron.Hour |
		cron.Dom |
		cron.Month |
		cron.Dow,
)

// parseCronExpressionUTC parses a five-field cron expression. Schedules
// are evaluated in UTC only; timezone prefixes are rejected.
func parseCronExpressionUTC(expr string) (cron.Schedule, error) {
	clean := strings.TrimSpace(expr)
	if clean == "" {
		return nil, fmt.Errorf("cron expression is required")
	}

	upper := strings.ToUpper(clean)
	if strings.Contains(upper, "CRON_TZ=") || strings.Contains(upper, "TZ=") {
		return nil, fmt.Errorf("cron expression must be UTC-only (timezone prefixes are not allowed)")
	}

	schedule, err := standardCronParser.Parse(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}
	return schedule, nil
}

// NewWatchCmd creates the "watch" subcommand: rescan a manifest on a cron
// schedule until interrupted.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Rescan a manifest on a cron schedule",
		Long: "Watch rescans the manifest on the given UTC cron schedule and prints a\n" +
			"summary after each run. Combine with --history-db to build a readiness\n" +
			"trend over time. Runs until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: runWatch,
	}
	addScanFlags(cmd)
	cmd.Flags().String("cron", "0 * * * *", "UTC cron schedule (five fields)")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	expr, _ := cmd.Flags().GetString("cron")
	schedule, err := parseCronExpressionUTC(expr)
	if err != nil {
		return exitError(exitInputParse, "%v", err)
	}

	logger := newLogger(cmd)
	ctx := cmd.Context()

	for {
		next := schedule.Next(time.Now().UTC())
		logger.Info("next scan scheduled", "at", next.Format(time.RFC3339), "target", args[0])

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		// One failing run must not stop the watch; not-ready exits are
		// expected while a manifest is being fixed up.
		if err := scanFile(cmd, args[0], ""); err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) && exitErr.Code == exitNotReady {
				logger.Warn("target not production-ready", "error", err)
				continue
			}
			logger.Error("scan failed", "error", err)
		}
	}
}
