package cli

import (
	"fmt"
	"strings"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/sarif"
)

// renderReport formats scan results as a human-readable report: the
// summary line per target followed by findings grouped in severity order.
func renderReport(results []*core.ScanResult) string {
	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sarif.RenderSummary(result))
		if len(result.Findings) == 0 {
			continue
		}
		b.WriteString("\n")
		for _, severity := range core.Severities() {
			for _, f := range result.Findings {
				if f.Severity != severity {
					continue
				}
				writeFinding(&b, f)
			}
		}
	}
	return b.String()
}

func writeFinding(b *strings.Builder, f core.Finding) {
	id := f.RuleID
	if id == "" {
		id = string(f.Category)
	}
	fmt.Fprintf(b, "  [%s] %s: %s\n", f.Severity, id, f.Title)
	if f.Location != "" {
		fmt.Fprintf(b, "      at %s\n", f.Location)
	}
	if f.Description != "" {
		fmt.Fprintf(b, "      %s\n", f.Description)
	}
	if f.Remediation != "" {
		fmt.Fprintf(b, "      fix: %s\n", f.Remediation)
	}
}
