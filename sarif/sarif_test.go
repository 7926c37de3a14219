package sarif

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/taxonomy"
)

func sampleResult() *core.ScanResult {
	findings := []core.Finding{
		{
			Category:    core.RiskMissingTimeoutGuard,
			Severity:    core.SeverityHigh,
			Title:       "No timeout configuration",
			Description: "Tool 't' does not specify a timeout.",
			Location:    "tool.t",
			Provider:    "heuristic",
			Remediation: "Add a timeout",
			RuleID:      "HEUR-001",
			Evidence:    map[string]any{"field": "timeout"},
		},
		{
			Category: core.RiskNonDeterministicResponse,
			Severity: core.SeverityInfo,
			Title:    "No idempotency indication",
			Provider: "heuristic",
			RuleID:   "HEUR-017",
		},
	}
	return &core.ScanResult{
		ScanID:          "id",
		Target:          "tool.json",
		Timestamp:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Findings:        findings,
		Suppressed:      []core.Finding{{RuleID: "HEUR-014"}},
		ProvidersUsed:   []string{"heuristic"},
		SeverityCounts:  core.CountBySeverity(findings),
		ReadinessScore:  85,
		ProductionReady: false,
	}
}

func TestRender(t *testing.T) {
	data, err := Render(sampleResult())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatalf("rendered SARIF does not parse: %v", err)
	}
	if log.Version != "2.1.0" || log.Schema == "" {
		t.Errorf("version/schema = %q/%q", log.Version, log.Schema)
	}
	if len(log.Runs) != 1 {
		t.Fatalf("runs = %d, want 1", len(log.Runs))
	}

	run := log.Runs[0]
	if run.Tool.Driver.Name != "readyscan" {
		t.Errorf("driver = %q", run.Tool.Driver.Name)
	}
	if got := len(run.Tool.Driver.Rules); got != taxonomy.Global().Len() {
		t.Errorf("rules = %d, want %d", got, taxonomy.Global().Len())
	}
	if len(run.Results) != 2 {
		t.Fatalf("results = %d, want 2 (suppressed findings must not render)", len(run.Results))
	}

	first := run.Results[0]
	if first.RuleID != "missing-timeout-guard" {
		t.Errorf("ruleId = %q", first.RuleID)
	}
	if first.Level != "error" {
		t.Errorf("level = %q, want error for HIGH", first.Level)
	}
	if first.RuleIndex != taxonomy.Global().Index(core.RiskMissingTimeoutGuard) {
		t.Errorf("ruleIndex = %d", first.RuleIndex)
	}
	if first.Message.Text != "No timeout configuration: Tool 't' does not specify a timeout." {
		t.Errorf("message = %q", first.Message.Text)
	}
	if first.Properties["rule_id"] != "HEUR-001" {
		t.Errorf("properties = %v", first.Properties)
	}
	if first.Locations[0].PhysicalLocation.ArtifactLocation.URI != "tool.json" {
		t.Errorf("artifact uri = %q", first.Locations[0].PhysicalLocation.ArtifactLocation.URI)
	}
	if first.Locations[0].LogicalLocations[0].FullyQualifiedName != "tool.t" {
		t.Errorf("logical location = %v", first.Locations[0].LogicalLocations)
	}

	if run.Results[1].Level != "none" {
		t.Errorf("INFO level = %q, want none", run.Results[1].Level)
	}

	if run.Properties["readinessScore"] != float64(85) {
		t.Errorf("readinessScore = %v", run.Properties["readinessScore"])
	}
	if run.Properties["isProductionReady"] != false {
		t.Errorf("isProductionReady = %v", run.Properties["isProductionReady"])
	}
	if len(run.Invocations) != 1 || !run.Invocations[0].ExecutionSuccessful {
		t.Errorf("invocations = %v", run.Invocations)
	}
}

func TestRenderRuleMetadataAndFixes(t *testing.T) {
	data, err := Render(sampleResult())
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatal(err)
	}
	run := log.Runs[0]

	for _, rule := range run.Tool.Driver.Rules {
		if rule.HelpURI == "" || !strings.Contains(rule.HelpURI, rule.ID) {
			t.Errorf("rule %s helpUri = %q, want an anchor on the category", rule.ID, rule.HelpURI)
		}
		if rule.DefaultConfiguration.Level == "" {
			t.Errorf("rule %s has no defaultConfiguration.level", rule.ID)
		}
	}
	entry, _ := taxonomy.Global().Get(core.RiskMissingTimeoutGuard)
	idx := taxonomy.Global().Index(core.RiskMissingTimeoutGuard)
	if got := run.Tool.Driver.Rules[idx].DefaultConfiguration.Level; got != Level(entry.DefaultSeverity) {
		t.Errorf("defaultConfiguration.level = %q, want %q", got, Level(entry.DefaultSeverity))
	}

	// A finding with remediation carries a fix suggestion; one without
	// carries none.
	first := run.Results[0]
	if len(first.Fixes) != 1 || first.Fixes[0].Description.Text != "Add a timeout" {
		t.Errorf("fixes = %+v, want the remediation text", first.Fixes)
	}
	if len(run.Results[1].Fixes) != 0 {
		t.Errorf("fixes = %+v for a finding without remediation, want none", run.Results[1].Fixes)
	}
}

func TestRuleIndexFollowsTaxonomyOrder(t *testing.T) {
	data, err := Render(sampleResult())
	if err != nil {
		t.Fatal(err)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatal(err)
	}
	rules := log.Runs[0].Tool.Driver.Rules
	for i, entry := range taxonomy.Global().All() {
		if rules[i].ID != string(entry.Category) {
			t.Errorf("rules[%d] = %q, want %q", i, rules[i].ID, entry.Category)
		}
	}
	for _, r := range log.Runs[0].Results {
		if r.RuleIndex < 0 || r.RuleIndex >= len(rules) {
			t.Errorf("ruleIndex %d out of range", r.RuleIndex)
		}
		if rules[r.RuleIndex].ID != r.RuleID {
			t.Errorf("ruleIndex %d points at %q, result says %q", r.RuleIndex, rules[r.RuleIndex].ID, r.RuleID)
		}
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		severity core.Severity
		want     string
	}{
		{core.SeverityCritical, "error"},
		{core.SeverityHigh, "error"},
		{core.SeverityMedium, "warning"},
		{core.SeverityLow, "note"},
		{core.SeverityInfo, "none"},
		{core.Severity("BOGUS"), "warning"},
	}
	for _, tc := range tests {
		if got := Level(tc.severity); got != tc.want {
			t.Errorf("Level(%s) = %q, want %q", tc.severity, got, tc.want)
		}
	}
}

func TestRenderSummaryAll(t *testing.T) {
	data, err := RenderSummaryAll([]*core.ScanResult{sampleResult()})
	if err != nil {
		t.Fatalf("RenderSummaryAll: %v", err)
	}
	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		t.Fatalf("summary SARIF does not parse: %v", err)
	}
	if log.Version != "2.1.0" || len(log.Runs) != 1 {
		t.Fatalf("version/runs = %q/%d", log.Version, len(log.Runs))
	}

	run := log.Runs[0]
	if len(run.Tool.Driver.Rules) != 0 {
		t.Errorf("summary carries %d rules, want none", len(run.Tool.Driver.Rules))
	}
	if run.Results == nil || len(run.Results) != 0 {
		t.Errorf("summary results = %v, want an empty array", run.Results)
	}
	if run.Properties["readinessScore"] != float64(85) {
		t.Errorf("readinessScore = %v", run.Properties["readinessScore"])
	}
	if run.Properties["isProductionReady"] != false {
		t.Errorf("isProductionReady = %v", run.Properties["isProductionReady"])
	}
	if run.Properties["findingsCount"] != float64(2) {
		t.Errorf("findingsCount = %v", run.Properties["findingsCount"])
	}
	counts, ok := run.Properties["findingsBySeverity"].(map[string]any)
	if !ok || counts["HIGH"] != float64(1) || counts["INFO"] != float64(1) {
		t.Errorf("findingsBySeverity = %v", run.Properties["findingsBySeverity"])
	}
	if strings.Contains(string(data), `"rules"`) {
		t.Error("summary output must not contain a rules block")
	}
}

func TestRenderSummary(t *testing.T) {
	summary := RenderSummary(sampleResult())
	for _, want := range []string{"NOT production-ready", "score 85/100", "2 active", "1 suppressed", "1 HIGH", "1 INFO"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}
