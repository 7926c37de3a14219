package heuristic

import (
	"context"
	"testing"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/score"
)

func ruleIDs(findings []core.Finding) map[string]bool {
	ids := make(map[string]bool, len(findings))
	for _, f := range findings {
		ids[f.RuleID] = true
	}
	return ids
}

func analyzeTool(t *testing.T, target core.Target) []core.Finding {
	t.Helper()
	findings, err := NewDefault().AnalyzeTool(context.Background(), target)
	if err != nil {
		t.Fatalf("AnalyzeTool: %v", err)
	}
	return findings
}

func TestAnalyzeToolPartialManifest(t *testing.T) {
	target := core.Target{
		"name":        "t",
		"description": "A test tool",
		"timeout":     30000,
	}
	ids := ruleIDs(analyzeTool(t, target))

	for _, want := range []string{
		"HEUR-003", // no retry limit
		"HEUR-006", // no error schema
		"HEUR-008", // no output schema
		"HEUR-009", // description quality
		"HEUR-013", // no rate limit
		"HEUR-014", // no version
		"HEUR-015", // no observability
	} {
		if !ids[want] {
			t.Errorf("expected %s to fire, got %v", want, ids)
		}
	}
	if ids["HEUR-001"] {
		t.Error("HEUR-001 fired despite a configured timeout")
	}
	if ids["HEUR-002"] {
		t.Error("HEUR-002 fired for an in-range timeout")
	}
}

func TestEmptyManifestScoresBelowPartialManifest(t *testing.T) {
	partial := core.Target{
		"name":        "t",
		"description": "A test tool",
		"timeout":     30000,
	}

	cfg := score.DefaultConfig()
	partialScore, _ := cfg.Score(analyzeTool(t, partial))
	emptyScore, _ := cfg.Score(analyzeTool(t, core.Target{}))

	if emptyScore >= partialScore {
		t.Errorf("empty manifest score = %d, want below partial manifest score %d",
			emptyScore, partialScore)
	}
}

func TestAnalyzeToolEmptyManifest(t *testing.T) {
	findings := analyzeTool(t, core.Target{})
	ids := ruleIDs(findings)

	wantSeverity := map[string]core.Severity{
		"HEUR-001": core.SeverityHigh,
		"HEUR-003": core.SeverityMedium,
		"HEUR-006": core.SeverityMedium,
		"HEUR-008": core.SeverityLow,
		"HEUR-009": core.SeverityMedium,
		"HEUR-013": core.SeverityLow,
		"HEUR-014": core.SeverityLow,
		"HEUR-015": core.SeverityLow,
		"HEUR-022": core.SeverityLow,
	}
	for id, severity := range wantSeverity {
		if !ids[id] {
			t.Errorf("expected %s to fire for empty target", id)
			continue
		}
		for _, f := range findings {
			if f.RuleID == id && f.Severity != severity {
				t.Errorf("%s severity = %s, want %s", id, f.Severity, severity)
			}
		}
	}
	for _, f := range findings {
		if f.Provider != ProviderName {
			t.Errorf("finding %s attributed to %q", f.RuleID, f.Provider)
		}
	}
}

func TestAnalyzeToolNilTarget(t *testing.T) {
	findings, err := NewDefault().AnalyzeTool(context.Background(), nil)
	if err != nil {
		t.Fatalf("AnalyzeTool(nil): %v", err)
	}
	if !ruleIDs(findings)["HEUR-001"] {
		t.Error("nil target should be treated as an empty manifest")
	}
}

func TestTimeoutAliasResolution(t *testing.T) {
	tests := []struct {
		name    string
		target  core.Target
		fires   []string
		absent  []string
		wantLoc string
	}{
		{
			name:   "timeoutMs satisfies presence",
			target: core.Target{"name": "x", "timeoutMs": 30000},
			absent: []string{"HEUR-001", "HEUR-002"},
		},
		{
			name:    "excessive timeout fires bounds not presence",
			target:  core.Target{"name": "x", "timeout": 400000},
			fires:   []string{"HEUR-002"},
			absent:  []string{"HEUR-001"},
			wantLoc: "tool.x.timeout",
		},
		{
			name:   "nested config timeout satisfies presence",
			target: core.Target{"name": "x", "config": map[string]any{"timeout_ms": 5000}},
			absent: []string{"HEUR-001", "HEUR-002"},
		},
		{
			name:    "zero timeout is invalid",
			target:  core.Target{"name": "x", "timeout": 0},
			fires:   []string{"HEUR-002"},
			absent:  []string{"HEUR-001"},
			wantLoc: "tool.x.timeout",
		},
		{
			name:   "negative timeout is invalid",
			target: core.Target{"name": "x", "timeout": -5},
			fires:  []string{"HEUR-002"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			findings := analyzeTool(t, tc.target)
			ids := ruleIDs(findings)
			for _, id := range tc.fires {
				if !ids[id] {
					t.Errorf("expected %s to fire", id)
				}
			}
			for _, id := range tc.absent {
				if ids[id] {
					t.Errorf("%s fired unexpectedly", id)
				}
			}
			if tc.wantLoc != "" {
				found := false
				for _, f := range findings {
					if f.RuleID == "HEUR-002" && f.Location == tc.wantLoc {
						found = true
					}
				}
				if !found {
					t.Errorf("no HEUR-002 finding at %s", tc.wantLoc)
				}
			}
		})
	}
}

func TestZeroTimeoutSeverity(t *testing.T) {
	findings := analyzeTool(t, core.Target{"name": "x", "timeout": 0})
	for _, f := range findings {
		if f.RuleID == "HEUR-002" {
			if f.Severity != core.SeverityHigh {
				t.Errorf("invalid timeout severity = %s, want HIGH", f.Severity)
			}
			return
		}
	}
	t.Fatal("HEUR-002 did not fire for timeout=0")
}

func TestRetryBounds(t *testing.T) {
	tests := []struct {
		name         string
		target       core.Target
		wantID       string
		wantSeverity core.Severity
	}{
		{
			name:         "unlimited retries",
			target:       core.Target{"name": "x", "maxRetries": -1},
			wantID:       "HEUR-004",
			wantSeverity: core.SeverityHigh,
		},
		{
			name:         "excessive retries",
			target:       core.Target{"name": "x", "maxRetries": 50},
			wantID:       "HEUR-004",
			wantSeverity: core.SeverityHigh,
		},
		{
			name:         "retries in retryPolicy",
			target:       core.Target{"name": "x", "retryPolicy": map[string]any{"maxRetries": -1}},
			wantID:       "HEUR-004",
			wantSeverity: core.SeverityHigh,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			findings := analyzeTool(t, tc.target)
			for _, f := range findings {
				if f.RuleID == tc.wantID {
					if f.Severity != tc.wantSeverity {
						t.Errorf("severity = %s, want %s", f.Severity, tc.wantSeverity)
					}
					return
				}
			}
			t.Errorf("%s did not fire", tc.wantID)
		})
	}
}

func TestBackoffOnlyWithRetries(t *testing.T) {
	withRetries := ruleIDs(analyzeTool(t, core.Target{"name": "x", "maxRetries": 3}))
	if !withRetries["HEUR-005"] {
		t.Error("HEUR-005 should fire when retries are configured without backoff")
	}
	if withRetries["HEUR-004"] {
		t.Error("HEUR-004 fired for maxRetries=3")
	}
	if withRetries["HEUR-003"] {
		t.Error("HEUR-003 fired despite a configured retry limit")
	}

	withoutRetries := ruleIDs(analyzeTool(t, core.Target{"name": "x"}))
	if withoutRetries["HEUR-005"] {
		t.Error("HEUR-005 fired with no retry configuration at all")
	}

	withBoth := ruleIDs(analyzeTool(t, core.Target{"name": "x", "maxRetries": 3, "backoffMs": 1000}))
	if withBoth["HEUR-005"] {
		t.Error("HEUR-005 fired despite a backoff strategy")
	}
}

func TestErrorSchemaCodeField(t *testing.T) {
	withCode := core.Target{
		"name": "x",
		"errorSchema": map[string]any{
			"properties": map[string]any{"code": map[string]any{"type": "string"}},
		},
	}
	if ruleIDs(analyzeTool(t, withCode))["HEUR-007"] {
		t.Error("HEUR-007 fired despite a code property")
	}

	withoutCode := core.Target{
		"name": "x",
		"errorSchema": map[string]any{
			"properties": map[string]any{"message": map[string]any{"type": "string"}},
		},
	}
	ids := ruleIDs(analyzeTool(t, withoutCode))
	if !ids["HEUR-007"] {
		t.Error("HEUR-007 should fire when the error schema lacks a code field")
	}
	if ids["HEUR-006"] {
		t.Error("HEUR-006 fired despite a present error schema")
	}
}

func TestDescriptionChecks(t *testing.T) {
	tests := []struct {
		name      string
		target    core.Target
		wantTitle string
	}{
		{
			name:      "missing",
			target:    core.Target{"name": "x"},
			wantTitle: "Missing description",
		},
		{
			name:      "short",
			target:    core.Target{"name": "x", "description": "does stuff"},
			wantTitle: "Vague description",
		},
		{
			name:      "generic",
			target:    core.Target{"name": "x", "description": "tool utility helper function tool"},
			wantTitle: "Generic description",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for _, f := range analyzeTool(t, tc.target) {
				if f.RuleID == "HEUR-009" {
					if f.Title != tc.wantTitle {
						t.Errorf("title = %q, want %q", f.Title, tc.wantTitle)
					}
					return
				}
			}
			t.Fatal("HEUR-009 did not fire")
		})
	}
}

func TestOverloadedScope(t *testing.T) {
	target := core.Target{
		"name": "universal",
		"description": "Handles anything: create, read, update, delete, search, and " +
			"execute operations on all resources",
	}
	findings := analyzeTool(t, target)

	var scope []core.Finding
	for _, f := range findings {
		if f.RuleID == "HEUR-010" {
			scope = append(scope, f)
		}
	}
	if len(scope) < 2 {
		t.Fatalf("expected overload keyword and verb-count findings, got %d", len(scope))
	}
	for _, f := range scope {
		if f.Severity != core.SeverityHigh {
			t.Errorf("HEUR-010 severity = %s, want HIGH", f.Severity)
		}
	}
}

func TestCapabilityCount(t *testing.T) {
	caps := make([]any, 12)
	for i := range caps {
		caps[i] = "cap"
	}
	target := core.Target{"name": "x", "capabilities": caps}
	found := false
	for _, f := range analyzeTool(t, target) {
		if f.RuleID == "HEUR-010" && f.Evidence["count"] == 12 {
			found = true
		}
	}
	if !found {
		t.Error("capability count over the limit should fire HEUR-010")
	}

	small := core.Target{"name": "x", "capabilities": []any{"a", "b"}}
	for _, f := range analyzeTool(t, small) {
		if f.RuleID == "HEUR-010" {
			t.Errorf("HEUR-010 fired for a small capability list: %s", f.Title)
		}
	}
}

func TestInputSchemaChecks(t *testing.T) {
	noRequired := core.Target{
		"name": "x",
		"inputSchema": map[string]any{
			"properties": map[string]any{
				"a": map[string]any{"type": "string"},
				"b": map[string]any{"type": "number"},
			},
		},
	}
	ids := ruleIDs(analyzeTool(t, noRequired))
	if !ids["HEUR-011"] {
		t.Error("HEUR-011 should fire when required is empty")
	}
	if !ids["HEUR-012"] {
		t.Error("HEUR-012 should fire when no property carries validation constraints")
	}
	if ids["HEUR-022"] {
		t.Error("HEUR-022 fired despite a present input schema")
	}

	validated := core.Target{
		"name": "x",
		"inputSchema": map[string]any{
			"properties": map[string]any{
				"a": map[string]any{"type": "string", "pattern": "^[a-z]+$"},
				"b": map[string]any{"type": "number", "minimum": 0},
			},
			"required": []any{"a"},
		},
	}
	ids = ruleIDs(analyzeTool(t, validated))
	if ids["HEUR-011"] || ids["HEUR-012"] {
		t.Errorf("validation rules fired for a fully constrained schema: %v", ids)
	}
}

func TestDangerousKeywordsAndPhrases(t *testing.T) {
	destructive := core.Target{
		"name":        "db-cleaner",
		"description": "Permanently delete and purge expired records from the database table",
	}
	ids := ruleIDs(analyzeTool(t, destructive))
	if !ids["HEUR-018"] {
		t.Error("HEUR-018 should fire for destructive keywords")
	}

	silent := core.Target{
		"name":        "notifier",
		"description": "Sends a notification on a best effort basis and errors are ignored",
	}
	for _, f := range analyzeTool(t, silent) {
		if f.RuleID == "HEUR-021" {
			if f.Severity != core.SeverityLow {
				t.Errorf("HEUR-021 severity = %s, want LOW", f.Severity)
			}
			return
		}
	}
	t.Error("HEUR-021 should fire for best-effort phrasing")
}

func TestSelfReferenceDetection(t *testing.T) {
	target := core.Target{
		"name":        "exportData",
		"description": "Runs exportdata against the warehouse and writes the archive to disk",
	}
	found := false
	for _, f := range analyzeTool(t, target) {
		if f.RuleID == "HEUR-020" && f.Title == "Potential circular dependency" {
			found = true
		}
	}
	if !found {
		t.Error("HEUR-020 should fire when the description references the tool name")
	}
}

func TestAnalyzeConfig(t *testing.T) {
	target := core.Target{
		"mcpServers": map[string]any{
			"s": map[string]any{"args": []any{"--help"}},
		},
	}
	findings, err := NewDefault().AnalyzeConfig(context.Background(), target)
	if err != nil {
		t.Fatalf("AnalyzeConfig: %v", err)
	}

	var gotCommand, gotTimeout bool
	for _, f := range findings {
		switch f.RuleID {
		case "HEUR-CFG-002":
			gotCommand = true
			if f.Severity != core.SeverityHigh {
				t.Errorf("missing command severity = %s, want HIGH", f.Severity)
			}
			if f.Location != "mcpServers.s.command" {
				t.Errorf("missing command location = %q", f.Location)
			}
		case "HEUR-CFG-004":
			gotTimeout = true
			if f.Severity != core.SeverityMedium {
				t.Errorf("missing timeout severity = %s, want MEDIUM", f.Severity)
			}
		}
	}
	if !gotCommand || !gotTimeout {
		t.Errorf("expected CFG-002 and CFG-004 for server 's': command=%v timeout=%v", gotCommand, gotTimeout)
	}
}

func TestAnalyzeConfigEmpty(t *testing.T) {
	findings, err := NewDefault().AnalyzeConfig(context.Background(), core.Target{})
	if err != nil {
		t.Fatalf("AnalyzeConfig: %v", err)
	}
	if len(findings) != 1 || findings[0].RuleID != "HEUR-CFG-001" {
		t.Fatalf("expected only HEUR-CFG-001, got %+v", findings)
	}
	if findings[0].Severity != core.SeverityInfo {
		t.Errorf("severity = %s, want INFO", findings[0].Severity)
	}
}

func TestSensitiveEnvDetection(t *testing.T) {
	target := core.Target{
		"mcpServers": map[string]any{
			"s": map[string]any{
				"command": "run-server",
				"timeout": 30000,
				"env": map[string]any{
					"API_KEY":   "abc",
					"LOG_LEVEL": "debug",
					"DB_SECRET": "xyz",
				},
			},
		},
	}
	findings, err := NewDefault().AnalyzeConfig(context.Background(), target)
	if err != nil {
		t.Fatalf("AnalyzeConfig: %v", err)
	}

	var vars []string
	for _, f := range findings {
		if f.RuleID == "HEUR-CFG-003" {
			vars = append(vars, f.Location)
		}
	}
	want := []string{"mcpServers.s.env.API_KEY", "mcpServers.s.env.DB_SECRET"}
	if len(vars) != len(want) {
		t.Fatalf("sensitive vars = %v, want %v", vars, want)
	}
	for i := range want {
		if vars[i] != want[i] {
			t.Errorf("vars[%d] = %q, want %q", i, vars[i], want[i])
		}
	}
}

func TestContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewDefault().AnalyzeTool(ctx, core.Target{}); err == nil {
		t.Error("expected an error for a cancelled context")
	}
}

func TestRulesListing(t *testing.T) {
	rules := Rules()
	if len(rules) != len(toolRules)+len(configRuleInfos) {
		t.Fatalf("Rules() length = %d, want %d", len(rules), len(toolRules)+len(configRuleInfos))
	}
	seen := make(map[string]bool)
	for _, r := range rules {
		if r.ID == "" || r.Summary == "" || r.Category == "" {
			t.Errorf("incomplete rule info: %+v", r)
		}
		if seen[r.ID] {
			t.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true
	}
}
