package suppress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petal-labs/readyscan/core"
)

func finding(ruleID string) core.Finding {
	return core.Finding{
		Category: core.RiskMissingTimeoutGuard,
		Severity: core.SeverityHigh,
		Title:    "t",
		RuleID:   ruleID,
	}
}

func TestCLISuppression(t *testing.T) {
	m := NewManager([]string{"HEUR-001", " HEUR-003 ", ""})
	if !m.IsSuppressed(finding("HEUR-001"), nil) {
		t.Error("HEUR-001 should be suppressed")
	}
	if !m.IsSuppressed(finding("HEUR-003"), nil) {
		t.Error("whitespace-padded rule id should be trimmed and suppressed")
	}
	if m.IsSuppressed(finding("HEUR-002"), nil) {
		t.Error("HEUR-002 should not be suppressed")
	}
	if m.IsSuppressed(finding(""), nil) {
		t.Error("findings without a rule id are never suppressed")
	}
}

func TestIgnoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".readyscan-ignore")
	content := "# noisy rules\nHEUR-014\n\n  HEUR-015  \n# trailing comment\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	m := NewManager(nil)
	if err := m.LoadIgnoreFile(path); err != nil {
		t.Fatalf("LoadIgnoreFile: %v", err)
	}
	for _, id := range []string{"HEUR-014", "HEUR-015"} {
		if !m.IsSuppressed(finding(id), nil) {
			t.Errorf("%s should be suppressed via ignore file", id)
		}
	}
	if m.IsSuppressed(finding("# noisy rules"), nil) {
		t.Error("comment lines must not become suppressions")
	}
}

func TestIgnoreFileMissing(t *testing.T) {
	m := NewManager(nil)
	if err := m.LoadIgnoreFile(filepath.Join(t.TempDir(), "absent")); err != nil {
		t.Fatalf("missing ignore file should not be an error: %v", err)
	}
}

func TestIgnoreFileUnreadable(t *testing.T) {
	// A directory opens but fails on read.
	m := NewManager(nil)
	path := filepath.Join(t.TempDir(), "dir")
	if err := os.Mkdir(path, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := m.LoadIgnoreFile(path); err == nil {
		t.Error("expected an error for an unreadable ignore file")
	}
}

func TestInlineSuppression(t *testing.T) {
	m := NewManager(nil)
	target := core.Target{InlineKey: []any{"HEUR-009", "HEUR-020"}}
	if !m.IsSuppressed(finding("HEUR-009"), target) {
		t.Error("inline list should suppress HEUR-009")
	}
	if m.IsSuppressed(finding("HEUR-001"), target) {
		t.Error("HEUR-001 is not in the inline list")
	}

	scalar := core.Target{InlineKey: "HEUR-009"}
	if !m.IsSuppressed(finding("HEUR-009"), scalar) {
		t.Error("a scalar inline value should suppress its rule id")
	}
}

func TestSourcesAreORed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignore")
	if err := os.WriteFile(path, []byte("HEUR-002\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager([]string{"HEUR-001"})
	if err := m.LoadIgnoreFile(path); err != nil {
		t.Fatal(err)
	}
	target := core.Target{InlineKey: []any{"HEUR-003"}}
	for _, id := range []string{"HEUR-001", "HEUR-002", "HEUR-003"} {
		if !m.IsSuppressed(finding(id), target) {
			t.Errorf("%s should be suppressed (sources OR)", id)
		}
	}
}

func TestFilterPartition(t *testing.T) {
	m := NewManager([]string{"HEUR-002"})
	input := []core.Finding{finding("HEUR-001"), finding("HEUR-002"), finding("HEUR-003")}

	active, suppressed := m.Filter(input, nil)
	if len(active) != 2 || len(suppressed) != 1 {
		t.Fatalf("partition sizes = %d/%d, want 2/1", len(active), len(suppressed))
	}
	if active[0].RuleID != "HEUR-001" || active[1].RuleID != "HEUR-003" {
		t.Errorf("active order not preserved: %v", active)
	}
	if suppressed[0].RuleID != "HEUR-002" {
		t.Errorf("suppressed = %v", suppressed)
	}
	if len(active)+len(suppressed) != len(input) {
		t.Error("partition must cover every finding exactly once")
	}
}

func TestRulesListing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ignore")
	if err := os.WriteFile(path, []byte("HEUR-001\nHEUR-005\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m := NewManager([]string{"HEUR-009", "HEUR-001"})
	if err := m.LoadIgnoreFile(path); err != nil {
		t.Fatal(err)
	}
	got := m.Rules()
	want := []string{"HEUR-001", "HEUR-005", "HEUR-009"}
	if len(got) != len(want) {
		t.Fatalf("Rules() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Rules()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
