package core

import "testing"

func TestSeverityRankOrdering(t *testing.T) {
	order := Severities()
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() <= order[i].Rank() {
			t.Errorf("Rank(%s) = %d, want greater than Rank(%s) = %d",
				order[i-1], order[i-1].Rank(), order[i], order[i].Rank())
		}
	}
}

func TestSeverityRankUnknown(t *testing.T) {
	if got := Severity("BOGUS").Rank(); got != -1 {
		t.Errorf("Rank() = %d, want -1", got)
	}
}

func TestSeverityAtLeast(t *testing.T) {
	tests := []struct {
		s, other Severity
		want     bool
	}{
		{SeverityCritical, SeverityHigh, true},
		{SeverityHigh, SeverityHigh, true},
		{SeverityLow, SeverityMedium, false},
		{SeverityInfo, SeverityCritical, false},
	}
	for _, tt := range tests {
		if got := tt.s.AtLeast(tt.other); got != tt.want {
			t.Errorf("%s.AtLeast(%s) = %v, want %v", tt.s, tt.other, got, tt.want)
		}
	}
}

func TestResolveAlias_TopLevelBeforeConfig(t *testing.T) {
	target := Target{
		"timeoutMs": 30000,
		"config":    map[string]any{"timeout": 5000},
	}
	field, value, ok := target.ResolveAlias([]string{"timeout", "timeoutMs"})
	if !ok {
		t.Fatal("ResolveAlias() ok = false, want true")
	}
	// "timeout" is the highest-priority alias; it only exists under config.
	if field != "config.timeout" {
		t.Errorf("field = %q, want %q", field, "config.timeout")
	}
	if value != 5000 {
		t.Errorf("value = %v, want 5000", value)
	}
}

func TestResolveAlias_ConfigNesting(t *testing.T) {
	target := Target{"config": map[string]any{"timeout_ms": 1000}}
	field, _, ok := target.ResolveAlias([]string{"timeout", "timeoutMs", "timeout_ms"})
	if !ok {
		t.Fatal("ResolveAlias() ok = false, want true")
	}
	if field != "config.timeout_ms" {
		t.Errorf("field = %q, want %q", field, "config.timeout_ms")
	}
}

func TestResolveAlias_Absent(t *testing.T) {
	target := Target{"name": "t"}
	if _, _, ok := target.ResolveAlias([]string{"timeout", "timeoutMs"}); ok {
		t.Error("ResolveAlias() ok = true, want false")
	}
	if target.HasAlias([]string{"timeout"}) {
		t.Error("HasAlias() = true, want false")
	}
}

func TestTargetStringList(t *testing.T) {
	target := Target{
		"mixed":  []any{"a", 1, "b"},
		"typed":  []string{"x"},
		"scalar": "only",
	}
	if got := target.StringList("mixed"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("StringList(mixed) = %v, want [a b]", got)
	}
	if got := target.StringList("typed"); len(got) != 1 || got[0] != "x" {
		t.Errorf("StringList(typed) = %v, want [x]", got)
	}
	if got := target.StringList("scalar"); len(got) != 1 || got[0] != "only" {
		t.Errorf("StringList(scalar) = %v, want [only]", got)
	}
	if got := target.StringList("absent"); got != nil {
		t.Errorf("StringList(absent) = %v, want nil", got)
	}
}

func TestCountBySeverity(t *testing.T) {
	findings := []Finding{
		{Severity: SeverityHigh},
		{Severity: SeverityHigh},
		{Severity: SeverityLow},
	}
	counts := CountBySeverity(findings)
	if counts[SeverityHigh] != 2 {
		t.Errorf("counts[HIGH] = %d, want 2", counts[SeverityHigh])
	}
	if counts[SeverityLow] != 1 {
		t.Errorf("counts[LOW] = %d, want 1", counts[SeverityLow])
	}
	if counts[SeverityCritical] != 0 {
		t.Errorf("counts[CRITICAL] = %d, want 0", counts[SeverityCritical])
	}
	if len(counts) != 5 {
		t.Errorf("len(counts) = %d, want 5", len(counts))
	}
}
