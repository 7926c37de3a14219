// Package core provides the foundational types and interfaces for readyscan.
//
// This package contains:
//   - Core types: Severity, RiskCategory, Finding, ScanResult
//   - Interfaces: Provider (the analysis backend contract)
//   - Target: the free-form manifest/config mapping under inspection
package core

import (
	"context"
	"time"
)

// Severity classifies the impact of a finding. The set is totally ordered;
// CRITICAL is the highest. Ordering drives sorting, score penalties, and
// SARIF level mapping.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// severityRank maps each severity to its rank; higher means more severe.
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
	SeverityInfo:     0,
}

// Rank returns the numeric rank of the severity, higher being more severe.
// Unknown severities rank below INFO.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.Rank() >= other.Rank()
}

// String returns the string representation of the Severity.
func (s Severity) String() string {
	return string(s)
}

// Severities lists all known severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow, SeverityInfo}
}

// RiskCategory identifies an operational-risk class. The set is closed;
// every category has exactly one entry in the taxonomy registry.
type RiskCategory string

const (
	RiskMissingTimeoutGuard      RiskCategory = "missing-timeout-guard"
	RiskUnsafeRetryLoop          RiskCategory = "unsafe-retry-loop"
	RiskMissingErrorSchema       RiskCategory = "missing-error-schema"
	RiskOverloadedToolScope      RiskCategory = "overloaded-tool-scope"
	RiskSilentFailurePath        RiskCategory = "silent-failure-path"
	RiskNonDeterministicResponse RiskCategory = "non-deterministic-response"
	RiskNoObservabilityHooks     RiskCategory = "no-observability-hooks"
)

// String returns the string representation of the RiskCategory.
func (c RiskCategory) String() string {
	return string(c)
}

// Finding is one detected operational-readiness issue. A Finding is created
// once by a provider during analysis and never mutated afterward.
type Finding struct {
	Category    RiskCategory   `json:"category"`
	Severity    Severity       `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location,omitempty"`
	Evidence    map[string]any `json:"evidence,omitempty"`
	Provider    string         `json:"provider"`
	Remediation string         `json:"remediation,omitempty"`
	RuleID      string         `json:"rule_id,omitempty"`
}

// ScanResult is the outcome of scanning one target. It is constructed
// exactly once by the orchestrator at the end of a scan and is immutable
// thereafter. Suppressed findings are retained for audit and are never
// part of Findings.
type ScanResult struct {
	ScanID          string           `json:"scan_id"`
	Target          string           `json:"target"`
	Timestamp       time.Time        `json:"timestamp"`
	Findings        []Finding        `json:"findings"`
	Suppressed      []Finding        `json:"suppressed,omitempty"`
	ProvidersUsed   []string         `json:"providers_used"`
	SeverityCounts  map[Severity]int `json:"severity_counts"`
	ReadinessScore  int              `json:"readiness_score"`
	ProductionReady bool             `json:"production_ready"`
}

// CountBySeverity tallies findings per severity. Severities without
// findings are present with a zero count so report output is stable.
func CountBySeverity(findings []Finding) map[Severity]int {
	counts := make(map[Severity]int, len(severityRank))
	for _, s := range Severities() {
		counts[s] = 0
	}
	for _, f := range findings {
		counts[f.Severity]++
	}
	return counts
}

// Target is a tool definition or server configuration mapping submitted
// for analysis. Well-known fields may appear under several historical
// aliases; use ResolveAlias to look them up.
type Target map[string]any

// String returns the string value of a top-level key, or "" when the key
// is absent or not a string.
func (t Target) String(key string) string {
	s, _ := t[key].(string)
	return s
}

// Map returns a nested mapping under a top-level key, or nil.
func (t Target) Map(key string) Target {
	switch m := t[key].(type) {
	case map[string]any:
		return Target(m)
	case Target:
		return m
	default:
		return nil
	}
}

// StringList returns a top-level list of strings. Non-string entries are
// skipped; a scalar string value is returned as a one-element list.
func (t Target) StringList(key string) []string {
	switch v := t[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		return []string{v}
	default:
		return nil
	}
}

// ResolveAlias looks up a field that may appear under any of several
// historical names. For each alias in priority order it checks the top
// level and then the "config" sub-object, returning the first hit.
func (t Target) ResolveAlias(aliases []string) (field string, value any, ok bool) {
	config := t.Map("config")
	for _, name := range aliases {
		if v, present := t[name]; present {
			return name, v, true
		}
		if config != nil {
			if v, present := config[name]; present {
				return "config." + name, v, true
			}
		}
	}
	return "", nil, false
}

// HasAlias reports whether any of the aliases is present at the top level
// or under "config".
func (t Target) HasAlias(aliases []string) bool {
	_, _, ok := t.ResolveAlias(aliases)
	return ok
}

// TargetKind distinguishes tool definitions from server configurations.
// The kind selects which Provider method analyzes the target.
type TargetKind string

const (
	TargetTool   TargetKind = "tool"
	TargetConfig TargetKind = "config"
)

// Provider is the capability contract all analysis backends implement.
//
// Available must be synchronous and side-effect free: a backend whose
// external dependency (binary, credential, network) is missing reports
// false rather than failing. AnalyzeTool and AnalyzeConfig may block on
// I/O and must degrade to fewer findings on malformed input, never panic.
// Returned errors are isolated by the orchestrator; they never abort a
// scan.
type Provider interface {
	Name() string
	Description() string
	Available() bool
	AnalyzeTool(ctx context.Context, target Target) ([]Finding, error)
	AnalyzeConfig(ctx context.Context, target Target) ([]Finding, error)
}
