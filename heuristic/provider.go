// Package heuristic implements the built-in zero-dependency analysis
// backend. It evaluates a registry of independent rules against tool
// definitions (HEUR-001..HEUR-022) and server configurations
// (HEUR-CFG-001..HEUR-CFG-004). Rules share no mutable state and are safe
// to run in any order.
package heuristic

import (
	"context"

	"github.com/petal-labs/readyscan/core"
)

// ProviderName is the stable name the heuristic backend reports.
const ProviderName = "heuristic"

// Config tunes the thresholds used by description and capability rules.
type Config struct {
	// MaxCapabilities is the largest capability list accepted before the
	// overloaded-scope rule fires. Defaults to 10.
	MaxCapabilities int

	// MinDescriptionLength is the shortest description accepted before the
	// vague-description rule fires. Defaults to 20.
	MinDescriptionLength int
}

// DefaultConfig returns the default rule thresholds.
func DefaultConfig() Config {
	return Config{
		MaxCapabilities:      10,
		MinDescriptionLength: 20,
	}
}

// Provider is the heuristic analysis backend. It has no external
// dependencies and is therefore always available.
type Provider struct {
	cfg Config
}

// New creates a heuristic provider with the given thresholds. Zero-valued
// fields fall back to the defaults.
func New(cfg Config) *Provider {
	def := DefaultConfig()
	if cfg.MaxCapabilities <= 0 {
		cfg.MaxCapabilities = def.MaxCapabilities
	}
	if cfg.MinDescriptionLength <= 0 {
		cfg.MinDescriptionLength = def.MinDescriptionLength
	}
	return &Provider{cfg: cfg}
}

// NewDefault creates a heuristic provider with default thresholds.
func NewDefault() *Provider {
	return New(DefaultConfig())
}

// Name returns the provider's stable name.
func (p *Provider) Name() string {
	return ProviderName
}

// Description returns the human-readable provider description.
func (p *Provider) Description() string {
	return "Zero-dependency heuristic checks for timeout, retry, scope, " +
		"error handling, and description quality"
}

// Available always reports true; the heuristic backend needs no external
// binary, credential, or network access.
func (p *Provider) Available() bool {
	return true
}

// AnalyzeTool evaluates every tool rule against the target. A malformed or
// partially-specified target yields fewer findings, never an error.
func (p *Provider) AnalyzeTool(ctx context.Context, target core.Target) ([]core.Finding, error) {
	if target == nil {
		target = core.Target{}
	}
	toolName := target.String("name")
	if toolName == "" {
		toolName = "unknown"
	}

	var findings []core.Finding
	for _, rule := range toolRules {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		findings = append(findings, rule.eval(p, target, toolName)...)
	}
	return findings, nil
}

// AnalyzeConfig evaluates the server configuration rules against the
// target. Missing structure degrades to fewer findings.
func (p *Provider) AnalyzeConfig(ctx context.Context, target core.Target) ([]core.Finding, error) {
	if target == nil {
		target = core.Target{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.checkServers(target), nil
}

// RuleInfo describes one registered rule for listings and documentation.
type RuleInfo struct {
	ID              string
	Category        core.RiskCategory
	DefaultSeverity core.Severity
	Summary         string
}

// Rules returns the tool and config rules in evaluation order.
func Rules() []RuleInfo {
	out := make([]RuleInfo, 0, len(toolRules)+len(configRuleInfos))
	for _, r := range toolRules {
		out = append(out, RuleInfo{
			ID:              r.id,
			Category:        r.category,
			DefaultSeverity: r.severity,
			Summary:         r.summary,
		})
	}
	out = append(out, configRuleInfos...)
	return out
}

// Ensure interface compliance at compile time.
var _ core.Provider = (*Provider)(nil)
