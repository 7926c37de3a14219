// Package score computes the readiness score and the production-ready
// verdict from active findings. Suppressed findings never contribute.
package score

import "github.com/petal-labs/readyscan/core"

// Config holds the per-severity penalties and the readiness threshold.
type Config struct {
	Penalties      map[core.Severity]int
	ReadyThreshold int
}

// DefaultConfig returns the standard penalty table: CRITICAL 25, HIGH 15,
// MEDIUM 7, LOW 3, INFO 0, with a readiness threshold of 70.
func DefaultConfig() Config {
	return Config{
		Penalties: map[core.Severity]int{
			core.SeverityCritical: 25,
			core.SeverityHigh:     15,
			core.SeverityMedium:   7,
			core.SeverityLow:      3,
			core.SeverityInfo:     0,
		},
		ReadyThreshold: 70,
	}
}

// Score computes the readiness score for the findings: 100 minus the summed
// penalties, clamped to [0, 100]. The target is production-ready when no
// CRITICAL or HIGH finding is present and the score meets the threshold.
func (c Config) Score(findings []core.Finding) (score int, ready bool) {
	score = 100
	blocking := false
	for _, f := range findings {
		score -= c.Penalties[f.Severity]
		if f.Severity == core.SeverityCritical || f.Severity == core.SeverityHigh {
			blocking = true
		}
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, !blocking && score >= c.ReadyThreshold
}
