// Package scan runs every registered provider against a target, isolates
// provider failures, applies suppression, and scores the remaining
// findings into a ScanResult.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/score"
	"github.com/petal-labs/readyscan/suppress"
)

// DefaultProviderTimeout bounds how long one provider may analyze one
// target before its result is discarded.
const DefaultProviderTimeout = 60 * time.Second

// Config assembles an Orchestrator.
type Config struct {
	Providers  []core.Provider
	Suppressor *suppress.Manager
	Scoring    score.Config

	// ProviderTimeout applies per provider per target. Zero means
	// DefaultProviderTimeout.
	ProviderTimeout time.Duration

	Logger  *slog.Logger
	Emitter Emitter
}

// Orchestrator fans a target out to all providers concurrently and merges
// results in provider registration order so output is deterministic.
type Orchestrator struct {
	providers  []core.Provider
	suppressor *suppress.Manager
	scoring    score.Config
	timeout    time.Duration
	logger     *slog.Logger
	emit       Emitter
}

// New builds an Orchestrator from the config, filling defaults.
func New(cfg Config) *Orchestrator {
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = DefaultProviderTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Emitter == nil {
		cfg.Emitter = func(Event) {}
	}
	if cfg.Suppressor == nil {
		cfg.Suppressor = suppress.NewManager(nil)
	}
	if cfg.Scoring.Penalties == nil {
		cfg.Scoring = score.DefaultConfig()
	}
	return &Orchestrator{
		providers:  cfg.Providers,
		suppressor: cfg.Suppressor,
		scoring:    cfg.Scoring,
		timeout:    cfg.ProviderTimeout,
		logger:     cfg.Logger,
		emit:       cfg.Emitter,
	}
}

// providerOutcome is one provider's result, kept at the provider's
// registration index until the merge.
type providerOutcome struct {
	findings []core.Finding
	err      error
	elapsed  time.Duration
}

// Scan analyzes one target with every provider. Provider errors, timeouts,
// and panics never abort the scan: the failing provider contributes a
// synthetic INFO finding and is dropped from ProvidersUsed.
func (o *Orchestrator) Scan(ctx context.Context, targetName string, target core.Target, kind core.TargetKind) (*core.ScanResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scanID := uuid.NewString()
	started := time.Now().UTC()
	o.emit(Event{Kind: EventScanStarted, ScanID: scanID, Target: targetName, Time: started})
	o.logger.Info("scan started",
		"scan_id", scanID,
		"target", targetName,
		"kind", string(kind),
		"providers", len(o.providers))

	outcomes := make([]providerOutcome, len(o.providers))
	var wg sync.WaitGroup
	for i, p := range o.providers {
		wg.Add(1)
		go func(idx int, provider core.Provider) {
			defer wg.Done()
			outcomes[idx] = o.runProvider(ctx, provider, scanID, targetName, target, kind)
		}(i, p)
	}
	wg.Wait()

	// Merge in registration order so concurrent completion order never
	// leaks into the result.
	var findings []core.Finding
	var providersUsed []string
	for i, p := range o.providers {
		out := outcomes[i]
		if out.err != nil {
			o.logger.Warn("provider failed",
				"scan_id", scanID,
				"provider", p.Name(),
				"error", out.err)
			findings = append(findings, failureFinding(p.Name(), out.err))
			continue
		}
		findings = append(findings, out.findings...)
		providersUsed = append(providersUsed, p.Name())
	}

	active, suppressed := o.suppressor.Filter(findings, target)
	readinessScore, ready := o.scoring.Score(active)

	result := &core.ScanResult{
		ScanID:          scanID,
		Target:          targetName,
		Timestamp:       started,
		Findings:        active,
		Suppressed:      suppressed,
		ProvidersUsed:   providersUsed,
		SeverityCounts:  core.CountBySeverity(active),
		ReadinessScore:  readinessScore,
		ProductionReady: ready,
	}

	o.emit(Event{
		Kind:     EventScanFinished,
		ScanID:   scanID,
		Target:   targetName,
		Time:     time.Now().UTC(),
		Elapsed:  time.Since(started),
		Result:   result,
		Findings: len(active),
	})
	o.logger.Info("scan finished",
		"scan_id", scanID,
		"target", targetName,
		"findings", len(active),
		"suppressed", len(suppressed),
		"score", readinessScore,
		"ready", ready)

	return result, nil
}

// runProvider executes one provider under its own timeout. The analyze
// call runs in an inner goroutine so a backend that ignores its context
// cannot stall the fan-in: when the deadline passes, the late result is
// abandoned. Panics convert to errors so a misbehaving backend cannot
// take the scan down.
func (o *Orchestrator) runProvider(ctx context.Context, p core.Provider, scanID, targetName string, target core.Target, kind core.TargetKind) (out providerOutcome) {
	pctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := time.Now()
	o.emit(Event{Kind: EventProviderStarted, ScanID: scanID, Target: targetName, Provider: p.Name(), Time: started})

	defer func() {
		out.elapsed = time.Since(started)
		if out.err != nil {
			o.emit(Event{
				Kind:     EventProviderFailed,
				ScanID:   scanID,
				Target:   targetName,
				Provider: p.Name(),
				Time:     time.Now().UTC(),
				Elapsed:  out.elapsed,
				Err:      out.err,
			})
			return
		}
		o.emit(Event{
			Kind:     EventProviderFinished,
			ScanID:   scanID,
			Target:   targetName,
			Provider: p.Name(),
			Time:     time.Now().UTC(),
			Elapsed:  out.elapsed,
			Findings: len(out.findings),
		})
	}()

	done := make(chan providerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- providerOutcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		var findings []core.Finding
		var err error
		switch kind {
		case core.TargetConfig:
			findings, err = p.AnalyzeConfig(pctx, target)
		default:
			findings, err = p.AnalyzeTool(pctx, target)
		}
		done <- providerOutcome{findings: findings, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return providerOutcome{err: fmt.Errorf("provider %s: %w", p.Name(), res.err)}
		}
		return providerOutcome{findings: res.findings}
	case <-pctx.Done():
		return providerOutcome{err: fmt.Errorf("provider %s: %w", p.Name(), pctx.Err())}
	}
}

// failureFinding records a provider failure in the scan output without
// affecting readiness beyond an INFO entry.
func failureFinding(provider string, err error) core.Finding {
	return core.Finding{
		Category:    core.RiskSilentFailurePath,
		Severity:    core.SeverityInfo,
		Title:       "Provider failed",
		Description: fmt.Sprintf("Provider '%s' did not complete: %v. Its findings are missing from this scan.", provider, err),
		Provider:    provider,
		Remediation: "Re-run the scan; if the failure persists, check the provider's dependencies and configuration",
	}
}
