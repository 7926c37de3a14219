// Package policy implements a provider that evaluates Rego policies with
// the opa binary. Each policy query returns findings as JSON objects that
// are mapped onto the shared finding model.
package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/taxonomy"
)

// ProviderName is the stable name this backend reports.
const ProviderName = "policy"

// PolicyPathEnv names the environment variable pointing at the Rego policy
// file or directory.
const PolicyPathEnv = "READYSCAN_OPA_POLICY"

// query is the document policies must populate with finding objects.
const query = "data.readyscan.findings"

// Provider shells out to opa for each analysis. The binary and a policy
// path must both be present for the provider to be available.
type Provider struct {
	policyPath string
	binary     string

	// lookPath is swappable in tests.
	lookPath func(string) (string, error)
}

// New builds a policy provider reading rules from policyPath.
func New(policyPath string) *Provider {
	return &Provider{
		policyPath: policyPath,
		binary:     "opa",
		lookPath:   exec.LookPath,
	}
}

// NewFromEnv builds a policy provider from READYSCAN_OPA_POLICY. An unset
// variable is not an error; the provider simply reports unavailable.
func NewFromEnv() (*Provider, error) {
	return New(os.Getenv(PolicyPathEnv)), nil
}

func (p *Provider) Name() string { return ProviderName }

func (p *Provider) Description() string {
	return "Evaluates Rego policies against targets using the opa binary"
}

// Available reports whether the opa binary is on PATH and a policy path is
// configured.
func (p *Provider) Available() bool {
	if p.policyPath == "" {
		return false
	}
	if _, err := os.Stat(p.policyPath); err != nil {
		return false
	}
	_, err := p.lookPath(p.binary)
	return err == nil
}

// AnalyzeTool evaluates the policy query against a tool definition.
func (p *Provider) AnalyzeTool(ctx context.Context, target core.Target) ([]core.Finding, error) {
	return p.evaluate(ctx, target)
}

// AnalyzeConfig evaluates the policy query against a server configuration.
func (p *Provider) AnalyzeConfig(ctx context.Context, target core.Target) ([]core.Finding, error) {
	return p.evaluate(ctx, target)
}

// opaOutput is the subset of `opa eval --format=json` output we consume.
type opaOutput struct {
	Result []struct {
		Expressions []struct {
			Value json.RawMessage `json:"value"`
		} `json:"expressions"`
	} `json:"result"`
}

// rawFinding is a finding object as policies emit it. Unknown severities
// and categories are normalized during mapping.
type rawFinding struct {
	Category    string         `json:"category"`
	Severity    string         `json:"severity"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    string         `json:"location"`
	Evidence    map[string]any `json:"evidence"`
	Remediation string         `json:"remediation"`
	RuleID      string         `json:"rule_id"`
}

func (p *Provider) evaluate(ctx context.Context, target core.Target) ([]core.Finding, error) {
	input, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("encode target: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"eval", "-I", "-d", p.policyPath, "--format=json", query)
	cmd.Stdin = bytes.NewReader(input)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("opa eval: %w: %s", err, stderr.String())
	}

	var parsed opaOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("decode opa output: %w", err)
	}
	if len(parsed.Result) == 0 || len(parsed.Result[0].Expressions) == 0 {
		return nil, nil
	}

	var raws []rawFinding
	if err := json.Unmarshal(parsed.Result[0].Expressions[0].Value, &raws); err != nil {
		return nil, fmt.Errorf("decode policy findings: %w", err)
	}

	findings := make([]core.Finding, 0, len(raws))
	for _, r := range raws {
		findings = append(findings, mapFinding(r))
	}
	return findings, nil
}

// mapFinding normalizes a policy-emitted finding. Categories outside the
// taxonomy fall back to silent-failure-path; unknown severities to MEDIUM.
func mapFinding(r rawFinding) core.Finding {
	category := core.RiskCategory(r.Category)
	if !taxonomy.Global().Has(category) {
		category = core.RiskSilentFailurePath
	}
	severity := core.Severity(r.Severity)
	if severity.Rank() < 0 {
		severity = core.SeverityMedium
	}
	title := r.Title
	if title == "" {
		title = "Policy violation"
	}
	return core.Finding{
		Category:    category,
		Severity:    severity,
		Title:       title,
		Description: r.Description,
		Location:    r.Location,
		Evidence:    r.Evidence,
		Provider:    ProviderName,
		Remediation: r.Remediation,
		RuleID:      r.RuleID,
	}
}

var _ core.Provider = (*Provider)(nil)
