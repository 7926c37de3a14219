// Package llmjudge implements an opt-in provider that asks an LLM to
// review a target for operational-readiness risks the heuristic rules
// cannot see. It rides the iris provider registry, so any registered
// backend (anthropic, openai, ollama) can serve as the judge.
package llmjudge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	iriscore "github.com/petal-labs/iris/core"
	"github.com/petal-labs/iris/providers"
	// Auto-register common providers.
	_ "github.com/petal-labs/iris/providers/anthropic"
	_ "github.com/petal-labs/iris/providers/ollama"
	_ "github.com/petal-labs/iris/providers/openai"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/taxonomy"
)

// ProviderName is the stable name this backend reports.
const ProviderName = "llm-judge"

// Environment variables configuring the judge.
const (
	ProviderEnv = "READYSCAN_LLM_PROVIDER"
	ModelEnv    = "READYSCAN_LLM_MODEL"
	APIKeyEnv   = "READYSCAN_LLM_API_KEY"
)

const systemPrompt = `You review tool manifests and MCP server configurations for
operational-readiness risks. Respond with ONLY a JSON array of finding objects,
no prose. Each object has: "category" (one of: missing-timeout-guard,
unsafe-retry-loop, missing-error-schema, overloaded-tool-scope,
silent-failure-path, non-deterministic-response, no-observability-hooks),
"severity" (CRITICAL, HIGH, MEDIUM, LOW, or INFO), "title", "description",
optional "location", and optional "remediation". Report only risks you are
confident about; an empty array is a valid answer.`

// chatClient is the slice of the iris provider surface the judge uses.
type chatClient interface {
	Chat(ctx context.Context, req *iriscore.ChatRequest) (*iriscore.ChatResponse, error)
}

// Config selects the iris backend and model for the judge.
type Config struct {
	Provider string
	Model    string
	APIKey   string
}

// ConfigFromEnv reads the judge configuration from the environment.
func ConfigFromEnv() Config {
	return Config{
		Provider: os.Getenv(ProviderEnv),
		Model:    os.Getenv(ModelEnv),
		APIKey:   os.Getenv(APIKeyEnv),
	}
}

// Judge is the LLM-backed provider. It is never registered by default;
// callers opt in explicitly.
type Judge struct {
	client chatClient
	model  string
}

// New builds a Judge on the configured iris provider.
func New(cfg Config) (*Judge, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm judge: no provider configured (set %s)", ProviderEnv)
	}
	provider, err := providers.Create(cfg.Provider, cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("llm judge: creating provider %q: %w", cfg.Provider, err)
	}
	return &Judge{client: provider, model: cfg.Model}, nil
}

func (j *Judge) Name() string { return ProviderName }

func (j *Judge) Description() string {
	return "LLM review of manifests for risks heuristic rules cannot detect"
}

// Available reports whether a backend was constructed.
func (j *Judge) Available() bool {
	return j.client != nil
}

// AnalyzeTool asks the judge to review a tool definition.
func (j *Judge) AnalyzeTool(ctx context.Context, target core.Target) ([]core.Finding, error) {
	return j.review(ctx, "tool definition", target)
}

// AnalyzeConfig asks the judge to review a server configuration.
func (j *Judge) AnalyzeConfig(ctx context.Context, target core.Target) ([]core.Finding, error) {
	return j.review(ctx, "MCP server configuration", target)
}

func (j *Judge) review(ctx context.Context, kind string, target core.Target) ([]core.Finding, error) {
	encoded, err := json.MarshalIndent(target, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode target: %w", err)
	}

	temperature := float32(0)
	resp, err := j.client.Chat(ctx, &iriscore.ChatRequest{
		Model:        iriscore.ModelID(j.model),
		Instructions: systemPrompt,
		Messages: []iriscore.Message{{
			Role:    iriscore.RoleUser,
			Content: fmt.Sprintf("Review this %s:\n\n%s", kind, encoded),
		}},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("llm judge chat: %w", err)
	}

	findings, err := parseFindings(resp.Output)
	if err != nil {
		return nil, fmt.Errorf("llm judge response: %w", err)
	}
	return findings, nil
}

// judged is a finding as the model emits it.
type judged struct {
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Remediation string `json:"remediation"`
}

// parseFindings decodes the model output, tolerating markdown code fences
// around the JSON array. Entries with unknown categories or severities are
// normalized rather than dropped.
func parseFindings(output string) ([]core.Finding, error) {
	body := stripFences(output)
	if strings.TrimSpace(body) == "" {
		return nil, nil
	}

	var raws []judged
	if err := json.Unmarshal([]byte(body), &raws); err != nil {
		return nil, fmt.Errorf("decode findings array: %w", err)
	}

	findings := make([]core.Finding, 0, len(raws))
	for _, r := range raws {
		if r.Title == "" {
			continue
		}
		category := core.RiskCategory(r.Category)
		if !taxonomy.Global().Has(category) {
			category = core.RiskSilentFailurePath
		}
		severity := core.Severity(strings.ToUpper(r.Severity))
		if severity.Rank() < 0 {
			severity = core.SeverityInfo
		}
		findings = append(findings, core.Finding{
			Category:    category,
			Severity:    severity,
			Title:       r.Title,
			Description: r.Description,
			Location:    r.Location,
			Provider:    ProviderName,
			Remediation: r.Remediation,
		})
	}
	return findings, nil
}

// stripFences removes a surrounding markdown code fence when present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

var _ core.Provider = (*Judge)(nil)
