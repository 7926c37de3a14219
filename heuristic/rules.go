package heuristic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/readyscan/core"
)

// Alias priority tables. Resolution tries each name at the top level and
// then under "config"; adding a new historical spelling is a data change.
var (
	timeoutAliases      = []string{"timeout", "timeoutMs", "timeout_ms", "timeoutSeconds"}
	timeoutValueAliases = []string{"timeout", "timeoutMs", "timeout_ms"}

	retryAliases      = []string{"maxRetries", "retries", "max_retries", "retryCount", "retryLimit", "retry_limit"}
	retryValueAliases = []string{"maxRetries", "retries", "max_retries", "retryLimit"}
	backoffAliases    = []string{"backoff", "backoffMs", "exponentialBackoff", "backoffStrategy", "retryDelay", "retryBackoff"}

	errorSchemaAliases  = []string{"errorSchema", "error_schema", "errors", "errorResponse"}
	outputSchemaAliases = []string{"outputSchema", "output_schema", "responseSchema", "response_schema"}
	inputSchemaAliases  = []string{"inputSchema", "input_schema", "parameters"}

	rateLimitAliases     = []string{"rateLimit", "rate_limit", "rateLimitPerMinute", "throttle", "maxCallsPerSecond"}
	versionAliases       = []string{"version", "apiVersion", "api_version", "schemaVersion"}
	observabilityAliases = []string{"observability", "logging", "metrics", "telemetry", "tracing", "monitoring", "instrumentation", "logger"}
	authAliases          = []string{"auth", "authentication", "credentials", "apiKey", "api_key", "token"}
)

// Keyword sets used by the membership rules. Matching is lower-cased
// substring matching over name and description text.
var (
	genericWords     = []string{"tool", "utility", "helper", "function", "method"}
	overloadKeywords = []string{"any", "all", "everything", "anything", "whatever"}

	actionVerbs = []string{
		"create", "read", "write", "update", "delete", "get", "set",
		"fetch", "send", "post", "put", "patch", "remove", "add",
		"list", "find", "search", "query", "execute", "run", "start",
		"stop", "restart", "pause", "resume", "cancel", "retry",
	}

	resourceIndicators = []string{
		"connection", "file", "stream", "socket", "handle",
		"session", "lock", "transaction", "database", "network",
	}
	cleanupIndicators = []string{"close", "cleanup", "release", "dispose", "free", "disconnect"}

	stateChangingVerbs = []string{
		"create", "delete", "update", "modify", "remove", "insert",
		"write", "post", "put", "patch", "drop", "truncate",
	}
	idempotencyIndicators = []string{
		"idempotent", "safe to retry", "can be retried",
		"idempotency", "duplicate", "repeat",
	}

	externalIndicators = []string{
		"api", "service", "endpoint", "http", "rest", "request",
		"external", "remote", "third-party", "cloud", "server",
	}

	dangerousKeywords = []string{
		"delete", "drop", "truncate", "exec", "eval",
		"rm ", "remove", "destroy", "purge", "wipe",
	}

	dangerousPhrases = []string{
		"best effort", "fire and forget", "ignore errors",
		"errors are ignored", "fail silently", "swallow errors",
	}

	circularPatterns = []struct {
		pattern string
		meaning string
	}{
		{"calls itself", "self-referencing behavior"},
		{"recursive", "recursion"},
		{"loop", "looping behavior"},
		{"repeat until", "unbounded repetition"},
	}
)

// Threshold bounds for numeric checks.
const (
	maxTimeoutMS    = 300000 // five minutes
	maxRetryLimit   = 10
	unlimitedRetry  = -1
	maxActionVerbs  = 5
	minSpecificWord = 3
)

// toolRule binds a rule identifier to one category, a default severity,
// and a pure evaluation function. Rules run in declaration order.
type toolRule struct {
	id       string
	category core.RiskCategory
	severity core.Severity
	summary  string
	eval     func(p *Provider, t core.Target, toolName string) []core.Finding
}

var toolRules = []toolRule{
	{"HEUR-001", core.RiskMissingTimeoutGuard, core.SeverityHigh, "No timeout configuration", checkMissingTimeout},
	{"HEUR-002", core.RiskMissingTimeoutGuard, core.SeverityMedium, "Timeout value out of bounds", checkTimeoutBounds},
	{"HEUR-003", core.RiskUnsafeRetryLoop, core.SeverityMedium, "No retry limit configured", checkNoRetryLimit},
	{"HEUR-004", core.RiskUnsafeRetryLoop, core.SeverityHigh, "Unlimited or excessive retries", checkRetryBounds},
	{"HEUR-005", core.RiskUnsafeRetryLoop, core.SeverityLow, "No backoff strategy for retries", checkNoBackoff},
	{"HEUR-006", core.RiskMissingErrorSchema, core.SeverityMedium, "No error response schema", checkMissingErrorSchema},
	{"HEUR-007", core.RiskMissingErrorSchema, core.SeverityLow, "Error schema missing code field", checkErrorSchemaCode},
	{"HEUR-008", core.RiskMissingErrorSchema, core.SeverityLow, "No output schema defined", checkNoOutputSchema},
	{"HEUR-009", core.RiskOverloadedToolScope, core.SeverityMedium, "Missing, vague, or generic description", checkDescriptionQuality},
	{"HEUR-010", core.RiskOverloadedToolScope, core.SeverityHigh, "Overloaded tool scope", checkOverloadedScope},
	{"HEUR-011", core.RiskSilentFailurePath, core.SeverityLow, "No required input fields", checkNoRequiredFields},
	{"HEUR-012", core.RiskSilentFailurePath, core.SeverityInfo, "Missing input validation hints", checkNoValidationHints},
	{"HEUR-013", core.RiskUnsafeRetryLoop, core.SeverityLow, "No rate limit configuration", checkNoRateLimit},
	{"HEUR-014", core.RiskNoObservabilityHooks, core.SeverityLow, "No version information", checkNoVersion},
	{"HEUR-015", core.RiskNoObservabilityHooks, core.SeverityLow, "No observability configuration", checkNoObservability},
	{"HEUR-016", core.RiskSilentFailurePath, core.SeverityMedium, "Resource cleanup not documented", checkResourceCleanup},
	{"HEUR-017", core.RiskNonDeterministicResponse, core.SeverityInfo, "No idempotency indication", checkIdempotency},
	{"HEUR-018", core.RiskOverloadedToolScope, core.SeverityHigh, "Dangerous operation keywords", checkDangerousKeywords},
	{"HEUR-019", core.RiskSilentFailurePath, core.SeverityInfo, "No authentication context documented", checkAuthContext},
	{"HEUR-020", core.RiskUnsafeRetryLoop, core.SeverityMedium, "Circular dependency risk", checkCircularDependency},
	{"HEUR-021", core.RiskSilentFailurePath, core.SeverityLow, "Dangerous reliability phrase", checkDangerousPhrases},
	{"HEUR-022", core.RiskSilentFailurePath, core.SeverityLow, "No input schema defined", checkNoInputSchema},
}

// ---------------------------------------------------------------------
// Timeout guards
// ---------------------------------------------------------------------

func checkMissingTimeout(p *Provider, t core.Target, toolName string) []core.Finding {
	if t.HasAlias(timeoutAliases) {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskMissingTimeoutGuard,
		Severity: core.SeverityHigh,
		Title:    "No timeout configuration",
		Description: fmt.Sprintf("Tool '%s' does not specify a timeout. Operations may hang "+
			"indefinitely if external services become unresponsive.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add a 'timeout' or 'timeoutMs' field with a reasonable value (e.g., 30000 for 30 seconds)",
		RuleID:      "HEUR-001",
	}}
}

func checkTimeoutBounds(p *Provider, t core.Target, toolName string) []core.Finding {
	var findings []core.Finding
	for _, alias := range timeoutValueAliases {
		location, raw, ok := t.ResolveAlias([]string{alias})
		if !ok {
			continue
		}
		value, numeric := numberValue(raw)
		if !numeric {
			continue
		}
		switch {
		case value > maxTimeoutMS:
			findings = append(findings, core.Finding{
				Category: core.RiskMissingTimeoutGuard,
				Severity: core.SeverityMedium,
				Title:    "Timeout too long",
				Description: fmt.Sprintf("Tool '%s' has %s=%vms (over 5 minutes). Long timeouts "+
					"can cause extended hangs and poor user experience.", toolName, alias, raw),
				Location:    fmt.Sprintf("tool.%s.%s", toolName, location),
				Evidence:    map[string]any{"field": alias, "value": raw},
				Provider:    ProviderName,
				Remediation: "Consider reducing timeout to 30-60 seconds for better responsiveness",
				RuleID:      "HEUR-002",
			})
		case value <= 0:
			findings = append(findings, core.Finding{
				Category: core.RiskMissingTimeoutGuard,
				Severity: core.SeverityHigh,
				Title:    "Invalid timeout value",
				Description: fmt.Sprintf("Tool '%s' has %s=%v, a zero or negative timeout. The value "+
					"disables the guard entirely or is rejected at runtime.", toolName, alias, raw),
				Location:    fmt.Sprintf("tool.%s.%s", toolName, location),
				Evidence:    map[string]any{"field": alias, "value": raw},
				Provider:    ProviderName,
				Remediation: "Set a positive timeout value in milliseconds",
				RuleID:      "HEUR-002",
			})
		}
	}
	return findings
}

// ---------------------------------------------------------------------
// Retry configuration
// ---------------------------------------------------------------------

// resolveRetryField looks a retry field up at the top level, under
// "config", and inside a "retryPolicy" object at either level.
func resolveRetryField(t core.Target, name string) (location string, value any, ok bool) {
	if loc, v, found := t.ResolveAlias([]string{name}); found {
		return loc, v, true
	}
	policy := t.Map("retryPolicy")
	if policy == nil {
		if cfg := t.Map("config"); cfg != nil {
			policy = cfg.Map("retryPolicy")
		}
	}
	if policy != nil {
		if v, found := policy[name]; found {
			return "retryPolicy." + name, v, true
		}
	}
	return "", nil, false
}

func hasAnyRetryField(t core.Target, names []string) bool {
	for _, name := range names {
		if _, _, ok := resolveRetryField(t, name); ok {
			return true
		}
	}
	return false
}

func checkNoRetryLimit(p *Provider, t core.Target, toolName string) []core.Finding {
	if hasAnyRetryField(t, retryAliases) {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskUnsafeRetryLoop,
		Severity: core.SeverityMedium,
		Title:    "No retry limit configured",
		Description: fmt.Sprintf("Tool '%s' does not specify a retry limit. Without limits, retry "+
			"logic may cause resource exhaustion or infinite loops.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add a 'maxRetries' or 'retryLimit' field with a reasonable value (e.g., 3)",
		RuleID:      "HEUR-003",
	}}
}

func checkRetryBounds(p *Provider, t core.Target, toolName string) []core.Finding {
	var findings []core.Finding
	for _, alias := range retryValueAliases {
		location, raw, ok := resolveRetryField(t, alias)
		if !ok {
			continue
		}
		value, numeric := numberValue(raw)
		if !numeric {
			continue
		}
		switch {
		case value == unlimitedRetry:
			findings = append(findings, core.Finding{
				Category: core.RiskUnsafeRetryLoop,
				Severity: core.SeverityHigh,
				Title:    "Unlimited retries configured",
				Description: fmt.Sprintf("Tool '%s' has %s=-1, indicating unlimited retries. This can "+
					"cause infinite loops and resource exhaustion.", toolName, alias),
				Location:    fmt.Sprintf("tool.%s.%s", toolName, location),
				Evidence:    map[string]any{"field": alias, "value": raw},
				Provider:    ProviderName,
				Remediation: "Set a finite retry limit (recommended: 3-5 retries)",
				RuleID:      "HEUR-004",
			})
		case value > maxRetryLimit:
			findings = append(findings, core.Finding{
				Category: core.RiskUnsafeRetryLoop,
				Severity: core.SeverityHigh,
				Title:    "Excessive retry limit",
				Description: fmt.Sprintf("Tool '%s' has %s=%v. Very high retry limits may cause "+
					"extended delays during outages.", toolName, alias, raw),
				Location:    fmt.Sprintf("tool.%s.%s", toolName, location),
				Evidence:    map[string]any{"field": alias, "value": raw},
				Provider:    ProviderName,
				Remediation: "Consider reducing retry limit to 3-5",
				RuleID:      "HEUR-004",
			})
		}
	}
	return findings
}

func checkNoBackoff(p *Provider, t core.Target, toolName string) []core.Finding {
	// Backoff is only required when a retry limit is configured at all.
	if !hasAnyRetryField(t, retryValueAliases) {
		return nil
	}
	if hasAnyRetryField(t, backoffAliases) {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskUnsafeRetryLoop,
		Severity: core.SeverityLow,
		Title:    "No backoff strategy for retries",
		Description: fmt.Sprintf("Tool '%s' has retry logic but no backoff strategy. Without "+
			"backoff, rapid retries can overwhelm failing services.", toolName),
		Location: "tool." + toolName,
		Provider: ProviderName,
		Remediation: "Add exponential backoff configuration (e.g., backoffMs, exponentialBackoff) " +
			"to avoid thundering herd problems",
		RuleID: "HEUR-005",
	}}
}

// ---------------------------------------------------------------------
// Error handling
// ---------------------------------------------------------------------

func checkMissingErrorSchema(p *Provider, t core.Target, toolName string) []core.Finding {
	for _, alias := range errorSchemaAliases {
		if _, present := t[alias]; present {
			return nil
		}
	}
	return []core.Finding{{
		Category: core.RiskMissingErrorSchema,
		Severity: core.SeverityMedium,
		Title:    "No error response schema",
		Description: fmt.Sprintf("Tool '%s' does not define an error response schema. Without "+
			"structured error responses, agents cannot programmatically handle failures.", toolName),
		Location: "tool." + toolName,
		Provider: ProviderName,
		Remediation: "Add an 'errorSchema' field defining the structure of error responses " +
			"with error codes and messages",
		RuleID: "HEUR-006",
	}}
}

func checkErrorSchemaCode(p *Provider, t core.Target, toolName string) []core.Finding {
	for _, alias := range errorSchemaAliases {
		schema := t.Map(alias)
		if schema == nil {
			continue
		}
		properties := schema.Map("properties")
		if _, hasCode := properties["code"]; hasCode {
			return nil
		}
		if _, hasErrorCode := properties["errorCode"]; hasErrorCode {
			return nil
		}
		// Only the first structured error schema is checked.
		return []core.Finding{{
			Category: core.RiskMissingErrorSchema,
			Severity: core.SeverityLow,
			Title:    "Error schema missing error code field",
			Description: fmt.Sprintf("Tool '%s' has an error schema but it doesn't include a 'code' "+
				"or 'errorCode' property. Error codes are essential for programmatic error handling.", toolName),
			Location:    fmt.Sprintf("tool.%s.%s.properties", toolName, alias),
			Provider:    ProviderName,
			Remediation: "Add a 'code' property to the error schema (e.g., string enum of error codes)",
			RuleID:      "HEUR-007",
		}}
	}
	return nil
}

func checkNoOutputSchema(p *Provider, t core.Target, toolName string) []core.Finding {
	for _, alias := range outputSchemaAliases {
		if _, present := t[alias]; present {
			return nil
		}
	}
	return []core.Finding{{
		Category: core.RiskMissingErrorSchema,
		Severity: core.SeverityLow,
		Title:    "No output schema defined",
		Description: fmt.Sprintf("Tool '%s' does not define an output schema. Agents cannot "+
			"reliably parse responses without knowing the expected structure.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add an 'outputSchema' field defining the structure of successful responses",
		RuleID:      "HEUR-008",
	}}
}

// ---------------------------------------------------------------------
// Description quality
// ---------------------------------------------------------------------

func checkDescriptionQuality(p *Provider, t core.Target, toolName string) []core.Finding {
	description := t.String("description")

	if description == "" {
		return []core.Finding{{
			Category: core.RiskOverloadedToolScope,
			Severity: core.SeverityMedium,
			Title:    "Missing description",
			Description: fmt.Sprintf("Tool '%s' has no description. Agents rely on descriptions to "+
				"understand tool capabilities and select the appropriate tool for tasks.", toolName),
			Location:    fmt.Sprintf("tool.%s.description", toolName),
			Provider:    ProviderName,
			Remediation: "Add a clear, detailed description explaining what the tool does",
			RuleID:      "HEUR-009",
		}}
	}

	if len(description) < p.cfg.MinDescriptionLength {
		return []core.Finding{{
			Category: core.RiskOverloadedToolScope,
			Severity: core.SeverityMedium,
			Title:    "Vague description",
			Description: fmt.Sprintf("Tool '%s' has a very short description (%d characters, minimum "+
				"%d recommended). Brief descriptions may not provide enough context for agents.",
				toolName, len(description), p.cfg.MinDescriptionLength),
			Location:    fmt.Sprintf("tool.%s.description", toolName),
			Evidence:    map[string]any{"length": len(description), "minimum": p.cfg.MinDescriptionLength},
			Provider:    ProviderName,
			Remediation: "Expand the description to explain the tool's purpose, inputs, and expected outputs",
			RuleID:      "HEUR-009",
		}}
	}

	specific := 0
	for _, word := range strings.Fields(strings.ToLower(description)) {
		if !containsWord(genericWords, word) {
			specific++
		}
	}
	if specific < minSpecificWord {
		return []core.Finding{{
			Category: core.RiskOverloadedToolScope,
			Severity: core.SeverityMedium,
			Title:    "Generic description",
			Description: fmt.Sprintf("Tool '%s' description contains only generic words. Add specific "+
				"details about what the tool does.", toolName),
			Location:    fmt.Sprintf("tool.%s.description", toolName),
			Provider:    ProviderName,
			Remediation: "Replace generic terms with specific details about functionality",
			RuleID:      "HEUR-009",
		}}
	}

	return nil
}

func checkOverloadedScope(p *Provider, t core.Target, toolName string) []core.Finding {
	var findings []core.Finding
	description := strings.ToLower(t.String("description"))

	if matched := matchKeywords(description, overloadKeywords); len(matched) > 0 {
		findings = append(findings, core.Finding{
			Category: core.RiskOverloadedToolScope,
			Severity: core.SeverityHigh,
			Title:    "Overloaded tool scope indicated",
			Description: fmt.Sprintf("Tool '%s' description contains scope-overload keywords: %s. "+
				"Tools that do 'everything' are difficult to test, maintain, and use reliably.",
				toolName, strings.Join(matched, ", ")),
			Location:    fmt.Sprintf("tool.%s.description", toolName),
			Evidence:    map[string]any{"keywords": matched},
			Provider:    ProviderName,
			Remediation: "Split into multiple focused tools, each with a specific, well-defined purpose",
			RuleID:      "HEUR-010",
		})
	}

	if verbs := matchKeywords(description, actionVerbs); len(verbs) > maxActionVerbs {
		findings = append(findings, core.Finding{
			Category: core.RiskOverloadedToolScope,
			Severity: core.SeverityHigh,
			Title:    "Too many capabilities",
			Description: fmt.Sprintf("Tool '%s' description mentions %d action verbs (found: %s...). "+
				"Tools with many capabilities are harder to test, secure, and maintain.",
				toolName, len(verbs), strings.Join(verbs[:maxActionVerbs], ", ")),
			Location:    fmt.Sprintf("tool.%s.description", toolName),
			Evidence:    map[string]any{"verb_count": len(verbs), "verbs": verbs},
			Provider:    ProviderName,
			Remediation: "Consider splitting into multiple focused tools with specific responsibilities",
			RuleID:      "HEUR-010",
		})
	}

	if caps, present := t["capabilities"]; present {
		if list, ok := caps.([]any); ok && len(list) > p.cfg.MaxCapabilities {
			findings = append(findings, core.Finding{
				Category: core.RiskOverloadedToolScope,
				Severity: core.SeverityHigh,
				Title:    "Too many declared capabilities",
				Description: fmt.Sprintf("Tool '%s' declares %d capabilities (maximum %d recommended). "+
					"Broad tools are harder to reason about and audit.",
					toolName, len(list), p.cfg.MaxCapabilities),
				Location:    fmt.Sprintf("tool.%s.capabilities", toolName),
				Evidence:    map[string]any{"count": len(list), "maximum": p.cfg.MaxCapabilities},
				Provider:    ProviderName,
				Remediation: "Split the tool so each definition declares a small, focused capability set",
				RuleID:      "HEUR-010",
			})
		}
	}

	return findings
}

// ---------------------------------------------------------------------
// Input validation
// ---------------------------------------------------------------------

var validationKeywords = []string{
	"pattern", "minLength", "maxLength", "minimum", "maximum",
	"enum", "format", "minItems", "maxItems",
}

func checkNoRequiredFields(p *Provider, t core.Target, toolName string) []core.Finding {
	schema := t.Map("inputSchema")
	if schema == nil {
		return nil
	}
	properties := schema.Map("properties")
	if len(properties) == 0 {
		return nil
	}
	if required := schema.StringList("required"); len(required) > 0 {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityLow,
		Title:    "No required fields specified",
		Description: fmt.Sprintf("Tool '%s' has an input schema with %d properties but doesn't "+
			"specify which fields are required. This may lead to missing input errors at runtime.",
			toolName, len(properties)),
		Location:    fmt.Sprintf("tool.%s.inputSchema.required", toolName),
		Evidence:    map[string]any{"property_count": len(properties)},
		Provider:    ProviderName,
		Remediation: "Add a 'required' array listing mandatory input fields",
		RuleID:      "HEUR-011",
	}}
}

func checkNoValidationHints(p *Provider, t core.Target, toolName string) []core.Finding {
	schema := t.Map("inputSchema")
	if schema == nil {
		return nil
	}
	properties := schema.Map("properties")
	if len(properties) == 0 {
		return nil
	}

	var unvalidated []string
	for name := range properties {
		prop := properties.Map(name)
		if prop == nil {
			continue
		}
		validated := false
		for _, kw := range validationKeywords {
			if _, present := prop[kw]; present {
				validated = true
				break
			}
		}
		if !validated {
			unvalidated = append(unvalidated, name)
		}
	}
	sort.Strings(unvalidated)

	if len(unvalidated) == 0 || len(unvalidated)*2 < len(properties) {
		return nil
	}

	sample := unvalidated
	if len(sample) > 5 {
		sample = sample[:5]
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityInfo,
		Title:    "Missing input validation hints",
		Description: fmt.Sprintf("Tool '%s' input schema has %d properties (out of %d) without "+
			"validation constraints (pattern, minLength, enum, etc.). This may allow invalid inputs.",
			toolName, len(unvalidated), len(properties)),
		Location: fmt.Sprintf("tool.%s.inputSchema.properties", toolName),
		Evidence: map[string]any{
			"properties_without_validation": sample,
			"total_properties":              len(properties),
		},
		Provider: ProviderName,
		Remediation: "Add validation constraints to input properties (e.g., pattern for strings, " +
			"minimum/maximum for numbers, enum for limited choices)",
		RuleID: "HEUR-012",
	}}
}

// ---------------------------------------------------------------------
// Operational configuration
// ---------------------------------------------------------------------

func checkNoRateLimit(p *Provider, t core.Target, toolName string) []core.Finding {
	if t.HasAlias(rateLimitAliases) {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskUnsafeRetryLoop,
		Severity: core.SeverityLow,
		Title:    "No rate limit configuration",
		Description: fmt.Sprintf("Tool '%s' does not specify rate limits. Without rate limits, rapid "+
			"repeated calls may overwhelm external services or exhaust resources.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add a 'rateLimit' field specifying maximum calls per time period",
		RuleID:      "HEUR-013",
	}}
}

func checkNoVersion(p *Provider, t core.Target, toolName string) []core.Finding {
	for _, alias := range versionAliases {
		if _, present := t[alias]; present {
			return nil
		}
	}
	return []core.Finding{{
		Category: core.RiskNoObservabilityHooks,
		Severity: core.SeverityLow,
		Title:    "No version information",
		Description: fmt.Sprintf("Tool '%s' does not specify a version. Versioning helps track changes "+
			"and ensure compatibility when tools evolve over time.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add a 'version' field (e.g., '1.0.0') following semantic versioning",
		RuleID:      "HEUR-014",
	}}
}

func checkNoObservability(p *Provider, t core.Target, toolName string) []core.Finding {
	if t.HasAlias(observabilityAliases) {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskNoObservabilityHooks,
		Severity: core.SeverityLow,
		Title:    "No observability configuration",
		Description: fmt.Sprintf("Tool '%s' does not configure observability hooks (logging, metrics, "+
			"tracing). Without observability, debugging production issues becomes extremely difficult.", toolName),
		Location: "tool." + toolName,
		Provider: ProviderName,
		Remediation: "Add logging, metrics, or tracing configuration to enable monitoring and " +
			"debugging in production",
		RuleID: "HEUR-015",
	}}
}

// ---------------------------------------------------------------------
// Resource management
// ---------------------------------------------------------------------

func checkResourceCleanup(p *Provider, t core.Target, toolName string) []core.Finding {
	description := strings.ToLower(t.String("description"))
	resources := matchKeywords(description, resourceIndicators)
	if len(resources) == 0 {
		return nil
	}
	if len(matchKeywords(description, cleanupIndicators)) > 0 {
		return nil
	}
	sample := resources
	if len(sample) > 3 {
		sample = sample[:3]
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityMedium,
		Title:    "Resource cleanup not documented",
		Description: fmt.Sprintf("Tool '%s' appears to use resources (%s) but doesn't document cleanup "+
			"procedures. Resource leaks can cause production instability.",
			toolName, strings.Join(sample, ", ")),
		Location: fmt.Sprintf("tool.%s.description", toolName),
		Evidence: map[string]any{"resources": resources},
		Provider: ProviderName,
		Remediation: "Document how resources are cleaned up (e.g., 'connections are automatically " +
			"closed', 'call cleanup() to release resources')",
		RuleID: "HEUR-016",
	}}
}

func checkIdempotency(p *Provider, t core.Target, toolName string) []core.Finding {
	description := strings.ToLower(t.String("description"))
	if len(matchKeywords(description, stateChangingVerbs)) == 0 {
		return nil
	}
	if len(matchKeywords(description, idempotencyIndicators)) > 0 {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskNonDeterministicResponse,
		Severity: core.SeverityInfo,
		Title:    "No idempotency indication",
		Description: fmt.Sprintf("Tool '%s' appears to perform state-changing operations but doesn't "+
			"indicate whether it's idempotent. This is important for retry logic - non-idempotent "+
			"operations may cause duplicates.", toolName),
		Location: fmt.Sprintf("tool.%s.description", toolName),
		Provider: ProviderName,
		Remediation: "Document whether the operation is idempotent and safe to retry. If not " +
			"idempotent, consider adding idempotency keys or documenting this clearly.",
		RuleID: "HEUR-017",
	}}
}

// ---------------------------------------------------------------------
// Safety
// ---------------------------------------------------------------------

func checkDangerousKeywords(p *Provider, t core.Target, toolName string) []core.Finding {
	combined := strings.ToLower(t.String("name")) + " " + strings.ToLower(t.String("description"))
	matched := matchKeywords(combined, dangerousKeywords)
	if len(matched) == 0 {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskOverloadedToolScope,
		Severity: core.SeverityHigh,
		Title:    "Dangerous operation keywords detected",
		Description: fmt.Sprintf("Tool '%s' contains dangerous operation keywords: %s. Tools performing "+
			"destructive operations require extra safeguards.", toolName, strings.Join(matched, ", ")),
		Location: "tool." + toolName,
		Evidence: map[string]any{"keywords": matched},
		Provider: ProviderName,
		Remediation: "Add safeguards: require explicit confirmation, implement dry-run mode, add audit " +
			"logging, or provide undo/rollback mechanisms",
		RuleID: "HEUR-018",
	}}
}

func checkAuthContext(p *Provider, t core.Target, toolName string) []core.Finding {
	if t.HasAlias(authAliases) {
		return nil
	}
	description := strings.ToLower(t.String("description"))
	if len(matchKeywords(description, externalIndicators)) == 0 {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityInfo,
		Title:    "No authentication context documented",
		Description: fmt.Sprintf("Tool '%s' appears to interact with external services but does not "+
			"document authentication requirements. This may lead to authorization failures at runtime.", toolName),
		Location: "tool." + toolName,
		Provider: ProviderName,
		Remediation: "Document authentication requirements (e.g., 'requires API_KEY environment " +
			"variable', 'auth' field, or credential configuration)",
		RuleID: "HEUR-019",
	}}
}

func checkCircularDependency(p *Provider, t core.Target, toolName string) []core.Finding {
	var findings []core.Finding
	name := t.String("name")
	description := strings.ToLower(t.String("description"))

	if name != "" && strings.Contains(description, strings.ToLower(name)) {
		findings = append(findings, core.Finding{
			Category: core.RiskUnsafeRetryLoop,
			Severity: core.SeverityMedium,
			Title:    "Potential circular dependency",
			Description: fmt.Sprintf("Tool '%s' references itself in its description. Self-referencing "+
				"tools can cause infinite loops in agent workflows.", toolName),
			Location: fmt.Sprintf("tool.%s.description", toolName),
			Provider: ProviderName,
			Remediation: "Ensure the tool does not call itself recursively. If recursive calls are " +
				"necessary, implement depth limits and termination conditions.",
			RuleID: "HEUR-020",
		})
	}

	for _, cp := range circularPatterns {
		if strings.Contains(description, cp.pattern) {
			findings = append(findings, core.Finding{
				Category: core.RiskUnsafeRetryLoop,
				Severity: core.SeverityMedium,
				Title:    "Circular dependency risk pattern detected",
				Description: fmt.Sprintf("Tool '%s' description mentions %s. Ensure proper termination "+
					"conditions to avoid infinite loops.", toolName, cp.meaning),
				Location: fmt.Sprintf("tool.%s.description", toolName),
				Evidence: map[string]any{"pattern": cp.pattern, "meaning": cp.meaning},
				Provider: ProviderName,
				Remediation: "Add explicit termination conditions, maximum iteration counts, or depth " +
					"limits to prevent infinite loops",
				RuleID: "HEUR-020",
			})
			break // one pattern finding is enough
		}
	}

	return findings
}

func checkDangerousPhrases(p *Provider, t core.Target, toolName string) []core.Finding {
	description := strings.ToLower(t.String("description"))
	matched := matchKeywords(description, dangerousPhrases)
	if len(matched) == 0 {
		return nil
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityLow,
		Title:    "Dangerous phrase in description",
		Description: fmt.Sprintf("Tool '%s' description contains phrases that imply errors may be "+
			"dropped: %s. Best-effort semantics hide failures from callers.",
			toolName, strings.Join(matched, ", ")),
		Location:    fmt.Sprintf("tool.%s.description", toolName),
		Evidence:    map[string]any{"phrases": matched},
		Provider:    ProviderName,
		Remediation: "Define explicit failure semantics and report every error to the caller",
		RuleID:      "HEUR-021",
	}}
}

func checkNoInputSchema(p *Provider, t core.Target, toolName string) []core.Finding {
	for _, alias := range inputSchemaAliases {
		if _, present := t[alias]; present {
			return nil
		}
	}
	return []core.Finding{{
		Category: core.RiskSilentFailurePath,
		Severity: core.SeverityLow,
		Title:    "No input schema defined",
		Description: fmt.Sprintf("Tool '%s' does not declare an input schema. Callers cannot validate "+
			"arguments before invocation, so malformed inputs surface as runtime failures.", toolName),
		Location:    "tool." + toolName,
		Provider:    ProviderName,
		Remediation: "Add an 'inputSchema' describing the accepted arguments",
		RuleID:      "HEUR-022",
	}}
}

// ---------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------

// matchKeywords returns the keywords found as substrings of text, in
// keyword-list order.
func matchKeywords(text string, keywords []string) []string {
	var matched []string
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

func containsWord(words []string, w string) bool {
	for _, candidate := range words {
		if candidate == w {
			return true
		}
	}
	return false
}

// numberValue coerces JSON and YAML numeric representations to float64.
func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
