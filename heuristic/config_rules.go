package heuristic

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/readyscan/core"
)

var sensitiveEnvFragments = []string{"key", "secret", "token", "password", "credential"}

var configRuleInfos = []RuleInfo{
	{ID: "HEUR-CFG-001", Category: core.RiskSilentFailurePath, DefaultSeverity: core.SeverityInfo, Summary: "No MCP servers configured"},
	{ID: "HEUR-CFG-002", Category: core.RiskSilentFailurePath, DefaultSeverity: core.SeverityHigh, Summary: "Server missing command"},
	{ID: "HEUR-CFG-003", Category: core.RiskNoObservabilityHooks, DefaultSeverity: core.SeverityInfo, Summary: "Sensitive environment variable"},
	{ID: "HEUR-CFG-004", Category: core.RiskMissingTimeoutGuard, DefaultSeverity: core.SeverityMedium, Summary: "Server missing timeout"},
}

// checkServers evaluates an mcpServers configuration mapping. Servers are
// visited in sorted name order so output is deterministic.
func (p *Provider) checkServers(target core.Target) []core.Finding {
	servers := target.Map("mcpServers")
	if len(servers) == 0 {
		return []core.Finding{{
			Category: core.RiskSilentFailurePath,
			Severity: core.SeverityInfo,
			Title:    "No MCP servers configured",
			Description: "The configuration does not define any MCP servers. An empty server " +
				"list means no tools are exposed to agents.",
			Location:    "mcpServers",
			Provider:    ProviderName,
			Remediation: "Add server entries under 'mcpServers' or remove the unused configuration",
			RuleID:      "HEUR-CFG-001",
		}}
	}

	names := make([]string, 0, len(servers))
	for name := range servers {
		names = append(names, name)
	}
	sort.Strings(names)

	var findings []core.Finding
	for _, name := range names {
		server := servers.Map(name)
		if server == nil {
			server = core.Target{}
		}
		findings = append(findings, p.checkServer(name, server)...)
	}
	return findings
}

func (p *Provider) checkServer(name string, server core.Target) []core.Finding {
	var findings []core.Finding

	if server.String("command") == "" {
		findings = append(findings, core.Finding{
			Category: core.RiskSilentFailurePath,
			Severity: core.SeverityHigh,
			Title:    "Server missing command",
			Description: fmt.Sprintf("MCP server '%s' does not specify a command. The server cannot "+
				"be started and every tool it would expose silently disappears.", name),
			Location:    fmt.Sprintf("mcpServers.%s.command", name),
			Provider:    ProviderName,
			Remediation: "Add a 'command' field naming the executable that starts the server",
			RuleID:      "HEUR-CFG-002",
		})
	}

	if env := server.Map("env"); env != nil {
		vars := make([]string, 0, len(env))
		for v := range env {
			vars = append(vars, v)
		}
		sort.Strings(vars)
		for _, v := range vars {
			if !isSensitiveEnvName(v) {
				continue
			}
			findings = append(findings, core.Finding{
				Category: core.RiskNoObservabilityHooks,
				Severity: core.SeverityInfo,
				Title:    "Sensitive environment variable in configuration",
				Description: fmt.Sprintf("MCP server '%s' sets environment variable '%s', which "+
					"appears to carry a credential. Credentials committed to configuration files "+
					"leak through version control and logs.", name, v),
				Location:    fmt.Sprintf("mcpServers.%s.env.%s", name, v),
				Evidence:    map[string]any{"variable": v},
				Provider:    ProviderName,
				Remediation: "Load credentials from a secret manager or the process environment instead of the configuration file",
				RuleID:      "HEUR-CFG-003",
			})
		}
	}

	if !server.HasAlias(timeoutAliases) {
		findings = append(findings, core.Finding{
			Category: core.RiskMissingTimeoutGuard,
			Severity: core.SeverityMedium,
			Title:    "Server missing timeout",
			Description: fmt.Sprintf("MCP server '%s' does not configure a startup or request timeout. "+
				"A hung server blocks every agent that depends on it.", name),
			Location:    fmt.Sprintf("mcpServers.%s", name),
			Provider:    ProviderName,
			Remediation: "Add a 'timeout' field bounding how long calls to this server may take",
			RuleID:      "HEUR-CFG-004",
		})
	}

	return findings
}

func isSensitiveEnvName(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveEnvFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}
