// Package sarif renders scan results as SARIF 2.1.0 logs so findings can
// flow into code-scanning dashboards unchanged.
package sarif

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/taxonomy"
)

const (
	schemaURI = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	version   = "2.1.0"

	driverName    = "readyscan"
	driverInfoURI = "https://github.com/petal-labs/readyscan"
)

// DriverVersion is stamped into the tool.driver block. Overridden at build
// time via -ldflags.
var DriverVersion = "dev"

type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema"`
	Runs    []Run  `json:"runs"`
}

type Run struct {
	Tool        Tool           `json:"tool"`
	Results     []Result       `json:"results"`
	Invocations []Invocation   `json:"invocations,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
}

type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri"`
	Rules          []Rule `json:"rules,omitempty"`
}

type Rule struct {
	ID                   string            `json:"id"`
	Name                 string            `json:"name"`
	ShortDescription     Message           `json:"shortDescription"`
	FullDescription      Message           `json:"fullDescription"`
	HelpURI              string            `json:"helpUri"`
	Help                 Message           `json:"help"`
	DefaultConfiguration RuleConfiguration `json:"defaultConfiguration"`
	Properties           map[string]any    `json:"properties,omitempty"`
}

// RuleConfiguration carries the level a rule reports at unless a result
// overrides it.
type RuleConfiguration struct {
	Level string `json:"level"`
}

type Result struct {
	RuleID     string         `json:"ruleId"`
	RuleIndex  int            `json:"ruleIndex"`
	Level      string         `json:"level"`
	Message    Message        `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Fixes      []Fix          `json:"fixes,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Fix carries a finding's remediation as a SARIF fix suggestion.
type Fix struct {
	Description Message `json:"description"`
}

type Message struct {
	Text string `json:"text"`
}

type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	LogicalLocations []LogicalLocation `json:"logicalLocations,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type LogicalLocation struct {
	FullyQualifiedName string `json:"fullyQualifiedName"`
}

type Invocation struct {
	ExecutionSuccessful bool   `json:"executionSuccessful"`
	EndTimeUTC          string `json:"endTimeUtc"`
}

// severityLevels maps finding severities onto SARIF levels. Severities
// outside the map report as "warning".
var severityLevels = map[core.Severity]string{
	core.SeverityCritical: "error",
	core.SeverityHigh:     "error",
	core.SeverityMedium:   "warning",
	core.SeverityLow:      "note",
	core.SeverityInfo:     "none",
}

// securitySeverities carries the GitHub security-severity scale.
var securitySeverities = map[core.Severity]string{
	core.SeverityCritical: "9.8",
	core.SeverityHigh:     "7.5",
	core.SeverityMedium:   "5.0",
	core.SeverityLow:      "2.5",
	core.SeverityInfo:     "0.0",
}

// Level converts a severity to its SARIF level.
func Level(s core.Severity) string {
	if level, ok := severityLevels[s]; ok {
		return level
	}
	return "warning"
}

// Render serializes a scan result as an indented SARIF 2.1.0 log with one
// run. Rule order follows the taxonomy registration order, so ruleIndex is
// stable across runs.
func Render(result *core.ScanResult) ([]byte, error) {
	return RenderAll([]*core.ScanResult{result})
}

// RenderAll serializes several scan results into one SARIF log, one run
// per result. Multi-tool manifests produce one run per tool.
func RenderAll(results []*core.ScanResult) ([]byte, error) {
	log := Log{
		Version: version,
		Schema:  schemaURI,
		Runs:    make([]Run, 0, len(results)),
	}
	for _, result := range results {
		log.Runs = append(log.Runs, toRun(result))
	}
	return json.MarshalIndent(log, "", "  ")
}

func toRun(result *core.ScanResult) Run {
	reg := taxonomy.Global()

	rules := make([]Rule, 0, reg.Len())
	for _, entry := range reg.All() {
		rules = append(rules, Rule{
			ID:                   string(entry.Category),
			Name:                 entry.Name,
			ShortDescription:     Message{Text: entry.ShortDescription},
			FullDescription:      Message{Text: entry.LongDescription},
			HelpURI:              fmt.Sprintf("%s/blob/main/docs/taxonomy.md#%s", driverInfoURI, entry.Category),
			Help:                 Message{Text: entry.Remediation},
			DefaultConfiguration: RuleConfiguration{Level: Level(entry.DefaultSeverity)},
			Properties: map[string]any{
				"security-severity": securitySeverities[entry.DefaultSeverity],
			},
		})
	}

	results := make([]Result, 0, len(result.Findings))
	for _, f := range result.Findings {
		results = append(results, toResult(reg, result.Target, f))
	}

	return Run{
		Tool: Tool{Driver: Driver{
			Name:           driverName,
			Version:        DriverVersion,
			InformationURI: driverInfoURI,
			Rules:          rules,
		}},
		Results: results,
		Invocations: []Invocation{{
			ExecutionSuccessful: true,
			EndTimeUTC:          result.Timestamp.UTC().Format(time.RFC3339),
		}},
		Properties: map[string]any{
			"readinessScore":    result.ReadinessScore,
			"isProductionReady": result.ProductionReady,
			"target":            result.Target,
			"providersUsed":     result.ProvidersUsed,
			"suppressedCount":   len(result.Suppressed),
		},
	}
}

func toResult(reg *taxonomy.Registry, target string, f core.Finding) Result {
	message := f.Title
	if f.Description != "" {
		message = f.Title + ": " + f.Description
	}

	properties := map[string]any{
		"provider":          f.Provider,
		"severity":          string(f.Severity),
		"security-severity": securitySeverity(f.Severity),
	}
	if f.RuleID != "" {
		properties["rule_id"] = f.RuleID
	}
	if f.Remediation != "" {
		properties["remediation"] = f.Remediation
	}
	if len(f.Evidence) > 0 {
		properties["evidence"] = f.Evidence
	}

	location := Location{
		PhysicalLocation: PhysicalLocation{
			ArtifactLocation: ArtifactLocation{URI: target},
		},
	}
	if f.Location != "" {
		location.LogicalLocations = []LogicalLocation{{FullyQualifiedName: f.Location}}
	}

	var fixes []Fix
	if f.Remediation != "" {
		fixes = []Fix{{Description: Message{Text: f.Remediation}}}
	}

	return Result{
		RuleID:     string(f.Category),
		RuleIndex:  reg.Index(f.Category),
		Level:      Level(f.Severity),
		Message:    Message{Text: message},
		Locations:  []Location{location},
		Fixes:      fixes,
		Properties: properties,
	}
}

func securitySeverity(s core.Severity) string {
	if v, ok := securitySeverities[s]; ok {
		return v
	}
	return securitySeverities[core.SeverityMedium]
}

// RenderSummaryAll serializes scan results as a compact SARIF log with no
// rules and no per-finding results, keeping the score, verdict, and
// severity counts in run properties. Suited to fast CI gating without the
// weight of a full report.
func RenderSummaryAll(results []*core.ScanResult) ([]byte, error) {
	log := Log{
		Version: version,
		Schema:  schemaURI,
		Runs:    make([]Run, 0, len(results)),
	}
	for _, result := range results {
		log.Runs = append(log.Runs, Run{
			Tool: Tool{Driver: Driver{
				Name:           driverName,
				Version:        DriverVersion,
				InformationURI: driverInfoURI,
			}},
			Results: []Result{},
			Properties: map[string]any{
				"target":             result.Target,
				"readinessScore":     result.ReadinessScore,
				"isProductionReady":  result.ProductionReady,
				"findingsCount":      len(result.Findings),
				"findingsBySeverity": result.SeverityCounts,
			},
		})
	}
	return json.MarshalIndent(log, "", "  ")
}

// RenderSummary returns a one-paragraph text summary suitable for CI logs.
func RenderSummary(result *core.ScanResult) string {
	var b strings.Builder
	verdict := "NOT production-ready"
	if result.ProductionReady {
		verdict = "production-ready"
	}
	fmt.Fprintf(&b, "readyscan: %s is %s (score %d/100)\n",
		result.Target, verdict, result.ReadinessScore)
	fmt.Fprintf(&b, "findings: %d active, %d suppressed", len(result.Findings), len(result.Suppressed))
	for _, s := range core.Severities() {
		if n := result.SeverityCounts[s]; n > 0 {
			fmt.Fprintf(&b, ", %d %s", n, s)
		}
	}
	b.WriteString("\n")
	return b.String()
}
