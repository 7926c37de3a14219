// Package loader reads scan targets from manifest files. It supports
// single tool definitions, multi-tool manifests, and MCP server
// configurations, in JSON and YAML.
package loader

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DetectKind determines how a parsed document should be analyzed:
//  1. A document with "mcpServers" is a server configuration.
//  2. A document with a "tools" array is a multi-tool manifest; each
//     entry is analyzed as a tool.
//  3. Anything else is a single tool definition.
func DetectKind(raw map[string]any) DocumentKind {
	if _, ok := raw["mcpServers"]; ok {
		return DocumentConfig
	}
	if _, ok := raw["tools"].([]any); ok {
		return DocumentToolList
	}
	return DocumentTool
}

// DocumentKind classifies a manifest document's shape.
type DocumentKind string

const (
	DocumentTool     DocumentKind = "tool"
	DocumentToolList DocumentKind = "tool_list"
	DocumentConfig   DocumentKind = "config"
)

// isYAML returns true if the file path has a YAML extension.
func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// parse decodes data as YAML or JSON based on the file extension. YAML
// documents are normalized through JSON so nested maps use string keys.
func parse(data []byte, path string) (map[string]any, error) {
	var raw map[string]any
	if isYAML(path) {
		normalized, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		data = normalized
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return raw, nil
}

// yamlToJSON converts YAML bytes to JSON bytes via the generic decode
// path, so downstream code only ever sees map[string]any.
func yamlToJSON(data []byte) ([]byte, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}
