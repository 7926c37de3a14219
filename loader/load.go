package loader

import (
	"fmt"
	"os"

	"github.com/petal-labs/readyscan/core"
)

// Document is one loaded manifest: the targets to scan and how to
// analyze them. Multi-tool manifests produce one target per entry.
type Document struct {
	Path    string
	Kind    core.TargetKind
	Targets []core.Target
}

// Load reads and parses the manifest at path into scan targets.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse decodes manifest bytes. The path is used for format detection
// and error messages only.
func Parse(data []byte, path string) (*Document, error) {
	raw, err := parse(data, path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	doc := &Document{Path: path}
	switch DetectKind(raw) {
	case DocumentConfig:
		doc.Kind = core.TargetConfig
		doc.Targets = []core.Target{core.Target(raw)}
	case DocumentToolList:
		doc.Kind = core.TargetTool
		list, _ := raw["tools"].([]any)
		for i, entry := range list {
			tool, ok := entry.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: tools[%d] is not an object", path, i)
			}
			doc.Targets = append(doc.Targets, core.Target(tool))
		}
		if len(doc.Targets) == 0 {
			return nil, fmt.Errorf("%s: empty tools list", path)
		}
	default:
		doc.Kind = core.TargetTool
		doc.Targets = []core.Target{core.Target(raw)}
	}
	return doc, nil
}
