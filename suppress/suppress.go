// Package suppress filters findings by rule id. A rule is suppressed when
// it appears in the CLI list, the ignore file, or the target's inline
// ignore list; the three sources are OR'd and never interact.
package suppress

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/petal-labs/readyscan/core"
)

// InlineKey is the target field holding per-target suppressed rule ids.
const InlineKey = "readyscan-ignore"

// DefaultIgnoreFile is the ignore file looked up next to the scanned target
// when no explicit path is given.
const DefaultIgnoreFile = ".readyscan-ignore"

// Manager decides which findings are suppressed. Zero value suppresses
// nothing.
type Manager struct {
	cli  map[string]struct{}
	file map[string]struct{}
}

// NewManager builds a Manager from CLI-supplied rule ids. Blank entries are
// dropped and surrounding whitespace trimmed.
func NewManager(ruleIDs []string) *Manager {
	m := &Manager{
		cli:  make(map[string]struct{}),
		file: make(map[string]struct{}),
	}
	for _, id := range ruleIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			m.cli[id] = struct{}{}
		}
	}
	return m
}

// LoadIgnoreFile reads rule ids from path, one per line. Blank lines and
// lines starting with '#' are skipped. A missing file is not an error; an
// unreadable one is.
func (m *Manager) LoadIgnoreFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open ignore file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m.file[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read ignore file %s: %w", path, err)
	}
	return nil
}

// IsSuppressed reports whether the finding's rule id is suppressed by any
// source. Findings without a rule id are never suppressed.
func (m *Manager) IsSuppressed(f core.Finding, target core.Target) bool {
	if m == nil || f.RuleID == "" {
		return false
	}
	if _, ok := m.cli[f.RuleID]; ok {
		return true
	}
	if _, ok := m.file[f.RuleID]; ok {
		return true
	}
	for _, id := range target.StringList(InlineKey) {
		if strings.TrimSpace(id) == f.RuleID {
			return true
		}
	}
	return false
}

// Filter partitions findings into active and suppressed, preserving the
// input order within each partition.
func (m *Manager) Filter(findings []core.Finding, target core.Target) (active, suppressed []core.Finding) {
	for _, f := range findings {
		if m.IsSuppressed(f, target) {
			suppressed = append(suppressed, f)
		} else {
			active = append(active, f)
		}
	}
	return active, suppressed
}

// Rules returns every suppressed rule id from the CLI and file sources,
// sorted. Inline suppressions are per-target and not included.
func (m *Manager) Rules() []string {
	if m == nil {
		return nil
	}
	ids := make([]string, 0, len(m.cli)+len(m.file))
	for id := range m.cli {
		ids = append(ids, id)
	}
	for id := range m.file {
		if _, dup := m.cli[id]; !dup {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
