// Package taxonomy provides the registry of operational-risk categories.
// It maps category identifiers to metadata (descriptions, default severity,
// remediation text) used by the heuristic rules, the SARIF renderer, and
// the CLI. The registry is read-only after load.
package taxonomy

import (
	"sync"

	"github.com/petal-labs/readyscan/core"
)

// Entry describes a registered risk category.
type Entry struct {
	Category         core.RiskCategory `json:"category"`
	Name             string            `json:"name"`
	ShortDescription string            `json:"short_description"`
	LongDescription  string            `json:"long_description"`
	DefaultSeverity  core.Severity     `json:"default_severity"`
	Remediation      string            `json:"remediation"`
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the singleton registry instance. On first call it
// initializes the registry and registers all built-in categories.
func Global() *Registry {
	globalOnce.Do(func() {
		global = newRegistry()
		registerBuiltins(global)
	})
	return global
}

// Registry holds all known risk categories in registration order. The
// order is stable and is what the SARIF renderer uses as ruleIndex.
type Registry struct {
	mu      sync.RWMutex
	entries map[core.RiskCategory]Entry
	order   []core.RiskCategory
}

func newRegistry() *Registry {
	return &Registry{
		entries: make(map[core.RiskCategory]Entry),
	}
}

// Register adds a category entry. Registering an existing category
// overwrites its metadata but keeps its original position.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[e.Category]; !exists {
		r.order = append(r.order, e.Category)
	}
	r.entries[e.Category] = e
}

// Get returns the entry for a category.
func (r *Registry) Get(c core.RiskCategory) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[c]
	return e, ok
}

// Has reports whether the category is registered.
func (r *Registry) Has(c core.RiskCategory) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[c]
	return ok
}

// Index returns the category's position in registration order, or -1 when
// the category is unknown.
func (r *Registry) Index(c core.RiskCategory) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i, cat := range r.order {
		if cat == c {
			return i
		}
	}
	return -1
}

// All returns all entries in registration order.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Entry, 0, len(r.order))
	for _, c := range r.order {
		result = append(result, r.entries[c])
	}
	return result
}

// Len returns the number of registered categories.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
