package scan

import (
	"log/slog"
	"sync"

	"github.com/petal-labs/readyscan/core"
	"github.com/petal-labs/readyscan/heuristic"
	"github.com/petal-labs/readyscan/policy"
)

// Factory constructs a provider. Construction may fail (missing
// configuration); availability is checked separately on the instance.
type Factory func() (core.Provider, error)

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the singleton provider registry with the built-in
// factories registered.
func Global() *Registry {
	globalOnce.Do(func() {
		global = newRegistry()
		registerBuiltins(global)
	})
	return global
}

// Registry maps provider names to factories, preserving registration
// order. Order determines merge order in scan results.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	order     []string
}

func newRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func registerBuiltins(r *Registry) {
	r.Register(heuristic.ProviderName, func() (core.Provider, error) {
		return heuristic.NewDefault(), nil
	})
	r.Register(policy.ProviderName, func() (core.Provider, error) {
		return policy.NewFromEnv()
	})
}

// Register adds a factory. Re-registering a name overwrites the factory
// but keeps its original position.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; !exists {
		r.order = append(r.order, name)
	}
	r.factories[name] = f
}

// Names lists registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Get returns the factory registered under name.
func (r *Registry) Get(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Resolve instantiates every registered provider in registration order.
// Factories that fail and providers that report themselves unavailable are
// logged and skipped, never fatal.
func (r *Registry) Resolve(logger *slog.Logger) []core.Provider {
	if logger == nil {
		logger = slog.Default()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	providers := make([]core.Provider, 0, len(r.order))
	for _, name := range r.order {
		p, err := r.factories[name]()
		if err != nil {
			logger.Warn("provider construction failed", "provider", name, "error", err)
			continue
		}
		if !p.Available() {
			logger.Debug("provider unavailable", "provider", name)
			continue
		}
		providers = append(providers, p)
	}
	return providers
}
