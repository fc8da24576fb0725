package llm

import (
	"sort"
	"sync"

	"github.com/kbukum/chainkit/errors"
	"github.com/kbukum/chainkit/node"
)

// Factory creates a model unit for a backend from configuration. The
// config has defaults applied and has been validated.
type Factory func(cfg Config) (Model, error)

var (
	backendsMu sync.RWMutex
	backends   = map[string]Factory{}
)

// RegisterBackend adds a backend to the global registry.
// Typically called from init() in backend packages:
//
//	func init() {
//	    llm.RegisterBackend("openai", New)
//	}
//
// Importing the backend package registers it as a side-effect:
//
//	import _ "github.com/kbukum/chainkit/llm/openai"
func RegisterBackend(name string, f Factory) {
	backendsMu.Lock()
	defer backendsMu.Unlock()
	backends[name] = f
}

// Backends returns the sorted names of all registered backends.
func Backends() []string {
	backendsMu.RLock()
	defer backendsMu.RUnlock()
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewModel creates a model unit from config using the registered backend.
// Each call is bounded by cfg.Timeout and wrapped in the configured
// resilience policies; extra middlewares are applied outermost.
func NewModel(cfg Config, middlewares ...node.Middleware[Request, Response]) (Model, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	backendsMu.RLock()
	factory, ok := backends[cfg.Backend]
	backendsMu.RUnlock()
	if !ok {
		return nil, errors.NotFound("backend", cfg.Backend).
			WithDetail("hint", "forgot to import the backend package?")
	}

	m, err := factory(cfg)
	if err != nil {
		return nil, err
	}

	chain := append(append([]node.Middleware[Request, Response](nil), middlewares...),
		node.WithResilience[Request, Response](cfg.Resilience),
		node.WithTimeout[Request, Response](cfg.Timeout),
	)
	return node.Wrap(m, chain...), nil
}
