package tools

import (
	"context"
	"sync"
)

var (
	defaultMu       sync.RWMutex
	defaultRegistry = NewRegistry()
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultRegistry
}

// Register adds a tool to the process-wide registry.
func Register(name, description string, input InputSchema, fn Func) error {
	return Default().Register(name, description, input, fn)
}

// MustRegister adds entries to the process-wide registry and panics if any
// is rejected. It is intended for init functions.
func MustRegister(entries ...Entry) {
	r := Default()
	for _, e := range entries {
		if err := r.Add(e); err != nil {
			panic(err)
		}
	}
}

// Execute runs a tool from the process-wide registry.
func Execute(ctx context.Context, name string, params map[string]any) (any, error) {
	return Default().Execute(ctx, name, params)
}

// Seal makes the process-wide registry read-only.
func Seal() { Default().Seal() }

// Reset replaces the process-wide registry with an empty, unsealed one.
// Call it at shutdown or between tests.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultRegistry = NewRegistry()
}
