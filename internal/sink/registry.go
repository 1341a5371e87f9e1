package sink

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/JonMunkholm/csvclean/internal/config"
)

// Definition describes a sink that can be built from configuration.
type Definition struct {
	Name        string
	Description string

	// Enabled reports whether cfg turns this sink on.
	Enabled func(cfg *config.Config) bool

	// New builds the sink. The caller owns the result and must Close it.
	New func(ctx context.Context, cfg *config.Config) (Sink, error)
}

var (
	registry   = make(map[string]Definition)
	registryMu sync.RWMutex
)

// Register adds a sink definition to the registry.
// Panics if a sink with the same name is already registered.
func Register(def Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("sink already registered: %s", def.Name))
	}
	registry[def.Name] = def
}

// Get returns a sink definition by name.
func Get(name string) (Definition, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	def, ok := registry[name]
	return def, ok
}

// All returns all registered definitions sorted by name.
func All() []Definition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Definition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns the registered sink names, sorted.
func Names() []string {
	defs := All()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	return names
}

// Open builds every sink cfg enables, in name order. On error the sinks
// built so far are closed.
func Open(ctx context.Context, cfg *config.Config) ([]Sink, error) {
	var sinks []Sink
	for _, def := range All() {
		if !def.Enabled(cfg) {
			continue
		}
		s, err := def.New(ctx, cfg)
		if err != nil {
			CloseAll(sinks)
			return nil, err
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// CloseAll closes every sink, returning the first error.
func CloseAll(sinks []Sink) error {
	var first error
	for _, s := range sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
