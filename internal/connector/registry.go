package connector

import (
	"fmt"
	"sort"
	"sync"
)

// Constructor creates a Source from its configuration.
type Constructor func(cfg SourceConfig) (Source, error)

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a source constructor under the given provider name.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Get returns the source constructor for the given provider name.
func Get(name string) (Constructor, error) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown source provider: %s", name)
	}
	return ctor, nil
}

// Open looks up cfg.Provider and constructs the source.
func Open(cfg SourceConfig) (Source, error) {
	ctor, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return ctor(cfg)
}

// Providers returns the names of all registered providers, sorted.
func Providers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
