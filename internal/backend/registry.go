// Package backend is the registry of display backends. A backend pairs the
// event source that captures local input with the sink that injects it.
package backend

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/lanmouse/lanmouse/capture"
	"github.com/lanmouse/lanmouse/peer"
)

// Options are passed to a backend factory.
type Options struct {
	Logger *slog.Logger
	Screen peer.Screen
}

// Backend is a source and sink opened by a factory. Close releases both.
type Backend struct {
	Source capture.EventSource
	Sink   capture.EventSink
	Close  func() error
}

// Factory opens a backend.
type Factory func(o *Options) (*Backend, error)

var (
	registry   = make(map[string]Factory)
	registryMu sync.RWMutex
)

// Register makes a backend available by name.
// This should be called from backend package init() functions.
// The name is case-insensitive and will be lowercased.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = f
}

// Get returns the factory registered under name, or nil.
func Get(name string) Factory {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return registry[strings.ToLower(name)]
}

// Names returns the registered backend names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens the backend registered under name.
func Open(name string, o *Options) (*Backend, error) {
	f := Get(name)
	if f == nil {
		return nil, fmt.Errorf("unknown backend %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	b, err := f(o)
	if err != nil {
		return nil, fmt.Errorf("open backend %s: %w", name, err)
	}
	if b.Close == nil {
		b.Close = func() error { return nil }
	}
	return b, nil
}
