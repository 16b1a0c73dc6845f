// Package ai wires analysis provider implementations: an immutable registry
// resolving configured providers by profile name, and a factory building
// providers from configuration.
package ai

import (
	"fmt"
	"strings"

	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// Registry resolves configured analysis providers by stable profile key.
//
// The provider map is copied on construction and remains immutable afterward,
// so Resolve is concurrency-safe for parallel callers.
type Registry struct {
	providers map[string]spectrum.AnalysisProvider
}

// NewRegistry constructs one immutable analysis provider registry.
func NewRegistry(providers map[string]spectrum.AnalysisProvider) (*Registry, error) {
	if len(providers) == 0 {
		return nil, fmt.Errorf("new analysis provider registry: empty providers")
	}

	cloned := make(map[string]spectrum.AnalysisProvider, len(providers))
	for key, provider := range providers {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			return nil, fmt.Errorf("new analysis provider registry: empty provider key")
		}
		if provider == nil {
			return nil, fmt.Errorf("new analysis provider registry: provider %s is nil", trimmedKey)
		}
		if _, exists := cloned[trimmedKey]; exists {
			return nil, fmt.Errorf("new analysis provider registry: duplicate provider key %s", trimmedKey)
		}
		cloned[trimmedKey] = provider
	}

	return &Registry{providers: cloned}, nil
}

// Resolve returns one configured provider by key.
func (r *Registry) Resolve(provider string) (spectrum.AnalysisProvider, error) {
	if r == nil {
		return nil, fmt.Errorf("resolve analysis provider: nil registry")
	}

	trimmed := strings.TrimSpace(provider)
	if trimmed == "" {
		return nil, fmt.Errorf("resolve analysis provider: empty provider key")
	}

	resolved, exists := r.providers[trimmed]
	if !exists {
		return nil, fmt.Errorf("resolve analysis provider: provider %s is not configured", trimmed)
	}

	return resolved, nil
}

// Keys returns the configured provider keys in unspecified order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}

	keys := make([]string, 0, len(r.providers))
	for key := range r.providers {
		keys = append(keys, key)
	}

	return keys
}
