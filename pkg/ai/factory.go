package ai

import (
	"fmt"

	"github.com/evanblasband/spectrum/pkg/ai/config"
	"github.com/evanblasband/spectrum/pkg/ai/providers/gemini"
	"github.com/evanblasband/spectrum/pkg/ai/providers/openai"
	"github.com/evanblasband/spectrum/pkg/spectrum"
)

// BuildRegistry constructs providers for every configured profile and wraps
// them in one immutable registry.
func BuildRegistry(cfg config.Config) (*Registry, error) {
	providers := make(map[string]spectrum.AnalysisProvider, len(cfg.Providers))
	for name, profile := range cfg.Providers {
		provider, err := buildProvider(name, profile)
		if err != nil {
			return nil, fmt.Errorf("build provider registry: profile %s: %w", name, err)
		}
		providers[name] = provider
	}

	registry, err := NewRegistry(providers)
	if err != nil {
		return nil, fmt.Errorf("build provider registry: %w", err)
	}

	return registry, nil
}

func buildProvider(name string, profile config.ProviderProfile) (spectrum.AnalysisProvider, error) {
	switch profile.Type {
	case config.ProviderTypeOpenAI, config.ProviderTypeGroq:
		return openai.New(openai.ProviderConfig{
			Name:    name,
			APIKey:  profile.APIKey,
			BaseURL: profile.BaseURL,
			Model:   profile.Model,
		})
	case config.ProviderTypeGemini:
		return gemini.New(gemini.ProviderConfig{
			Name:    name,
			APIKey:  profile.APIKey,
			BaseURL: profile.BaseURL,
			Model:   profile.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported provider type %q", profile.Type)
	}
}
