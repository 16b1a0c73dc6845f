// Package config holds the runtime analysis provider configuration model.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	// ProviderTypeOpenAI selects the OpenAI chat completions provider.
	ProviderTypeOpenAI = "openai"
	// ProviderTypeGroq selects the OpenAI-compatible Groq endpoint.
	ProviderTypeGroq = "groq"
	// ProviderTypeGemini selects the Gemini provider.
	ProviderTypeGemini = "gemini"

	groqBaseURL = "https://api.groq.com/openai/v1"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultGeminiModel = "gemini-2.0-flash"
)

// Config is the analysis provider configuration loaded from JSON.
type Config struct {
	// DefaultProvider names the profile used when the caller does not pick.
	DefaultProvider string
	// Providers contains provider profiles keyed by profile name.
	Providers map[string]ProviderProfile
}

// ProviderProfile describes one named provider profile.
type ProviderProfile struct {
	// Type identifies the provider implementation kind.
	Type string
	// APIKey is the provider credential.
	APIKey string
	// BaseURL optionally overrides the provider API endpoint.
	BaseURL string
	// Model identifies which provider model to call.
	Model string
}

type fileConfig struct {
	DefaultProvider string                       `json:"default_provider"`
	Providers       map[string]fileProviderEntry `json:"providers"`
}

type fileProviderEntry struct {
	Type      string `json:"type"`
	APIKey    string `json:"api_key"`
	APIKeyEnv string `json:"api_key_env"`
	BaseURL   string `json:"base_url"`
	Model     string `json:"model"`
}

// Parse decodes and validates one JSON provider configuration document.
//
// Profiles may reference credentials indirectly through api_key_env so keys
// stay out of config files.
func Parse(data []byte) (Config, error) {
	var decoded fileConfig
	if err := json.Unmarshal(data, &decoded); err != nil {
		return Config{}, fmt.Errorf("parse provider config: %w", err)
	}
	if len(decoded.Providers) == 0 {
		return Config{}, fmt.Errorf("parse provider config: no providers configured")
	}

	cfg := Config{
		DefaultProvider: strings.TrimSpace(decoded.DefaultProvider),
		Providers:       make(map[string]ProviderProfile, len(decoded.Providers)),
	}
	for name, entry := range decoded.Providers {
		trimmedName := strings.TrimSpace(name)
		if trimmedName == "" {
			return Config{}, fmt.Errorf("parse provider config: empty profile name")
		}

		profile, err := normalizeProfile(entry)
		if err != nil {
			return Config{}, fmt.Errorf("parse provider config: profile %s: %w", trimmedName, err)
		}
		cfg.Providers[trimmedName] = profile
	}

	if cfg.DefaultProvider == "" {
		if len(cfg.Providers) == 1 {
			for name := range cfg.Providers {
				cfg.DefaultProvider = name
			}
		} else {
			return Config{}, fmt.Errorf("parse provider config: default_provider required with multiple profiles")
		}
	}
	if _, exists := cfg.Providers[cfg.DefaultProvider]; !exists {
		return Config{}, fmt.Errorf("parse provider config: default_provider %s is not configured", cfg.DefaultProvider)
	}

	return cfg, nil
}

// ParseFile loads one JSON provider configuration file.
func ParseFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read provider config %s: %w", path, err)
	}

	return Parse(data)
}

func normalizeProfile(entry fileProviderEntry) (ProviderProfile, error) {
	profile := ProviderProfile{
		Type:    strings.ToLower(strings.TrimSpace(entry.Type)),
		APIKey:  strings.TrimSpace(entry.APIKey),
		BaseURL: strings.TrimSpace(entry.BaseURL),
		Model:   strings.TrimSpace(entry.Model),
	}

	switch profile.Type {
	case ProviderTypeOpenAI:
		if profile.Model == "" {
			profile.Model = defaultOpenAIModel
		}
	case ProviderTypeGroq:
		if profile.Model == "" {
			profile.Model = defaultGroqModel
		}
		if profile.BaseURL == "" {
			profile.BaseURL = groqBaseURL
		}
	case ProviderTypeGemini:
		if profile.Model == "" {
			profile.Model = defaultGeminiModel
		}
	case "":
		return ProviderProfile{}, fmt.Errorf("missing type")
	default:
		return ProviderProfile{}, fmt.Errorf("unsupported type %q", profile.Type)
	}

	if keyEnv := strings.TrimSpace(entry.APIKeyEnv); keyEnv != "" {
		fromEnv := strings.TrimSpace(os.Getenv(keyEnv))
		if fromEnv == "" && profile.APIKey == "" {
			return ProviderProfile{}, fmt.Errorf("api_key_env %s is unset", keyEnv)
		}
		if fromEnv != "" {
			profile.APIKey = fromEnv
		}
	}
	if profile.APIKey == "" {
		return ProviderProfile{}, fmt.Errorf("missing api_key")
	}

	return profile, nil
}
