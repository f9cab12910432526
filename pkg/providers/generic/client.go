package generic

import (
	"log/slog"

	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/providers/openai"
)

// Provider is a generic OpenAI-compatible provider adapter.
type Provider struct {
	*openai.Provider
}

// NewProvider creates a new generic OpenAI-compatible provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "generic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "base_url",
			Message:  "base URL is required for generic provider",
		}
	}

	// API key is optional for generic providers (local models don't need it).
	// Set a placeholder if not provided to satisfy the OpenAI adapter.
	if config.APIKey == "" {
		config.APIKey = "not-required"
	}

	openaiProvider, err := openai.NewProvider(config)
	if err != nil {
		return nil, err
	}

	slog.Info("generic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return &Provider{Provider: openaiProvider}, nil
}
