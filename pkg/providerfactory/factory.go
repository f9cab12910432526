package providerfactory

import (
	"fmt"
	"log/slog"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/providers/anthropic"
	"github.com/copyforge-hq/titan/pkg/providers/generic"
	"github.com/copyforge-hq/titan/pkg/providers/openai"
)

// NewProvider creates a provider instance from its configuration.
//
// Supported provider types:
//   - "openai": OpenAI API
//   - "anthropic": Anthropic Messages API
//   - "generic": OpenAI-compatible APIs (Ollama, LM Studio, vLLM, etc.)
//
// The provider type is determined from the config.Type field. If not
// specified, it is inferred from the provider name:
//   - "openai" -> OpenAI
//   - "anthropic" -> Anthropic
//   - Everything else -> Generic
func NewProvider(cfg providers.ProviderConfig) (providers.Provider, error) {
	providerType := cfg.Type
	if providerType == "" {
		providerType = inferProviderType(cfg.Name)
		cfg.Type = providerType
	}

	slog.Debug("creating provider",
		"name", cfg.Name,
		"type", providerType,
		"base_url", cfg.BaseURL,
	)

	var provider providers.Provider
	var err error

	switch providerType {
	case "openai":
		provider, err = openai.NewProvider(cfg)
	case "anthropic":
		provider, err = anthropic.NewProvider(cfg)
	case "generic":
		provider, err = generic.NewProvider(cfg)
	default:
		return nil, &providers.ConfigError{
			Provider: cfg.Name,
			Field:    "type",
			Message:  fmt.Sprintf("unsupported provider type: %q (supported: openai, anthropic, generic)", providerType),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create provider %q: %w", cfg.Name, err)
	}

	return provider, nil
}

// FromConfig converts the configuration file's provider section into
// adapter configurations, keyed order preserved by the caller.
func FromConfig(section map[string]config.ProviderConfig) []providers.ProviderConfig {
	configs := make([]providers.ProviderConfig, 0, len(section))
	for name, pc := range section {
		configs = append(configs, providers.ProviderConfig{
			Name:                name,
			Type:                pc.Type,
			BaseURL:             pc.BaseURL,
			APIKey:              pc.APIKey,
			Models:              pc.Models,
			MaxTokens:           pc.MaxTokens,
			CostPerToken:        pc.CostPerToken,
			Timeout:             pc.Timeout,
			MaxIdleConns:        pc.MaxIdleConns,
			MaxIdleConnsPerHost: pc.MaxIdleConnsPerHost,
			IdleConnTimeout:     pc.IdleConnTimeout,
		})
	}
	return configs
}

// inferProviderType infers the provider type from the provider name.
func inferProviderType(name string) string {
	switch name {
	case "openai":
		return "openai"
	case "anthropic":
		return "anthropic"
	case "ollama", "lmstudio", "vllm", "localai":
		return "generic"
	default:
		return "generic"
	}
}
