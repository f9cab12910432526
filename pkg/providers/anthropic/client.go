package anthropic

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copyforge-hq/titan/pkg/providers"
)

// Provider is the Anthropic provider adapter.
// It implements the providers.Provider interface for Anthropic's Messages API.
type Provider struct {
	*providers.HTTPProvider
}

const (
	// DefaultAnthropicVersion is the API version to use
	DefaultAnthropicVersion = "2023-06-01"
)

// NewProvider creates a new Anthropic provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "anthropic",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.anthropic.com"
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for Anthropic",
		}
	}

	if config.MaxIdleConns == 0 {
		config.MaxIdleConns = 100
	}
	if config.MaxIdleConnsPerHost == 0 {
		config.MaxIdleConnsPerHost = 10
	}

	p := &Provider{
		HTTPProvider: providers.NewHTTPProvider(config),
	}

	slog.Info("Anthropic provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// GenerateContent sends a generation request to Anthropic and returns the
// normalized result.
func (p *Provider) GenerateContent(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	if err := providers.ValidateRequest(req); err != nil {
		return nil, err
	}
	if !p.Capabilities().SupportsModel(req.Model) {
		return nil, &providers.ModelNotFoundError{
			Provider: p.GetName(),
			Model:    req.Model,
		}
	}

	done := p.TrackCall()
	defer done()

	anthropicReq := transformRequest(req)

	url := fmt.Sprintf("%s/v1/messages", p.GetConfig().BaseURL)
	headers := map[string]string{
		"x-api-key":         p.GetConfig().APIKey,
		"anthropic-version": DefaultAnthropicVersion,
		"Content-Type":      "application/json",
	}

	start := time.Now()
	var anthropicResp MessagesResponse
	if err := p.DoJSONRequest(ctx, "POST", url, anthropicReq, &anthropicResp, headers); err != nil {
		return nil, err
	}

	result, err := transformResponse(&anthropicResp)
	if err != nil {
		return nil, &providers.ParseError{
			Provider: p.GetName(),
			Cause:    err,
		}
	}

	result.Latency = time.Since(start)
	result.Cost = float64(result.TokensUsed) * p.CostPerToken()

	slog.Debug("generation request succeeded",
		"provider", p.GetName(),
		"model", result.Model,
		"tokens", result.TokensUsed,
		"latency", result.Latency,
	)

	return result, nil
}
