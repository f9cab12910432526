package openai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copyforge-hq/titan/pkg/providers"
)

// Provider is the OpenAI provider adapter.
// It implements the providers.Provider interface for OpenAI's chat
// completions API.
type Provider struct {
	*providers.HTTPProvider
}

// NewProvider creates a new OpenAI provider instance.
func NewProvider(config providers.ProviderConfig) (*Provider, error) {
	if config.Name == "" {
		return nil, &providers.ConfigError{
			Provider: "openai",
			Field:    "name",
			Message:  "provider name is required",
		}
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	if config.APIKey == "" {
		return nil, &providers.ConfigError{
			Provider: config.Name,
			Field:    "api_key",
			Message:  "API key is required for OpenAI",
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

	slog.Info("OpenAI provider initialized",
		"provider", config.Name,
		"base_url", config.BaseURL,
	)

	return p, nil
}

// GenerateContent sends a generation request to OpenAI and returns the
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

	openaiReq := transformRequest(req)

	url := fmt.Sprintf("%s/chat/completions", p.GetConfig().BaseURL)
	headers := map[string]string{
		"Authorization": "Bearer " + p.GetConfig().APIKey,
		"Content-Type":  "application/json",
	}

	start := time.Now()
	var openaiResp ChatResponse
	if err := p.DoJSONRequest(ctx, "POST", url, openaiReq, &openaiResp, headers); err != nil {
		return nil, err
	}

	result, err := transformResponse(&openaiResp)
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
