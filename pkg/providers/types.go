package providers

import "time"

// GenerationRequest represents a provider-agnostic content generation
// request. It is transformed to provider-specific formats by each adapter.
type GenerationRequest struct {
	// Model is the model identifier (e.g., "gpt-4", "claude-3-opus-20240229").
	Model string `json:"model"`

	// Prompt is the user-facing generation instruction.
	Prompt string `json:"prompt"`

	// SystemPrompt is an optional system-level instruction prepended to the
	// conversation (brand voice, tone, constraints).
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0 to 2.0, typically 0.0 to 1.0).
	Temperature float64 `json:"temperature,omitempty"`

	// Metadata contains additional request context (job ID, user ID).
	// It is not sent to the provider.
	Metadata map[string]string `json:"-"`
}

// GenerationResult represents a provider-agnostic generation result,
// normalized from provider-specific response formats.
type GenerationResult struct {
	// Content is the generated text.
	Content string `json:"content"`

	// Model is the model that produced the content.
	Model string `json:"model"`

	// TokensUsed is the total token consumption (prompt + completion).
	TokensUsed int `json:"tokens_used"`

	// Cost is the estimated cost of the call in USD, derived from the
	// provider's configured cost per token.
	Cost float64 `json:"cost"`

	// Latency is how long the provider call took.
	Latency time.Duration `json:"-"`

	// FinishReason indicates why generation stopped (stop, length,
	// content_filter).
	FinishReason string `json:"finish_reason,omitempty"`
}

// ProviderConfig contains configuration for a single provider instance.
// This is a subset of config.ProviderConfig with only the fields needed by
// adapters.
type ProviderConfig struct {
	// Name is the provider identifier (e.g., "openai", "anthropic").
	Name string

	// Type is the adapter type (openai, anthropic, generic).
	Type string

	// BaseURL is the API endpoint base URL.
	BaseURL string

	// APIKey is the authentication key.
	APIKey string

	// Models lists the models this provider serves (empty = any).
	Models []string

	// MaxTokens is the largest completion accepted (0 = no limit).
	MaxTokens int

	// CostPerToken is the blended cost per token in USD.
	CostPerToken float64

	// Timeout is the HTTP request timeout.
	Timeout time.Duration

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle connection remains in the pool.
	IdleConnTimeout time.Duration
}

// Finish reason constants.
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)
