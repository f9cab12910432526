package providers

import "context"

// Provider is the core interface that all generation provider adapters must
// implement. It provides a unified abstraction for interacting with
// different content-generation backends (OpenAI, Anthropic, local models).
//
// All methods accept a context.Context for cancellation and timeout control.
// Implementations must respect context cancellation and return promptly when
// the context is cancelled.
//
// Example usage:
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    return err
//	}
//	defer provider.Close()
//
//	req := &GenerationRequest{
//	    Model:  "gpt-4",
//	    Prompt: "Write a product announcement for ...",
//	}
//
//	result, err := provider.GenerateContent(ctx, req)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Content)
type Provider interface {
	// GenerateContent sends a generation request to the provider and blocks
	// until the response is available or the context is cancelled. The
	// request is transformed to the provider-specific format and the
	// response is normalized to the provider-agnostic result.
	//
	// Returns an error if the request fails, times out, or the provider
	// returns an error. Use IsRetryable to classify the failure.
	GenerateContent(ctx context.Context, req *GenerationRequest) (*GenerationResult, error)

	// GetName returns the provider's configured name (e.g., "openai").
	GetName() string

	// GetType returns the provider's adapter type (openai, anthropic, generic).
	GetType() string

	// GetConfig returns the provider's configuration.
	GetConfig() ProviderConfig

	// Capabilities returns the capability metadata used by routing to
	// decide whether this provider can serve a request.
	Capabilities() Capabilities

	// CostPerToken returns the blended cost per token in USD. Used by the
	// cheapest-provider reducer and job cost accounting.
	CostPerToken() float64

	// CurrentLoad returns the number of generation calls currently in
	// flight against this provider. Used by the least-loaded reducer.
	CurrentLoad() int64

	// Close closes the provider and releases any resources (HTTP
	// connections, etc.). After calling Close, the provider must not be used.
	Close() error
}

// Capabilities describes what a provider can serve. It is queried before
// selection so that routing never hard-codes per-vendor knowledge.
type Capabilities struct {
	// Models lists the model identifiers the provider can serve. An empty
	// list means the provider accepts any model.
	Models []string

	// MaxTokens is the largest completion the provider accepts. Zero means
	// no adapter-side limit.
	MaxTokens int
}

// SupportsModel reports whether the provider can serve the given model.
// An empty model list means all models are accepted.
func (c Capabilities) SupportsModel(model string) bool {
	if len(c.Models) == 0 || model == "" {
		return true
	}
	for _, m := range c.Models {
		if m == model {
			return true
		}
	}
	return false
}
