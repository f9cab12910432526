package routing

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/copyforge-hq/titan/pkg/providers"
)

// MockProvider is a mock implementation of the Provider interface for testing.
// Failure mode, latency, and capabilities are configurable.
type MockProvider struct {
	name         string
	provType     string
	config       providers.ProviderConfig
	capabilities providers.Capabilities
	costPerToken float64

	// failWith, when non-nil, is returned by every GenerateContent call.
	failWith error

	// latency simulates call duration.
	latency time.Duration

	// content is the canned generation result.
	content string

	inFlight atomic.Int64
	calls    atomic.Int64
}

// NewMockProvider creates a new mock provider with the given name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		name:     name,
		provType: "mock",
		content:  "mock response",
		config:   providers.ProviderConfig{Name: name, Type: "mock"},
	}
}

// FailWith makes every subsequent generation call return err. Pass nil to
// restore success.
func (m *MockProvider) FailWith(err error) *MockProvider {
	m.failWith = err
	return m
}

// WithLatency makes generation calls sleep for the given duration.
func (m *MockProvider) WithLatency(d time.Duration) *MockProvider {
	m.latency = d
	return m
}

// WithModels restricts the models the mock claims to support.
func (m *MockProvider) WithModels(models ...string) *MockProvider {
	m.capabilities.Models = models
	return m
}

// WithCostPerToken sets the mock's cost per token.
func (m *MockProvider) WithCostPerToken(cost float64) *MockProvider {
	m.costPerToken = cost
	return m
}

// WithContent sets the canned result content.
func (m *MockProvider) WithContent(content string) *MockProvider {
	m.content = content
	return m
}

// Calls returns how many generation calls the mock has served.
func (m *MockProvider) Calls() int64 {
	return m.calls.Load()
}

// GenerateContent returns the canned result or the configured failure.
func (m *MockProvider) GenerateContent(ctx context.Context, req *providers.GenerationRequest) (*providers.GenerationResult, error) {
	m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	m.calls.Add(1)

	if m.latency > 0 {
		select {
		case <-time.After(m.latency):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.failWith != nil {
		return nil, m.failWith
	}

	return &providers.GenerationResult{
		Content:      m.content,
		Model:        req.Model,
		TokensUsed:   30,
		Cost:         30 * m.costPerToken,
		Latency:      m.latency,
		FinishReason: providers.FinishReasonStop,
	}, nil
}

// GetName returns the provider name.
func (m *MockProvider) GetName() string {
	return m.name
}

// GetType returns the provider type.
func (m *MockProvider) GetType() string {
	return m.provType
}

// GetConfig returns the provider configuration.
func (m *MockProvider) GetConfig() providers.ProviderConfig {
	return m.config
}

// Capabilities returns the configured capability metadata.
func (m *MockProvider) Capabilities() providers.Capabilities {
	return m.capabilities
}

// CostPerToken returns the configured cost per token.
func (m *MockProvider) CostPerToken() float64 {
	return m.costPerToken
}

// CurrentLoad returns the number of in-flight generation calls.
func (m *MockProvider) CurrentLoad() int64 {
	return m.inFlight.Load()
}

// Close closes the provider.
func (m *MockProvider) Close() error {
	return nil
}
