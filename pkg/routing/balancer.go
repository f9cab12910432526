package routing

import (
	"context"

	"github.com/copyforge-hq/titan/pkg/providers"
)

// LoadBalancer selects a provider for each generation job.
// It orchestrates the selection process by:
//   - Filtering candidates by model capability
//   - Filtering candidates by health
//   - Applying the active routing strategy
//   - Tracking selection statistics
//
// LoadBalancer implementations must be thread-safe for concurrent use.
//
// Example usage:
//
//	balancer := NewBalancer(providerMap, monitor, strategy)
//
//	req := &SelectionRequest{
//	    JobID: "job-123",
//	    Model: "gpt-4",
//	}
//
//	result, err := balancer.Select(ctx, req)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Printf("Selected: %s\n", result.ProviderName)
type LoadBalancer interface {
	// Select picks a provider for the given request.
	//
	// Candidates are filtered by model capability, then by health; if no
	// candidate survives, Select returns an error matching
	// ErrNoProvidersAvailable and the caller should fail the job without
	// retrying. Otherwise the active strategy picks among the survivors.
	//
	// The context is used for cancellation; if it is already cancelled,
	// Select returns immediately.
	Select(ctx context.Context, req *SelectionRequest) (*SelectionResult, error)

	// SetStrategy atomically replaces the active routing strategy.
	// In-flight selections finish with the strategy they started with.
	SetStrategy(strategy Strategy)

	// GetStrategy returns the name of the active routing strategy.
	GetStrategy() string

	// GetStats returns a snapshot of the selection statistics.
	GetStats() *RoutingStats

	// UpdateProviders replaces the provider pool. Called when providers
	// change via configuration reload.
	UpdateProviders(providerMap map[string]providers.Provider)

	// Close closes the balancer and releases resources.
	Close() error
}

// Strategy is the interface all routing strategies implement.
// Implementations must be thread-safe: they are called concurrently from
// multiple dispatcher workers.
type Strategy interface {
	// SelectProvider picks a provider from the candidates. The candidate
	// list is already filtered for model capability and health and is
	// never empty.
	SelectProvider(req *SelectionRequest, candidates []providers.Provider) (providers.Provider, error)

	// GetName returns the strategy name for logging and statistics.
	GetName() string

	// Reset clears the strategy's internal state. Primarily for tests.
	Reset()
}
