package routing

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
)

// strategyHolder wraps the active strategy so it can sit behind an atomic
// pointer. Selections load the pointer once and use that strategy for the
// whole decision; SetStrategy swaps the pointer without locking.
type strategyHolder struct {
	strategy Strategy
}

// DefaultBalancer implements the LoadBalancer interface.
type DefaultBalancer struct {
	// selector handles candidate filtering
	selector *ProviderSelector

	// active is the current strategy, swapped atomically on reload
	active atomic.Pointer[strategyHolder]

	// monitor supplies health snapshots for selection results
	monitor *health.Monitor

	// stats tracks selection statistics
	stats *AtomicRoutingStats
}

// NewBalancer creates a load balancer over the given provider pool.
// The monitor supplies health filtering; the strategy picks among survivors.
func NewBalancer(providerMap map[string]providers.Provider, monitor *health.Monitor, strategy Strategy) (*DefaultBalancer, error) {
	if monitor == nil {
		return nil, fmt.Errorf("health monitor cannot be nil")
	}
	if strategy == nil {
		return nil, fmt.Errorf("routing strategy cannot be nil")
	}

	b := &DefaultBalancer{
		selector: NewProviderSelector(providerMap, monitor),
		monitor:  monitor,
		stats:    NewAtomicRoutingStats(),
	}
	b.active.Store(&strategyHolder{strategy: strategy})

	return b, nil
}

// Select picks a provider for the given request.
func (b *DefaultBalancer) Select(ctx context.Context, req *SelectionRequest) (*SelectionResult, error) {
	b.stats.IncrementTotal()

	if ctx.Err() != nil {
		b.stats.IncrementErrors()
		return nil, ctx.Err()
	}

	candidates := b.selector.Candidates()
	if len(candidates) == 0 {
		b.stats.IncrementErrors()
		return nil, ErrNoProvidersConfigured
	}

	candidates = b.selector.FilterByModel(candidates, req.Model)
	if len(candidates) == 0 {
		b.stats.IncrementErrors()
		return nil, &ModelNotSupportedError{
			Model:           req.Model,
			AvailableModels: b.selector.GetSupportedModels(),
		}
	}

	capableBefore := len(candidates)
	candidates = b.selector.FilterByHealth(candidates)
	if len(candidates) < capableBefore {
		b.stats.IncrementHealthFiltered()
	}

	if len(candidates) == 0 {
		b.stats.IncrementErrors()
		return nil, &NoProvidersAvailableError{
			AttemptedProviders: b.selector.GetProviderNames(),
			Model:              req.Model,
		}
	}

	if req.PreferredProvider != "" {
		return b.selectPreferred(req, candidates)
	}

	return b.selectWithStrategy(req, candidates)
}

// selectPreferred handles explicit provider selection.
func (b *DefaultBalancer) selectPreferred(req *SelectionRequest, candidates []providers.Provider) (*SelectionResult, error) {
	b.stats.IncrementManualOverride()

	for _, p := range candidates {
		if p.GetName() == req.PreferredProvider {
			b.stats.RecordSelection(p.GetName(), "manual")

			slog.Info("manual provider selection",
				"job_id", req.JobID,
				"provider", p.GetName(),
				"model", req.Model,
			)

			return &SelectionResult{
				Provider:     p,
				ProviderName: p.GetName(),
				Strategy:     "manual",
				Reason:       "explicit provider selection",
				Health:       b.monitor.Status(p.GetName()).Level,
			}, nil
		}
	}

	b.stats.IncrementErrors()
	return nil, &ProviderNotFoundError{
		ProviderName:       req.PreferredProvider,
		AvailableProviders: providerNames(candidates),
	}
}

// selectWithStrategy uses the active routing strategy.
func (b *DefaultBalancer) selectWithStrategy(req *SelectionRequest, candidates []providers.Provider) (*SelectionResult, error) {
	strategy := b.active.Load().strategy

	provider, err := strategy.SelectProvider(req, candidates)
	if err != nil {
		b.stats.IncrementErrors()
		return nil, fmt.Errorf("strategy selection failed: %w", err)
	}

	b.stats.RecordSelection(provider.GetName(), strategy.GetName())

	slog.Debug("strategy-based selection",
		"job_id", req.JobID,
		"provider", provider.GetName(),
		"strategy", strategy.GetName(),
		"model", req.Model,
	)

	return &SelectionResult{
		Provider:     provider,
		ProviderName: provider.GetName(),
		Strategy:     strategy.GetName(),
		Reason:       fmt.Sprintf("selected by %s strategy", strategy.GetName()),
		Health:       b.monitor.Status(provider.GetName()).Level,
	}, nil
}

// SetStrategy atomically replaces the active routing strategy.
func (b *DefaultBalancer) SetStrategy(strategy Strategy) {
	if strategy == nil {
		return
	}

	previous := b.active.Swap(&strategyHolder{strategy: strategy})

	slog.Info("routing strategy changed",
		"previous", previous.strategy.GetName(),
		"active", strategy.GetName(),
	)
}

// GetStrategy returns the name of the active routing strategy.
func (b *DefaultBalancer) GetStrategy() string {
	return b.active.Load().strategy.GetName()
}

// GetStats returns a snapshot of the selection statistics.
func (b *DefaultBalancer) GetStats() *RoutingStats {
	return b.stats.Snapshot()
}

// UpdateProviders replaces the provider pool.
func (b *DefaultBalancer) UpdateProviders(providerMap map[string]providers.Provider) {
	b.selector.UpdateProviders(providerMap)
}

// Close closes the balancer.
func (b *DefaultBalancer) Close() error {
	return nil
}

// providerNames extracts provider names from a provider list.
func providerNames(providerList []providers.Provider) []string {
	names := make([]string, 0, len(providerList))
	for _, p := range providerList {
		names = append(names, p.GetName())
	}
	return names
}
