package routing

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
)

// ProviderSelector handles filtering of providers by model capability and
// health status. The provider pool can be swapped at runtime by a
// configuration reload, so access is guarded.
type ProviderSelector struct {
	mu        sync.RWMutex
	providers map[string]providers.Provider
	monitor   *health.Monitor
}

// NewProviderSelector creates a new provider selector. The monitor supplies
// the health view used by FilterByHealth.
func NewProviderSelector(providerMap map[string]providers.Provider, monitor *health.Monitor) *ProviderSelector {
	if providerMap == nil {
		providerMap = make(map[string]providers.Provider)
	}

	return &ProviderSelector{
		providers: providerMap,
		monitor:   monitor,
	}
}

// Candidates returns all configured providers in deterministic name order.
func (s *ProviderSelector) Candidates() []providers.Provider {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)

	candidates := make([]providers.Provider, 0, len(names))
	for _, name := range names {
		candidates = append(candidates, s.providers[name])
	}
	return candidates
}

// FilterByModel filters providers to those that support the requested model.
// Providers declare their capability; an empty model list accepts any model.
func (s *ProviderSelector) FilterByModel(providerList []providers.Provider, model string) []providers.Provider {
	if len(providerList) == 0 || model == "" {
		return providerList
	}

	capable := make([]providers.Provider, 0, len(providerList))
	for _, p := range providerList {
		if p.Capabilities().SupportsModel(model) {
			capable = append(capable, p)
		}
	}

	slog.Debug("filtered providers by model",
		"model", model,
		"total", len(providerList),
		"capable", len(capable),
	)

	return capable
}

// FilterByHealth filters providers to available ones. Every health level
// except down is available.
func (s *ProviderSelector) FilterByHealth(providerList []providers.Provider) []providers.Provider {
	if len(providerList) == 0 {
		return providerList
	}

	available := make([]providers.Provider, 0, len(providerList))
	for _, p := range providerList {
		status := s.monitor.Status(p.GetName())
		if status.Available() {
			available = append(available, p)
		} else {
			slog.Debug("provider excluded by health filter",
				"provider", p.GetName(),
				"level", status.Level,
			)
		}
	}

	return available
}

// GetProviderNames returns the names of all configured providers.
func (s *ProviderSelector) GetProviderNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.providers))
	for name := range s.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetSupportedModels returns the union of models declared by all providers.
// Providers that accept any model contribute nothing to the list.
func (s *ProviderSelector) GetSupportedModels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, p := range s.providers {
		for _, model := range p.Capabilities().Models {
			seen[model] = struct{}{}
		}
	}

	models := make([]string, 0, len(seen))
	for model := range seen {
		models = append(models, model)
	}
	sort.Strings(models)
	return models
}

// UpdateProviders replaces the provider pool. Called on configuration reload.
func (s *ProviderSelector) UpdateProviders(providerMap map[string]providers.Provider) {
	if providerMap == nil {
		providerMap = make(map[string]providers.Provider)
	}

	s.mu.Lock()
	s.providers = providerMap
	s.mu.Unlock()

	slog.Info("provider pool updated", "providers", len(providerMap))
}
