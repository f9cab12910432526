package routing

import (
	"time"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
)

// SelectionRequest contains all information needed to make a selection
// decision for one generation job.
type SelectionRequest struct {
	// JobID is the job this selection serves, used for logging.
	JobID string

	// Model is the generation model requested (e.g., "gpt-4").
	Model string

	// PreferredProvider is an explicit provider override. If specified,
	// selection uses this provider when it is a viable candidate.
	PreferredProvider string

	// Metadata contains additional selection metadata.
	Metadata map[string]string
}

// SelectionResult contains the result of a selection decision.
type SelectionResult struct {
	// Provider is the selected provider instance.
	Provider providers.Provider

	// ProviderName is the name of the selected provider.
	ProviderName string

	// Strategy is the strategy that made the decision.
	// Values: "round-robin", "weighted", "performance-based", "manual"
	Strategy string

	// Reason explains why this provider was selected.
	Reason string

	// Health is the provider's health level at selection time.
	Health health.Level
}

// RoutingStats contains statistics about selection decisions.
// All counters are updated atomically for thread safety.
type RoutingStats struct {
	// TotalRequests is the total number of selection requests processed.
	TotalRequests int64 `json:"total_requests"`

	// RequestsPerProvider tracks selections per provider.
	RequestsPerProvider map[string]int64 `json:"requests_per_provider"`

	// StrategyUseCount tracks how many times each strategy was used.
	StrategyUseCount map[string]int64 `json:"strategy_use_count"`

	// LastUsed records when each provider was last selected.
	LastUsed map[string]time.Time `json:"last_used"`

	// HealthFilteredCount is the number of requests where candidates were
	// removed by the health filter.
	HealthFilteredCount int64 `json:"health_filtered_count"`

	// ManualOverrideCount is the number of preferred-provider selections.
	ManualOverrideCount int64 `json:"manual_override_count"`

	// Errors is the total number of selection errors.
	Errors int64 `json:"errors"`

	// LastResetTime is when statistics were last reset.
	LastResetTime time.Time `json:"last_reset_time"`
}
