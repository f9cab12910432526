package strategies

import (
	"fmt"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// ScoreFunc computes a performance score for a provider. Higher is better.
type ScoreFunc func(p providers.Provider) float64

// PerformanceBased selects the candidate with the highest performance score.
// Ties keep the first candidate encountered.
type PerformanceBased struct {
	score ScoreFunc
}

// NewPerformanceBased creates a performance-based strategy scored from the
// health monitor's observed success rate and latency.
func NewPerformanceBased(monitor *health.Monitor) *PerformanceBased {
	return &PerformanceBased{
		score: monitorScore(monitor),
	}
}

// NewPerformanceBasedWithScore creates a performance-based strategy with a
// custom scoring function.
func NewPerformanceBasedWithScore(score ScoreFunc) *PerformanceBased {
	return &PerformanceBased{score: score}
}

// monitorScore scores a provider by its observed behavior: success rate
// weighted against average latency. An unmeasured provider scores 1.0, the
// maximum, so new providers get traffic until real data arrives.
func monitorScore(monitor *health.Monitor) ScoreFunc {
	return func(p providers.Provider) float64 {
		status := monitor.Status(p.GetName())
		if status.SampleCount == 0 {
			return 1.0
		}

		successRate := 1.0 - status.ErrorRate
		latencySeconds := status.AvgResponseTime.Seconds()

		return successRate / (1.0 + latencySeconds)
	}
}

// SelectProvider picks the highest-scoring candidate.
func (s *PerformanceBased) SelectProvider(req *routing.SelectionRequest, candidates []providers.Provider) (providers.Provider, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates for performance-based selection")
	}

	best := candidates[0]
	bestScore := s.score(best)

	for _, p := range candidates[1:] {
		if score := s.score(p); score > bestScore {
			best = p
			bestScore = score
		}
	}

	return best, nil
}

// GetName returns the strategy name.
func (s *PerformanceBased) GetName() string {
	return config.StrategyPerformanceBased
}

// Reset is a no-op: scores derive from the monitor, not local state.
func (s *PerformanceBased) Reset() {}
