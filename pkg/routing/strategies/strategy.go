// Package strategies implements the routing strategies used by the load
// balancer: round-robin, weighted random, and performance-based.
package strategies

import (
	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// New creates a strategy by its configured name.
// The monitor is used by the performance-based strategy to score candidates;
// weights feed the weighted strategy.
func New(name string, weights map[string]float64, monitor *health.Monitor) (routing.Strategy, error) {
	switch name {
	case config.StrategyRoundRobin:
		return NewRoundRobin(), nil
	case config.StrategyWeighted:
		return NewWeighted(weights), nil
	case config.StrategyPerformanceBased:
		return NewPerformanceBased(monitor), nil
	default:
		return nil, &routing.InvalidStrategyError{
			Strategy: name,
			ValidStrategies: []string{
				config.StrategyRoundRobin,
				config.StrategyWeighted,
				config.StrategyPerformanceBased,
			},
		}
	}
}
