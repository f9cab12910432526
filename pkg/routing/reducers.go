package routing

import (
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
)

// Deterministic reducers over provider metrics. These serve administrative
// selection paths (the recommendation endpoint), not the dispatcher, which
// always goes through the active strategy. Ties keep the first candidate
// encountered; all reducers return nil for an empty candidate list.

// LeastLoaded returns the candidate with the fewest in-flight calls.
func LeastLoaded(candidates []providers.Provider) providers.Provider {
	var best providers.Provider
	var bestLoad int64

	for _, p := range candidates {
		load := p.CurrentLoad()
		if best == nil || load < bestLoad {
			best = p
			bestLoad = load
		}
	}
	return best
}

// Fastest returns the candidate with the lowest average response time as
// observed by the health monitor. Candidates with no recorded latency rank
// first: an unmeasured provider is not assumed slow.
func Fastest(candidates []providers.Provider, monitor *health.Monitor) providers.Provider {
	var best providers.Provider
	var bestAvg int64

	for _, p := range candidates {
		avg := int64(monitor.Status(p.GetName()).AvgResponseTime)
		if best == nil || avg < bestAvg {
			best = p
			bestAvg = avg
		}
	}
	return best
}

// Cheapest returns the candidate with the lowest cost per token.
func Cheapest(candidates []providers.Provider) providers.Provider {
	var best providers.Provider
	var bestCost float64

	for _, p := range candidates {
		cost := p.CostPerToken()
		if best == nil || cost < bestCost {
			best = p
			bestCost = cost
		}
	}
	return best
}
