package strategies

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// Weighted selects candidates by a cumulative-weight random draw. A provider
// with weight 0.8 receives roughly 80% of the traffic when competing with a
// 0.2 provider. Candidates missing from the weight map default to an equal
// 1/N share of the draw; an explicit weight of 0 removes the candidate from
// the draw entirely.
type Weighted struct {
	weights map[string]float64

	// mu guards rng: math/rand sources are not safe for concurrent use.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewWeighted creates a weighted strategy with the given per-provider
// weights. A nil map yields uniform selection.
func NewWeighted(weights map[string]float64) *Weighted {
	if weights == nil {
		weights = make(map[string]float64)
	}

	return &Weighted{
		weights: weights,
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
}

// SelectProvider draws a candidate proportionally to its weight.
func (s *Weighted) SelectProvider(req *routing.SelectionRequest, candidates []providers.Provider) (providers.Provider, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates for weighted selection")
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	defaultWeight := 1.0 / float64(len(candidates))

	// Build the cumulative distribution over the candidates. Only an
	// absent or negative weight falls back to the default: an explicit
	// zero is an operator draining a provider.
	cumulative := make([]float64, len(candidates))
	total := 0.0
	for i, p := range candidates {
		weight, ok := s.weights[p.GetName()]
		if !ok || weight < 0 {
			weight = defaultWeight
		}
		total += weight
		cumulative[i] = total
	}

	// Every candidate weighted to zero: degrade to a uniform pick rather
	// than failing the selection.
	if total == 0 {
		s.mu.Lock()
		i := s.rng.Intn(len(candidates))
		s.mu.Unlock()
		return candidates[i], nil
	}

	s.mu.Lock()
	draw := s.rng.Float64() * total
	s.mu.Unlock()

	for i, bound := range cumulative {
		if draw < bound {
			return candidates[i], nil
		}
	}

	// Floating point edge: draw landed exactly on the total.
	return candidates[len(candidates)-1], nil
}

// GetName returns the strategy name.
func (s *Weighted) GetName() string {
	return config.StrategyWeighted
}

// Reset is a no-op: the strategy keeps no selection state.
func (s *Weighted) Reset() {}
