package strategies

import (
	"fmt"
	"sync/atomic"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// RoundRobin distributes selections evenly across candidates using a single
// monotonically increasing counter. Fairness is approximate: if the candidate
// set changes between calls the modulo position shifts, which is acceptable.
//
// The strategy is thread-safe; the counter is reset on overflow to prevent
// unbounded growth.
type RoundRobin struct {
	counter atomic.Int64
}

// NewRoundRobin creates a new round-robin strategy.
func NewRoundRobin() *RoundRobin {
	return &RoundRobin{}
}

// SelectProvider selects the next candidate in rotation.
func (s *RoundRobin) SelectProvider(req *routing.SelectionRequest, candidates []providers.Provider) (providers.Provider, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no candidates for round-robin selection")
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}

	count := s.counter.Add(1) - 1

	// Keep the counter in a reasonable range.
	if count >= 1_000_000_000 {
		s.counter.CompareAndSwap(count+1, 0)
		count = 0
	}

	index := int(count % int64(len(candidates)))
	return candidates[index], nil
}

// GetName returns the strategy name.
func (s *RoundRobin) GetName() string {
	return config.StrategyRoundRobin
}

// Reset resets the rotation counter.
func (s *RoundRobin) Reset() {
	s.counter.Store(0)
}
