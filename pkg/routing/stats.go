package routing

import (
	"sync"
	"sync/atomic"
	"time"
)

// AtomicRoutingStats implements thread-safe selection statistics using atomic
// operations. Bookkeeping is best-effort and never blocks or fails the
// selection path.
type AtomicRoutingStats struct {
	// totalRequests is the total number of selection requests processed
	totalRequests atomic.Int64

	// requestsPerProvider tracks selections per provider
	requestsPerProvider sync.Map // map[string]*atomic.Int64

	// strategyUseCount tracks how many times each strategy was used
	strategyUseCount sync.Map // map[string]*atomic.Int64

	// lastUsed tracks when each provider was last selected
	lastUsed sync.Map // map[string]time.Time

	// healthFilteredCount is the number of requests where candidates were
	// removed by the health filter
	healthFilteredCount atomic.Int64

	// manualOverrideCount is the number of preferred-provider selections
	manualOverrideCount atomic.Int64

	// errors is the total number of selection errors
	errors atomic.Int64

	// lastResetTime is when statistics were last reset
	lastResetTime time.Time

	// mu protects lastResetTime
	mu sync.RWMutex
}

// NewAtomicRoutingStats creates a new atomic selection statistics tracker.
func NewAtomicRoutingStats() *AtomicRoutingStats {
	return &AtomicRoutingStats{
		lastResetTime: time.Now(),
	}
}

// IncrementTotal increments the total request counter.
func (s *AtomicRoutingStats) IncrementTotal() {
	s.totalRequests.Add(1)
}

// RecordSelection records a selection of the given provider by the given
// strategy, bumping the per-provider counter and last-used timestamp.
func (s *AtomicRoutingStats) RecordSelection(providerName, strategyName string) {
	val, _ := s.requestsPerProvider.LoadOrStore(providerName, &atomic.Int64{})
	val.(*atomic.Int64).Add(1)

	sval, _ := s.strategyUseCount.LoadOrStore(strategyName, &atomic.Int64{})
	sval.(*atomic.Int64).Add(1)

	s.lastUsed.Store(providerName, time.Now())
}

// IncrementHealthFiltered increments the health filtered counter.
func (s *AtomicRoutingStats) IncrementHealthFiltered() {
	s.healthFilteredCount.Add(1)
}

// IncrementManualOverride increments the manual override counter.
func (s *AtomicRoutingStats) IncrementManualOverride() {
	s.manualOverrideCount.Add(1)
}

// IncrementErrors increments the error counter.
func (s *AtomicRoutingStats) IncrementErrors() {
	s.errors.Add(1)
}

// Snapshot returns a point-in-time snapshot of the statistics.
// The returned RoutingStats struct is safe to read without locks.
func (s *AtomicRoutingStats) Snapshot() *RoutingStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	providerRequests := make(map[string]int64)
	s.requestsPerProvider.Range(func(key, value interface{}) bool {
		providerRequests[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	strategyUse := make(map[string]int64)
	s.strategyUseCount.Range(func(key, value interface{}) bool {
		strategyUse[key.(string)] = value.(*atomic.Int64).Load()
		return true
	})

	lastUsed := make(map[string]time.Time)
	s.lastUsed.Range(func(key, value interface{}) bool {
		lastUsed[key.(string)] = value.(time.Time)
		return true
	})

	return &RoutingStats{
		TotalRequests:       s.totalRequests.Load(),
		RequestsPerProvider: providerRequests,
		StrategyUseCount:    strategyUse,
		LastUsed:            lastUsed,
		HealthFilteredCount: s.healthFilteredCount.Load(),
		ManualOverrideCount: s.manualOverrideCount.Load(),
		Errors:              s.errors.Load(),
		LastResetTime:       s.lastResetTime,
	}
}

// Reset resets all statistics to zero.
func (s *AtomicRoutingStats) Reset() {
	s.totalRequests.Store(0)
	s.healthFilteredCount.Store(0)
	s.manualOverrideCount.Store(0)
	s.errors.Store(0)

	s.requestsPerProvider.Range(func(key, value interface{}) bool {
		s.requestsPerProvider.Delete(key)
		return true
	})
	s.strategyUseCount.Range(func(key, value interface{}) bool {
		s.strategyUseCount.Delete(key)
		return true
	})
	s.lastUsed.Range(func(key, value interface{}) bool {
		s.lastUsed.Delete(key)
		return true
	})

	s.mu.Lock()
	s.lastResetTime = time.Now()
	s.mu.Unlock()
}
