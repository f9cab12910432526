package health

import (
	"log/slog"
	"sync"
	"time"
)

// Level classifies a provider's health.
type Level string

const (
	// LevelHealthy means the provider is serving traffic normally.
	LevelHealthy Level = "healthy"

	// LevelDegraded means the provider works but with elevated errors or
	// latency. Degraded providers still receive traffic.
	LevelDegraded Level = "degraded"

	// LevelUnhealthy means the majority of recent calls failed. Unhealthy
	// providers still receive traffic, but operators should investigate.
	LevelUnhealthy Level = "unhealthy"

	// LevelDown means the provider has failed repeatedly in a row and is
	// excluded from selection until it recovers.
	LevelDown Level = "down"
)

const (
	// DefaultWindowSize is the number of trailing outcomes kept per provider.
	DefaultWindowSize = 50

	// DefaultCacheTTL is how long a computed snapshot is served before
	// recomputation.
	DefaultCacheTTL = 30 * time.Second

	// ewmaAlpha is the smoothing factor for the response time average.
	// Higher values weight recent samples more heavily.
	ewmaAlpha = 0.3

	// downThreshold is the consecutive-failure count that forces LevelDown.
	downThreshold = 5

	// unhealthyErrorRate forces at least LevelUnhealthy.
	unhealthyErrorRate = 0.5

	// degradedErrorRate and degradedLatency force at least LevelDegraded.
	degradedErrorRate = 0.2
	degradedLatency   = 10 * time.Second
)

// Snapshot is a point-in-time view of a provider's health.
type Snapshot struct {
	// Provider is the provider name.
	Provider string `json:"provider"`

	// Level is the computed health classification.
	Level Level `json:"level"`

	// ErrorRate is the failure fraction over the trailing window.
	ErrorRate float64 `json:"error_rate"`

	// ConsecutiveFailures counts failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// AvgResponseTime is the exponentially-weighted average latency.
	AvgResponseTime time.Duration `json:"avg_response_time"`

	// SampleCount is the number of outcomes currently in the window.
	SampleCount int `json:"sample_count"`

	// TotalRequests counts all outcomes ever recorded for the provider.
	TotalRequests int64 `json:"total_requests"`

	// LastSuccess is when the most recent success was recorded, zero if none.
	LastSuccess time.Time `json:"last_success,omitempty"`

	// LastFailure is when the most recent failure was recorded, zero if none.
	LastFailure time.Time `json:"last_failure,omitempty"`

	// ComputedAt is when this snapshot was derived.
	ComputedAt time.Time `json:"computed_at"`
}

// Available reports whether the provider may receive traffic.
// Every level except down is available.
func (s Snapshot) Available() bool {
	return s.Level != LevelDown
}

// providerState holds the mutable health data for one provider.
type providerState struct {
	// window is a ring buffer of recent outcomes, true = success.
	window  []bool
	next    int
	entries int

	consecutiveFailures int
	ewmaNanos           float64
	totalRequests       int64
	lastSuccess         time.Time
	lastFailure         time.Time

	cached   Snapshot
	cachedAt time.Time
}

// Monitor derives health levels from observed provider call outcomes.
// It is safe for concurrent use.
type Monitor struct {
	mu         sync.RWMutex
	states     map[string]*providerState
	windowSize int
	cacheTTL   time.Duration

	// now is replaceable for tests.
	now func() time.Time
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithWindowSize overrides the trailing window length.
func WithWindowSize(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.windowSize = n
		}
	}
}

// WithCacheTTL overrides the snapshot cache duration. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(m *Monitor) {
		m.cacheTTL = ttl
	}
}

// NewMonitor creates a health monitor with the default window and cache TTL.
func NewMonitor(opts ...Option) *Monitor {
	m := &Monitor{
		states:     make(map[string]*providerState),
		windowSize: DefaultWindowSize,
		cacheTTL:   DefaultCacheTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Record feeds one call outcome into the provider's trailing window.
// Latency should be the observed call duration; zero latency is accepted
// but does not move the response time average.
func (m *Monitor) Record(provider string, success bool, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[provider]
	if !ok {
		state = &providerState{
			window: make([]bool, m.windowSize),
		}
		m.states[provider] = state
	}

	state.window[state.next] = success
	state.next = (state.next + 1) % len(state.window)
	if state.entries < len(state.window) {
		state.entries++
	}

	state.totalRequests++

	if success {
		if state.consecutiveFailures >= downThreshold {
			slog.Info("provider recovered",
				"provider", provider,
				"previous_failures", state.consecutiveFailures,
			)
		}
		state.consecutiveFailures = 0
		state.lastSuccess = m.now()
	} else {
		state.consecutiveFailures++
		state.lastFailure = m.now()
		if state.consecutiveFailures == downThreshold {
			slog.Warn("provider marked down",
				"provider", provider,
				"consecutive_failures", state.consecutiveFailures,
			)
		}
	}

	if latency > 0 {
		if state.ewmaNanos == 0 {
			state.ewmaNanos = float64(latency)
		} else {
			state.ewmaNanos = ewmaAlpha*float64(latency) + (1-ewmaAlpha)*state.ewmaNanos
		}
	}

	// Outcome invalidates any cached snapshot.
	state.cachedAt = time.Time{}
}

// Status returns the current health snapshot for a provider. Snapshots are
// cached until the TTL elapses or a new outcome arrives. Providers with no
// recorded outcomes are reported healthy.
func (m *Monitor) Status(provider string) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[provider]
	if !ok {
		return Snapshot{
			Provider:   provider,
			Level:      LevelHealthy,
			ComputedAt: m.now(),
		}
	}

	now := m.now()
	if !state.cachedAt.IsZero() && now.Sub(state.cachedAt) < m.cacheTTL {
		return state.cached
	}

	snapshot := m.compute(provider, state, now)
	state.cached = snapshot
	state.cachedAt = now

	return snapshot
}

// Available returns the subset of the given providers that may receive
// traffic (every level except down).
func (m *Monitor) Available(providers []string) []string {
	available := make([]string, 0, len(providers))
	for _, name := range providers {
		if m.Status(name).Available() {
			available = append(available, name)
		}
	}
	return available
}

// Snapshots returns the health snapshot for every tracked provider.
func (m *Monitor) Snapshots() []Snapshot {
	m.mu.RLock()
	names := make([]string, 0, len(m.states))
	for name := range m.states {
		names = append(names, name)
	}
	m.mu.RUnlock()

	snapshots := make([]Snapshot, 0, len(names))
	for _, name := range names {
		snapshots = append(snapshots, m.Status(name))
	}
	return snapshots
}

// compute derives a snapshot from the provider state. Caller holds the lock.
func (m *Monitor) compute(provider string, state *providerState, now time.Time) Snapshot {
	failures := 0
	for i := 0; i < state.entries; i++ {
		if !state.window[i] {
			failures++
		}
	}

	var errorRate float64
	if state.entries > 0 {
		errorRate = float64(failures) / float64(state.entries)
	}

	avg := time.Duration(state.ewmaNanos)

	// Classification checks run in priority order.
	level := LevelHealthy
	switch {
	case state.consecutiveFailures >= downThreshold:
		level = LevelDown
	case errorRate > unhealthyErrorRate:
		level = LevelUnhealthy
	case errorRate > degradedErrorRate || avg > degradedLatency:
		level = LevelDegraded
	}

	return Snapshot{
		Provider:            provider,
		Level:               level,
		ErrorRate:           errorRate,
		ConsecutiveFailures: state.consecutiveFailures,
		AvgResponseTime:     avg,
		SampleCount:         state.entries,
		TotalRequests:       state.totalRequests,
		LastSuccess:         state.lastSuccess,
		LastFailure:         state.lastFailure,
		ComputedAt:          now,
	}
}
