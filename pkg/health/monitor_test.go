package health

import (
	"testing"
	"time"
)

func TestMonitor_NoSamplesIsHealthy(t *testing.T) {
	m := NewMonitor()

	status := m.Status("openai")
	if status.Level != LevelHealthy {
		t.Errorf("expected healthy for untracked provider, got %s", status.Level)
	}
	if !status.Available() {
		t.Error("untracked provider should be available")
	}
}

func TestMonitor_ConsecutiveFailuresForceDown(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	// Prior successes must not mask repeated failures.
	for i := 0; i < 20; i++ {
		m.Record("openai", true, 100*time.Millisecond)
	}
	for i := 0; i < 5; i++ {
		m.Record("openai", false, 100*time.Millisecond)
	}

	status := m.Status("openai")
	if status.Level != LevelDown {
		t.Errorf("expected down after 5 consecutive failures, got %s", status.Level)
	}
	if status.Available() {
		t.Error("down provider must not be available")
	}
	if status.ConsecutiveFailures != 5 {
		t.Errorf("expected 5 consecutive failures, got %d", status.ConsecutiveFailures)
	}
}

func TestMonitor_SuccessResetsConsecutiveFailures(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	for i := 0; i < 4; i++ {
		m.Record("openai", false, 100*time.Millisecond)
	}
	m.Record("openai", true, 100*time.Millisecond)
	m.Record("openai", false, 100*time.Millisecond)

	status := m.Status("openai")
	if status.ConsecutiveFailures != 1 {
		t.Errorf("expected consecutive failures reset to 1, got %d", status.ConsecutiveFailures)
	}
	if status.Level == LevelDown {
		t.Error("provider should not be down after a success broke the streak")
	}
}

func TestMonitor_Classification(t *testing.T) {
	ok, fail := true, false
	tests := []struct {
		name     string
		outcomes []bool
		latency  time.Duration
		want     Level
	}{
		{
			name:     "all successes fast",
			outcomes: []bool{ok, ok, ok, ok, ok, ok, ok, ok, ok, ok},
			latency:  100 * time.Millisecond,
			want:     LevelHealthy,
		},
		{
			// 6 failures over 8 calls, never 5 in a row.
			name:     "error rate above half",
			outcomes: []bool{fail, fail, ok, fail, fail, ok, fail, fail},
			latency:  100 * time.Millisecond,
			want:     LevelUnhealthy,
		},
		{
			// 3 failures over 10 calls.
			name:     "error rate above fifth",
			outcomes: []bool{ok, fail, ok, ok, fail, ok, ok, fail, ok, ok},
			latency:  100 * time.Millisecond,
			want:     LevelDegraded,
		},
		{
			name:     "slow but reliable",
			outcomes: []bool{ok, ok, ok, ok, ok, ok, ok, ok, ok, ok},
			latency:  15 * time.Second,
			want:     LevelDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(WithCacheTTL(0))

			for _, success := range tt.outcomes {
				m.Record("p", success, tt.latency)
			}

			status := m.Status("p")
			if status.Level != tt.want {
				t.Errorf("expected level %s, got %s (error rate %.2f, avg %s)",
					tt.want, status.Level, status.ErrorRate, status.AvgResponseTime)
			}
		})
	}
}

func TestMonitor_WindowBoundsErrorRate(t *testing.T) {
	m := NewMonitor(WithWindowSize(10), WithCacheTTL(0))

	// Old failures fall out of a full window of successes.
	for i := 0; i < 10; i++ {
		m.Record("p", false, time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		m.Record("p", true, time.Millisecond)
	}

	status := m.Status("p")
	if status.ErrorRate != 0 {
		t.Errorf("expected error rate 0 after window rolled over, got %.2f", status.ErrorRate)
	}
	if status.SampleCount != 10 {
		t.Errorf("expected sample count 10, got %d", status.SampleCount)
	}
	if status.TotalRequests != 20 {
		t.Errorf("expected 20 total requests, got %d", status.TotalRequests)
	}
}

func TestMonitor_EWMAMovesTowardRecentLatency(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	m.Record("p", true, 100*time.Millisecond)
	first := m.Status("p").AvgResponseTime

	for i := 0; i < 10; i++ {
		m.Record("p", true, 2*time.Second)
	}
	after := m.Status("p").AvgResponseTime

	if after <= first {
		t.Errorf("expected average to rise toward recent latency, was %s now %s", first, after)
	}
	if after > 2*time.Second {
		t.Errorf("average %s exceeds every observed sample", after)
	}
}

func TestMonitor_Available(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	for i := 0; i < 5; i++ {
		m.Record("down-provider", false, time.Millisecond)
	}
	m.Record("ok-provider", true, time.Millisecond)

	available := m.Available([]string{"down-provider", "ok-provider", "unseen"})
	if len(available) != 2 {
		t.Fatalf("expected 2 available providers, got %d: %v", len(available), available)
	}
	for _, name := range available {
		if name == "down-provider" {
			t.Error("down provider leaked into available set")
		}
	}
}

func TestMonitor_CacheServesStaleSnapshot(t *testing.T) {
	m := NewMonitor(WithCacheTTL(time.Hour))

	m.Record("p", true, time.Millisecond)
	first := m.Status("p")

	// Status without an intervening Record returns the cached snapshot.
	second := m.Status("p")
	if first.ComputedAt != second.ComputedAt {
		t.Error("expected cached snapshot to be reused")
	}

	// A new outcome invalidates the cache.
	m.Record("p", false, time.Millisecond)
	third := m.Status("p")
	if third.ConsecutiveFailures != 1 {
		t.Errorf("expected recomputed snapshot after new outcome, got %+v", third)
	}
}

func TestMonitor_Snapshots(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	m.Record("a", true, time.Millisecond)
	m.Record("b", false, time.Millisecond)

	snapshots := m.Snapshots()
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
}

func TestMonitor_TracksLastOutcomeTimes(t *testing.T) {
	m := NewMonitor(WithCacheTTL(0))

	m.Record("openai", true, 100*time.Millisecond)
	s := m.Status("openai")
	if s.LastSuccess.IsZero() {
		t.Error("expected last success to be set after a success")
	}
	if !s.LastFailure.IsZero() {
		t.Error("expected last failure to stay zero with no failures")
	}

	m.Record("openai", false, 100*time.Millisecond)
	s = m.Status("openai")
	if s.LastFailure.IsZero() {
		t.Error("expected last failure to be set after a failure")
	}
	if s.LastFailure.Before(s.LastSuccess) {
		t.Errorf("last failure %v predates last success %v", s.LastFailure, s.LastSuccess)
	}
}
