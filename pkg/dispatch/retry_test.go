package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
)

func claimJob(t *testing.T, store queue.Store, maxRetries int) *queue.GenerationJob {
	t.Helper()
	job := queue.NewJob("user-1", `{"prompt":"x"}`, "gpt-4", queue.PriorityStandard, maxRetries, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	claimed, err := store.Claim(context.Background())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	return claimed
}

func TestRetryScheduler_BackoffDoubles(t *testing.T) {
	rs := NewRetryScheduler(queue.NewMemoryStore(0), nil, nil, 5*time.Second, testLogger(t))

	want := []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second, 40 * time.Second}
	for count, expected := range want {
		if got := rs.backoff(count); got != expected {
			t.Errorf("backoff(%d) = %s, want %s", count, got, expected)
		}
	}
}

func TestRetryScheduler_TransientSchedulesRetry(t *testing.T) {
	store := queue.NewMemoryStore(0)
	rs := NewRetryScheduler(store, nil, nil, 5*time.Second, testLogger(t))
	job := claimJob(t, store, 3)

	before := time.Now().UTC()
	rs.HandleFailure(context.Background(), job, "openai", &providers.TimeoutError{
		Provider: "openai",
		Timeout:  time.Second,
	})

	got, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != queue.StatusQueued {
		t.Fatalf("Status = %s, want QUEUED", got.Status)
	}
	if got.RetryCount != 1 {
		t.Errorf("RetryCount = %d, want 1", got.RetryCount)
	}
	// First retry waits the base delay.
	earliest := before.Add(5 * time.Second)
	if got.NextRetryAt.Before(earliest.Add(-time.Second)) || got.NextRetryAt.After(earliest.Add(time.Minute)) {
		t.Errorf("NextRetryAt = %s, want about %s", got.NextRetryAt, earliest)
	}
}

func TestRetryScheduler_PermanentFailsImmediately(t *testing.T) {
	store := queue.NewMemoryStore(0)
	rs := NewRetryScheduler(store, nil, nil, time.Second, testLogger(t))
	job := claimJob(t, store, 3)

	rs.HandleFailure(context.Background(), job, "openai", &providers.AuthError{
		Provider: "openai",
		Message:  "bad key",
	})

	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("Status = %s, want FAILED", got.Status)
	}
	if got.RetryCount != 0 {
		t.Errorf("RetryCount = %d, want 0", got.RetryCount)
	}
	if got.ErrorMessage == "" {
		t.Error("ErrorMessage not captured")
	}
}

func TestRetryScheduler_ExhaustedBudgetFails(t *testing.T) {
	store := queue.NewMemoryStore(0)
	rs := NewRetryScheduler(store, nil, nil, time.Second, testLogger(t))
	job := claimJob(t, store, 0)

	rs.HandleFailure(context.Background(), job, "openai", &providers.TimeoutError{
		Provider: "openai",
		Timeout:  time.Second,
	})

	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("Status = %s, want FAILED with zero retry budget", got.Status)
	}
}

func TestRetryScheduler_FailNowRecordsProvider(t *testing.T) {
	store := queue.NewMemoryStore(0)
	rs := NewRetryScheduler(store, nil, nil, time.Second, testLogger(t))
	job := claimJob(t, store, 3)

	rs.FailNow(context.Background(), job, "anthropic", &providers.ProviderError{
		Provider:   "anthropic",
		StatusCode: 500,
		Message:    "internal error",
	})

	got, _ := store.Get(context.Background(), job.ID)
	if got.Status != queue.StatusFailed {
		t.Fatalf("Status = %s, want FAILED", got.Status)
	}
	if got.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", got.Provider)
	}
	if got.ErrorDetails == "" {
		t.Error("ErrorDetails not captured")
	}
}
