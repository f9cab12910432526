package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/copyforge-hq/titan/pkg/queue"
)

func TestSweeper_ExpiresOverdueJobs(t *testing.T) {
	store := queue.NewMemoryStore(0)
	s := NewSweeper(store, nil, nil, SweeperConfig{}, testLogger(t))
	s.ctx = context.Background()

	overdue := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Millisecond)
	fresh := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	for _, j := range []*queue.GenerationJob{overdue, fresh} {
		if err := store.Enqueue(context.Background(), j); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	time.Sleep(5 * time.Millisecond)

	s.sweep()

	got, _ := store.Get(context.Background(), overdue.ID)
	if got.Status != queue.StatusExpired {
		t.Errorf("overdue job = %s, want EXPIRED", got.Status)
	}
	kept, _ := store.Get(context.Background(), fresh.ID)
	if kept.Status != queue.StatusQueued {
		t.Errorf("fresh job = %s, want QUEUED", kept.Status)
	}
}

func TestSweeper_CleanupHonorsRetention(t *testing.T) {
	store := queue.NewMemoryStore(0)
	s := NewSweeper(store, nil, nil, SweeperConfig{RetentionPeriod: time.Nanosecond}, testLogger(t))
	s.ctx = context.Background()

	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.Claim(context.Background()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.Complete(context.Background(), job.ID, queue.CompletionResult{Provider: "openai"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	time.Sleep(time.Millisecond)

	s.cleanup()

	if _, err := store.Get(context.Background(), job.ID); err == nil {
		t.Error("terminal job past retention should have been removed")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	store := queue.NewMemoryStore(0)
	s := NewSweeper(store, nil, nil, SweeperConfig{
		SweepInterval:   time.Minute,
		CleanupSchedule: "0 3 * * *",
	}, testLogger(t))

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
}

func TestSweeper_RejectsBadCleanupSchedule(t *testing.T) {
	store := queue.NewMemoryStore(0)
	s := NewSweeper(store, nil, nil, SweeperConfig{CleanupSchedule: "not a cron expr"}, testLogger(t))

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected error for invalid cron expression")
	}
}
