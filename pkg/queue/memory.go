package queue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store with a mutex-guarded map. It mirrors the
// SQLite store's transition semantics and is used by tests and as a backend
// for ephemeral deployments.
type MemoryStore struct {
	mu            sync.Mutex
	jobs          map[string]*GenerationJob
	maxQueueDepth int
}

// NewMemoryStore creates an in-memory job store. maxQueueDepth bounds the
// QUEUED backlog; zero means unbounded.
func NewMemoryStore(maxQueueDepth int) *MemoryStore {
	return &MemoryStore{
		jobs:          make(map[string]*GenerationJob),
		maxQueueDepth: maxQueueDepth,
	}
}

// Enqueue admits a new QUEUED job.
func (s *MemoryStore) Enqueue(ctx context.Context, job *GenerationJob) error {
	if job == nil {
		return fmt.Errorf("job cannot be nil")
	}
	if err := job.Validate(); err != nil {
		return err
	}
	if job.Status != StatusQueued {
		return &TransitionError{JobID: job.ID, From: job.Status, To: StatusQueued}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s: %w", job.ID, ErrDuplicateJob)
	}

	if s.maxQueueDepth > 0 {
		depth := 0
		for _, j := range s.jobs {
			if j.Status == StatusQueued {
				depth++
			}
		}
		if depth >= s.maxQueueDepth {
			return fmt.Errorf("queued backlog at %d: %w", depth, ErrQueueSaturated)
		}
	}

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get returns the job by id.
func (s *MemoryStore) Get(ctx context.Context, jobID string) (*GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}

	clone := *job
	return &clone, nil
}

// Claim atomically selects the best eligible job and flips it to PROCESSING.
func (s *MemoryStore) Claim(ctx context.Context) (*GenerationJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()

	var best *GenerationJob
	for _, job := range s.jobs {
		if job.Status != StatusQueued {
			continue
		}
		if !job.ExpiresAt.After(now) {
			continue
		}
		if !job.NextRetryAt.IsZero() && job.NextRetryAt.After(now) {
			continue
		}

		if best == nil || claimBefore(job, best) {
			best = job
		}
	}

	if best == nil {
		return nil, ErrNoEligibleJobs
	}

	best.Status = StatusProcessing
	best.StartedAt = now
	best.UpdatedAt = now

	clone := *best
	return &clone, nil
}

// claimBefore reports whether a should be claimed ahead of b.
func claimBefore(a, b *GenerationJob) bool {
	if a.Priority.Rank() != b.Priority.Rank() {
		return a.Priority.Rank() < b.Priority.Rank()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Complete moves a PROCESSING job to COMPLETED with its result.
func (s *MemoryStore) Complete(ctx context.Context, jobID string, result CompletionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusProcessing, StatusCompleted)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = StatusCompleted
	job.Provider = result.Provider
	job.Model = result.Model
	job.ResultContent = result.Content
	// Clear any failure left behind by a retried attempt. A completed
	// job carries its result and nothing else.
	job.ErrorMessage = ""
	job.ErrorDetails = ""
	job.TokensUsed = result.TokensUsed
	job.GenerationCost = result.Cost
	job.ProcessingTimeMs = result.ProcessingTime.Milliseconds()
	job.CompletedAt = now
	job.UpdatedAt = now
	return nil
}

// Fail moves a PROCESSING job to terminal FAILED.
func (s *MemoryStore) Fail(ctx context.Context, jobID string, failure FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusProcessing, StatusFailed)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = StatusFailed
	job.Provider = failure.Provider
	job.ErrorMessage = failure.Message
	job.ErrorDetails = failure.Details
	job.CompletedAt = now
	job.UpdatedAt = now
	return nil
}

// ScheduleRetry moves a PROCESSING job back to QUEUED with retry bookkeeping.
func (s *MemoryStore) ScheduleRetry(ctx context.Context, jobID string, nextRetryAt time.Time, failure FailureRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusProcessing, StatusQueued)
	if err != nil {
		return err
	}
	if job.RetryCount >= job.MaxRetries {
		return &TransitionError{JobID: jobID, From: job.Status, To: StatusQueued}
	}

	job.Status = StatusQueued
	job.RetryCount++
	job.NextRetryAt = nextRetryAt
	job.ErrorMessage = failure.Message
	job.ErrorDetails = failure.Details
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves a QUEUED job to CANCELLED.
func (s *MemoryStore) Cancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusQueued, StatusCancelled)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = StatusCancelled
	job.CompletedAt = now
	job.UpdatedAt = now
	return nil
}

// RequestCancel marks a PROCESSING job for cooperative cancellation.
func (s *MemoryStore) RequestCancel(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusProcessing, StatusProcessing)
	if err != nil {
		return err
	}

	job.CancelRequested = true
	job.UpdatedAt = time.Now().UTC()
	return nil
}

// CancelClaimed moves a PROCESSING job to CANCELLED.
func (s *MemoryStore) CancelClaimed(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.requireStatus(jobID, StatusProcessing, StatusCancelled)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = StatusCancelled
	job.CompletedAt = now
	job.UpdatedAt = now
	return nil
}

// requireStatus returns the job if it is in the required state. Caller holds
// the lock.
func (s *MemoryStore) requireStatus(jobID string, required, target Status) (*GenerationJob, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrJobNotFound)
	}
	if job.Status != required {
		return nil, &TransitionError{JobID: jobID, From: job.Status, To: target}
	}
	return job, nil
}

// MarkExpired moves QUEUED jobs past their expiry to EXPIRED and returns
// their ids.
func (s *MemoryStore) MarkExpired(ctx context.Context, now time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now = now.UTC()
	var swept []string
	for _, job := range s.jobs {
		if job.Status == StatusQueued && !job.ExpiresAt.After(now) {
			job.Status = StatusExpired
			job.CompletedAt = now
			job.UpdatedAt = now
			swept = append(swept, job.ID)
		}
	}
	return swept, nil
}

// ListByUser returns the user's jobs, newest first.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*GenerationJob, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var jobs []*GenerationJob
	for _, job := range s.jobs {
		if job.UserID == userID {
			clone := *job
			jobs = append(jobs, &clone)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if offset >= len(jobs) {
		return nil, nil
	}
	end := offset + limit
	if end > len(jobs) {
		end = len(jobs)
	}
	return jobs[offset:end], nil
}

// CountByStatus returns job counts grouped by status.
func (s *MemoryStore) CountByStatus(ctx context.Context) (map[Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[Status]int64)
	for _, job := range s.jobs {
		counts[job.Status]++
	}
	return counts, nil
}

// CountByPriority returns job counts grouped by priority.
func (s *MemoryStore) CountByPriority(ctx context.Context) (map[Priority]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[Priority]int64)
	for _, job := range s.jobs {
		counts[job.Priority]++
	}
	return counts, nil
}

// QueuedDepth returns the number of QUEUED jobs per priority.
func (s *MemoryStore) QueuedDepth(ctx context.Context) (map[Priority]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[Priority]int64)
	for _, job := range s.jobs {
		if job.Status == StatusQueued {
			counts[job.Priority]++
		}
	}
	return counts, nil
}

// Cleanup deletes terminal jobs completed before the cutoff.
func (s *MemoryStore) Cleanup(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	olderThan = olderThan.UTC()
	var removed int64
	for id, job := range s.jobs {
		if job.Terminal() && !job.CompletedAt.IsZero() && job.CompletedAt.Before(olderThan) {
			delete(s.jobs, id)
			removed++
		}
	}
	return removed, nil
}

// Close releases the store's resources.
func (s *MemoryStore) Close() error {
	return nil
}
