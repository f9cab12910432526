package queue

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common store errors that can be checked with errors.Is().
var (
	// ErrJobNotFound is returned when the job id is unknown.
	ErrJobNotFound = errors.New("job not found")

	// ErrNoEligibleJobs is returned by Claim when nothing is claimable.
	// Workers treat this as a poll miss, not a failure.
	ErrNoEligibleJobs = errors.New("no eligible jobs")

	// ErrQueueSaturated is returned by Enqueue when the queued backlog
	// exceeds the configured capacity. Callers reject the admission.
	ErrQueueSaturated = errors.New("queue saturated")

	// ErrInvalidTransition is returned when a requested transition is not
	// permitted by the state machine, including any write to a terminal job.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrDuplicateJob is returned when enqueueing an id that already exists.
	ErrDuplicateJob = errors.New("duplicate job id")
)

// TransitionError carries the details of a rejected transition.
type TransitionError struct {
	JobID string
	From  Status
	To    Status
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf("job %s: invalid transition %s -> %s", e.JobID, e.From, e.To)
}

// Is implements error matching for errors.Is().
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// CompletionResult carries the outcome of a successful generation.
type CompletionResult struct {
	// Provider and Model identify which backend served the job.
	Provider string
	Model    string

	// Content is the generated content.
	Content string

	// TokensUsed and Cost are the usage metrics reported by the provider.
	TokensUsed int
	Cost       float64

	// ProcessingTime is the wall-clock duration from claim to completion.
	ProcessingTime time.Duration
}

// FailureRecord carries the outcome of a permanently failed generation.
type FailureRecord struct {
	// Provider is the backend that failed, empty if selection itself failed.
	Provider string

	// Message is the user-facing error summary.
	Message string

	// Details carries the full error chain for diagnostics.
	Details string
}

// Store is the persistence boundary for generation jobs. All transitions are
// conditional: a call whose precondition no longer holds returns an error
// matching ErrInvalidTransition (or ErrJobNotFound), never silently clobbers.
//
// Implementations must be safe for concurrent use; Claim in particular must
// be atomic so that two workers racing on the same job cannot both move it
// to PROCESSING.
type Store interface {
	// Enqueue admits a new QUEUED job. Returns ErrQueueSaturated when the
	// queued backlog is at capacity and ErrDuplicateJob on id collision.
	Enqueue(ctx context.Context, job *GenerationJob) error

	// Get returns the job by id.
	Get(ctx context.Context, jobID string) (*GenerationJob, error)

	// Claim atomically selects the best eligible job (priority rank, then
	// created_at) and flips it to PROCESSING. Eligible means QUEUED, not
	// past expiry, and past any retry gate. Returns ErrNoEligibleJobs when
	// nothing is claimable.
	Claim(ctx context.Context) (*GenerationJob, error)

	// Complete moves a PROCESSING job to COMPLETED with its result.
	Complete(ctx context.Context, jobID string, result CompletionResult) error

	// Fail moves a PROCESSING job to terminal FAILED with the captured error.
	Fail(ctx context.Context, jobID string, failure FailureRecord) error

	// ScheduleRetry moves a PROCESSING job back to QUEUED, incrementing
	// retry_count and setting next_retry_at. The caller is responsible for
	// retry-budget and error-classification decisions.
	ScheduleRetry(ctx context.Context, jobID string, nextRetryAt time.Time, failure FailureRecord) error

	// Cancel moves a QUEUED job to CANCELLED. Cancelling a PROCESSING job
	// is not possible here; use RequestCancel for the cooperative path.
	Cancel(ctx context.Context, jobID string) error

	// RequestCancel marks a PROCESSING job for cooperative cancellation.
	// The claiming worker observes the flag after its provider call returns.
	RequestCancel(ctx context.Context, jobID string) error

	// CancelClaimed moves a PROCESSING job to CANCELLED. Worker-only path,
	// used when the cooperative flag is observed.
	CancelClaimed(ctx context.Context, jobID string) error

	// MarkExpired moves QUEUED jobs past their expiry to EXPIRED and
	// returns the ids of the swept jobs so callers can publish the
	// terminal transition for each.
	MarkExpired(ctx context.Context, now time.Time) ([]string, error)

	// ListByUser returns the user's jobs, newest first, paginated.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*GenerationJob, error)

	// CountByStatus returns job counts grouped by status.
	CountByStatus(ctx context.Context) (map[Status]int64, error)

	// CountByPriority returns job counts grouped by priority.
	CountByPriority(ctx context.Context) (map[Priority]int64, error)

	// QueuedDepth returns the number of QUEUED jobs per priority. This is
	// the backlog the depth gauges and saturation checks care about.
	QueuedDepth(ctx context.Context) (map[Priority]int64, error)

	// Cleanup deletes terminal jobs whose completion is older than the
	// cutoff and returns how many were removed.
	Cleanup(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases the store's resources.
	Close() error
}
