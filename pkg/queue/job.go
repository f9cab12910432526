package queue

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is a job's lifecycle state. The set is closed; see the state
// machine in the package documentation.
type Status string

const (
	// StatusQueued means the job is waiting to be claimed by a worker.
	StatusQueued Status = "QUEUED"

	// StatusProcessing means exactly one worker holds the job and a
	// provider call may be in flight.
	StatusProcessing Status = "PROCESSING"

	// StatusCompleted means generation succeeded. Terminal.
	StatusCompleted Status = "COMPLETED"

	// StatusFailed means generation failed permanently. Terminal.
	StatusFailed Status = "FAILED"

	// StatusCancelled means the user cancelled the job. Terminal.
	StatusCancelled Status = "CANCELLED"

	// StatusExpired means the job aged out before being claimed. Terminal.
	StatusExpired Status = "EXPIRED"
)

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	switch s {
	case StatusQueued, StatusProcessing, StatusCompleted,
		StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// Terminal reports whether s is an absorbing state. No further writes to a
// job's status or outcome fields are permitted once terminal.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next. Retry re-admission is modeled as PROCESSING -> QUEUED: the failed
// attempt goes straight back to the queue with retry bookkeeping updated.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}

	switch s {
	case StatusQueued:
		return next == StatusProcessing || next == StatusCancelled || next == StatusExpired
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed ||
			next == StatusQueued || next == StatusCancelled
	}
	return false
}

// Priority orders jobs for dequeue. PREMIUM is always preferred over
// STANDARD over BATCH; within a priority, earlier creation wins.
type Priority string

const (
	PriorityPremium  Priority = "PREMIUM"
	PriorityStandard Priority = "STANDARD"
	PriorityBatch    Priority = "BATCH"
)

// Valid reports whether p is a member of the closed priority set.
func (p Priority) Valid() bool {
	switch p {
	case PriorityPremium, PriorityStandard, PriorityBatch:
		return true
	}
	return false
}

// Rank returns the dequeue order of the priority, lower first.
func (p Priority) Rank() int {
	switch p {
	case PriorityPremium:
		return 0
	case PriorityStandard:
		return 1
	case PriorityBatch:
		return 2
	}
	return 3
}

// GenerationJob is the unit of work flowing through the queue.
//
// RequestParams is opaque to the queue: it is stored verbatim and handed to
// the provider adapter at dispatch time. Outcome fields are mutually
// exclusive: a terminal COMPLETED job carries ResultContent, a terminal
// FAILED job carries ErrorMessage.
type GenerationJob struct {
	// ID is the externally addressable job identifier.
	ID string `json:"id"`

	// UserID is the owning user.
	UserID string `json:"user_id"`

	// RequestParams is the opaque generation payload, immutable once created.
	RequestParams string `json:"request_params"`

	// Status is the current lifecycle state.
	Status Status `json:"status"`

	// Priority orders the job for dequeue.
	Priority Priority `json:"priority"`

	// Provider and Model identify the assigned backend. Provider is empty
	// while QUEUED.
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`

	// ResultContent holds the generated content on COMPLETED.
	ResultContent string `json:"result_content,omitempty"`

	// ErrorMessage and ErrorDetails hold the failure on FAILED.
	ErrorMessage string `json:"error_message,omitempty"`
	ErrorDetails string `json:"error_details,omitempty"`

	// RetryCount and MaxRetries are retry bookkeeping; 0 <= RetryCount <= MaxRetries.
	RetryCount int `json:"retry_count"`
	MaxRetries int `json:"max_retries"`

	// CancelRequested marks a PROCESSING job for cooperative cancellation.
	// The worker observes it after the provider call returns.
	CancelRequested bool `json:"cancel_requested,omitempty"`

	// NextRetryAt gates re-claim of a retry-scheduled job.
	NextRetryAt time.Time `json:"next_retry_at,omitempty"`

	// StartedAt is when a worker claimed the job.
	StartedAt time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	// ExpiresAt is set at creation; the job must leave QUEUED before it or
	// be marked EXPIRED.
	ExpiresAt time.Time `json:"expires_at"`

	// ProcessingTimeMs, TokensUsed and GenerationCost are captured on completion.
	ProcessingTimeMs int64   `json:"processing_time_ms,omitempty"`
	TokensUsed       int     `json:"tokens_used,omitempty"`
	GenerationCost   float64 `json:"generation_cost,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the job is in an absorbing state.
func (j *GenerationJob) Terminal() bool {
	return j.Status.Terminal()
}

// NewJob creates a QUEUED job with a generated id and the given time-to-live.
func NewJob(userID, requestParams, model string, priority Priority, maxRetries int, ttl time.Duration) *GenerationJob {
	now := time.Now().UTC()
	return &GenerationJob{
		ID:            uuid.New().String(),
		UserID:        userID,
		RequestParams: requestParams,
		Model:         model,
		Status:        StatusQueued,
		Priority:      priority,
		MaxRetries:    maxRetries,
		ExpiresAt:     now.Add(ttl),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate checks the job's invariants before it enters the store.
func (j *GenerationJob) Validate() error {
	if j.ID == "" {
		return fmt.Errorf("job id cannot be empty")
	}
	if j.UserID == "" {
		return fmt.Errorf("user id cannot be empty")
	}
	if !j.Status.Valid() {
		return fmt.Errorf("invalid status %q", j.Status)
	}
	if !j.Priority.Valid() {
		return fmt.Errorf("invalid priority %q", j.Priority)
	}
	if j.MaxRetries < 0 || j.MaxRetries > 10 {
		return fmt.Errorf("max retries %d out of range [0, 10]", j.MaxRetries)
	}
	if j.RetryCount < 0 || j.RetryCount > j.MaxRetries {
		return fmt.Errorf("retry count %d out of range [0, %d]", j.RetryCount, j.MaxRetries)
	}
	if j.ExpiresAt.IsZero() {
		return fmt.Errorf("expires_at must be set")
	}
	return nil
}
