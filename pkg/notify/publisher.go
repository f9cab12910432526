package notify

import (
	"context"
	"time"

	"github.com/copyforge-hq/titan/pkg/queue"
)

// Event describes a single job status transition.
type Event struct {
	JobID     string       `json:"job_id"`
	Status    queue.Status `json:"status"`
	Timestamp time.Time    `json:"timestamp"`
	// Payload carries transition-specific detail: the completion result
	// for COMPLETED, the failure record for FAILED, nil otherwise.
	Payload any `json:"payload,omitempty"`
}

// Publisher receives job status transitions as they happen.
//
// Implementations must not block: publishers are called inline from the
// queue's write path.
type Publisher interface {
	Notify(ctx context.Context, jobID string, status queue.Status, payload any)
}

// NopPublisher discards all events. It is the default when no event
// delivery is configured.
type NopPublisher struct{}

// Notify implements Publisher.
func (NopPublisher) Notify(context.Context, string, queue.Status, any) {}

// NewEvent builds an Event stamped with the current time.
func NewEvent(jobID string, status queue.Status, payload any) Event {
	return Event{
		JobID:     jobID,
		Status:    status,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}
