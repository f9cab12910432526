package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"
)

// DefaultBackoffBase is the first retry delay; each subsequent attempt
// doubles it.
const DefaultBackoffBase = 5 * time.Second

// RetryScheduler decides what happens to a failed job: re-admission with
// an exponential backoff, or a terminal FAILED.
//
// Only transient failures are retried. Permanent failures (auth,
// validation, unknown model) would fail identically on every attempt, so
// they consume no retry budget and fail the job immediately.
type RetryScheduler struct {
	store       queue.Store
	publisher   notify.Publisher
	collector   *metrics.Collector
	logger      *slog.Logger
	backoffBase time.Duration

	now func() time.Time
}

// NewRetryScheduler creates a retry scheduler. The collector may be nil;
// a nil publisher defaults to NopPublisher.
func NewRetryScheduler(
	store queue.Store,
	publisher notify.Publisher,
	collector *metrics.Collector,
	backoffBase time.Duration,
	logger *slog.Logger,
) *RetryScheduler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if backoffBase <= 0 {
		backoffBase = DefaultBackoffBase
	}
	return &RetryScheduler{
		store:       store,
		publisher:   publisher,
		collector:   collector,
		logger:      logger.With("component", "retry"),
		backoffBase: backoffBase,
		now:         time.Now,
	}
}

// HandleFailure routes a provider failure to a retry or a terminal FAILED.
func (rs *RetryScheduler) HandleFailure(ctx context.Context, job *queue.GenerationJob, provider string, cause error) {
	if !providers.IsRetryable(cause) {
		rs.logger.Warn("permanent failure, not retrying",
			"job_id", job.ID, "provider", provider, "error_type", providers.ErrorType(cause))
		rs.FailNow(ctx, job, provider, cause)
		return
	}
	if job.RetryCount >= job.MaxRetries {
		rs.logger.Warn("retry budget exhausted",
			"job_id", job.ID, "provider", provider, "attempts", job.RetryCount)
		rs.FailNow(ctx, job, provider, cause)
		return
	}

	delay := rs.backoff(job.RetryCount)
	nextRetryAt := rs.now().UTC().Add(delay)
	failure := failureRecord(provider, cause)

	if err := rs.store.ScheduleRetry(ctx, job.ID, nextRetryAt, failure); err != nil {
		rs.logger.Error("failed to schedule retry", "job_id", job.ID, "error", err)
		return
	}

	if rs.collector != nil {
		rs.collector.RecordRetry(provider)
	}
	rs.publisher.Notify(ctx, job.ID, queue.StatusQueued, nil)

	rs.logger.Info("job scheduled for retry",
		"job_id", job.ID,
		"provider", provider,
		"attempt", job.RetryCount+1,
		"max_retries", job.MaxRetries,
		"delay", delay,
		"error_type", providers.ErrorType(cause))
}

// FailNow fails the job terminally with the captured error.
func (rs *RetryScheduler) FailNow(ctx context.Context, job *queue.GenerationJob, provider string, cause error) {
	failure := failureRecord(provider, cause)

	if err := rs.store.Fail(ctx, job.ID, failure); err != nil {
		rs.logger.Error("failed to record job failure", "job_id", job.ID, "error", err)
		return
	}

	var processingTime time.Duration
	if !job.StartedAt.IsZero() {
		processingTime = rs.now().Sub(job.StartedAt)
	}
	if rs.collector != nil {
		rs.collector.RecordJobOutcome(queue.StatusFailed, job.Priority, processingTime)
	}
	rs.publisher.Notify(ctx, job.ID, queue.StatusFailed, failure)

	rs.logger.Warn("job failed",
		"job_id", job.ID,
		"provider", provider,
		"attempts", job.RetryCount,
		"error", cause)
}

// backoff returns the delay before the next attempt: base * 2^retryCount,
// no jitter. With the default base the progression is 5s, 10s, 20s, ...
func (rs *RetryScheduler) backoff(retryCount int) time.Duration {
	return rs.backoffBase * (1 << retryCount)
}

func failureRecord(provider string, cause error) queue.FailureRecord {
	return queue.FailureRecord{
		Provider: provider,
		Message:  cause.Error(),
		Details:  fmt.Sprintf("type=%s: %v", providers.ErrorType(cause), cause),
	}
}
