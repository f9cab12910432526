package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/routing"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"
)

// Default dispatcher tuning.
const (
	DefaultWorkers         = 4
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultProviderTimeout = 120 * time.Second
)

// Config tunes the dispatcher worker pool.
type Config struct {
	// Workers is the number of concurrent workers, which also bounds the
	// number of simultaneous outbound provider calls.
	Workers int

	// PollInterval is how long a worker sleeps after a claim miss.
	PollInterval time.Duration

	// ProviderTimeout is the per-call deadline for provider invocations.
	ProviderTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ProviderTimeout <= 0 {
		c.ProviderTimeout = DefaultProviderTimeout
	}
}

// Dispatcher drains the queue through the routing layer. Workers claim
// jobs, pick a provider, call it, and finalize the job. All provider
// outcomes feed the health monitor.
type Dispatcher struct {
	store     queue.Store
	balancer  routing.LoadBalancer
	monitor   *health.Monitor
	publisher notify.Publisher
	retry     *RetryScheduler
	collector *metrics.Collector
	logger    *slog.Logger
	cfg       Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher wires a dispatcher. The collector may be nil when metrics
// are disabled; the publisher may be nil and defaults to NopPublisher.
func NewDispatcher(
	store queue.Store,
	balancer routing.LoadBalancer,
	monitor *health.Monitor,
	retry *RetryScheduler,
	publisher notify.Publisher,
	collector *metrics.Collector,
	cfg Config,
	logger *slog.Logger,
) (*Dispatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if balancer == nil {
		return nil, fmt.Errorf("balancer is required")
	}
	if monitor == nil {
		return nil, fmt.Errorf("health monitor is required")
	}
	if retry == nil {
		return nil, fmt.Errorf("retry scheduler is required")
	}
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()

	return &Dispatcher{
		store:     store,
		balancer:  balancer,
		monitor:   monitor,
		publisher: publisher,
		retry:     retry,
		collector: collector,
		logger:    logger.With("component", "dispatcher"),
		cfg:       cfg,
	}, nil
}

// Start launches the worker pool. It is non-blocking.
func (d *Dispatcher) Start(ctx context.Context) {
	ctx, d.cancel = context.WithCancel(ctx)

	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	d.logger.Info("dispatcher started",
		"workers", d.cfg.Workers,
		"poll_interval", d.cfg.PollInterval,
		"provider_timeout", d.cfg.ProviderTimeout)
}

// Stop cancels the workers and waits for in-flight jobs to finalize.
func (d *Dispatcher) Stop() {
	if d.cancel != nil {
		d.cancel()
	}
	d.wg.Wait()
	d.logger.Info("dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	logger := d.logger.With("worker", id)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := d.store.Claim(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrNoEligibleJobs) {
				d.sleep(ctx, d.cfg.PollInterval)
				continue
			}
			if ctx.Err() != nil {
				return
			}
			logger.Error("claim failed", "error", err)
			d.sleep(ctx, d.cfg.PollInterval)
			continue
		}

		d.process(ctx, job)
	}
}

func (d *Dispatcher) sleep(ctx context.Context, interval time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(interval):
	}
}

// process runs one claimed job to a terminal state or a retry re-admission.
// Finalization uses a detached context so a shutdown mid-call never strands
// a job in PROCESSING.
func (d *Dispatcher) process(ctx context.Context, job *queue.GenerationJob) {
	logger := d.logger.With("job_id", job.ID, "priority", job.Priority)
	finalizeCtx := context.WithoutCancel(ctx)

	d.publisher.Notify(ctx, job.ID, queue.StatusProcessing, nil)

	req, err := d.decodeRequest(job)
	if err != nil {
		logger.Warn("job carries undecodable request params", "error", err)
		d.retry.FailNow(finalizeCtx, job, "", err)
		return
	}

	selection, err := d.balancer.Select(ctx, &routing.SelectionRequest{
		JobID: job.ID,
		Model: job.Model,
	})
	if err != nil {
		if d.collector != nil {
			d.collector.RecordRoutingError(routingErrorReason(err))
		}
		// No capable or available provider is a terminal condition: the
		// job fails now rather than burning its retry budget.
		logger.Warn("no provider for job", "model", job.Model, "error", err)
		d.retry.FailNow(finalizeCtx, job, "", err)
		return
	}

	if d.collector != nil {
		d.collector.RecordSelection(selection.ProviderName, selection.Strategy)
	}
	logger = logger.With("provider", selection.ProviderName)

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.ProviderTimeout)
	start := time.Now()
	result, err := selection.Provider.GenerateContent(callCtx, req)
	cancel()
	latency := time.Since(start)

	d.monitor.Record(selection.ProviderName, err == nil, latency)
	if d.collector != nil {
		d.collector.UpdateProviderHealth(selection.ProviderName, d.monitor.Status(selection.ProviderName).Level)
		if err != nil {
			d.collector.RecordProviderError(selection.ProviderName, providers.ErrorType(err))
		}
	}

	// Cooperative cancellation is observed only after the provider call
	// returns. A cancel request beats both completion and retry here; a
	// completion that already happened would have cleared the flag path.
	if d.cancelRequested(finalizeCtx, job.ID) {
		if cerr := d.store.CancelClaimed(finalizeCtx, job.ID); cerr != nil {
			logger.Error("failed to finalize cancellation", "error", cerr)
			return
		}
		if d.collector != nil {
			d.collector.RecordJobOutcome(queue.StatusCancelled, job.Priority, time.Since(job.StartedAt))
		}
		d.publisher.Notify(finalizeCtx, job.ID, queue.StatusCancelled, nil)
		logger.Info("job cancelled, result discarded")
		return
	}

	if err != nil {
		d.retry.HandleFailure(finalizeCtx, job, selection.ProviderName, err)
		return
	}

	processingTime := time.Since(job.StartedAt)
	completion := queue.CompletionResult{
		Provider:       selection.ProviderName,
		Model:          result.Model,
		Content:        result.Content,
		TokensUsed:     result.TokensUsed,
		Cost:           result.Cost,
		ProcessingTime: processingTime,
	}
	if err := d.store.Complete(finalizeCtx, job.ID, completion); err != nil {
		logger.Error("failed to complete job", "error", err)
		return
	}

	if d.collector != nil {
		d.collector.RecordGeneration(selection.ProviderName, result.Model, latency, result.TokensUsed, result.Cost)
		d.collector.RecordJobOutcome(queue.StatusCompleted, job.Priority, processingTime)
	}
	d.publisher.Notify(finalizeCtx, job.ID, queue.StatusCompleted, completion)

	logger.Info("job completed",
		"model", result.Model,
		"tokens", result.TokensUsed,
		"latency", latency,
		"processing_time", processingTime)
}

// decodeRequest parses the job's opaque request params into a provider
// request. The job's model wins over one embedded in the params.
func (d *Dispatcher) decodeRequest(job *queue.GenerationJob) (*providers.GenerationRequest, error) {
	var req providers.GenerationRequest
	if job.RequestParams != "" {
		if err := json.Unmarshal([]byte(job.RequestParams), &req); err != nil {
			return nil, fmt.Errorf("failed to decode request params: %w", err)
		}
	}
	if job.Model != "" {
		req.Model = job.Model
	}
	req.Metadata = map[string]string{
		"job_id":  job.ID,
		"user_id": job.UserID,
	}
	return &req, nil
}

func (d *Dispatcher) cancelRequested(ctx context.Context, jobID string) bool {
	current, err := d.store.Get(ctx, jobID)
	if err != nil {
		return false
	}
	return current.Status == queue.StatusProcessing && current.CancelRequested
}

func routingErrorReason(err error) string {
	switch {
	case errors.Is(err, routing.ErrModelNotSupported):
		return "model_not_supported"
	case errors.Is(err, routing.ErrProviderNotFound):
		return "provider_not_found"
	case errors.Is(err, routing.ErrNoProvidersConfigured):
		return "no_providers_configured"
	case errors.Is(err, routing.ErrNoProvidersAvailable):
		return "no_providers_available"
	default:
		return "selection_failed"
	}
}
