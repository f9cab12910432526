package metrics

import (
	"time"

	"github.com/copyforge-hq/titan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// QueueMetrics tracks the job queue.
//
// Metrics:
//   - titan_jobs_enqueued_total: jobs admitted, by priority
//   - titan_jobs_finished_total: jobs reaching a terminal state, by status and priority
//   - titan_job_retries_total: retry re-admissions, by provider
//   - titan_queue_depth: current QUEUED jobs, by priority
//   - titan_job_processing_duration_seconds: claim-to-terminal duration, by priority
type QueueMetrics struct {
	enqueued *prometheus.CounterVec
	finished *prometheus.CounterVec
	retries  *prometheus.CounterVec
	depth    *prometheus.GaugeVec
	duration *prometheus.HistogramVec
}

// NewQueueMetrics creates and registers queue metrics with the registry.
func NewQueueMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *QueueMetrics {
	qm := &QueueMetrics{
		enqueued: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "jobs_enqueued_total",
				Help:      "Total number of jobs admitted to the queue",
			},
			[]string{"priority"},
		),

		finished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "jobs_finished_total",
				Help:      "Total number of jobs reaching a terminal state",
			},
			[]string{"status", "priority"},
		),

		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "job_retries_total",
				Help:      "Total number of retry re-admissions after transient failures",
			},
			[]string{"provider"},
		),

		depth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "queue_depth",
				Help:      "Current number of QUEUED jobs",
			},
			[]string{"priority"},
		),

		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "job_processing_duration_seconds",
				Help:      "Claim-to-terminal processing duration in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"priority"},
		),
	}

	registry.MustRegister(
		qm.enqueued,
		qm.finished,
		qm.retries,
		qm.depth,
		qm.duration,
	)

	return qm
}

// RecordEnqueue counts a job admission.
func (qm *QueueMetrics) RecordEnqueue(priority string) {
	qm.enqueued.WithLabelValues(priority).Inc()
}

// RecordOutcome counts a terminal transition and observes the processing
// duration when one is available.
func (qm *QueueMetrics) RecordOutcome(status, priority string, processingTime time.Duration) {
	qm.finished.WithLabelValues(status, priority).Inc()
	if processingTime > 0 {
		qm.duration.WithLabelValues(priority).Observe(processingTime.Seconds())
	}
}

// RecordRetry counts a retry re-admission.
func (qm *QueueMetrics) RecordRetry(provider string) {
	qm.retries.WithLabelValues(provider).Inc()
}

// UpdateDepth sets the QUEUED depth gauge for a priority.
func (qm *QueueMetrics) UpdateDepth(priority string, depth int64) {
	qm.depth.WithLabelValues(priority).Set(float64(depth))
}
