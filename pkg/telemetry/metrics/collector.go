package metrics

import (
	"time"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/queue"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns all Prometheus metrics for the service. It manages metric
// registration and provides a unified recording interface so that the queue,
// dispatcher, and routing layers never touch prometheus types directly.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	queueMetrics    *QueueMetrics
	providerMetrics *ProviderMetrics
	routingMetrics  *RoutingMetrics
}

// NewCollector creates a metrics collector registered against the given
// registry. A nil registry gets a fresh private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "titan"
	}
	if len(cfg.DurationBuckets) == 0 {
		cfg.DurationBuckets = config.DefaultDurationBuckets
	}

	return &Collector{
		config:          cfg,
		registry:        registry,
		queueMetrics:    NewQueueMetrics(cfg, registry),
		providerMetrics: NewProviderMetrics(cfg, registry),
		routingMetrics:  NewRoutingMetrics(cfg, registry),
	}
}

// RecordEnqueue records a job admitted to the queue.
func (c *Collector) RecordEnqueue(priority queue.Priority) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.RecordEnqueue(string(priority))
}

// RecordJobOutcome records a job reaching a terminal state.
//
// processingTime is the claim-to-terminal wall clock; pass zero for jobs
// that never left QUEUED (cancelled, expired).
func (c *Collector) RecordJobOutcome(status queue.Status, priority queue.Priority, processingTime time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.RecordOutcome(string(status), string(priority), processingTime)
}

// RecordRetry records a job scheduled for another attempt after a
// transient provider failure.
func (c *Collector) RecordRetry(provider string) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.RecordRetry(provider)
}

// UpdateQueueDepth sets the current number of QUEUED jobs for a priority.
func (c *Collector) UpdateQueueDepth(priority queue.Priority, depth int64) {
	if !c.config.Enabled {
		return
	}
	c.queueMetrics.UpdateDepth(string(priority), depth)
}

// RecordGeneration records a completed provider call: latency, tokens,
// and cost, keyed by provider and model.
func (c *Collector) RecordGeneration(provider, model string, latency time.Duration, tokens int, cost float64) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordRequest(provider, model, latency)
	c.providerMetrics.RecordUsage(provider, model, tokens, cost)
}

// RecordProviderError records a failed provider call by error type
// ("auth", "rate_limit", "timeout", "server_error", ...).
func (c *Collector) RecordProviderError(provider, errorType string) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.RecordError(provider, errorType)
}

// UpdateProviderHealth publishes the current health level of a provider.
func (c *Collector) UpdateProviderHealth(provider string, level health.Level) {
	if !c.config.Enabled {
		return
	}
	c.providerMetrics.UpdateHealth(provider, level)
}

// RecordSelection records a routing decision.
func (c *Collector) RecordSelection(provider, strategy string) {
	if !c.config.Enabled {
		return
	}
	c.routingMetrics.RecordSelection(provider, strategy)
}

// RecordRoutingError records a selection failure by reason
// ("no_providers", "model_not_supported", "provider_not_found").
func (c *Collector) RecordRoutingError(reason string) {
	if !c.config.Enabled {
		return
	}
	c.routingMetrics.RecordError(reason)
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
