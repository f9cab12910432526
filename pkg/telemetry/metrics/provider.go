package metrics

import (
	"time"

	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"

	"github.com/prometheus/client_golang/prometheus"
)

// ProviderMetrics tracks provider health and performance.
//
// Metrics:
//   - titan_provider_health: health level (3=healthy, 2=degraded, 1=unhealthy, 0=down)
//   - titan_provider_latency_seconds: provider API call latency
//   - titan_provider_errors_total: provider errors by type
//   - titan_provider_requests_total: successful calls per provider and model
//   - titan_provider_tokens_total: tokens consumed per provider and model
//   - titan_provider_cost_usd_total: estimated spend per provider and model
type ProviderMetrics struct {
	health   *prometheus.GaugeVec
	latency  *prometheus.HistogramVec
	errors   *prometheus.CounterVec
	requests *prometheus.CounterVec
	tokens   *prometheus.CounterVec
	cost     *prometheus.CounterVec
}

// NewProviderMetrics creates and registers provider metrics with the registry.
func NewProviderMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ProviderMetrics {
	pm := &ProviderMetrics{
		health: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_health",
				Help:      "Provider health level (3=healthy, 2=degraded, 1=unhealthy, 0=down)",
			},
			[]string{"provider"},
		),

		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_latency_seconds",
				Help:      "Provider API call latency in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"provider", "model"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_errors_total",
				Help:      "Total number of provider errors by type",
			},
			[]string{"provider", "error_type"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_requests_total",
				Help:      "Total number of successful provider calls",
			},
			[]string{"provider", "model"},
		),

		tokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_tokens_total",
				Help:      "Total tokens consumed, prompt plus completion",
			},
			[]string{"provider", "model"},
		),

		cost: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "provider_cost_usd_total",
				Help:      "Estimated generation spend in USD",
			},
			[]string{"provider", "model"},
		),
	}

	registry.MustRegister(
		pm.health,
		pm.latency,
		pm.errors,
		pm.requests,
		pm.tokens,
		pm.cost,
	)

	return pm
}

// UpdateHealth publishes a provider's health level as a gauge.
func (pm *ProviderMetrics) UpdateHealth(provider string, level health.Level) {
	var value float64
	switch level {
	case health.LevelHealthy:
		value = 3
	case health.LevelDegraded:
		value = 2
	case health.LevelUnhealthy:
		value = 1
	case health.LevelDown:
		value = 0
	}
	pm.health.WithLabelValues(provider).Set(value)
}

// RecordRequest counts a successful call and observes its latency.
func (pm *ProviderMetrics) RecordRequest(provider, model string, latency time.Duration) {
	pm.requests.WithLabelValues(provider, model).Inc()
	pm.latency.WithLabelValues(provider, model).Observe(latency.Seconds())
}

// RecordUsage accumulates token and cost counters for a call.
func (pm *ProviderMetrics) RecordUsage(provider, model string, tokens int, cost float64) {
	if tokens > 0 {
		pm.tokens.WithLabelValues(provider, model).Add(float64(tokens))
	}
	if cost > 0 {
		pm.cost.WithLabelValues(provider, model).Add(cost)
	}
}

// RecordError counts a provider failure by error type.
func (pm *ProviderMetrics) RecordError(provider, errorType string) {
	pm.errors.WithLabelValues(provider, errorType).Inc()
}
