package metrics

import (
	"github.com/copyforge-hq/titan/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// RoutingMetrics tracks provider selection.
//
// Metrics:
//   - titan_routing_selections_total: selections by provider and strategy
//   - titan_routing_errors_total: selection failures by reason
type RoutingMetrics struct {
	selections *prometheus.CounterVec
	errors     *prometheus.CounterVec
}

// NewRoutingMetrics creates and registers routing metrics with the registry.
func NewRoutingMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *RoutingMetrics {
	rm := &RoutingMetrics{
		selections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "routing_selections_total",
				Help:      "Total provider selections by strategy",
			},
			[]string{"provider", "strategy"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "routing_errors_total",
				Help:      "Total selection failures by reason",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(rm.selections, rm.errors)

	return rm
}

// RecordSelection counts a routing decision.
func (rm *RoutingMetrics) RecordSelection(provider, strategy string) {
	rm.selections.WithLabelValues(provider, strategy).Inc()
}

// RecordError counts a selection failure.
func (rm *RoutingMetrics) RecordError(reason string) {
	rm.errors.WithLabelValues(reason).Inc()
}
