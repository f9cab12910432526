package handlers

import (
	"net/http"
	"time"

	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/queue"
)

// HealthHandler handles health check requests for liveness probes.
type HealthHandler struct{}

// NewHealthHandler creates a new liveness handler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// ServeHTTP implements http.Handler for liveness checks.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// ReadyHandler handles readiness check requests. The service is ready
// when the job store answers and at least one provider is available to
// take traffic.
type ReadyHandler struct {
	store     queue.Store
	monitor   *health.Monitor
	providers []string
}

// NewReadyHandler creates a new readiness handler over the given
// provider names.
func NewReadyHandler(store queue.Store, monitor *health.Monitor, providerNames []string) *ReadyHandler {
	return &ReadyHandler{store: store, monitor: monitor, providers: providerNames}
}

// ServeHTTP implements http.Handler for readiness checks.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.CountByStatus(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "store unavailable",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	available := h.monitor.Available(h.providers)
	if len(available) == 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":    "not_ready",
			"reason":    "no providers available",
			"timestamp": time.Now().Unix(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
		"providers": map[string]any{
			"available":  len(available),
			"configured": len(h.providers),
		},
		"timestamp": time.Now().Unix(),
	})
}

// ProviderHealthHandler reports the detailed health snapshot of every
// monitored provider.
type ProviderHealthHandler struct {
	monitor *health.Monitor
}

// NewProviderHealthHandler creates a new provider health handler.
func NewProviderHealthHandler(monitor *health.Monitor) *ProviderHealthHandler {
	return &ProviderHealthHandler{monitor: monitor}
}

// ServeHTTP implements http.Handler for detailed provider health.
func (h *ProviderHealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snapshots := h.monitor.Snapshots()

	byProvider := make(map[string]health.Snapshot, len(snapshots))
	for _, snap := range snapshots {
		byProvider[snap.Provider] = snap
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"providers": byProvider,
		"timestamp": time.Now().Unix(),
	})
}
