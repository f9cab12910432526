package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/routing"
)

// StatisticsHandler serves GET /queue/statistics: job counts by status and
// priority, the current backlog, and routing statistics.
type StatisticsHandler struct {
	store    queue.Store
	balancer routing.LoadBalancer
}

// NewStatisticsHandler creates the statistics handler.
func NewStatisticsHandler(store queue.Store, balancer routing.LoadBalancer) *StatisticsHandler {
	return &StatisticsHandler{store: store, balancer: balancer}
}

// ServeHTTP implements http.Handler.
func (h *StatisticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	byStatus, err := h.store.CountByStatus(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect statistics", ErrorTypeServer, "")
		return
	}
	byPriority, err := h.store.CountByPriority(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect statistics", ErrorTypeServer, "")
		return
	}
	depth, err := h.store.QueuedDepth(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to collect statistics", ErrorTypeServer, "")
		return
	}

	response := map[string]any{
		"jobs_by_status":   byStatus,
		"jobs_by_priority": byPriority,
		"queued_depth":     depth,
		"timestamp":        time.Now().UTC(),
	}
	if h.balancer != nil {
		response["routing"] = h.balancer.GetStats()
	}

	writeJSON(w, http.StatusOK, response)
}

// CleanupHandler serves POST /queue/cleanup: deletes terminal jobs older
// than the retention window. An older_than_hours query parameter overrides
// the configured retention for one run.
type CleanupHandler struct {
	store     queue.Store
	retention time.Duration
	logger    *slog.Logger
}

// NewCleanupHandler creates the cleanup handler.
func NewCleanupHandler(store queue.Store, retention time.Duration, logger *slog.Logger) *CleanupHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CleanupHandler{store: store, retention: retention, logger: logger.With("component", "api")}
}

// ServeHTTP implements http.Handler.
func (h *CleanupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	retention := h.retention
	if hours := queryInt(r, "older_than_hours", 0); hours > 0 {
		retention = time.Duration(hours) * time.Hour
	}

	olderThan := time.Now().Add(-retention)
	removed, err := h.store.Cleanup(r.Context(), olderThan)
	if err != nil {
		h.logger.Error("cleanup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "cleanup failed", ErrorTypeServer, "")
		return
	}

	h.logger.Info("cleanup completed", "removed", removed, "older_than", olderThan)
	writeJSON(w, http.StatusOK, map[string]any{
		"removed":    removed,
		"older_than": olderThan.UTC(),
	})
}
