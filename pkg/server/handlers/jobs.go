package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/server/middleware"
	"github.com/copyforge-hq/titan/pkg/telemetry/metrics"
)

// JobsHandler serves the job lifecycle endpoints.
type JobsHandler struct {
	store     queue.Store
	publisher notify.Publisher
	collector *metrics.Collector
	logger    *slog.Logger

	jobTTL            time.Duration
	defaultMaxRetries int
}

// NewJobsHandler creates the job lifecycle handler. The collector may be
// nil; a nil publisher defaults to NopPublisher.
func NewJobsHandler(
	store queue.Store,
	publisher notify.Publisher,
	collector *metrics.Collector,
	jobTTL time.Duration,
	defaultMaxRetries int,
	logger *slog.Logger,
) *JobsHandler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobsHandler{
		store:             store,
		publisher:         publisher,
		collector:         collector,
		logger:            logger.With("component", "api"),
		jobTTL:            jobTTL,
		defaultMaxRetries: defaultMaxRetries,
	}
}

// Create handles POST /queue/jobs. Admission returns 202 with the queued
// job; the generation itself happens asynchronously.
func (h *JobsHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required", ErrorTypeInvalidRequest, "missing_user")
		return
	}

	var req CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), ErrorTypeInvalidRequest, "invalid_json")
		return
	}

	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required", ErrorTypeInvalidRequest, "missing_prompt")
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required", ErrorTypeInvalidRequest, "missing_model")
		return
	}

	priority := queue.PriorityStandard
	if req.Priority != "" {
		priority = queue.Priority(req.Priority)
		if !priority.Valid() {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("invalid priority %q: must be PREMIUM, STANDARD, or BATCH", req.Priority),
				ErrorTypeInvalidRequest, "invalid_priority")
			return
		}
	}

	maxRetries := h.defaultMaxRetries
	if req.MaxRetries != nil {
		maxRetries = *req.MaxRetries
	}

	params, err := json.Marshal(providers.GenerationRequest{
		Model:        req.Model,
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		MaxTokens:    req.MaxTokens,
		Temperature:  req.Temperature,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode request params", ErrorTypeServer, "")
		return
	}

	job := queue.NewJob(userID, string(params), req.Model, priority, maxRetries, h.jobTTL)
	if err := job.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), ErrorTypeInvalidRequest, "invalid_job")
		return
	}

	if err := h.store.Enqueue(r.Context(), job); err != nil {
		if errors.Is(err, queue.ErrQueueSaturated) {
			writeError(w, http.StatusTooManyRequests, "queue is at capacity, try again later", ErrorTypeSaturated, "")
			return
		}
		h.logger.Error("enqueue failed", "error", err, "user_id", userID)
		writeError(w, http.StatusInternalServerError, "failed to enqueue job", ErrorTypeServer, "")
		return
	}

	if h.collector != nil {
		h.collector.RecordEnqueue(job.Priority)
	}
	h.logger.Info("job enqueued",
		"job_id", job.ID, "user_id", userID, "model", job.Model, "priority", job.Priority)

	writeJSON(w, http.StatusAccepted, job)
}

// Get handles GET /queue/jobs/{id}.
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request) {
	job, ok := h.fetch(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// Cancel handles DELETE /queue/jobs/{id}. A QUEUED job is cancelled
// immediately; for a PROCESSING job cancellation is advisory: the flag is
// set and the worker discards the result after the in-flight provider call
// returns. Terminal jobs return 409.
func (h *JobsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job, ok := h.fetch(w, r)
	if !ok {
		return
	}

	switch {
	case job.Status == queue.StatusQueued:
		if err := h.store.Cancel(r.Context(), job.ID); err != nil {
			if errors.Is(err, queue.ErrInvalidTransition) {
				// Lost the race with a claim or expiry; report the
				// current state.
				writeError(w, http.StatusConflict, "job state changed, retry the cancellation", ErrorTypeConflict, "")
				return
			}
			h.logger.Error("cancel failed", "job_id", job.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to cancel job", ErrorTypeServer, "")
			return
		}
		if h.collector != nil {
			h.collector.RecordJobOutcome(queue.StatusCancelled, job.Priority, 0)
		}
		h.publisher.Notify(r.Context(), job.ID, queue.StatusCancelled, nil)

		updated, err := h.store.Get(r.Context(), job.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load job", ErrorTypeServer, "")
			return
		}
		writeJSON(w, http.StatusOK, updated)

	case job.Status == queue.StatusProcessing:
		if err := h.store.RequestCancel(r.Context(), job.ID); err != nil && !errors.Is(err, queue.ErrInvalidTransition) {
			h.logger.Error("cancel request failed", "job_id", job.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to request cancellation", ErrorTypeServer, "")
			return
		}
		updated, err := h.store.Get(r.Context(), job.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load job", ErrorTypeServer, "")
			return
		}
		writeJSON(w, http.StatusAccepted, updated)

	default:
		writeError(w, http.StatusConflict,
			fmt.Sprintf("job is already %s", job.Status), ErrorTypeConflict, "terminal_state")
	}
}

// List handles GET /queue/jobs, scoped to the calling user.
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		writeError(w, http.StatusBadRequest, "X-User-ID header is required", ErrorTypeInvalidRequest, "missing_user")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	jobs, err := h.store.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		h.logger.Error("list failed", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list jobs", ErrorTypeServer, "")
		return
	}
	if jobs == nil {
		jobs = []*queue.GenerationJob{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"jobs":   jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *JobsHandler) fetch(w http.ResponseWriter, r *http.Request) (*queue.GenerationJob, bool) {
	jobID := r.PathValue("id")
	job, err := h.store.Get(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", jobID), ErrorTypeNotFound, "")
			return nil, false
		}
		h.logger.Error("get failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load job", ErrorTypeServer, "")
		return nil, false
	}
	return job, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
