package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	mockrouting "github.com/copyforge-hq/titan/internal/routing"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/notify"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/server/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// jobsMux mounts the jobs handler behind the user-id middleware with the
// same route patterns the server registers.
func jobsMux(h *JobsHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /queue/jobs", h.Create)
	mux.HandleFunc("GET /queue/jobs", h.List)
	mux.HandleFunc("GET /queue/jobs/{id}", h.Get)
	mux.HandleFunc("DELETE /queue/jobs/{id}", h.Cancel)
	return middleware.UserID(mux)
}

func newJobsHandler(maxDepth int) (*JobsHandler, *queue.MemoryStore) {
	store := queue.NewMemoryStore(maxDepth)
	h := NewJobsHandler(store, nil, nil, time.Hour, 3, testLogger())
	return h, store
}

func createBody(t *testing.T, req CreateJobRequest) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	return bytes.NewReader(raw)
}

func doRequest(h http.Handler, method, target, userID string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if userID != "" {
		req.Header.Set(middleware.UserIDHeader, userID)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeJob(t *testing.T, rec *httptest.ResponseRecorder) *queue.GenerationJob {
	t.Helper()
	var job queue.GenerationJob
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode job: %v", err)
	}
	return &job
}

func TestJobsHandler_Create(t *testing.T) {
	h, _ := newJobsHandler(10)
	mux := jobsMux(h)

	body := createBody(t, CreateJobRequest{
		Model:    "gpt-4",
		Prompt:   "write a tagline for a coffee brand",
		Priority: "PREMIUM",
	})
	rec := doRequest(mux, http.MethodPost, "/queue/jobs", "user-1", body)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusAccepted, rec.Body.String())
	}

	job := decodeJob(t, rec)
	if job.ID == "" {
		t.Error("job id is empty")
	}
	if job.Status != queue.StatusQueued {
		t.Errorf("status = %s, want %s", job.Status, queue.StatusQueued)
	}
	if job.Priority != queue.PriorityPremium {
		t.Errorf("priority = %s, want %s", job.Priority, queue.PriorityPremium)
	}
	if job.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", job.MaxRetries)
	}

	var params providers.GenerationRequest
	if err := json.Unmarshal([]byte(job.RequestParams), &params); err != nil {
		t.Fatalf("request params are not valid JSON: %v", err)
	}
	if params.Prompt != "write a tagline for a coffee brand" {
		t.Errorf("prompt round-trip = %q", params.Prompt)
	}
}

func TestJobsHandler_CreateValidation(t *testing.T) {
	h, _ := newJobsHandler(10)
	mux := jobsMux(h)

	tests := []struct {
		name   string
		userID string
		body   string
		code   string
	}{
		{"missing user", "", `{"model":"gpt-4","prompt":"hi"}`, "missing_user"},
		{"invalid json", "user-1", `{not json`, "invalid_json"},
		{"missing prompt", "user-1", `{"model":"gpt-4"}`, "missing_prompt"},
		{"missing model", "user-1", `{"prompt":"hi"}`, "missing_model"},
		{"invalid priority", "user-1", `{"model":"gpt-4","prompt":"hi","priority":"URGENT"}`, "invalid_priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(mux, http.MethodPost, "/queue/jobs", tt.userID, strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if resp.Error.Code != tt.code {
				t.Errorf("error code = %q, want %q", resp.Error.Code, tt.code)
			}
		})
	}
}

func TestJobsHandler_CreateSaturated(t *testing.T) {
	h, _ := newJobsHandler(1)
	mux := jobsMux(h)

	body := createBody(t, CreateJobRequest{Model: "gpt-4", Prompt: "first"})
	if rec := doRequest(mux, http.MethodPost, "/queue/jobs", "user-1", body); rec.Code != http.StatusAccepted {
		t.Fatalf("first create status = %d", rec.Code)
	}

	body = createBody(t, CreateJobRequest{Model: "gpt-4", Prompt: "second"})
	rec := doRequest(mux, http.MethodPost, "/queue/jobs", "user-1", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Error.Type != ErrorTypeSaturated {
		t.Errorf("error type = %q, want %q", resp.Error.Type, ErrorTypeSaturated)
	}
}

func TestJobsHandler_GetNotFound(t *testing.T) {
	h, _ := newJobsHandler(10)
	mux := jobsMux(h)

	rec := doRequest(mux, http.MethodGet, "/queue/jobs/nope", "user-1", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestJobsHandler_CancelQueued(t *testing.T) {
	h, store := newJobsHandler(10)
	mux := jobsMux(h)

	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	rec := doRequest(mux, http.MethodDelete, "/queue/jobs/"+job.ID, "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if got := decodeJob(t, rec); got.Status != queue.StatusCancelled {
		t.Errorf("status = %s, want %s", got.Status, queue.StatusCancelled)
	}
}

func TestJobsHandler_CancelProcessingIsAdvisory(t *testing.T) {
	h, store := newJobsHandler(10)
	mux := jobsMux(h)

	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.Claim(context.Background()); err != nil {
		t.Fatalf("claim: %v", err)
	}

	rec := doRequest(mux, http.MethodDelete, "/queue/jobs/"+job.ID, "user-1", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	got := decodeJob(t, rec)
	if got.Status != queue.StatusProcessing {
		t.Errorf("status = %s, want %s", got.Status, queue.StatusProcessing)
	}
	if !got.CancelRequested {
		t.Error("cancel_requested not set")
	}
}

func TestJobsHandler_CancelTerminalConflicts(t *testing.T) {
	h, store := newJobsHandler(10)
	mux := jobsMux(h)

	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.Claim(context.Background()); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.Complete(context.Background(), job.ID, queue.CompletionResult{
		Provider: "openai",
		Model:    "gpt-4",
		Content:  "done",
	}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	rec := doRequest(mux, http.MethodDelete, "/queue/jobs/"+job.ID, "user-1", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestJobsHandler_ListScopedToUser(t *testing.T) {
	h, store := newJobsHandler(10)
	mux := jobsMux(h)

	for i, user := range []string{"user-1", "user-1", "user-2"} {
		job := queue.NewJob(user, "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
		if err := store.Enqueue(context.Background(), job); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}

	rec := doRequest(mux, http.MethodGet, "/queue/jobs?limit=10", "user-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Jobs   []*queue.GenerationJob `json:"jobs"`
		Limit  int                    `json:"limit"`
		Offset int                    `json:"offset"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Jobs) != 2 {
		t.Errorf("jobs = %d, want 2", len(resp.Jobs))
	}
	if resp.Limit != 10 || resp.Offset != 0 {
		t.Errorf("limit/offset = %d/%d, want 10/0", resp.Limit, resp.Offset)
	}

	rec = doRequest(mux, http.MethodGet, "/queue/jobs", "unknown", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"jobs":[]`) {
		t.Errorf("empty list should encode as [], got %s", rec.Body.String())
	}
}

func TestStatisticsHandler(t *testing.T) {
	store := queue.NewMemoryStore(10)
	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityPremium, 3, time.Hour)
	if err := store.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	h := NewStatisticsHandler(store, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/queue/statistics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		ByStatus map[queue.Status]int64   `json:"jobs_by_status"`
		Depth    map[queue.Priority]int64 `json:"queued_depth"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ByStatus[queue.StatusQueued] != 1 {
		t.Errorf("queued count = %d, want 1", resp.ByStatus[queue.StatusQueued])
	}
	if resp.Depth[queue.PriorityPremium] != 1 {
		t.Errorf("premium depth = %d, want 1", resp.Depth[queue.PriorityPremium])
	}
}

func TestCleanupHandler(t *testing.T) {
	store := queue.NewMemoryStore(10)
	ctx := context.Background()

	job := queue.NewJob("user-1", "{}", "gpt-4", queue.PriorityStandard, 3, time.Hour)
	if err := store.Enqueue(ctx, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := store.Claim(ctx); err != nil {
		t.Fatalf("claim: %v", err)
	}
	if err := store.Complete(ctx, job.ID, queue.CompletionResult{Provider: "openai", Model: "gpt-4", Content: "x"}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// A retention of zero hours falls back to the configured window, so
	// force an immediate sweep with a tiny configured retention instead.
	h := NewCleanupHandler(store, time.Nanosecond, testLogger())
	time.Sleep(5 * time.Millisecond)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/queue/cleanup", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Removed int64 `json:"removed"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Removed != 1 {
		t.Errorf("removed = %d, want 1", resp.Removed)
	}
}

func TestProvidersHandler_List(t *testing.T) {
	monitor := health.NewMonitor()
	provs := map[string]providers.Provider{
		"openai":    mockrouting.NewMockProvider("openai").WithModels("gpt-4"),
		"anthropic": mockrouting.NewMockProvider("anthropic").WithModels("claude-3-opus"),
	}
	h := NewProvidersHandler(provs, monitor)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/queue/providers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Providers []providerView `json:"providers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Providers) != 2 {
		t.Fatalf("providers = %d, want 2", len(resp.Providers))
	}
	// Name order is deterministic.
	if resp.Providers[0].Name != "anthropic" || resp.Providers[1].Name != "openai" {
		t.Errorf("order = %s, %s", resp.Providers[0].Name, resp.Providers[1].Name)
	}
	if resp.Providers[0].Health.Level != health.LevelHealthy {
		t.Errorf("fresh provider level = %s, want healthy", resp.Providers[0].Health.Level)
	}
}

func TestProvidersHandler_Recommend(t *testing.T) {
	monitor := health.NewMonitor()
	provs := map[string]providers.Provider{
		"expensive": mockrouting.NewMockProvider("expensive").WithModels("gpt-4").WithCostPerToken(0.01),
		"cheap":     mockrouting.NewMockProvider("cheap").WithModels("gpt-4").WithCostPerToken(0.0001),
	}
	h := NewProvidersHandler(provs, monitor)

	rec := httptest.NewRecorder()
	h.Recommend(rec, httptest.NewRequest(http.MethodGet, "/queue/providers/recommend?by=cheapest", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Provider string `json:"provider"`
		By       string `json:"by"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Provider != "cheap" {
		t.Errorf("provider = %q, want cheap", resp.Provider)
	}

	rec = httptest.NewRecorder()
	h.Recommend(rec, httptest.NewRequest(http.MethodGet, "/queue/providers/recommend?by=alphabetical", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown criterion status = %d, want 400", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Recommend(rec, httptest.NewRequest(http.MethodGet, "/queue/providers/recommend?model=mistral-large", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unsupported model status = %d, want 404", rec.Code)
	}
}

func TestHealthHandlers(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness status = %d, want 200", rec.Code)
	}

	store := queue.NewMemoryStore(10)
	monitor := health.NewMonitor(health.WithCacheTTL(0))
	ready := NewReadyHandler(store, monitor, []string{"openai"})

	rec = httptest.NewRecorder()
	ready.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	// Five consecutive failures take the only provider down.
	for i := 0; i < 5; i++ {
		monitor.Record("openai", false, time.Millisecond)
	}
	rec = httptest.NewRecorder()
	ready.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "no providers available") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestEventsHandler_StreamsEvents(t *testing.T) {
	broker := notify.NewBroker(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	broker.Start(ctx)
	defer broker.Stop()

	mux := http.NewServeMux()
	mux.Handle("GET /queue/jobs/ws", NewEventsHandler(broker, testLogger()))
	srv := httptest.NewServer(mux)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/queue/jobs/ws?job_id=job-1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for broker.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	broker.Notify(ctx, "job-2", queue.StatusCompleted, nil)
	broker.Notify(ctx, "job-1", queue.StatusCompleted, nil)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event notify.Event
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if event.JobID != "job-1" {
		t.Errorf("job id = %q, want job-1 (filter should drop job-2)", event.JobID)
	}
	if event.Status != queue.StatusCompleted {
		t.Errorf("status = %s, want %s", event.Status, queue.StatusCompleted)
	}
}
