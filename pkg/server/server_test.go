package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mockrouting "github.com/copyforge-hq/titan/internal/routing"
	"github.com/copyforge-hq/titan/pkg/config"
	"github.com/copyforge-hq/titan/pkg/health"
	"github.com/copyforge-hq/titan/pkg/providers"
	"github.com/copyforge-hq/titan/pkg/queue"
	"github.com/copyforge-hq/titan/pkg/routing"
	"github.com/copyforge-hq/titan/pkg/routing/strategies"
	"github.com/copyforge-hq/titan/pkg/server/middleware"
)

func testServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{
			ListenAddress:   "127.0.0.1:0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     time.Minute,
			ShutdownTimeout: 5 * time.Second,
		},
		Queue: config.QueueConfig{
			MaxRetries:      3,
			JobTTL:          time.Hour,
			RetentionPeriod: 168 * time.Hour,
		},
	}

	monitor := health.NewMonitor()
	providerMap := map[string]providers.Provider{
		"openai": mockrouting.NewMockProvider("openai").WithModels("gpt-4"),
	}
	strategy, err := strategies.New("round-robin", nil, monitor)
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	balancer, err := routing.NewBalancer(providerMap, monitor, strategy)
	if err != nil {
		t.Fatalf("balancer: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(cfg, Dependencies{
		Store:     queue.NewMemoryStore(100),
		Balancer:  balancer,
		Monitor:   monitor,
		Providers: providerMap,
	}, logger)
}

func TestServer_Routes(t *testing.T) {
	handler := testServer(t).Handler()

	tests := []struct {
		name   string
		method string
		target string
		header map[string]string
		body   string
		want   int
	}{
		{"liveness", http.MethodGet, "/health", nil, "", http.StatusOK},
		{"readiness", http.MethodGet, "/ready", nil, "", http.StatusOK},
		{"provider health", http.MethodGet, "/health/providers", nil, "", http.StatusOK},
		{"provider list", http.MethodGet, "/queue/providers", nil, "", http.StatusOK},
		{"statistics", http.MethodGet, "/queue/statistics", nil, "", http.StatusOK},
		{"metrics disabled", http.MethodGet, "/metrics", nil, "", http.StatusNotFound},
		{
			"create job",
			http.MethodPost, "/queue/jobs",
			map[string]string{middleware.UserIDHeader: "user-1"},
			`{"model":"gpt-4","prompt":"hello"}`,
			http.StatusAccepted,
		},
		{
			"create without user",
			http.MethodPost, "/queue/jobs",
			nil,
			`{"model":"gpt-4","prompt":"hello"}`,
			http.StatusBadRequest,
		},
		{"unknown job", http.MethodGet, "/queue/jobs/nope", nil, "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			req := httptest.NewRequest(tt.method, tt.target, body)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestServer_RequestIDPropagates(t *testing.T) {
	handler := testServer(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("response is missing the request id header")
	}
}

func TestServer_CreateJobEndToEnd(t *testing.T) {
	handler := testServer(t).Handler()

	req := httptest.NewRequest(http.MethodPost, "/queue/jobs",
		strings.NewReader(`{"model":"gpt-4","prompt":"write copy","priority":"BATCH"}`))
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var job queue.GenerationJob
	if err := json.NewDecoder(rec.Body).Decode(&job); err != nil {
		t.Fatalf("decode: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/queue/jobs/"+job.ID, nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d: %s", rec.Code, rec.Body.String())
	}
	var fetched queue.GenerationJob
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if fetched.ID != job.ID || fetched.Status != queue.StatusQueued {
		t.Errorf("fetched %s/%s, want %s/QUEUED", fetched.ID, fetched.Status, job.ID)
	}
}
