package config

import "time"

// Config is the root configuration structure for Titan.
// It contains all configuration sections for the HTTP server, job queue,
// providers, routing, and telemetry settings.
type Config struct {
	// Server contains HTTP server configuration including listen address
	// and timeouts.
	Server ServerConfig `yaml:"server"`

	// Queue contains configuration for the job store and dispatcher,
	// including worker pool size, retry policy, and expiry.
	Queue QueueConfig `yaml:"queue"`

	// Providers contains configuration for all generation provider
	// integrations. Keys are provider names (e.g., "openai", "anthropic").
	Providers map[string]ProviderConfig `yaml:"providers"`

	// Routing contains configuration for provider selection including
	// strategy and per-provider weights. This section is hot-reloadable.
	Routing RoutingConfig `yaml:"routing"`

	// Telemetry contains configuration for logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request
	// when keep-alives are enabled. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// QueueConfig contains configuration for the job store and dispatcher.
type QueueConfig struct {
	// DBPath is the path to the SQLite job database.
	// Default: "titan-jobs.db"
	DBPath string `yaml:"db_path"`

	// Workers is the number of dispatcher workers. This bounds how many
	// simultaneous outbound provider calls can be in flight.
	// Default: 4
	Workers int `yaml:"workers"`

	// PollInterval is how long a worker waits before re-polling when no
	// eligible job is available. Default: 500ms
	PollInterval time.Duration `yaml:"poll_interval"`

	// MaxRetries is the default retry budget for a job when the request
	// does not specify one. Must be in [0, 10]. Default: 3
	MaxRetries int `yaml:"max_retries"`

	// BackoffBase is the base delay for the exponential retry backoff
	// (nextRetryAt = now + base * 2^retryCount). Default: 5s
	BackoffBase time.Duration `yaml:"backoff_base"`

	// JobTTL is how long a job may wait in QUEUED before it is marked
	// EXPIRED. Default: 1h
	JobTTL time.Duration `yaml:"job_ttl"`

	// MaxQueueDepth is the maximum number of QUEUED jobs before new
	// admissions are rejected. Zero disables the check. Default: 10000
	MaxQueueDepth int `yaml:"max_queue_depth"`

	// SweepInterval is how often QUEUED jobs are swept for expiry.
	// Default: 30s
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// CleanupSchedule is a cron expression for the retention cleanup of
	// terminal jobs (e.g., "0 3 * * *" for daily at 3 AM). Empty disables
	// scheduled cleanup; the administrative endpoint still works.
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// RetentionPeriod is how long terminal jobs are kept before cleanup
	// removes them. Default: 168h (7 days)
	RetentionPeriod time.Duration `yaml:"retention_period"`

	// ProviderTimeout is the per-call timeout applied to provider
	// invocations from the dispatcher. Default: 120s
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
}

// ProviderConfig contains configuration for a single generation provider.
type ProviderConfig struct {
	// Type is the adapter type: "openai", "anthropic", or "generic".
	Type string `yaml:"type"`

	// BaseURL is the base URL for the provider's API endpoint.
	// Example: "https://api.openai.com/v1"
	BaseURL string `yaml:"base_url"`

	// APIKey is the authentication key. Supports ${ENV_VAR} expansion.
	APIKey string `yaml:"api_key"`

	// Models lists the models this provider can serve. An empty list means
	// the provider accepts any model.
	Models []string `yaml:"models"`

	// MaxTokens is the largest completion the provider accepts. Zero means
	// no adapter-side limit.
	MaxTokens int `yaml:"max_tokens"`

	// CostPerToken is the blended cost per token in USD, used by the
	// cheapest-provider reducer and job cost accounting.
	CostPerToken float64 `yaml:"cost_per_token"`

	// Timeout is the HTTP request timeout. Default: 120s
	Timeout time.Duration `yaml:"timeout"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	// Default: 100
	MaxIdleConns int `yaml:"max_idle_conns"`

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int `yaml:"max_idle_conns_per_host"`

	// IdleConnTimeout is how long an idle connection remains in the pool.
	// Default: 90s
	IdleConnTimeout time.Duration `yaml:"idle_conn_timeout"`
}

// RoutingConfig contains configuration for provider selection.
type RoutingConfig struct {
	// Strategy selects the automatic routing strategy.
	// Values: "round-robin", "weighted", "performance-based".
	// Default: "round-robin"
	Strategy string `yaml:"strategy"`

	// Weights maps provider names to selection weights for the weighted
	// strategy. Weights are non-negative and need not sum to 1; they are
	// normalized at selection time. A missing provider defaults to 1/N;
	// an explicit 0 drains the provider.
	Weights map[string]float64 `yaml:"weights"`

	// HealthCacheTTL is how long a computed provider health level is cached
	// before recomputation. Default: 30s
	HealthCacheTTL time.Duration `yaml:"health_cache_ttl"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains structured logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains Prometheus metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig contains structured logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format: "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`
}

// MetricsConfig contains Prometheus metrics configuration.
type MetricsConfig struct {
	// Enabled controls whether the /metrics endpoint is exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace. Default: "titan"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are the histogram buckets (in seconds) for
	// processing and provider latency histograms.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// Routing strategy names accepted by RoutingConfig.Strategy.
const (
	StrategyRoundRobin       = "round-robin"
	StrategyWeighted         = "weighted"
	StrategyPerformanceBased = "performance-based"
)
