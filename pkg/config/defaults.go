package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Queue defaults
	DefaultDBPath          = "titan-jobs.db"
	DefaultWorkers         = 4
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultMaxRetries      = 3
	DefaultBackoffBase     = 5 * time.Second
	DefaultJobTTL          = time.Hour
	DefaultMaxQueueDepth   = 10000
	DefaultSweepInterval   = 30 * time.Second
	DefaultRetentionPeriod = 7 * 24 * time.Hour
	DefaultProviderTimeout = 120 * time.Second

	// Provider defaults
	DefaultProviderHTTPTimeout = 120 * time.Second
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second

	// Routing defaults
	DefaultStrategy       = StrategyRoundRobin
	DefaultHealthCacheTTL = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsNamespace = "titan"
)

// DefaultDurationBuckets are the default histogram buckets in seconds for
// processing-time and provider-latency histograms. Generation calls are
// slow compared to typical HTTP traffic, so the buckets skew high.
var DefaultDurationBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// ApplyDefaults fills in default values for any unset configuration fields.
// It modifies the config in place.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Queue defaults
	if cfg.Queue.DBPath == "" {
		cfg.Queue.DBPath = DefaultDBPath
	}
	if cfg.Queue.Workers == 0 {
		cfg.Queue.Workers = DefaultWorkers
	}
	if cfg.Queue.PollInterval == 0 {
		cfg.Queue.PollInterval = DefaultPollInterval
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = DefaultMaxRetries
	}
	if cfg.Queue.BackoffBase == 0 {
		cfg.Queue.BackoffBase = DefaultBackoffBase
	}
	if cfg.Queue.JobTTL == 0 {
		cfg.Queue.JobTTL = DefaultJobTTL
	}
	if cfg.Queue.MaxQueueDepth == 0 {
		cfg.Queue.MaxQueueDepth = DefaultMaxQueueDepth
	}
	if cfg.Queue.SweepInterval == 0 {
		cfg.Queue.SweepInterval = DefaultSweepInterval
	}
	if cfg.Queue.RetentionPeriod == 0 {
		cfg.Queue.RetentionPeriod = DefaultRetentionPeriod
	}
	if cfg.Queue.ProviderTimeout == 0 {
		cfg.Queue.ProviderTimeout = DefaultProviderTimeout
	}

	// Provider defaults
	for name, pc := range cfg.Providers {
		if pc.Timeout == 0 {
			pc.Timeout = DefaultProviderHTTPTimeout
		}
		if pc.MaxIdleConns == 0 {
			pc.MaxIdleConns = DefaultMaxIdleConns
		}
		if pc.MaxIdleConnsPerHost == 0 {
			pc.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
		}
		if pc.IdleConnTimeout == 0 {
			pc.IdleConnTimeout = DefaultIdleConnTimeout
		}
		cfg.Providers[name] = pc
	}

	// Routing defaults
	if cfg.Routing.Strategy == "" {
		cfg.Routing.Strategy = DefaultStrategy
	}
	if cfg.Routing.HealthCacheTTL == 0 {
		cfg.Routing.HealthCacheTTL = DefaultHealthCacheTTL
	}

	// Telemetry defaults
	if !cfg.Telemetry.Metrics.Enabled {
		// If no metrics fields are set at all, the section was omitted and
		// the default (enabled) applies. An explicit enabled:false alongside
		// other metrics settings is respected.
		hasAnyConfig := cfg.Telemetry.Metrics.Namespace != "" ||
			len(cfg.Telemetry.Metrics.DurationBuckets) > 0
		if !hasAnyConfig {
			cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
		}
	}
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.DurationBuckets == nil {
		cfg.Telemetry.Metrics.DurationBuckets = DefaultDurationBuckets
	}
}
