package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads configuration from a YAML file at the specified path.
// It applies default values, expands ${ENV_VAR} references in provider API
// keys, validates the configuration, and returns any errors.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)
	expandAPIKeys(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention TITAN_SECTION_FIELD (e.g., TITAN_SERVER_LISTEN_ADDRESS) and
// always take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file (applies defaults)
//  2. Apply environment variable overrides
//  3. Re-validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables use the format TITAN_SECTION_FIELD.
func applyEnvOverrides(cfg *Config) {
	// Server overrides
	if val := os.Getenv("TITAN_SERVER_LISTEN_ADDRESS"); val != "" {
		cfg.Server.ListenAddress = val
	}
	if val := os.Getenv("TITAN_SERVER_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if val := os.Getenv("TITAN_SERVER_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}
	if val := os.Getenv("TITAN_SERVER_SHUTDOWN_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Server.ShutdownTimeout = d
		}
	}

	// Queue overrides
	if val := os.Getenv("TITAN_QUEUE_DB_PATH"); val != "" {
		cfg.Queue.DBPath = val
	}
	if val := os.Getenv("TITAN_QUEUE_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Queue.Workers = n
		}
	}
	if val := os.Getenv("TITAN_QUEUE_MAX_RETRIES"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Queue.MaxRetries = n
		}
	}
	if val := os.Getenv("TITAN_QUEUE_BACKOFF_BASE"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Queue.BackoffBase = d
		}
	}
	if val := os.Getenv("TITAN_QUEUE_JOB_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Queue.JobTTL = d
		}
	}
	if val := os.Getenv("TITAN_QUEUE_MAX_QUEUE_DEPTH"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Queue.MaxQueueDepth = n
		}
	}

	// Routing overrides
	if val := os.Getenv("TITAN_ROUTING_STRATEGY"); val != "" {
		cfg.Routing.Strategy = val
	}

	// Telemetry overrides
	if val := os.Getenv("TITAN_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TITAN_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}

	// Per-provider API key overrides: TITAN_PROVIDER_<NAME>_API_KEY
	for name, pc := range cfg.Providers {
		envName := "TITAN_PROVIDER_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_API_KEY"
		if val := os.Getenv(envName); val != "" {
			pc.APIKey = val
			cfg.Providers[name] = pc
		}
	}
}

// expandAPIKeys expands ${ENV_VAR} references in provider API keys so that
// secrets can stay out of the config file.
func expandAPIKeys(cfg *Config) {
	for name, pc := range cfg.Providers {
		if strings.HasPrefix(pc.APIKey, "${") && strings.HasSuffix(pc.APIKey, "}") {
			envName := strings.TrimSuffix(strings.TrimPrefix(pc.APIKey, "${"), "}")
			pc.APIKey = os.Getenv(envName)
			cfg.Providers[name] = pc
		}
	}
}
