package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

const validConfigYAML = `
server:
  listen_address: "127.0.0.1:9090"
queue:
  workers: 8
  max_retries: 2
providers:
  openai:
    type: openai
    base_url: https://api.openai.com/v1
    api_key: test-key
    cost_per_token: 0.00003
  anthropic:
    type: anthropic
    base_url: https://api.anthropic.com
    api_key: test-key
routing:
  strategy: weighted
  weights:
    openai: 0.8
    anthropic: 0.2
`

func TestLoad_Valid(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9090" {
		t.Errorf("ListenAddress = %q, want 127.0.0.1:9090", cfg.Server.ListenAddress)
	}
	if cfg.Queue.Workers != 8 {
		t.Errorf("Workers = %d, want 8", cfg.Queue.Workers)
	}
	if cfg.Routing.Strategy != StrategyWeighted {
		t.Errorf("Strategy = %q, want %q", cfg.Routing.Strategy, StrategyWeighted)
	}
	if len(cfg.Providers) != 2 {
		t.Errorf("len(Providers) = %d, want 2", len(cfg.Providers))
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
providers:
  local:
    type: generic
    base_url: http://localhost:11434/v1
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q, want default %q", cfg.Server.ListenAddress, DefaultListenAddress)
	}
	if cfg.Queue.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want default %d", cfg.Queue.Workers, DefaultWorkers)
	}
	if cfg.Queue.BackoffBase != DefaultBackoffBase {
		t.Errorf("BackoffBase = %v, want default %v", cfg.Queue.BackoffBase, DefaultBackoffBase)
	}
	if cfg.Routing.Strategy != StrategyRoundRobin {
		t.Errorf("Strategy = %q, want default %q", cfg.Routing.Strategy, StrategyRoundRobin)
	}
	if cfg.Routing.HealthCacheTTL != DefaultHealthCacheTTL {
		t.Errorf("HealthCacheTTL = %v, want default %v", cfg.Routing.HealthCacheTTL, DefaultHealthCacheTTL)
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics.Enabled should default to true")
	}

	local := cfg.Providers["local"]
	if local.Timeout != DefaultProviderHTTPTimeout {
		t.Errorf("provider Timeout = %v, want default %v", local.Timeout, DefaultProviderHTTPTimeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("Load() should fail for missing file")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name: "no providers",
			mutate: func(cfg *Config) {
				cfg.Providers = nil
			},
		},
		{
			name: "bad provider type",
			mutate: func(cfg *Config) {
				pc := cfg.Providers["openai"]
				pc.Type = "carrier-pigeon"
				cfg.Providers["openai"] = pc
			},
		},
		{
			name: "bad base URL",
			mutate: func(cfg *Config) {
				pc := cfg.Providers["openai"]
				pc.BaseURL = "not a url"
				cfg.Providers["openai"] = pc
			},
		},
		{
			name: "max retries out of range",
			mutate: func(cfg *Config) {
				cfg.Queue.MaxRetries = 11
			},
		},
		{
			name: "zero workers",
			mutate: func(cfg *Config) {
				cfg.Queue.Workers = -1
			},
		},
		{
			name: "unknown strategy",
			mutate: func(cfg *Config) {
				cfg.Routing.Strategy = "coin-flip"
			},
		},
		{
			name: "negative weight",
			mutate: func(cfg *Config) {
				cfg.Routing.Weights = map[string]float64{"openai": -1}
			},
		},
		{
			name: "bad cleanup schedule",
			mutate: func(cfg *Config) {
				cfg.Queue.CleanupSchedule = "not a cron"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseValidConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("Validate() should have returned an error")
			}
		})
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := baseValidConfig()
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, validConfigYAML)

	t.Setenv("TITAN_QUEUE_WORKERS", "16")
	t.Setenv("TITAN_ROUTING_STRATEGY", "round-robin")
	t.Setenv("TITAN_QUEUE_BACKOFF_BASE", "10s")
	t.Setenv("TITAN_PROVIDER_OPENAI_API_KEY", "env-key")

	cfg, err := LoadWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadWithEnvOverrides() error = %v", err)
	}

	if cfg.Queue.Workers != 16 {
		t.Errorf("Workers = %d, want 16", cfg.Queue.Workers)
	}
	if cfg.Routing.Strategy != StrategyRoundRobin {
		t.Errorf("Strategy = %q, want round-robin", cfg.Routing.Strategy)
	}
	if cfg.Queue.BackoffBase != 10*time.Second {
		t.Errorf("BackoffBase = %v, want 10s", cfg.Queue.BackoffBase)
	}
	if cfg.Providers["openai"].APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env-key", cfg.Providers["openai"].APIKey)
	}
}

func TestAPIKeyExpansion(t *testing.T) {
	t.Setenv("TEST_TITAN_KEY", "secret-from-env")

	path := writeConfigFile(t, `
providers:
  openai:
    type: openai
    base_url: https://api.openai.com/v1
    api_key: ${TEST_TITAN_KEY}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Providers["openai"].APIKey != "secret-from-env" {
		t.Errorf("APIKey = %q, want secret-from-env", cfg.Providers["openai"].APIKey)
	}
}

// baseValidConfig returns a minimal valid configuration for validation tests.
func baseValidConfig() *Config {
	cfg := &Config{
		Providers: map[string]ProviderConfig{
			"openai": {
				Type:    "openai",
				BaseURL: "https://api.openai.com/v1",
				APIKey:  "key",
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}
