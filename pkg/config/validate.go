package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "queue.workers").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateQueue(&cfg.Queue)...)
	errs = append(errs, validateProviders(cfg.Providers)...)
	errs = append(errs, validateRouting(&cfg.Routing)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

// validateServer validates the HTTP server configuration.
func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address cannot be empty",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout cannot be negative",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout cannot be negative",
		})
	}

	return errs
}

// validateQueue validates the job queue configuration.
func validateQueue(cfg *QueueConfig) []FieldError {
	var errs []FieldError

	if cfg.Workers < 1 {
		errs = append(errs, FieldError{
			Field:   "queue.workers",
			Message: "at least one worker is required",
		})
	}
	if cfg.MaxRetries < 0 || cfg.MaxRetries > 10 {
		errs = append(errs, FieldError{
			Field:   "queue.max_retries",
			Message: fmt.Sprintf("max retries must be in [0, 10], got %d", cfg.MaxRetries),
		})
	}
	if cfg.BackoffBase <= 0 {
		errs = append(errs, FieldError{
			Field:   "queue.backoff_base",
			Message: "backoff base must be positive",
		})
	}
	if cfg.JobTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "queue.job_ttl",
			Message: "job TTL must be positive",
		})
	}
	if cfg.MaxQueueDepth < 0 {
		errs = append(errs, FieldError{
			Field:   "queue.max_queue_depth",
			Message: "max queue depth cannot be negative",
		})
	}
	if cfg.CleanupSchedule != "" {
		if _, err := cron.ParseStandard(cfg.CleanupSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "queue.cleanup_schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.CleanupSchedule, err),
			})
		}
	}

	return errs
}

// validateProviders validates all provider configurations.
func validateProviders(providers map[string]ProviderConfig) []FieldError {
	var errs []FieldError

	if len(providers) == 0 {
		errs = append(errs, FieldError{
			Field:   "providers",
			Message: "at least one provider must be configured",
		})
		return errs
	}

	for name, pc := range providers {
		prefix := fmt.Sprintf("providers.%s", name)

		switch pc.Type {
		case "openai", "anthropic", "generic":
		case "":
			errs = append(errs, FieldError{
				Field:   prefix + ".type",
				Message: "provider type is required",
			})
		default:
			errs = append(errs, FieldError{
				Field:   prefix + ".type",
				Message: fmt.Sprintf("unknown provider type %q (valid: openai, anthropic, generic)", pc.Type),
			})
		}

		if pc.BaseURL == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: "base URL is required",
			})
		} else if u, err := url.Parse(pc.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".base_url",
				Message: fmt.Sprintf("invalid base URL %q", pc.BaseURL),
			})
		}

		if pc.CostPerToken < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".cost_per_token",
				Message: "cost per token cannot be negative",
			})
		}
		if pc.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout cannot be negative",
			})
		}
	}

	return errs
}

// validateRouting validates the routing configuration.
func validateRouting(cfg *RoutingConfig) []FieldError {
	var errs []FieldError

	switch cfg.Strategy {
	case StrategyRoundRobin, StrategyWeighted, StrategyPerformanceBased:
	default:
		errs = append(errs, FieldError{
			Field: "routing.strategy",
			Message: fmt.Sprintf("unknown strategy %q (valid: %s, %s, %s)",
				cfg.Strategy, StrategyRoundRobin, StrategyWeighted, StrategyPerformanceBased),
		})
	}

	for name, w := range cfg.Weights {
		if w < 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("routing.weights.%s", name),
				Message: fmt.Sprintf("weight cannot be negative, got %v", w),
			})
		}
	}

	return errs
}

// validateTelemetry validates the telemetry configuration.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("unknown log level %q (valid: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("unknown log format %q (valid: json, text)", cfg.Logging.Format),
		})
	}

	for i, b := range cfg.Metrics.DurationBuckets {
		if b <= 0 {
			errs = append(errs, FieldError{
				Field:   "telemetry.metrics.duration_buckets",
				Message: fmt.Sprintf("bucket %d must be positive, got %v", i, b),
			})
		}
	}

	return errs
}
