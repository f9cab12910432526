package routing

import (
	"errors"
	"fmt"
	"strings"
)

// Common routing errors that can be checked with errors.Is().
var (
	// ErrNoProvidersAvailable is returned when every candidate is down.
	// Jobs hitting this condition fail terminally: retrying cannot help
	// until a provider recovers.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrNoProvidersConfigured is returned when the provider pool is empty.
	ErrNoProvidersConfigured = errors.New("no providers configured")

	// ErrModelNotSupported is returned when no provider supports the
	// requested model.
	ErrModelNotSupported = errors.New("model not supported by any provider")

	// ErrProviderNotFound is returned when a preferred provider does not
	// exist or is not a viable candidate.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrInvalidStrategy is returned when an unknown strategy is configured.
	ErrInvalidStrategy = errors.New("invalid routing strategy")
)

// NoProvidersAvailableError is returned when every capable provider is
// excluded by the health filter.
type NoProvidersAvailableError struct {
	// AttemptedProviders contains the names of providers that were checked.
	AttemptedProviders []string

	// Model is the requested model.
	Model string
}

// Error implements the error interface.
func (e *NoProvidersAvailableError) Error() string {
	return fmt.Sprintf("no providers available for model %q (attempted: %s)",
		e.Model, strings.Join(e.AttemptedProviders, ", "))
}

// Is implements error matching for errors.Is().
func (e *NoProvidersAvailableError) Is(target error) bool {
	return target == ErrNoProvidersAvailable
}

// ModelNotSupportedError is returned when the requested model is not
// supported by any configured provider.
type ModelNotSupportedError struct {
	// Model is the requested model that is not supported.
	Model string

	// AvailableModels contains models that are supported.
	AvailableModels []string
}

// Error implements the error interface.
func (e *ModelNotSupportedError) Error() string {
	if len(e.AvailableModels) == 0 {
		return fmt.Sprintf("model %q not supported by any provider", e.Model)
	}
	return fmt.Sprintf("model %q not supported by any provider (available models: %s)",
		e.Model, strings.Join(e.AvailableModels, ", "))
}

// Is implements error matching for errors.Is().
func (e *ModelNotSupportedError) Is(target error) bool {
	return target == ErrModelNotSupported
}

// ProviderNotFoundError is returned when an explicitly requested provider
// does not exist among the viable candidates.
type ProviderNotFoundError struct {
	// ProviderName is the requested provider that was not found.
	ProviderName string

	// AvailableProviders contains the names of viable candidates.
	AvailableProviders []string
}

// Error implements the error interface.
func (e *ProviderNotFoundError) Error() string {
	return fmt.Sprintf("provider %q not found (available providers: %s)",
		e.ProviderName, strings.Join(e.AvailableProviders, ", "))
}

// Is implements error matching for errors.Is().
func (e *ProviderNotFoundError) Is(target error) bool {
	return target == ErrProviderNotFound
}

// InvalidStrategyError is returned when the configured strategy name is not
// recognized.
type InvalidStrategyError struct {
	// Strategy is the invalid strategy name.
	Strategy string

	// ValidStrategies contains the recognized strategy names.
	ValidStrategies []string
}

// Error implements the error interface.
func (e *InvalidStrategyError) Error() string {
	return fmt.Sprintf("invalid routing strategy %q (valid: %s)",
		e.Strategy, strings.Join(e.ValidStrategies, ", "))
}

// Is implements error matching for errors.Is().
func (e *InvalidStrategyError) Is(target error) bool {
	return target == ErrInvalidStrategy
}
