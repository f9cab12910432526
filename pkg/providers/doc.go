// Package providers defines the provider adapter abstraction for content
// generation backends and a shared HTTP base implementation.
//
// Each vendor integration (OpenAI, Anthropic, OpenAI-compatible local
// servers) implements the Provider interface, exposing a blocking
// GenerateContent call plus the capability and cost metadata the routing
// layer needs to choose between adapters. Adapters are interchangeable from
// the dispatcher's point of view.
package providers
