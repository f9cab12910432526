// Titan is an asynchronous content generation queue with multi-provider
// LLM routing.
//
// It accepts generation jobs over HTTP, queues them durably in SQLite,
// and dispatches them to LLM providers (OpenAI, Anthropic, generic
// OpenAI-compatible endpoints) with priority ordering, health-aware
// routing, automatic retries, and real-time status notifications.
//
// Usage:
//
//	# Start server with default configuration
//	titan run
//
//	# Start with custom configuration file
//	titan run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	titan validate --config /path/to/config.yaml
//
//	# Show version information
//	titan version
//
// For complete documentation, see: https://github.com/copyforge-hq/titan
package main

func main() {
	Execute()
}
