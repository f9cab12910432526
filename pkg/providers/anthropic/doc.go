// Package anthropic implements the Anthropic provider adapter.
//
// This package provides an implementation of the providers.Provider
// interface for Anthropic's Messages API. Generation requests are
// transformed into a single-turn message (the system prompt rides in the
// top-level system field) and the concatenated text blocks of the reply
// are returned as the result.
package anthropic
