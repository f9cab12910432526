// Package generic implements a generic OpenAI-compatible provider adapter.
//
// It supports any backend that speaks the OpenAI chat completions format,
// such as Ollama, LM Studio, vLLM, or FastChat. The adapter reuses the
// OpenAI wire format but allows custom base URLs and makes the API key
// optional, since local model servers typically do not authenticate.
package generic
