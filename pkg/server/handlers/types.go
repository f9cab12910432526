package handlers

import (
	"encoding/json"
	"net/http"
)

// CreateJobRequest is the admission payload for POST /queue/jobs.
type CreateJobRequest struct {
	// Model is the model identifier the job must be generated with.
	Model string `json:"model"`

	// Prompt is the generation instruction.
	Prompt string `json:"prompt"`

	// SystemPrompt is an optional system-level instruction.
	SystemPrompt string `json:"system_prompt,omitempty"`

	// MaxTokens caps the completion length. Zero uses the provider default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// Priority is PREMIUM, STANDARD, or BATCH. Defaults to STANDARD.
	Priority string `json:"priority,omitempty"`

	// MaxRetries overrides the configured default retry budget.
	MaxRetries *int `json:"max_retries,omitempty"`
}

// ErrorResponse is the error envelope for all API errors.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error message and classification.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// Error type strings used in responses.
const (
	ErrorTypeInvalidRequest = "invalid_request"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeConflict       = "conflict"
	ErrorTypeSaturated      = "queue_saturated"
	ErrorTypeServer         = "server_error"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, errType, code string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{
		Message: message,
		Type:    errType,
		Code:    code,
	}})
}
