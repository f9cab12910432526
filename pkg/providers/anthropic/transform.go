package anthropic

import (
	"fmt"
	"strings"

	"github.com/copyforge-hq/titan/pkg/providers"
)

// Anthropic Messages API request/response types

// MessagesRequest represents an Anthropic messages request.
type MessagesRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	System      string    `json:"system,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Message represents a message in Anthropic format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesResponse represents an Anthropic messages response.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// ContentBlock represents a content block in an Anthropic response.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Usage represents token usage in Anthropic format.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// defaultMaxTokens is used when the request does not specify a limit;
// the Anthropic API requires max_tokens to be set.
const defaultMaxTokens = 4096

// transformRequest converts a provider-agnostic generation request into an
// Anthropic messages request.
func transformRequest(req *providers.GenerationRequest) *MessagesRequest {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	return &MessagesRequest{
		Model:       req.Model,
		System:      req.SystemPrompt,
		Messages:    []Message{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
}

// transformResponse converts an Anthropic messages response into a
// provider-agnostic generation result.
func transformResponse(resp *MessagesResponse) (*providers.GenerationResult, error) {
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("response contains no content blocks")
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return &providers.GenerationResult{
		Content:      sb.String(),
		Model:        resp.Model,
		TokensUsed:   resp.Usage.InputTokens + resp.Usage.OutputTokens,
		FinishReason: normalizeStopReason(resp.StopReason),
	}, nil
}

// normalizeStopReason maps Anthropic stop reasons to the shared finish
// reason vocabulary.
func normalizeStopReason(reason string) string {
	switch reason {
	case "end_turn", "stop_sequence":
		return providers.FinishReasonStop
	case "max_tokens":
		return providers.FinishReasonLength
	default:
		return reason
	}
}
