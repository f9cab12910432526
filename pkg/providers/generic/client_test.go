package generic

import (
	"context"
	"testing"

	testhelpers "github.com/copyforge-hq/titan/internal/providers"
)

func TestGenericProvider_GenerateContent(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		StatusCode: 200,
		Body:       testhelpers.MockOpenAIResponse("local model reply", "llama-3"),
	})

	config := testhelpers.TestConfigWithURL("ollama", "generic", mock.URL()+"/v1")
	config.APIKey = ""

	provider, err := NewProvider(config)
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	defer provider.Close()

	result, err := provider.GenerateContent(context.Background(), testhelpers.TestGenerationRequest("llama-3", "Hello"))
	if err != nil {
		t.Fatalf("GenerateContent failed: %v", err)
	}

	if result.Content != "local model reply" {
		t.Errorf("expected content %q, got %q", "local model reply", result.Content)
	}
}

func TestNewProvider_RequiresBaseURL(t *testing.T) {
	config := testhelpers.TestConfig("local", "generic")
	config.BaseURL = ""

	if _, err := NewProvider(config); err == nil {
		t.Fatal("expected error for missing base URL")
	}
}

func TestNewProvider_APIKeyOptional(t *testing.T) {
	config := testhelpers.TestConfig("local", "generic")
	config.APIKey = ""

	provider, err := NewProvider(config)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	provider.Close()
}
