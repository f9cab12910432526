package providerfactory

import (
	"testing"
	"time"

	"github.com/copyforge-hq/titan/pkg/providers"
)

func testProviderConfig(name string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:    name,
		Type:    "openai",
		BaseURL: "https://api.openai.com/v1",
		APIKey:  "test-key",
		Timeout: 30 * time.Second,
	}
}

func TestManager_AddProvider(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}

	if manager.ProviderCount() != 1 {
		t.Errorf("expected 1 provider, got %d", manager.ProviderCount())
	}
}

func TestManager_AddProviderReplaces(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("first AddProvider() failed: %v", err)
	}
	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("second AddProvider() failed: %v", err)
	}

	if manager.ProviderCount() != 1 {
		t.Errorf("expected 1 provider after replacement, got %d", manager.ProviderCount())
	}
}

func TestManager_GetProvider(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}

	provider, err := manager.GetProvider("test-openai")
	if err != nil {
		t.Fatalf("GetProvider() failed: %v", err)
	}

	if provider.GetName() != "test-openai" {
		t.Errorf("expected provider name test-openai, got %s", provider.GetName())
	}
}

func TestManager_GetProvider_NotFound(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if _, err := manager.GetProvider("non-existent"); err == nil {
		t.Fatal("expected error for non-existent provider, got nil")
	}
}

func TestManager_RemoveProvider(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}
	if err := manager.RemoveProvider("test-openai"); err != nil {
		t.Fatalf("RemoveProvider() failed: %v", err)
	}
	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers, got %d", manager.ProviderCount())
	}

	if err := manager.RemoveProvider("test-openai"); err == nil {
		t.Fatal("expected error removing absent provider, got nil")
	}
}

func TestManager_GetProvidersReturnsCopy(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}

	provs := manager.GetProviders()
	delete(provs, "test-openai")

	if manager.ProviderCount() != 1 {
		t.Error("mutating the returned map must not affect the manager")
	}
}

func TestManager_LoadFromConfig(t *testing.T) {
	manager := NewManager()
	defer manager.Close()

	configs := []providers.ProviderConfig{
		testProviderConfig("openai"),
		{
			Name:    "anthropic",
			Type:    "anthropic",
			BaseURL: "https://api.anthropic.com",
			APIKey:  "test-key",
			Timeout: 30 * time.Second,
		},
	}

	if err := manager.LoadFromConfig(configs); err != nil {
		t.Fatalf("LoadFromConfig() failed: %v", err)
	}

	if manager.ProviderCount() != 2 {
		t.Errorf("expected 2 providers, got %d", manager.ProviderCount())
	}

	names := manager.GetProviderNames()
	if len(names) != 2 {
		t.Errorf("expected 2 names, got %v", names)
	}
}

func TestManager_Close(t *testing.T) {
	manager := NewManager()

	if err := manager.AddProvider(testProviderConfig("test-openai")); err != nil {
		t.Fatalf("AddProvider() failed: %v", err)
	}
	if err := manager.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if manager.ProviderCount() != 0 {
		t.Errorf("expected 0 providers after close, got %d", manager.ProviderCount())
	}
}
