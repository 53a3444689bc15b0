package llm

import (
	"context"
	"testing"

	"wenshu-novel-api/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{LLM: config.LLMConfig{
		DefaultProvider: "default",
		Providers: map[string]config.ProviderConfig{
			"default": {APIKey: "sk-test", BaseURL: "http://127.0.0.1:1/v1", Model: "gpt-4o-mini", MaxTokens: 1024},
			"local":   {BaseURL: "http://127.0.0.1:1/v1", Model: "qwen"},
		},
	}}
}

func TestFactoryCachesModels(t *testing.T) {
	f := NewEinoFactory(testConfig())
	a, err := f.Get(context.Background(), "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, err := f.Get(context.Background(), "default")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if a != b {
		t.Fatal("default provider not cached")
	}
}

func TestFactoryErrors(t *testing.T) {
	f := NewEinoFactory(testConfig())
	if _, err := f.Get(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if _, err := f.Get(context.Background(), "local"); err == nil {
		t.Fatal("expected error for provider without api key")
	}
}

func TestFactoryProviders(t *testing.T) {
	f := NewEinoFactory(testConfig())
	if !f.Has("") || !f.Has("local") || f.Has("missing") {
		t.Fatal("Has returned unexpected result")
	}
	got := f.Providers()
	if len(got) != 2 || got[0] != "default" || got[1] != "local" {
		t.Fatalf("Providers = %v", got)
	}
}
