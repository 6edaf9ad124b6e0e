package llm

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/abhisek/lessonplay/internal/config"
)

func TestFromSettings(t *testing.T) {
	tests := []struct {
		name      string
		in        config.LLMConfig
		provider  string
		model     string
		attempts  int
		wantValid bool
	}{
		{
			name:      "discovers gemini first",
			in:        config.LLMConfig{GeminiKey: "g", OpenAIKey: "o"},
			provider:  "gemini",
			model:     "gemini-flash",
			attempts:  3,
			wantValid: true,
		},
		{
			name:      "explicit provider and model",
			in:        config.LLMConfig{Provider: "openai", Model: "gpt-4o", OpenAIKey: "o", MaxRetries: 5},
			provider:  "openai",
			model:     "gpt-4o",
			attempts:  5,
			wantValid: true,
		},
		{
			name:     "explicit provider without key",
			in:       config.LLMConfig{Provider: "anthropic"},
			provider: "anthropic",
			model:    "claude-haiku",
			attempts: 3,
		},
		{
			name:     "nothing configured",
			attempts: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := FromSettings(tt.in)
			if cfg.Provider != tt.provider {
				t.Errorf("Provider = %q, want %q", cfg.Provider, tt.provider)
			}
			var model string
			switch cfg.Provider {
			case "anthropic":
				model = cfg.Anthropic.Model
			case "openai":
				model = cfg.OpenAI.Model
			case "gemini":
				model = cfg.Gemini.Model
			}
			if model != tt.model {
				t.Errorf("model = %q, want %q", model, tt.model)
			}
			if cfg.Retry.MaxAttempts != tt.attempts {
				t.Errorf("MaxAttempts = %d, want %d", cfg.Retry.MaxAttempts, tt.attempts)
			}
			if (cfg.Validate() == nil) != tt.wantValid {
				t.Errorf("Validate() = %v, wantValid %v", cfg.Validate(), tt.wantValid)
			}
		})
	}
}

func TestFromSettings_Timeout(t *testing.T) {
	cfg := FromSettings(config.LLMConfig{Timeout: 5 * time.Second})
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s, want 5s", cfg.Timeout)
	}
}

func TestWithLogging(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	p := WithLogging(NewScript(Reply{JSON: json.RawMessage(`{"ok":true}`)}), zap.New(core))

	ctx := WithPurpose(context.Background(), "variant-gen")
	if _, err := p.Complete(ctx, Prompt{User: "hi"}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, err := p.Complete(ctx, Prompt{User: "hi"}); err == nil {
		t.Fatal("expected the exhausted script to fail")
	}

	ok := logs.FilterMessage("llm request").All()
	if len(ok) != 1 {
		t.Fatalf("got %d success entries, want 1", len(ok))
	}
	fields := ok[0].ContextMap()
	if fields["purpose"] != "variant-gen" || fields["model"] != "script" {
		t.Errorf("fields = %v", fields)
	}
	if logs.FilterMessage("llm request failed").Len() != 1 {
		t.Error("expected one failure entry")
	}
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "openai"}, nil)
	if err == nil {
		t.Fatal("expected a missing key error")
	}
	_, err = NewProvider(context.Background(), Config{Provider: "llama"}, nil)
	if err == nil {
		t.Fatal("expected an unknown provider error")
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		provider, name, want string
	}{
		{"anthropic", "claude-haiku", "claude-haiku-4-5-20251001"},
		{"gemini", "gemini-flash", "gemini-2.0-flash"},
		{"openai", "o4-mini", "o4-mini"},
		{"gemini", "claude-haiku", "claude-haiku"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.provider, tt.name); got != tt.want {
			t.Errorf("resolveModel(%q, %q) = %q, want %q", tt.provider, tt.name, got, tt.want)
		}
	}
}
