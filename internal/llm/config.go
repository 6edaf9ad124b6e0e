package llm

import (
	"fmt"
	"time"

	"github.com/abhisek/lessonplay/internal/config"
)

// Config selects and configures one provider.
type Config struct {
	// Provider is one of "anthropic", "openai" or "gemini".
	Provider string

	Anthropic AnthropicConfig
	OpenAI    OpenAIConfig
	Gemini    GeminiConfig
	Retry     RetryConfig

	// Timeout bounds a single request including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type OpenAIConfig struct {
	APIKey string
	Model  string

	// BaseURL targets an OpenAI-compatible API such as OpenRouter.
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// modelAliases maps short names to model ids per provider. Names not
// listed are sent as given.
var modelAliases = map[string]map[string]string{
	"anthropic": {
		"claude-haiku":  "claude-haiku-4-5-20251001",
		"claude-sonnet": "claude-sonnet-4-20250514",
	},
	"openai": {
		"gpt-4o-mini": "gpt-4o-mini",
	},
	"gemini": {
		"gemini-flash": "gemini-2.0-flash",
		"gemini-pro":   "gemini-2.0-pro",
	},
}

func resolveModel(provider, name string) string {
	if id, ok := modelAliases[provider][name]; ok {
		return id
	}
	return name
}

func DefaultConfig() Config {
	return Config{
		Anthropic: AnthropicConfig{Model: "claude-haiku"},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:    GeminiConfig{Model: "gemini-flash"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// FromSettings maps the llm section of the application config. When no
// provider is named, the first provider with a key wins, in the order
// gemini, openai, anthropic.
func FromSettings(s config.LLMConfig) Config {
	cfg := DefaultConfig()
	cfg.Provider = s.Provider
	cfg.Anthropic.APIKey = s.AnthropicKey
	cfg.OpenAI.APIKey = s.OpenAIKey
	cfg.Gemini.APIKey = s.GeminiKey

	if cfg.Provider == "" {
		switch {
		case s.GeminiKey != "":
			cfg.Provider = "gemini"
		case s.OpenAIKey != "":
			cfg.Provider = "openai"
		case s.AnthropicKey != "":
			cfg.Provider = "anthropic"
		}
	}

	if s.Model != "" {
		switch cfg.Provider {
		case "anthropic":
			cfg.Anthropic.Model = s.Model
		case "openai":
			cfg.OpenAI.Model = s.Model
		case "gemini":
			cfg.Gemini.Model = s.Model
		}
	}
	if s.MaxRetries > 0 {
		cfg.Retry.MaxAttempts = s.MaxRetries
	}
	if s.Timeout > 0 {
		cfg.Timeout = s.Timeout
	}
	return cfg
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY (or llm.anthropic_api_key) is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY (or llm.openai_api_key) is required for the openai provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY (or llm.gemini_api_key) is required for the gemini provider")
		}
	case "":
		return fmt.Errorf("no LLM provider configured; set llm.provider or an API key")
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
