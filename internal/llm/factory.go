package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// NewProvider builds the configured provider. Logging sits inside the
// retries so every attempt is logged; the timeout covers all of them.
func NewProvider(ctx context.Context, cfg Config, log *zap.Logger) (Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		p   Provider
		err error
	)
	switch cfg.Provider {
	case "anthropic":
		p, err = NewAnthropic(cfg.Anthropic)
	case "openai":
		p, err = NewOpenAI(cfg.OpenAI)
	case "gemini":
		p, err = NewGemini(ctx, cfg.Gemini, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}
	return WithTimeout(WithRetry(WithLogging(p, log), cfg.Retry), cfg.Timeout), nil
}
