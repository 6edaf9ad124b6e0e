package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type purposeKey struct{}

// WithPurpose labels requests made with ctx in the log.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

func purpose(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok {
		return p
	}
	return "unlabeled"
}

type observed struct {
	Provider
	log *zap.Logger
}

// WithLogging logs one line per request: model, latency and token counts,
// or the failure.
func WithLogging(p Provider, log *zap.Logger) Provider {
	if log == nil {
		log = zap.NewNop()
	}
	return &observed{Provider: p, log: log.Named("llm")}
}

func (o *observed) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	start := time.Now()
	c, err := o.Provider.Complete(ctx, p)

	fields := []zap.Field{
		zap.String("purpose", purpose(ctx)),
		zap.String("model", o.Model()),
		zap.Duration("latency", time.Since(start)),
	}
	if p.Schema != nil {
		fields = append(fields, zap.String("schema", p.Schema.Name))
	}
	if err != nil {
		o.log.Warn("llm request failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	o.log.Info("llm request", append(fields,
		zap.String("served_by", c.Model),
		zap.Int("input_tokens", c.InputTokens),
		zap.Int("output_tokens", c.OutputTokens),
	)...)
	return c, nil
}
