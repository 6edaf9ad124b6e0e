package llm

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig configures retries of transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Delay is the wait before retry n (0-based), with ±20% jitter, capped
// at MaxWait.
func (c RetryConfig) Delay(n int) time.Duration {
	d := float64(c.InitialWait) * math.Pow(c.Multiplier, float64(n))
	d = math.Min(d, float64(c.MaxWait))
	d *= 0.8 + 0.4*rand.Float64()
	return time.Duration(d)
}

type retrying struct {
	Provider
	cfg   RetryConfig
	sleep func(context.Context, time.Duration) error
}

// WithRetry retries rate limits and unavailability with backoff. An
// invalid reply is retried once since another sample usually fixes it;
// truncation and cancellation are returned immediately.
func WithRetry(p Provider, cfg RetryConfig) Provider {
	return &retrying{Provider: p, cfg: cfg, sleep: sleepCtx}
}

func (r *retrying) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	attempts := max(r.cfg.MaxAttempts, 1)
	invalidSeen := false

	var err error
	for n := range attempts {
		var c *Completion
		if c, err = r.Provider.Complete(ctx, p); err == nil {
			return c, nil
		}

		var e *Error
		switch {
		case ctx.Err() != nil, errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.As(err, &e) && e.Kind == KindTruncated:
			return nil, err
		case errors.As(err, &e) && e.Kind == KindInvalid:
			if invalidSeen {
				return nil, err
			}
			invalidSeen = true
		}

		if n == attempts-1 {
			break
		}
		wait := r.cfg.Delay(n)
		if errors.As(err, &e) && e.RetryAfter > 0 {
			wait = e.RetryAfter
		}
		if serr := r.sleep(ctx, wait); serr != nil {
			return nil, serr
		}
	}
	return nil, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type bounded struct {
	Provider
	timeout time.Duration
}

// WithTimeout bounds each Complete call, retries included when it wraps
// a WithRetry provider.
func WithTimeout(p Provider, d time.Duration) Provider {
	if d <= 0 {
		return p
	}
	return &bounded{Provider: p, timeout: d}
}

func (b *bounded) Complete(ctx context.Context, p Prompt) (*Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return b.Provider.Complete(ctx, p)
}
