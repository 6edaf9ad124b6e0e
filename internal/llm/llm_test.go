package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

var testSchema = &Schema{
	Name: "test-answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"answer": map[string]any{"type": "string"},
			"grade":  map[string]any{"type": "string", "enum": []any{"A", "B"}},
			"score":  map[string]any{"type": "integer", "minimum": 0, "maximum": 10},
		},
		"required":             []any{"answer"},
		"additionalProperties": false,
	},
}

func TestSchemaCheck(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		ok    bool
	}{
		{"valid", `{"answer":"5","grade":"A","score":7}`, true},
		{"optional fields omitted", `{"answer":"5"}`, true},
		{"missing required", `{"grade":"A"}`, false},
		{"wrong type", `{"answer":5}`, false},
		{"outside enum", `{"answer":"5","grade":"Z"}`, false},
		{"above maximum", `{"answer":"5","score":11}`, false},
		{"extra property", `{"answer":"5","hint":"x"}`, false},
		{"not json", `{"answer":`, false},
		{"empty", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := testSchema.Check("test", json.RawMessage(tt.reply))
			if tt.ok && err != nil {
				t.Fatalf("Check: %v", err)
			}
			if !tt.ok && !IsKind(err, KindInvalid) {
				t.Fatalf("Check = %v, want KindInvalid", err)
			}
		})
	}
}

func TestSchemaCheck_KeepsReply(t *testing.T) {
	err := testSchema.Check("test", json.RawMessage(`{"grade":"A"}`))
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("got %T, want *Error", err)
	}
	if string(e.Reply) != `{"grade":"A"}` || e.Provider != "test" {
		t.Errorf("error = %+v", e)
	}
}

func TestScript(t *testing.T) {
	s := NewScript(
		Reply{JSON: json.RawMessage(`{"answer":"4"}`)},
		Reply{JSON: json.RawMessage(`{"nope":1}`)},
		Reply{Err: errors.New("boom")},
	)
	ctx := context.Background()

	c, err := s.Complete(ctx, Prompt{User: "2+2", Schema: testSchema})
	if err != nil || string(c.JSON) != `{"answer":"4"}` {
		t.Fatalf("first reply = %v, %v", c, err)
	}
	if _, err := s.Complete(ctx, Prompt{Schema: testSchema}); !IsKind(err, KindInvalid) {
		t.Errorf("second reply = %v, want KindInvalid", err)
	}
	if _, err := s.Complete(ctx, Prompt{}); err == nil || err.Error() != "boom" {
		t.Errorf("third reply = %v, want boom", err)
	}
	if _, err := s.Complete(ctx, Prompt{}); !IsKind(err, KindUnavailable) {
		t.Errorf("exhausted script = %v, want KindUnavailable", err)
	}
	if got := s.Prompts(); len(got) != 4 || got[0].User != "2+2" {
		t.Errorf("Prompts = %+v", got)
	}
}

// testRetry wraps p with fast retries that record their waits.
func testRetry(p Provider, attempts int) (Provider, *[]time.Duration) {
	var waits []time.Duration
	r := &retrying{
		Provider: p,
		cfg:      RetryConfig{MaxAttempts: attempts, InitialWait: time.Second, MaxWait: 4 * time.Second, Multiplier: 2},
		sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}
	return r, &waits
}

func TestRetry(t *testing.T) {
	unavailable := Reply{Err: &Error{Kind: KindUnavailable, Provider: "test"}}
	invalid := Reply{Err: &Error{Kind: KindInvalid, Provider: "test"}}
	ok := Reply{JSON: json.RawMessage(`{}`)}

	tests := []struct {
		name      string
		attempts  int
		replies   []Reply
		wantErr   bool
		wantCalls int
	}{
		{"first try", 3, []Reply{ok}, false, 1},
		{"transient then success", 3, []Reply{unavailable, ok}, false, 2},
		{"gives up after max attempts", 3, []Reply{unavailable, unavailable, unavailable, ok}, true, 3},
		{"invalid retried once", 5, []Reply{invalid, invalid, ok}, true, 2},
		{"invalid then success", 5, []Reply{invalid, ok}, false, 2},
		{"truncation not retried", 3, []Reply{{Err: &Error{Kind: KindTruncated}}, ok}, true, 1},
		{"zero attempts still calls once", 0, []Reply{ok}, false, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScript(tt.replies...)
			p, waits := testRetry(s, tt.attempts)

			_, err := p.Complete(context.Background(), Prompt{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if n := len(s.Prompts()); n != tt.wantCalls {
				t.Errorf("calls = %d, want %d", n, tt.wantCalls)
			}
			if len(*waits) > tt.wantCalls-1 {
				t.Errorf("waited %d times for %d calls", len(*waits), tt.wantCalls)
			}
		})
	}
}

func TestRetry_HonorsRetryAfter(t *testing.T) {
	s := NewScript(Reply{Err: &Error{Kind: KindRateLimited, RetryAfter: 3 * time.Second}}, Reply{JSON: json.RawMessage(`{}`)})
	p, waits := testRetry(s, 3)
	if _, err := p.Complete(context.Background(), Prompt{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(*waits) != 1 || (*waits)[0] != 3*time.Second {
		t.Errorf("waits = %v, want [3s]", *waits)
	}
}

func TestRetry_StopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewScript(Reply{Err: &Error{Kind: KindUnavailable}}, Reply{JSON: json.RawMessage(`{}`)})
	p, _ := testRetry(s, 3)
	if _, err := p.Complete(ctx, Prompt{}); err == nil {
		t.Fatal("expected an error")
	}
	if n := len(s.Prompts()); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestRetryConfig_Delay(t *testing.T) {
	cfg := RetryConfig{InitialWait: time.Second, MaxWait: 10 * time.Second, Multiplier: 2}
	for n, base := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second} {
		d := cfg.Delay(n)
		lo, hi := base*8/10, base*12/10
		if d < lo || d > hi {
			t.Errorf("Delay(%d) = %s, want within [%s, %s]", n, d, lo, hi)
		}
	}
}

type blocking struct{}

func (blocking) Complete(ctx context.Context, _ Prompt) (*Completion, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blocking) Model() string { return "blocking" }

func TestWithTimeout(t *testing.T) {
	p := WithTimeout(blocking{}, 10*time.Millisecond)
	_, err := p.Complete(context.Background(), Prompt{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if WithTimeout(blocking{}, 0) != (blocking{}) {
		t.Error("a zero timeout should leave the provider unwrapped")
	}
}
