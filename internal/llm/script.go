package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// Reply is one scripted outcome: JSON, or Err when set.
type Reply struct {
	JSON json.RawMessage
	Err  error
}

// Script is a Provider that plays back replies in order and records
// the prompts it received. Running out of replies is KindUnavailable.
type Script struct {
	mu      sync.Mutex
	replies []Reply
	prompts []Prompt
}

func NewScript(replies ...Reply) *Script {
	return &Script{replies: replies}
}

func (s *Script) Complete(_ context.Context, p Prompt) (*Completion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prompts = append(s.prompts, p)
	if len(s.replies) == 0 {
		return nil, &Error{Kind: KindUnavailable, Provider: "script"}
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	if r.Err != nil {
		return nil, r.Err
	}
	if p.Schema != nil {
		if err := p.Schema.Check("script", r.JSON); err != nil {
			return nil, err
		}
	}
	return &Completion{JSON: r.JSON, Model: "script"}, nil
}

func (s *Script) Model() string { return "script" }

// Prompts returns the prompts received so far.
func (s *Script) Prompts() []Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Prompt(nil), s.prompts...)
}
