package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies provider failures.
type Kind int

const (
	// KindUnavailable covers transport failures and 5xx responses.
	KindUnavailable Kind = iota
	KindRateLimited
	// KindInvalid is a reply that does not match the requested schema.
	KindInvalid
	// KindTruncated is a reply cut off by the token limit.
	KindTruncated
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate limited"
	case KindInvalid:
		return "invalid reply"
	case KindTruncated:
		return "truncated"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is returned by every Provider in this package.
type Error struct {
	Kind     Kind
	Provider string

	// RetryAfter is the server's hint for KindRateLimited, zero if none.
	RetryAfter time.Duration

	// Reply holds the offending content for KindInvalid and KindTruncated.
	Reply json.RawMessage

	Err error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// statusError classifies an HTTP status from a provider SDK error.
func statusError(provider string, status int, err error) *Error {
	kind := KindUnavailable
	if status == http.StatusTooManyRequests {
		kind = KindRateLimited
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}
