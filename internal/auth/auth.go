// Package auth supplies the signed-in student's identity.
package auth

import (
	"errors"
	"strings"
	"sync"
)

var ErrInvalidID = errors.New("student id must be 1-64 characters without spaces")

// Source returns the current student id, empty when nobody is signed in.
type Source interface {
	StudentID() string
}

// Session is the in-process identity: seeded from config or a flag and
// replaced by the sign-in screen.
type Session struct {
	mu sync.RWMutex
	id string
}

func NewSession(id string) *Session {
	s := &Session{}
	_ = s.SignIn(id)
	return s
}

func (s *Session) StudentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// SignIn validates and stores id. An empty id signs out.
func (s *Session) SignIn(id string) error {
	id = strings.TrimSpace(id)
	if id != "" {
		if err := Validate(id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
	return nil
}

func (s *Session) SignOut() { _ = s.SignIn("") }

// Validate checks that id is usable as a student id.
func Validate(id string) error {
	if id == "" || len(id) > 64 || strings.ContainsAny(id, " \t\r\n/") {
		return ErrInvalidID
	}
	return nil
}
