// Package session holds the client's session-scoped state: the write-once
// identity and the readiness gate the data-facing services wait on.
package session

import (
	"errors"
	"sync"
)

var ErrIdentityAlreadySet = errors.New("identity already set")

// Session is created once at startup and passed to components explicitly.
// The identity is assigned exactly once at bootstrap and read-only after.
type Session struct {
	mu       sync.RWMutex
	identity string
	ready    chan struct{}
}

func New() *Session {
	return &Session{ready: make(chan struct{})}
}

// SetIdentity assigns the session identity and fires the readiness gate.
// A second call is an error.
func (s *Session) SetIdentity(identity string) error {
	if identity == "" {
		return errors.New("empty identity")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity != "" {
		return ErrIdentityAlreadySet
	}
	s.identity = identity
	close(s.ready)
	return nil
}

// Identity returns the established identity, if any.
func (s *Session) Identity() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity, s.identity != ""
}

// Ready is closed once the identity has been established.
func (s *Session) Ready() <-chan struct{} {
	return s.ready
}
