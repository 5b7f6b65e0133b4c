// Package csrf holds the anti-forgery token attached to mutating API calls.
//
// The store is process-wide in spirit but injectable in practice: the
// session manager is the only writer, the gateway the only reader, and
// tests substitute their own instance instead of relying on package state.
package csrf

import "sync"

// Store is a single mutable token cell. The token is not part of the
// session state because it is a transport artifact, not user-visible state.
type Store struct {
	mu    sync.RWMutex
	token *string
}

func NewStore() *Store {
	return &Store{}
}

// Set replaces the current token. Called only after a successful
// authentication operation.
func (s *Store) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = &token
}

// Clear drops the token. Called on logout and expiry dismissal.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = nil
}

// Token returns the current token and whether one is set.
func (s *Store) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == nil {
		return "", false
	}
	return *s.token, true
}
