// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LetMeIn Contributors

package memstore

import (
	"sync"

	"github.com/letmein-auth/letmein/internal/auth"
)

// SessionStore is a map-backed auth.SessionStore for one client. It is safe
// for concurrent use.
type SessionStore struct {
	mu     sync.Mutex
	values map[string]string
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{values: make(map[string]string)}
}

// Get implements auth.SessionStore.
func (s *SessionStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set implements auth.SessionStore.
func (s *SessionStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete implements auth.SessionStore.
func (s *SessionStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Compile-time interface check.
var _ auth.SessionStore = (*SessionStore)(nil)
