// Package creds defines the narrow credential storage capability the
// result normalizer uses to invalidate stored tokens on a terminal 401.
// The store is injected rather than reached for globally, so ownership
// and lifecycle stay with the application instance.
package creds

import "sync"

// Store holds a single opaque credential token.
type Store interface {
	// Get returns the stored token. ok is false when no token is set.
	Get() (token string, ok bool)

	// Set replaces the stored token.
	Set(token string)

	// Clear removes the stored token. Idempotent.
	Clear()
}

// MemoryStore is a goroutine-safe in-memory Store.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get implements Store.
func (s *MemoryStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

// Set implements Store.
func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
}

// Clear implements Store.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.set = false
}
