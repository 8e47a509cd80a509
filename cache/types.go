// Package cache provides a best-effort in-memory TTL cache and a
// read-through helper used to short-circuit repeated identical requests.
//
// The cache is advisory: a stale read inside the TTL window is an accepted
// trade-off, not a bug. Callers must not rely on it for correctness.
package cache

import (
	"context"
	"time"
)

// Cache is the core key/value contract. Implementations must be
// goroutine-safe.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrNotFound if the key doesn't exist or has expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL stores the value
	// without expiration. Overwrites existing values.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// GetOrSet returns the existing value for key, or stores value and
	// returns it. wasSet reports whether the value was newly stored.
	GetOrSet(ctx context.Context, key string, value []byte, ttl time.Duration) (stored []byte, wasSet bool, err error)

	// Stats returns implementation-specific counters (hits, misses,
	// entries, evictions) for observability.
	Stats() map[string]any

	// Close releases resources. The cache must not be used afterwards.
	Close() error
}
