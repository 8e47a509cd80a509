package cache

import "errors"

// Sentinel errors for cache operations. Check with errors.Is.
var (
	// ErrNotFound is returned when a key doesn't exist or has expired.
	// A miss is expected behavior, not a fault.
	ErrNotFound = errors.New("cache: key not found")

	// ErrClosed is returned when operating on a closed cache.
	ErrClosed = errors.New("cache: closed")

	// ErrInvalidTTL is returned for negative TTL values.
	ErrInvalidTTL = errors.New("cache: invalid TTL")
)
