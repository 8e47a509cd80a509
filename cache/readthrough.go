package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// ReadThrough wraps a Cache with miss-populating reads. Concurrent misses
// for the same key are collapsed into a single loader call.
type ReadThrough struct {
	cache Cache
	sfg   singleflight.Group
}

// NewReadThrough creates a read-through wrapper over cache.
func NewReadThrough(cache Cache) *ReadThrough {
	return &ReadThrough{cache: cache}
}

// Fetch returns the cached value for key, or invokes loader, stores the
// result with the given TTL, and returns it. Loader errors are returned
// without being cached. Cache write failures are swallowed: the loaded
// value is still returned since the cache is best-effort.
func (r *ReadThrough) Fetch(ctx context.Context, key string, ttl time.Duration, loader Loader) ([]byte, error) {
	if value, err := r.cache.Get(ctx, key); err == nil {
		return value, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	value, err, _ := r.sfg.Do(key, func() (any, error) {
		// Re-check: another caller may have populated the key while this
		// one waited on the flight group.
		if v, err := r.cache.Get(ctx, key); err == nil {
			return v, nil
		}

		v, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		_ = r.cache.Set(ctx, key, v, ttl)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return value.([]byte), nil
}

// Invalidate removes a key so the next Fetch reloads it.
func (r *ReadThrough) Invalidate(ctx context.Context, key string) error {
	return r.cache.Delete(ctx, key)
}

// RequestKey derives a stable cache key from the shape of an outbound
// request (method, URL, and body).
func RequestKey(method, url string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(url))
	h.Write([]byte{0})
	h.Write(body)
	return "req:" + hex.EncodeToString(h.Sum(nil))
}
