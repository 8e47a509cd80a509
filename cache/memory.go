package cache

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultJanitorInterval is how often the background sweep removes
	// expired entries. Lookups also expire lazily, so the sweep only
	// bounds memory growth.
	DefaultJanitorInterval = 1 * time.Minute

	// DefaultMaxEntries caps the number of live entries. When exceeded,
	// the entry closest to expiry is evicted. Zero means unbounded.
	DefaultMaxEntries = 1024
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

func (e *entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process Cache backed by a map with lazy expiry and a
// periodic janitor sweep.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*entry
	max     int

	hits      uint64
	misses    uint64
	evictions uint64

	closeCh   chan struct{}
	closeOnce sync.Once
}

// MemoryOption customizes a Memory cache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	maxEntries      int
	janitorInterval time.Duration
}

// WithMaxEntries bounds the number of live entries (0 = unbounded).
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithJanitorInterval changes the sweep cadence (0 disables the sweep).
func WithJanitorInterval(d time.Duration) MemoryOption {
	return func(o *memoryOptions) { o.janitorInterval = d }
}

// NewMemory creates a memory cache and starts its janitor goroutine.
// Call Close to stop the janitor.
func NewMemory(opts ...MemoryOption) *Memory {
	o := memoryOptions{
		maxEntries:      DefaultMaxEntries,
		janitorInterval: DefaultJanitorInterval,
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Memory{
		entries: make(map[string]*entry),
		max:     o.maxEntries,
		closeCh: make(chan struct{}),
	}

	if o.janitorInterval > 0 {
		go m.janitor(o.janitorInterval)
	}
	return m
}

// Get implements Cache.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	if m.closed() {
		return nil, ErrClosed
	}

	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || e.expired(time.Now()) {
		// Expired entries are removed on the next write or janitor pass.
		m.mu.Lock()
		if ok {
			delete(m.entries, key)
		}
		m.misses++
		m.mu.Unlock()
		return nil, ErrNotFound
	}

	m.mu.Lock()
	m.hits++
	m.mu.Unlock()

	return e.value, nil
}

// Set implements Cache.
func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if m.closed() {
		return ErrClosed
	}
	if ttl < 0 {
		return ErrInvalidTTL
	}

	e := &entry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[key]; !exists && m.max > 0 && len(m.entries) >= m.max {
		m.evictOldestLocked()
	}
	m.entries[key] = e
	return nil
}

// Delete implements Cache.
func (m *Memory) Delete(_ context.Context, key string) error {
	if m.closed() {
		return ErrClosed
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// GetOrSet implements Cache.
func (m *Memory) GetOrSet(_ context.Context, key string, value []byte, ttl time.Duration) ([]byte, bool, error) {
	if m.closed() {
		return nil, false, ErrClosed
	}
	if ttl < 0 {
		return nil, false, ErrInvalidTTL
	}

	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.entries[key]; ok && !e.expired(now) {
		m.hits++
		return e.value, false, nil
	}
	m.misses++

	e := &entry{value: value}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	if m.max > 0 && len(m.entries) >= m.max {
		m.evictOldestLocked()
	}
	m.entries[key] = e
	return value, true, nil
}

// Stats implements Cache.
func (m *Memory) Stats() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return map[string]any{
		"entries":   len(m.entries),
		"hits":      m.hits,
		"misses":    m.misses,
		"evictions": m.evictions,
	}
}

// Close implements Cache. Stops the janitor and drops all entries.
func (m *Memory) Close() error {
	m.closeOnce.Do(func() {
		close(m.closeCh)
		m.mu.Lock()
		m.entries = make(map[string]*entry)
		m.mu.Unlock()
	})
	return nil
}

func (m *Memory) closed() bool {
	select {
	case <-m.closeCh:
		return true
	default:
		return false
	}
}

// evictOldestLocked removes the entry closest to expiry. Entries without
// expiry are only evicted when nothing expiring exists. Caller holds mu.
func (m *Memory) evictOldestLocked() {
	var victim string
	var victimAt time.Time
	for k, e := range m.entries {
		if e.expiresAt.IsZero() {
			if victim == "" {
				victim = k
			}
			continue
		}
		if victimAt.IsZero() || e.expiresAt.Before(victimAt) {
			victim = k
			victimAt = e.expiresAt
		}
	}
	if victim != "" {
		delete(m.entries, victim)
		m.evictions++
	}
}

func (m *Memory) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.closeCh:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for k, e := range m.entries {
				if e.expired(now) {
					delete(m.entries, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
