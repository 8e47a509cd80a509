package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testShortTTL = 30 * time.Millisecond

func newTestCache(t *testing.T, opts ...MemoryOption) *Memory {
	t.Helper()
	m := NewMemory(opts...)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMemorySetGet(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryGetMissing(t *testing.T) {
	m := newTestCache(t)

	_, err := m.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), testShortTTL))

	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(2 * testShortTTL)

	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryZeroTTLNeverExpires(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	time.Sleep(testShortTTL)

	_, err := m.Get(ctx, "k")
	assert.NoError(t, err)
}

func TestMemoryNegativeTTL(t *testing.T) {
	m := newTestCache(t)

	err := m.Set(context.Background(), "k", []byte("v"), -time.Second)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestMemoryDelete(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, m.Delete(ctx, "k"))

	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting a missing key is fine.
	assert.NoError(t, m.Delete(ctx, "k"))
}

func TestMemoryGetOrSet(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	stored, wasSet, err := m.GetOrSet(ctx, "k", []byte("first"), time.Minute)
	require.NoError(t, err)
	assert.True(t, wasSet)
	assert.Equal(t, []byte("first"), stored)

	stored, wasSet, err = m.GetOrSet(ctx, "k", []byte("second"), time.Minute)
	require.NoError(t, err)
	assert.False(t, wasSet)
	assert.Equal(t, []byte("first"), stored)
}

func TestMemoryMaxEntriesEviction(t *testing.T) {
	m := newTestCache(t, WithMaxEntries(2), WithJanitorInterval(0))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, m.Set(ctx, "b", []byte("2"), time.Hour))
	require.NoError(t, m.Set(ctx, "c", []byte("3"), time.Hour))

	stats := m.Stats()
	assert.Equal(t, 2, stats["entries"])
	assert.Equal(t, uint64(1), stats["evictions"])

	// "a" expires first, so it was the eviction victim.
	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryJanitorSweepsExpired(t *testing.T) {
	m := newTestCache(t, WithJanitorInterval(20*time.Millisecond))
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 10*time.Millisecond))

	assert.Eventually(t, func() bool {
		return m.Stats()["entries"] == 0
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Close())

	ctx := context.Background()
	_, err := m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, "k", nil, 0), ErrClosed)
	assert.ErrorIs(t, m.Delete(ctx, "k"), ErrClosed)

	// Close is idempotent.
	assert.NoError(t, m.Close())
}

func TestMemoryStatsCounters(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", []byte("v"), time.Minute))
	_, _ = m.Get(ctx, "k")
	_, _ = m.Get(ctx, "missing")

	stats := m.Stats()
	assert.Equal(t, uint64(1), stats["hits"])
	assert.Equal(t, uint64(1), stats["misses"])
}

func TestMemoryConcurrentAccess(t *testing.T) {
	m := newTestCache(t)
	ctx := context.Background()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				_ = m.Set(ctx, key, []byte("v"), time.Minute)
				_, _ = m.Get(ctx, key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
