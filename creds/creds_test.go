package creds

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get()
	assert.False(t, ok)

	store.Set("token-1")
	token, ok := store.Get()
	assert.True(t, ok)
	assert.Equal(t, "token-1", token)

	store.Set("token-2")
	token, _ = store.Get()
	assert.Equal(t, "token-2", token)

	store.Clear()
	_, ok = store.Get()
	assert.False(t, ok)

	// Clear is idempotent.
	store.Clear()
	_, ok = store.Get()
	assert.False(t, ok)
}

func TestMemoryStoreEmptyTokenIsStillSet(t *testing.T) {
	store := NewMemoryStore()
	store.Set("")

	token, ok := store.Get()
	assert.True(t, ok)
	assert.Empty(t, token)
}
