package trace

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-abc")

	id, ok := IDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "trace-abc", id)
}

func TestIDFromContextMissing(t *testing.T) {
	_, ok := IDFromContext(context.Background())
	assert.False(t, ok)

	// Empty string counts as absent.
	ctx := WithTraceID(context.Background(), "")
	_, ok = IDFromContext(ctx)
	assert.False(t, ok)
}

func TestEnsureTraceID(t *testing.T) {
	t.Run("returns existing", func(t *testing.T) {
		ctx := WithTraceID(context.Background(), "existing")
		assert.Equal(t, "existing", EnsureTraceID(ctx))
	})

	t.Run("generates when absent", func(t *testing.T) {
		id := EnsureTraceID(context.Background())
		assert.Len(t, id, 36)
	})
}

func TestNewRequestIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := NewRequestID()
		assert.Len(t, id, 36)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestTraceParentRoundTrip(t *testing.T) {
	const tp = "00-0123456789abcdef0123456789abcdef-0123456789abcdef-01"
	ctx := WithTraceParent(context.Background(), tp)

	got, ok := ParentFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, tp, got)
}

func TestGenerateTraceParentShape(t *testing.T) {
	tp := GenerateTraceParent()

	parts := strings.Split(tp, "-")
	require.Len(t, parts, 4)
	assert.Equal(t, "00", parts[0])
	assert.Len(t, parts[1], 32)
	assert.Len(t, parts[2], 16)
	assert.Equal(t, "01", parts[3])
	assert.NotEqual(t, strings.Repeat("0", 32), parts[1])
}
