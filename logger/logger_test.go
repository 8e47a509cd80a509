package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogger(level string) (*ZeroLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewWithWriter(level, false, buf), buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewDefaultsToInfoOnBadLevel(t *testing.T) {
	log, buf := captureLogger("not-a-level")

	log.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Info().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestEventFields(t *testing.T) {
	log, buf := captureLogger("debug")

	log.Info().
		Str("name", "value").
		Int("count", 3).
		Int64("big", 9000).
		Bool("flag", true).
		Dur("elapsed", 1500*time.Millisecond).
		Err(errors.New("boom")).
		Msg("fields")

	entry := decodeLine(t, buf)
	assert.Equal(t, "value", entry["name"])
	assert.Equal(t, float64(3), entry["count"])
	assert.Equal(t, float64(9000), entry["big"])
	assert.Equal(t, true, entry["flag"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "fields", entry["message"])
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name  string
		emit  func(Logger) LogEvent
		level string
	}{
		{"info", func(l Logger) LogEvent { return l.Info() }, "info"},
		{"error", func(l Logger) LogEvent { return l.Error() }, "error"},
		{"debug", func(l Logger) LogEvent { return l.Debug() }, "debug"},
		{"warn", func(l Logger) LogEvent { return l.Warn() }, "warn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := captureLogger("debug")
			tt.emit(log).Msg("x")

			entry := decodeLine(t, buf)
			assert.Equal(t, tt.level, entry["level"])
		})
	}
}

func TestWithFields(t *testing.T) {
	log, buf := captureLogger("info")

	child := log.WithFields(map[string]any{"component": "httpclient"})
	child.Info().Msg("tagged")

	entry := decodeLine(t, buf)
	assert.Equal(t, "httpclient", entry["component"])
}

func TestWithContext(t *testing.T) {
	t.Run("non-context value returns receiver", func(t *testing.T) {
		log, _ := captureLogger("info")
		assert.Equal(t, Logger(log), log.WithContext("not a context"))
	})

	t.Run("context without logger returns receiver", func(t *testing.T) {
		log, _ := captureLogger("info")
		assert.Equal(t, Logger(log), log.WithContext(context.Background()))
	})

	t.Run("context with zerolog logger is adopted", func(t *testing.T) {
		log, _ := captureLogger("info")
		buf := &bytes.Buffer{}
		zl := zerolog.New(buf)
		ctx := zl.WithContext(context.Background())

		log.WithContext(ctx).Info().Msg("from ctx")
		assert.Contains(t, buf.String(), "from ctx")
	})
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	// Must not panic and must not write anywhere.
	log.Error().Str("k", "v").Msg("dropped")
}
