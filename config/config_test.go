package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	// A path that does not exist falls back to defaults only.
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Client.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 0, cfg.Client.MaxRetries)
	assert.Equal(t, time.Second, cfg.Client.RetryDelay)
	assert.Equal(t, time.Second, cfg.Client.MaxRetryJitter)
	assert.False(t, cfg.Client.LogPayloads)
	assert.Equal(t, 1024, cfg.Client.MaxPayloadLogBytes)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)

	assert.False(t, cfg.Rate.Enabled)
}

func TestLoadYAMLOverrides(t *testing.T) {
	path := writeConfigFile(t, `
client:
  baseurl: https://api.example.com
  timeout: 5s
  maxretries: 3
  retrydelay: 100ms
  headers:
    X-API-Key: secret
log:
  level: debug
cache:
  enabled: true
  ttl: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.Client.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Client.Timeout)
	assert.Equal(t, 3, cfg.Client.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Client.RetryDelay)
	assert.Equal(t, "secret", cfg.Client.Headers["X-API-Key"])
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)

	// Untouched keys keep their defaults.
	assert.Equal(t, time.Second, cfg.Client.MaxRetryJitter)
	assert.Equal(t, 1024, cfg.Cache.MaxEntries)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfigFile(t, `
client:
  maxretries: 2
`)

	t.Setenv("REQSHIELD_CLIENT_MAXRETRIES", "5")
	t.Setenv("REQSHIELD_CLIENT_TIMEOUT", "10s")
	t.Setenv("REQSHIELD_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, 5, cfg.Client.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Client.Timeout)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad log level", "log:\n  level: verbose\n"},
		{"zero timeout", "client:\n  timeout: 0s\n"},
		{"negative retries", "client:\n  maxretries: -1\n"},
		{"rate enabled without rps", "rate:\n  enabled: true\n"},
		{"cache enabled without ttl", "cache:\n  enabled: true\n  ttl: 0s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfigFile(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	_, err := Load(writeConfigFile(t, "client: [not a map"))
	assert.Error(t, err)
}

func TestValidateCrossFieldRules(t *testing.T) {
	base := func() *Config {
		return &Config{
			Client: ClientConfig{Timeout: time.Second, RetryDelay: time.Second},
			Log:    LogConfig{Level: "info"},
			Cache:  CacheConfig{TTL: time.Minute, MaxEntries: 10},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, Validate(base()))
	})

	t.Run("rate enabled requires positive rps", func(t *testing.T) {
		cfg := base()
		cfg.Rate.Enabled = true
		assert.Error(t, Validate(cfg))

		cfg.Rate.RequestsPerSecond = 50
		assert.NoError(t, Validate(cfg))
	})

	t.Run("invalid base URL", func(t *testing.T) {
		cfg := base()
		cfg.Client.BaseURL = "not a url"
		assert.Error(t, Validate(cfg))
	})
}
