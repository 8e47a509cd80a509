package config

import "time"

// Config is the root configuration for the request pipeline.
type Config struct {
	Client ClientConfig `koanf:"client"`
	Log    LogConfig    `koanf:"log"`
	Cache  CacheConfig  `koanf:"cache"`
	Rate   RateConfig   `koanf:"rate"`
}

// ClientConfig configures the HTTP client and its retry policy.
type ClientConfig struct {
	BaseURL        string            `koanf:"baseurl" validate:"omitempty,url"`
	Headers        map[string]string `koanf:"headers"`
	Timeout        time.Duration     `koanf:"timeout" validate:"gt=0"`
	MaxRetries     int               `koanf:"maxretries" validate:"gte=0"`
	RetryDelay     time.Duration     `koanf:"retrydelay" validate:"gt=0"`
	MaxRetryJitter time.Duration     `koanf:"maxretryjitter" validate:"gte=0"`

	// LogPayloads enables debug logging of request/response bodies,
	// capped at MaxPayloadLogBytes.
	LogPayloads        bool `koanf:"logpayloads"`
	MaxPayloadLogBytes int  `koanf:"maxpayloadlogbytes" validate:"gte=0"`

	// EnableW3CTrace propagates a traceparent header on outbound requests.
	EnableW3CTrace bool `koanf:"w3ctrace"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Pretty bool   `koanf:"pretty"`
}

// CacheConfig configures the optional read-through GET cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	TTL        time.Duration `koanf:"ttl" validate:"gte=0"`
	MaxEntries int           `koanf:"maxentries" validate:"gt=0"`
}

// RateConfig configures optional client-side request throttling.
type RateConfig struct {
	Enabled           bool    `koanf:"enabled"`
	RequestsPerSecond float64 `koanf:"requestspersecond" validate:"gte=0"`
	Burst             int     `koanf:"burst" validate:"gte=0"`
}
