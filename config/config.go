// Package config loads the pipeline configuration from layered sources:
// built-in defaults, an optional YAML file, and environment variables,
// in increasing priority. Partial overrides are always allowed.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix namespaces the environment variables read by Load, e.g.
// REQSHIELD_CLIENT_MAXRETRIES=3 sets client.maxretries.
const EnvPrefix = "REQSHIELD_"

// DefaultConfigFile is the YAML file consulted when no path is given.
const DefaultConfigFile = "config.yaml"

// Load reads configuration from defaults, the YAML file at path (or
// DefaultConfigFile when path is empty), and the environment. A missing
// YAML file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.TrimPrefix(key, EnvPrefix)
			return strings.ReplaceAll(strings.ToLower(key), "_", "."), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"client.baseurl":            "",
		"client.timeout":            "30s",
		"client.maxretries":         0,
		"client.retrydelay":         "1s",
		"client.maxretryjitter":     "1s",
		"client.logpayloads":        false,
		"client.maxpayloadlogbytes": 1024,
		"client.w3ctrace":           false,

		"log.level":  "info",
		"log.pretty": false,

		"cache.enabled":    false,
		"cache.ttl":        "1m",
		"cache.maxentries": 1024,

		"rate.enabled":           false,
		"rate.requestspersecond": 0,
		"rate.burst":             0,
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
