// Package config loads console configuration from a YAML file and
// environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides. A double underscore
// separates nesting levels so single underscores survive in key
// names: INCIDENT_CONSOLE_API__BASE_URL -> api.base_url.
const envPrefix = "INCIDENT_CONSOLE_"

// Config is the root configuration.
type Config struct {
	API APIConfig `koanf:"api"`
	UI  UIConfig  `koanf:"ui"`
	Log LogConfig `koanf:"log"`
}

// APIConfig configures the connection to the incident-tracker API.
type APIConfig struct {
	BaseURL   string        `koanf:"base_url"`
	Timeout   time.Duration `koanf:"timeout"`
	RateLimit float64       `koanf:"rate_limit"`
	Burst     int           `koanf:"burst"`
	TokenFile string        `koanf:"token_file"`
}

// UIConfig configures presentation behavior.
type UIConfig struct {
	PageSize int `koanf:"page_size"`
}

// LogConfig configures the background logger. File may be empty, in
// which case records are discarded (the TUI owns the terminal).
type LogConfig struct {
	Level string `koanf:"level"`
	File  string `koanf:"file"`
}

// Load reads configuration from the given path (optional) and the
// environment, applying defaults for anything unset.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "http://localhost:8000"
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 15 * time.Second
	}
	if c.API.RateLimit == 0 {
		c.API.RateLimit = 10
	}
	if c.API.Burst == 0 {
		c.API.Burst = 5
	}
	if c.API.TokenFile == "" {
		c.API.TokenFile = defaultTokenFile()
	}
	if c.UI.PageSize == 0 {
		c.UI.PageSize = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// DefaultPath returns the conventional config file location, or empty
// when the user config directory cannot be resolved.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "incident-console", "config.yaml")
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "incident-console", "token")
}
