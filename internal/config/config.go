// Package config resolves how nanocoder reaches its chat-completions
// gateway. A JSON file under ~/.nanocoder supplies defaults; environment
// variables override it so the tool keeps working with nothing but
// OPENAI_API_KEY exported.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Defaults applied when neither file nor environment supplies a value.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	defaultTimeout = 5 * time.Minute
)

// ErrMissingAPIKey is returned when no API key is configured anywhere.
var ErrMissingAPIKey = errors.New("no API key: set OPENAI_API_KEY or api_key in the config file")

// Config is the resolved provider configuration.
type Config struct {
	// APIBaseURL is the base URL for chat completions.
	APIBaseURL string `json:"api_base_url"`
	// APIKey is the bearer token used for Authorization.
	APIKey string `json:"api_key"`
	// DefaultModel is used when no flag overrides it.
	DefaultModel string `json:"default_model"`
	// TimeoutMS bounds a whole streaming request in milliseconds.
	TimeoutMS int `json:"timeout_ms"`
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutMS <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// Path returns the default config file location.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".nanocoder", "config.json"), nil
}

// Load reads the config file at path (or the default location when path
// is empty), applies environment overrides, and validates the result. A
// missing file is not an error; the environment alone may be enough.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = Path()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to environment-only configuration.
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("NANOCODER_MODEL"); v != "" {
		cfg.DefaultModel = v
	}

	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultBaseURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultModel
	}
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	return cfg, nil
}
