// Package config resolves application settings from compiled defaults,
// an optional YAML settings file, and environment overrides, in that
// order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// SettingsPathEnv names the environment variable pointing at the YAML
// settings file.
const SettingsPathEnv = "SOON_SETTINGS_PATH"

var (
	ErrReadSettings  = errors.New("config: cannot read settings file")
	ErrParseSettings = errors.New("config: cannot parse settings file")
	ErrMissingSecret = errors.New("config: SECRET_KEY is required")
	ErrShortSecret   = errors.New("config: SECRET_KEY must be at least 32 bytes")
	ErrMissingDB     = errors.New("config: DATABASE_URL is required")
)

// Config is the full application configuration.
type Config struct {
	Addr        string        `yaml:"addr"`
	DatabaseURL string        `yaml:"database_url"`
	SecretKey   string        `yaml:"secret_key"`
	MediaRoot   string        `yaml:"media_root"`
	MediaURL    string        `yaml:"media_url"`
	Debug       bool          `yaml:"debug"`
	SentryDSN   string        `yaml:"sentry_dsn"`
	SessionTTL  time.Duration `yaml:"session_ttl"`
}

func defaults() Config {
	return Config{
		Addr:       ":8080",
		MediaRoot:  "media",
		MediaURL:   "/uploads",
		SessionTTL: 7 * 24 * time.Hour,
	}
}

// Load resolves the configuration. The settings file is optional; a
// path set in SOON_SETTINGS_PATH that cannot be read or parsed is a
// hard error so a typo never silently falls back to defaults.
func Load() (Config, error) {
	cfg := defaults()

	if path := os.Getenv(SettingsPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrReadSettings, path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrParseSettings, path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Addr, "SOON_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.SecretKey, "SECRET_KEY")
	setString(&cfg.MediaRoot, "MEDIA_ROOT")
	setString(&cfg.MediaURL, "MEDIA_URL")
	setString(&cfg.SentryDSN, "SENTRY_DSN")

	if v := os.Getenv("DEBUG"); v != "" {
		cfg.Debug = v == "1" || v == "true" || v == "yes"
	}
	if v := os.Getenv("SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports configuration the app cannot start with.
func (c Config) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecret
	}
	if len(c.SecretKey) < 32 {
		return ErrShortSecret
	}
	if c.DatabaseURL == "" {
		return ErrMissingDB
	}
	return nil
}
