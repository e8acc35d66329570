// ABOUTME: Configuration loading for the chat engine.
// ABOUTME: YAML with ${VAR} environment expansion and duration-string parsing.

package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	History   HistoryConfig   `yaml:"history"`
	Prefs     PrefsConfig     `yaml:"prefs"`
	Dedupe    DedupeConfig    `yaml:"dedupe"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig holds the backend endpoint settings.
type TransportConfig struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`

	HandshakeTimeout    time.Duration `yaml:"-"`
	HandshakeTimeoutRaw string        `yaml:"handshake_timeout"`
}

// ReconnectConfig holds the backoff schedule.
type ReconnectConfig struct {
	MaxAttempts int     `yaml:"max_attempts"`
	Jitter      float64 `yaml:"jitter"`

	Base    time.Duration `yaml:"-"`
	Cap     time.Duration `yaml:"-"`
	BaseRaw string        `yaml:"base"`
	CapRaw  string        `yaml:"cap"`
}

// HistoryConfig bounds channel histories.
type HistoryConfig struct {
	// MaxMessagesPerChannel trims the oldest messages past this count.
	// 0 disables trimming; unset selects the engine default.
	MaxMessagesPerChannel *int `yaml:"max_messages_per_channel"`
}

// PrefsConfig locates the preferences database.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// DedupeConfig tunes the send idempotency cache.
type DedupeConfig struct {
	MaxSize int `yaml:"max_size"`

	TTL    time.Duration `yaml:"-"`
	TTLRaw string        `yaml:"ttl"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the documented defaults: 1s/30s backoff with 20% jitter
// and unlimited attempts, 1000-message histories, 5m/512 dedupe.
func Default() *Config {
	return &Config{
		Reconnect: ReconnectConfig{
			Base:   time.Second,
			Cap:    30 * time.Second,
			Jitter: 0.2,
		},
		Transport: TransportConfig{
			HandshakeTimeout: 10 * time.Second,
		},
		Dedupe: DedupeConfig{
			TTL:     5 * time.Minute,
			MaxSize: 512,
		},
	}
}

// Load reads a configuration file, expands ${VAR} references from the
// environment, parses duration strings, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} patterns with environment values. Unset
// variables expand to the empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Transport.URL == "" {
		return fmt.Errorf("transport.url is required")
	}
	if c.Reconnect.Base <= 0 {
		return fmt.Errorf("reconnect.base must be positive")
	}
	if c.Reconnect.Cap < c.Reconnect.Base {
		return fmt.Errorf("reconnect.cap must be >= reconnect.base")
	}
	if c.Reconnect.Jitter < 0 || c.Reconnect.Jitter > 1 {
		return fmt.Errorf("reconnect.jitter must be between 0 and 1")
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("reconnect.max_attempts must be >= 0")
	}
	return nil
}

func parseDurations(cfg *Config) error {
	fields := []struct {
		raw  string
		dst  *time.Duration
		name string
	}{
		{cfg.Transport.HandshakeTimeoutRaw, &cfg.Transport.HandshakeTimeout, "transport.handshake_timeout"},
		{cfg.Reconnect.BaseRaw, &cfg.Reconnect.Base, "reconnect.base"},
		{cfg.Reconnect.CapRaw, &cfg.Reconnect.Cap, "reconnect.cap"},
		{cfg.Dedupe.TTLRaw, &cfg.Dedupe.TTL, "dedupe.ttl"},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}
	return nil
}
