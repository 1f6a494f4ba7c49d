// Package config handles CLI configuration loading and management.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petal-labs/swipe/core"
)

// DefaultTokenRef is the keystore entry holding the auth token.
const DefaultTokenRef = "tinder"

// Config represents the CLI configuration.
type Config struct {
	BaseURL        string          `yaml:"base_url,omitempty"`
	AuthHeader     string          `yaml:"auth_header,omitempty"`
	TokenRef       string          `yaml:"token_ref,omitempty"`
	EnvFiles       []string        `yaml:"env_files,omitempty"`
	Concurrency    int             `yaml:"concurrency,omitempty"`
	AttemptTimeout time.Duration   `yaml:"attempt_timeout,omitempty"`
	Retry          RetryConfig     `yaml:"retry"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	Redis          RedisConfig     `yaml:"redis"`
	Auto           AutoConfig      `yaml:"auto"`
	LogLevel       string          `yaml:"log_level,omitempty"`
}

// RetryConfig tunes the backoff policy. Zero values keep the defaults.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts,omitempty"`
	BaseDelay   time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay    time.Duration `yaml:"max_delay,omitempty"`
	Jitter      *float64      `yaml:"jitter,omitempty"`
}

// RateLimitConfig paces outgoing attempts. Zero disables pacing.
type RateLimitConfig struct {
	RequestsPerMinute float64 `yaml:"requests_per_minute,omitempty"`
	Burst             int     `yaml:"burst,omitempty"`
}

// RedisConfig points at a shared token store.
type RedisConfig struct {
	URL string `yaml:"url,omitempty"`
	Key string `yaml:"key,omitempty"`
}

// AutoConfig drives the auto command.
type AutoConfig struct {
	Keywords    []string      `yaml:"keywords,omitempty"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	PassOthers  bool          `yaml:"pass_others,omitempty"`
	MetricsAddr string        `yaml:"metrics_addr,omitempty"`
}

// DefaultConfigPath returns the default configuration file path for the current platform.
// - macOS/Linux: ~/.swipe/config.yaml
// - Windows: %USERPROFILE%\.swipe\config.yaml
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".swipe", "config.yaml")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("USERPROFILE")
	}
	return os.Getenv("HOME")
}

// LoadConfig loads configuration from the specified path.
// If the file doesn't exist, returns an empty config without error.
// Returns an error only if the file exists but cannot be read, parsed or validated.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values that would misconfigure the client.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must not be negative")
	}
	if j := c.Retry.Jitter; j != nil && (*j < 0 || *j > 1) {
		return fmt.Errorf("retry.jitter must be between 0 and 1")
	}
	if c.RateLimit.RequestsPerMinute < 0 {
		return fmt.Errorf("rate_limit.requests_per_minute must not be negative")
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// TokenName returns the keystore entry holding the token.
func (c *Config) TokenName() string {
	if c.TokenRef != "" {
		return c.TokenRef
	}
	return DefaultTokenRef
}

// Backoff merges the retry section over core defaults.
func (c *Config) Backoff() core.BackoffConfig {
	b := core.DefaultBackoffConfig()
	if c.Retry.MaxAttempts > 0 {
		b.MaxAttempts = c.Retry.MaxAttempts
	}
	if c.Retry.BaseDelay > 0 {
		b.BaseDelay = c.Retry.BaseDelay
	}
	if c.Retry.MaxDelay > 0 {
		b.MaxDelay = c.Retry.MaxDelay
	}
	if c.Retry.Jitter != nil {
		b.Jitter = *c.Retry.Jitter
	}
	return b
}

// ParseLevel maps a log_level value to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log_level %q", s)
	}
	return level, nil
}
