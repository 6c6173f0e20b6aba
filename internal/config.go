package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from YAML strings like "30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Upstream  UpstreamConfig    `yaml:"upstream"`
	Session   SessionConfig     `yaml:"session"`
	Cache     CacheConfig       `yaml:"cache"`
	Snapshots SnapshotsConfig   `yaml:"snapshots"`
	Events    EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Upstream.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return err
	}
	return c.Snapshots.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// UpstreamConfig points at the content API this gateway consumes.
type UpstreamConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout"`
}

// Validate validates the upstream configuration.
func (c *UpstreamConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("upstream: timeout must not be negative")
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
	)
}

// SessionConfig holds the admin credential file location.
type SessionConfig struct {
	CredentialPath string `yaml:"credential_path"`
}

// Validate validates the session configuration.
func (c *SessionConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.CredentialPath, validation.Required),
	)
}

// CacheConfig holds the content cache defaults.
type CacheConfig struct {
	StaleTime Duration    `yaml:"stale_time"`
	GCWindow  Duration    `yaml:"gc_window"`
	Retry     RetryConfig `yaml:"retry"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if c.StaleTime < 0 {
		return fmt.Errorf("cache: stale_time must not be negative")
	}
	if c.GCWindow < 0 {
		return fmt.Errorf("cache: gc_window must not be negative")
	}
	return c.Retry.Validate()
}

// RetryConfig bounds fetch reattempts.
type RetryConfig struct {
	MaxAttempts int      `yaml:"max_attempts"`
	BaseDelay   Duration `yaml:"base_delay"`
	MaxDelay    Duration `yaml:"max_delay"`
}

// Validate validates the retry configuration.
func (c *RetryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxAttempts, validation.Required, validation.Min(1), validation.Max(20)),
	)
}

// SnapshotsConfig controls the last-known-good store.
type SnapshotsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate validates the snapshots configuration.
func (c *SnapshotsConfig) Validate() error {
	if c.Enabled && c.Path == "" {
		return fmt.Errorf("snapshots: enabled but path is empty")
	}
	return nil
}

// EventsConfig controls the SSE feed.
type EventsConfig struct {
	RefreshThrottle Duration `yaml:"refresh_throttle"`
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:3000",
			Timeout: Duration(30 * time.Second),
		},
		Session: SessionConfig{
			CredentialPath: "./ansuz-credential.json",
		},
		Cache: CacheConfig{
			StaleTime: Duration(time.Minute),
			GCWindow:  Duration(5 * time.Minute),
			Retry: RetryConfig{
				MaxAttempts: 4,
				BaseDelay:   Duration(time.Second),
				MaxDelay:    Duration(30 * time.Second),
			},
		},
		Snapshots: SnapshotsConfig{
			Enabled: true,
			Path:    "./ansuz-lkg.db",
		},
		Events: EventsConfig{
			RefreshThrottle: Duration(2 * time.Second),
		},
	}
}
