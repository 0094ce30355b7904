// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers defaults, an optional YAML file and TERIMU_* env vars.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DefaultStory is used when a session request names no story.
	DefaultStory string `koanf:"default_story"`

	// DefaultLang is used when neither the request nor Accept-Language picks one.
	DefaultLang string `koanf:"default_lang"`

	// ShardCount configures the number of shards in the session store.
	ShardCount int `koanf:"shard_count"`

	// MaxSessions caps concurrently open games.
	MaxSessions int `koanf:"max_sessions"`

	// SessionTTLSeconds evicts games idle for longer than this.
	SessionTTLSeconds int `koanf:"session_ttl_seconds"`

	// JanitorIntervalSeconds controls how often idle games are swept.
	JanitorIntervalSeconds int `koanf:"janitor_interval_seconds"`

	// DedupeSize bounds the remembered gesture ids.
	DedupeSize int `koanf:"dedupe_size"`

	// QueueSize bounds the pending completion notifications.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of notification workers.
	WorkerCount int `koanf:"worker_count"`

	// NotifyWebhookURL receives a JSON POST per completed game when set.
	NotifyWebhookURL string `koanf:"notify_webhook_url"`

	// NotifyTimeoutMS bounds one webhook delivery attempt.
	NotifyTimeoutMS int `koanf:"notify_timeout_ms"`

	// NotifyMaxRetries is the number of extra delivery attempts.
	NotifyMaxRetries int `koanf:"notify_max_retries"`

	// ShuffleSeed makes pool shuffles reproducible when non-zero.
	ShuffleSeed uint64 `koanf:"shuffle_seed"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		LogFormat:              "text",
		Addr:                   ":9080",
		DefaultStory:           "te-rimu",
		DefaultLang:            "mi",
		ShardCount:             8,
		MaxSessions:            10_000,
		SessionTTLSeconds:      3600,
		JanitorIntervalSeconds: 60,
		DedupeSize:             100_000,
		QueueSize:              1024,
		WorkerCount:            runtime.NumCPU(),
		NotifyTimeoutMS:        2000,
		NotifyMaxRetries:       2,
	}
}

// SessionTTL returns SessionTTLSeconds as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

// JanitorInterval returns JanitorIntervalSeconds as a duration.
func (c *Config) JanitorInterval() time.Duration {
	return time.Duration(c.JanitorIntervalSeconds) * time.Second
}

// NotifyTimeout returns NotifyTimeoutMS as a duration.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.NotifyTimeoutMS) * time.Millisecond
}

// Validate checks the fields the service cannot start without.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.DefaultStory) == "":
		return fmt.Errorf("%w: default_story must not be empty", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.NotifyMaxRetries < 0:
		return fmt.Errorf("%w: notify_max_retries must not be negative", ErrInvalidConfig)
	}
	return nil
}
