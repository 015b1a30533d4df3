// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package config

import (
	"time"

	"github.com/knadh/koanf/v2"
)

// Config holds all application configuration loaded from environment variables and config files.
// Provides centralized configuration management for the monitoring engine, telemetry
// forwarding, HTTP server, security posture settings, and logging.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Monitoring:
//     - Monitor: Event ring capacity, anomaly thresholds, blacklist TTL
//     - Telemetry: Remote sink forwarding for high-severity events
//
//  2. Infrastructure:
//     - Server: HTTP server configuration (port, host, timeout, environment)
//     - Database: External database URL (inspected by the security audit)
//
//  3. Security Posture:
//     - Security: Secrets, rate limiting, CORS, cookie and TLS settings
//
//  4. Observability:
//     - Logging: Log levels and output formats
//
// Example - Load configuration from environment:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Monitor   MonitorConfig   `koanf:"monitor"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
	Security  SecurityConfig  `koanf:"security"`
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`

	// settings is the raw koanf view of the merged configuration.
	// It backs the Settings() accessor used by the security audit.
	settings *Store
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"` // Environment mode: "development", "staging", "production" (default: "development")
}

// MonitorConfig holds security event monitoring settings.
//
// Environment Variables:
//   - MONITOR_RING_CAPACITY: Recent-event ring size (default: 1000)
//   - MAX_EVENTS_PER_HOUR: Per-IP events allowed per rolling window (default: 50)
//   - MONITOR_VELOCITY_WINDOW: Per-IP counting window (default: 1h)
//   - MONITOR_BLACKLIST_TTL: Blacklist entry lifetime (default: 1h)
//   - MONITOR_MAX_TRACKED_IPS: Velocity tracker capacity cap (default: 100000)
//   - MONITOR_MAX_BLACKLIST_ENTRIES: Blacklist capacity cap (default: 10000)
//   - MONITOR_SWEEP_INTERVAL: Background expiry sweep period, 0 disables (default: 5m)
type MonitorConfig struct {
	RingCapacity        int           `koanf:"ring_capacity"`
	MaxEventsPerHour    int           `koanf:"max_events_per_hour"`
	VelocityWindow      time.Duration `koanf:"velocity_window"`
	BlacklistTTL        time.Duration `koanf:"blacklist_ttl"`
	MaxTrackedIPs       int           `koanf:"max_tracked_ips"`
	MaxBlacklistEntries int           `koanf:"max_blacklist_entries"`
	SweepInterval       time.Duration `koanf:"sweep_interval"`
}

// TelemetryConfig holds remote telemetry sink settings.
// High-severity events are forwarded to the sink in production; everything
// else is written to the local diagnostic log.
//
// Environment Variables:
//   - TELEMETRY_ENABLED: Enable telemetry forwarding (default: true)
//   - TELEMETRY_WEBHOOK_URL: Sink endpoint; empty keeps events local
//   - TELEMETRY_TIMEOUT: Per-delivery timeout (default: 10s)
//   - TELEMETRY_QUEUE_SIZE: Buffered queue capacity (default: 256)
//   - TELEMETRY_RATE_LIMIT_MS: Minimum ms between deliveries, 0 unlimited (default: 0)
type TelemetryConfig struct {
	Enabled     bool              `koanf:"enabled"`
	WebhookURL  string            `koanf:"webhook_url"`
	Headers     map[string]string `koanf:"headers"`
	Timeout     time.Duration     `koanf:"timeout"`
	QueueSize   int               `koanf:"queue_size"`
	RateLimitMs int               `koanf:"rate_limit_ms"`
}

// SecurityConfig holds security posture settings inspected at runtime and by
// the security audit.
type SecurityConfig struct {
	CSRFSecret        string        `koanf:"csrf_secret"`
	SessionSecret     string        `koanf:"session_secret"`
	AdminPassword     string        `koanf:"admin_password"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	TrustedProxies    []string      `koanf:"trusted_proxies"`
	CookieSecure      bool          `koanf:"cookie_secure"`
	TLSCertFile       string        `koanf:"tls_cert_file"`
	TLSKeyFile        string        `koanf:"tls_key_file"`
}

// DatabaseConfig holds the external database connection settings.
// The engine itself is in-memory; the URL is surfaced for the services that
// sit behind Vigil and is verified by the configuration audit check.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load loads and validates configuration from defaults, an optional config
// file, and environment variables.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// Settings returns the raw koanf-backed view of the merged configuration.
// Returns an empty store when the config was constructed directly rather
// than through Load (tests, fixtures).
func (c *Config) Settings() *Store {
	if c.settings == nil {
		return &Store{}
	}
	return c.settings
}

// Store provides read access to configuration values by dotted key path
// (e.g. "security.csrf_secret"). Lookups report whether the key exists so
// callers can distinguish unset keys from zero values.
type Store struct {
	k *koanf.Koanf
}

// NewStore wraps a koanf instance in a Store. Used by tests to build
// settings fixtures.
func NewStore(k *koanf.Koanf) *Store {
	return &Store{k: k}
}

// String returns the string value for key and whether the key exists.
func (s *Store) String(key string) (string, bool) {
	if s == nil || s.k == nil || !s.k.Exists(key) {
		return "", false
	}
	return s.k.String(key), true
}

// Bool returns the bool value for key and whether the key exists.
func (s *Store) Bool(key string) (bool, bool) {
	if s == nil || s.k == nil || !s.k.Exists(key) {
		return false, false
	}
	return s.k.Bool(key), true
}

// Strings returns the string slice value for key. Missing keys yield nil.
func (s *Store) Strings(key string) []string {
	if s == nil || s.k == nil || !s.k.Exists(key) {
		return nil
	}
	return s.k.Strings(key)
}
