// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateMonitor(); err != nil {
		return err
	}

	if err := c.validateTelemetry(); err != nil {
		return err
	}

	if err := c.validateSecurity(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// Monitor bounds constants
const (
	minRingCapacity    = 1
	maxRingCapacity    = 1000000
	minEventsThreshold = 1
	maxEventsThreshold = 1000000
)

// validateMonitor validates monitoring engine configuration bounds
func (c *Config) validateMonitor() error {
	if err := c.validateRingCapacity(); err != nil {
		return err
	}
	if err := c.validateEventThreshold(); err != nil {
		return err
	}
	return c.validateMonitorWindows()
}

// validateRingCapacity validates the recent-event ring capacity
func (c *Config) validateRingCapacity() error {
	if c.Monitor.RingCapacity < minRingCapacity || c.Monitor.RingCapacity > maxRingCapacity {
		return fmt.Errorf("MONITOR_RING_CAPACITY must be between %d and %d", minRingCapacity, maxRingCapacity)
	}
	return nil
}

// validateEventThreshold validates the per-IP anomaly threshold
func (c *Config) validateEventThreshold() error {
	if c.Monitor.MaxEventsPerHour < minEventsThreshold || c.Monitor.MaxEventsPerHour > maxEventsThreshold {
		return fmt.Errorf("MAX_EVENTS_PER_HOUR must be between %d and %d", minEventsThreshold, maxEventsThreshold)
	}
	return nil
}

// validateMonitorWindows validates window durations and capacity caps
func (c *Config) validateMonitorWindows() error {
	if c.Monitor.VelocityWindow <= 0 {
		return fmt.Errorf("MONITOR_VELOCITY_WINDOW must be positive")
	}
	if c.Monitor.BlacklistTTL <= 0 {
		return fmt.Errorf("MONITOR_BLACKLIST_TTL must be positive")
	}
	if c.Monitor.MaxTrackedIPs < 1 {
		return fmt.Errorf("MONITOR_MAX_TRACKED_IPS must be at least 1")
	}
	if c.Monitor.MaxBlacklistEntries < 1 {
		return fmt.Errorf("MONITOR_MAX_BLACKLIST_ENTRIES must be at least 1")
	}
	if c.Monitor.SweepInterval < 0 {
		return fmt.Errorf("MONITOR_SWEEP_INTERVAL must be zero (disabled) or positive")
	}
	return nil
}

// Telemetry bounds constants
const (
	minTelemetryQueue = 1
	maxTelemetryQueue = 100000
)

// validateTelemetry validates telemetry sink configuration
func (c *Config) validateTelemetry() error {
	if !c.Telemetry.Enabled {
		return nil
	}

	if c.Telemetry.WebhookURL != "" {
		if err := validateHTTPURL(c.Telemetry.WebhookURL, "TELEMETRY_WEBHOOK_URL"); err != nil {
			return err
		}
	}
	if c.Telemetry.QueueSize < minTelemetryQueue || c.Telemetry.QueueSize > maxTelemetryQueue {
		return fmt.Errorf("TELEMETRY_QUEUE_SIZE must be between %d and %d", minTelemetryQueue, maxTelemetryQueue)
	}
	if c.Telemetry.Timeout <= 0 {
		return fmt.Errorf("TELEMETRY_TIMEOUT must be positive")
	}
	if c.Telemetry.RateLimitMs < 0 {
		return fmt.Errorf("TELEMETRY_RATE_LIMIT_MS must be zero (unlimited) or positive")
	}
	return nil
}

// validateSecurity validates security posture configuration
func (c *Config) validateSecurity() error {
	if err := c.validateSecrets(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateTLS()
}

// validateSecrets rejects placeholder secrets and enforces minimum strength
// in production. Empty secrets outside production are tolerated; the security
// audit reports them instead of blocking startup.
func (c *Config) validateSecrets() error {
	secrets := map[string]string{
		"CSRF_SECRET":    c.Security.CSRFSecret,
		"SESSION_SECRET": c.Security.SessionSecret,
		"ADMIN_PASSWORD": c.Security.AdminPassword,
	}

	for name, value := range secrets {
		if value != "" && containsPlaceholder(value) {
			return fmt.Errorf("%s contains a placeholder value - generate a secure secret with: openssl rand -base64 32", name)
		}
	}

	if !c.IsProduction() {
		return nil
	}

	if c.Security.CSRFSecret == "" {
		return fmt.Errorf("CSRF_SECRET is required when ENVIRONMENT=production")
	}
	if len(c.Security.CSRFSecret) < 32 {
		return fmt.Errorf("CSRF_SECRET must be at least 32 characters for security")
	}
	if c.Security.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required when ENVIRONMENT=production")
	}
	if len(c.Security.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters for security")
	}
	return nil
}

// Rate limit constants
const (
	minRateLimitRequests = 1           // Minimum 1 request allowed
	maxRateLimitRequests = 100000      // Maximum 100K requests per window
	minRateLimitWindow   = time.Second // Minimum 1 second window
	maxRateLimitWindow   = time.Hour   // Maximum 1 hour window
)

// validateRateLimits validates rate limiting configuration bounds.
// Ensures rate limit values are within sensible ranges to prevent
// misconfiguration that could lead to DoS or ineffective protection.
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}

	if c.Security.RateLimitReqs < minRateLimitRequests || c.Security.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateTLS requires cert and key to be configured together
func (c *Config) validateTLS() error {
	if (c.Security.TLSCertFile == "") != (c.Security.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	return nil
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log output formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// hasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) hasWildcardCORS() bool {
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// ShouldWarnAboutCORS returns true if CORS configuration has security concerns
// that should be logged at startup. Wildcard origins in production are also
// reported as a failing check by the security audit.
func (c *Config) ShouldWarnAboutCORS() bool {
	return c.hasWildcardCORS() && c.IsProduction()
}

// IsProduction returns true if the application is running in production mode.
// Production mode is determined by the ENVIRONMENT environment variable.
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "production" || env == "prod"
}

// IsDevelopment returns true if the application is running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Server.Environment)
	return env == "" || env == "development" || env == "dev"
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value. This prevents accidental deployment
// with insecure default credentials.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"YOUR_PASSWORD",
	"PLACEHOLDER",
	"TODO",
	"FIXME",
	"XXX",
	"EXAMPLE",
}

// containsPlaceholder reports whether a value looks like an unset template
// placeholder rather than a real secret.
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}

// validateHTTPURL validates that a URL is properly formatted for HTTP/HTTPS services.
// Validates: scheme (http/https) and host present.
func validateHTTPURL(rawURL, fieldName string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("%s host is required", fieldName)
	}

	return nil
}
