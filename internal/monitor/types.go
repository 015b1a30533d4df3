// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"context"
	"time"
)

// EventType identifies the kind of security event being recorded.
type EventType string

const (
	// EventTypeAuthSuccess records a successful authentication.
	EventTypeAuthSuccess EventType = "auth_success"

	// EventTypeAuthFailure records a failed authentication attempt.
	EventTypeAuthFailure EventType = "auth_failure"

	// EventTypeAuthLockout records an account locked after repeated failures.
	EventTypeAuthLockout EventType = "auth_lockout"

	// EventTypeRateLimitExceeded records a client exceeding a rate limit.
	EventTypeRateLimitExceeded EventType = "rate_limit_exceeded"

	// EventTypeSuspiciousRequest records a request with anomalous structure.
	// Unrecognized event types are normalized to this type.
	EventTypeSuspiciousRequest EventType = "suspicious_request"

	// EventTypeUnauthorizedAccess records access to a resource without permission.
	EventTypeUnauthorizedAccess EventType = "unauthorized_access"

	// EventTypeCSRFViolation records a request failing CSRF verification.
	EventTypeCSRFViolation EventType = "csrf_violation"

	// EventTypeXSSAttempt records a request carrying a script injection payload.
	EventTypeXSSAttempt EventType = "xss_attempt"

	// EventTypeSQLInjectionAttempt records a request carrying a SQL injection payload.
	EventTypeSQLInjectionAttempt EventType = "sql_injection_attempt"

	// EventTypeFileUploadBlocked records an upload rejected by policy.
	EventTypeFileUploadBlocked EventType = "file_upload_blocked"

	// EventTypeAPIAbuse records sustained abusive API usage. The anomaly
	// detector synthesizes this type when an IP exceeds the event threshold.
	EventTypeAPIAbuse EventType = "api_abuse"

	// EventTypeDataExport records a bulk data export operation.
	EventTypeDataExport EventType = "data_export"

	// EventTypeAdminAction records a privileged administrative operation.
	EventTypeAdminAction EventType = "admin_action"

	// EventTypeSessionHijackAttempt records a session token used from an
	// unexpected origin.
	EventTypeSessionHijackAttempt EventType = "session_hijack_attempt"

	// EventTypeBruteForceAttempt records a credential stuffing pattern.
	EventTypeBruteForceAttempt EventType = "brute_force_attempt"
)

// Severity indicates the severity level of a security event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityByType is the fixed classification table. Every known event type
// maps to exactly one severity; the mapping is not configurable at runtime.
var severityByType = map[EventType]Severity{
	EventTypeAuthSuccess:          SeverityLow,
	EventTypeAuthFailure:          SeverityLow,
	EventTypeDataExport:           SeverityLow,
	EventTypeAuthLockout:          SeverityMedium,
	EventTypeRateLimitExceeded:    SeverityMedium,
	EventTypeSuspiciousRequest:    SeverityMedium,
	EventTypeUnauthorizedAccess:   SeverityMedium,
	EventTypeFileUploadBlocked:    SeverityMedium,
	EventTypeAdminAction:          SeverityMedium,
	EventTypeCSRFViolation:        SeverityHigh,
	EventTypeXSSAttempt:           SeverityHigh,
	EventTypeAPIAbuse:             SeverityHigh,
	EventTypeBruteForceAttempt:    SeverityHigh,
	EventTypeSQLInjectionAttempt:  SeverityCritical,
	EventTypeSessionHijackAttempt: SeverityCritical,
}

// severityRank orders severities for threshold comparisons.
var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Known reports whether t is a recognized event type.
func (t EventType) Known() bool {
	_, ok := severityByType[t]
	return ok
}

// Severity returns the classified severity for the event type.
// Unrecognized types default to medium.
func (t EventType) Severity() Severity {
	if s, ok := severityByType[t]; ok {
		return s
	}
	return SeverityMedium
}

// AtLeast reports whether s is at or above the given severity.
func (s Severity) AtLeast(threshold Severity) bool {
	return severityRank[s] >= severityRank[threshold]
}

// Event is an immutable security event record. Events are fully populated at
// construction and never mutated afterwards.
type Event struct {
	ID          string                 `json:"id"`
	Type        EventType              `json:"type"`
	Severity    Severity               `json:"severity"`
	Timestamp   time.Time              `json:"timestamp"`
	IP          string                 `json:"ip,omitempty"`
	UserID      string                 `json:"user_id,omitempty"`
	UserAgent   string                 `json:"user_agent,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Method      string                 `json:"method,omitempty"`
	Details     map[string]string      `json:"details,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Synthesized bool                   `json:"synthesized,omitempty"`
}

// RecentEvent is the compact form kept in the in-memory ring. Timestamps are
// Unix milliseconds to keep the ring small.
type RecentEvent struct {
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
}

// IPCount pairs an IP address with its event count in the current window.
type IPCount struct {
	IP    string `json:"ip"`
	Count int    `json:"count"`
}

// Stats is a point-in-time snapshot of the engine's observable state.
type Stats struct {
	RecentEventsCount int            `json:"recent_events_count"`
	EventsByType      map[string]int `json:"events_by_type"`
	BlacklistedIPs    int            `json:"blacklisted_ips_count"`
	TopSuspiciousIPs  []IPCount      `json:"top_suspicious_ips"`
}

// Sink delivers high-severity events to an external telemetry endpoint.
type Sink interface {
	// Send delivers an event to the telemetry channel.
	Send(ctx context.Context, event *Event) error

	// Name returns the sink name (e.g., "webhook").
	Name() string

	// Enabled returns whether this sink is enabled.
	Enabled() bool
}

// Config configures the monitoring engine.
type Config struct {
	// RingCapacity is the number of recent events retained in memory.
	RingCapacity int

	// MaxEventsPerHour is the per-IP event count threshold. An IP whose
	// count exceeds this value within the window is blacklisted.
	MaxEventsPerHour int

	// VelocityWindow is the per-IP counting window.
	VelocityWindow time.Duration

	// BlacklistTTL is how long a blacklist entry remains active.
	BlacklistTTL time.Duration

	// MaxTrackedIPs caps the velocity tracker. The entry with the earliest
	// window reset is evicted when the cap is reached.
	MaxTrackedIPs int

	// MaxBlacklistEntries caps the blacklist. The entry with the earliest
	// expiry is evicted when the cap is reached.
	MaxBlacklistEntries int

	// SweepInterval is the period of the background expiry sweep.
	// Zero disables sweeping; expiry then happens lazily on reads.
	SweepInterval time.Duration

	// Production controls event routing. In production, high and critical
	// events are forwarded to the telemetry sink; otherwise all events are
	// written to the local diagnostic log.
	Production bool

	// Now returns the current time. Defaults to time.Now; tests substitute
	// a fake clock.
	Now func() time.Time
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		RingCapacity:        1000,
		MaxEventsPerHour:    50,
		VelocityWindow:      time.Hour,
		BlacklistTTL:        time.Hour,
		MaxTrackedIPs:       100000,
		MaxBlacklistEntries: 10000,
		SweepInterval:       5 * time.Minute,
	}
}
