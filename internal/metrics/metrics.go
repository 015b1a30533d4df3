// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package metrics

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Integration for Production Observability
// This package provides instrumentation for:
// - Security event ingestion and anomaly detection
// - IP blacklist lifecycle
// - Telemetry forwarding (queue depth, drops, failures)
// - API endpoint latency and throughput
// - Security audit runs

var (
	// Security Event Metrics
	SecurityEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "security_events_total",
			Help: "Total number of security events ingested",
		},
		[]string{"type", "severity"},
	)

	SecurityEventsSynthesized = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_events_synthesized_total",
			Help: "Total number of events synthesized by the anomaly detector",
		},
	)

	SecurityUnknownEventTypes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "security_unknown_event_types_total",
			Help: "Total number of events reported with an unregistered type",
		},
	)

	SecurityRecentEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "security_recent_events",
			Help: "Current number of events held in the recent-event ring",
		},
	)

	// IP Velocity Metrics
	VelocityTrackedIPs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "velocity_tracked_ips",
			Help: "Current number of IPs with an active event-count window",
		},
	)

	VelocityWindowResets = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velocity_window_resets_total",
			Help: "Total number of expired per-IP windows restarted on arrival",
		},
	)

	VelocityEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "velocity_evictions_total",
			Help: "Total number of IP windows evicted due to the tracker capacity cap",
		},
	)

	// Anomaly Detection Metrics
	AnomalyDetections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomaly_detections_total",
			Help: "Total number of anomaly threshold violations detected",
		},
		[]string{"reason"},
	)

	// Blacklist Metrics
	BlacklistEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "blacklist_entries",
			Help: "Current number of stored blacklist entries (expired entries count until removed)",
		},
	)

	BlacklistAdditions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blacklist_additions_total",
			Help: "Total number of IPs added to or refreshed in the blacklist",
		},
	)

	BlacklistExpirations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blacklist_expirations_total",
			Help: "Total number of expired blacklist entries removed on read or sweep",
		},
	)

	BlacklistHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blacklist_hits_total",
			Help: "Total number of requests rejected because the client IP is blacklisted",
		},
		[]string{"endpoint"},
	)

	BlacklistEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "blacklist_evictions_total",
			Help: "Total number of entries evicted due to the blacklist capacity cap",
		},
	)

	// Telemetry Forwarding Metrics
	TelemetryEventsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_events_sent_total",
			Help: "Total number of events successfully forwarded to the telemetry sink",
		},
	)

	TelemetryEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_events_dropped_total",
			Help: "Total number of events dropped because the telemetry queue was full",
		},
	)

	TelemetrySendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telemetry_send_failures_total",
			Help: "Total number of failed telemetry sink deliveries",
		},
	)

	TelemetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "telemetry_queue_depth",
			Help: "Current number of events waiting in the telemetry queue",
		},
	)

	TelemetrySendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "telemetry_send_duration_seconds",
			Help:    "Duration of telemetry sink deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Audit Metrics
	AuditRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_runs_total",
			Help: "Total number of security audit runs",
		},
	)

	AuditScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audit_score",
			Help: "Score of the most recent security audit (0-100)",
		},
	)

	AuditChecksByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "audit_checks",
			Help: "Check counts from the most recent security audit by status",
		},
		[]string{"status"}, // pass, fail, warning, not_checked
	)

	AuditRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "audit_run_duration_seconds",
			Help:    "Duration of security audit runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordSecurityEvent records an ingested security event.
func RecordSecurityEvent(eventType, severity string) {
	SecurityEventsTotal.WithLabelValues(eventType, severity).Inc()
}

// RecordSynthesizedEvent records an event synthesized by the anomaly detector.
func RecordSynthesizedEvent() {
	SecurityEventsSynthesized.Inc()
}

// RecordUnknownEventType records an event reported with an unregistered type.
func RecordUnknownEventType() {
	SecurityUnknownEventTypes.Inc()
}

// UpdateRecentEvents updates the recent-event ring size gauge.
func UpdateRecentEvents(n int) {
	SecurityRecentEvents.Set(float64(n))
}

// UpdateTrackedIPs updates the velocity tracker size gauge.
func UpdateTrackedIPs(n int) {
	VelocityTrackedIPs.Set(float64(n))
}

// RecordWindowReset records an expired per-IP window restarting on arrival.
func RecordWindowReset() {
	VelocityWindowResets.Inc()
}

// RecordVelocityEviction records an IP window evicted at capacity.
func RecordVelocityEviction() {
	VelocityEvictions.Inc()
}

// RecordAnomalyDetection records a threshold violation.
func RecordAnomalyDetection(reason string) {
	AnomalyDetections.WithLabelValues(reason).Inc()
}

// RecordBlacklistAddition records an IP added to or refreshed in the blacklist.
func RecordBlacklistAddition() {
	BlacklistAdditions.Inc()
}

// RecordBlacklistExpiry records expired entries removed from the blacklist.
func RecordBlacklistExpiry(n int) {
	BlacklistExpirations.Add(float64(n))
}

// RecordBlacklistHit records a request rejected due to a blacklisted IP.
func RecordBlacklistHit(endpoint string) {
	BlacklistHits.WithLabelValues(endpoint).Inc()
}

// RecordBlacklistEviction records an entry evicted at capacity.
func RecordBlacklistEviction() {
	BlacklistEvictions.Inc()
}

// UpdateBlacklistEntries updates the blacklist size gauge.
func UpdateBlacklistEntries(n int) {
	BlacklistEntries.Set(float64(n))
}

// RecordTelemetrySend records a telemetry delivery attempt and its outcome.
func RecordTelemetrySend(duration time.Duration, err error) {
	TelemetrySendDuration.Observe(duration.Seconds())
	if err != nil {
		TelemetrySendFailures.Inc()
	} else {
		TelemetryEventsSent.Inc()
	}
}

// RecordTelemetryDrop records an event dropped because the queue was full.
func RecordTelemetryDrop() {
	TelemetryEventsDropped.Inc()
}

// UpdateTelemetryQueueDepth updates the telemetry queue depth gauge.
func UpdateTelemetryQueueDepth(depth int) {
	TelemetryQueueDepth.Set(float64(depth))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRateLimitHit records a rate limit rejection.
func RecordRateLimitHit(endpoint string) {
	APIRateLimitHits.WithLabelValues(endpoint).Inc()
}

// RecordAuditRun records a completed security audit.
func RecordAuditRun(duration time.Duration, score int, statusCounts map[string]int) {
	AuditRunsTotal.Inc()
	AuditRunDuration.Observe(duration.Seconds())
	AuditScore.Set(float64(score))
	for status, count := range statusCounts {
		AuditChecksByStatus.WithLabelValues(status).Set(float64(count))
	}
}

// SetCircuitBreakerState updates the state gauge for a named breaker.
// State values follow gobreaker: 0=closed, 1=half-open, 2=open.
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordCircuitBreakerRequest records a request outcome through a breaker.
func RecordCircuitBreakerRequest(name, result string) {
	CircuitBreakerRequests.WithLabelValues(name, result).Inc()
}

// SetAppInfo records application version information.
func SetAppInfo(version string) {
	AppInfo.WithLabelValues(version, runtime.Version()).Set(1)
}

// UpdateUptime updates the application uptime gauge.
func UpdateUptime(start time.Time) {
	AppUptime.Set(time.Since(start).Seconds())
}
