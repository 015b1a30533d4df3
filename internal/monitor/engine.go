// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

// Package monitor implements the security event monitoring and anomaly
// response engine. It records security events in a bounded in-memory ring,
// tracks per-IP event velocity within a rolling window, and blacklists IPs
// whose event count exceeds the configured threshold.
//
// # Event Flow
//
// Every recorded event passes through the same pipeline:
//
//  1. Classification: the event type is mapped to a fixed severity.
//     Unrecognized types are normalized to suspicious_request.
//  2. Retention: a compact form is appended to the recent-event ring.
//  3. Routing: in production, high and critical events are queued for the
//     telemetry sink; everything else goes to the local diagnostic log.
//  4. Velocity: the source IP's event count is incremented.
//  5. Detection: if the count exceeds the threshold, the IP is blacklisted
//     and a single api_abuse event is synthesized.
//
// Synthesized events re-enter the pipeline at step 2 but skip step 5, so
// detection can never recurse.
//
// # Thread Safety
//
// Each structure guards its own state with a mutex. The engine itself holds
// no shared mutable state outside those structures and is safe for
// concurrent use.
package monitor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dquillon/vigil/internal/logging"
	"github.com/dquillon/vigil/internal/metrics"
)

// topSuspiciousLimit is the number of IPs reported in stats.
const topSuspiciousLimit = 10

// Engine coordinates event recording, velocity tracking, and anomaly
// response.
type Engine struct {
	cfg        Config
	ring       *EventRing
	velocity   *VelocityTracker
	blacklist  *Blacklist
	dispatcher *Dispatcher
	seclog     *logging.SecurityLogger
	now        func() time.Time
}

// EventInput describes a security event to record. Type is the raw event
// type string; the engine classifies it and normalizes unknown values.
type EventInput struct {
	Type      string
	IP        string
	UserID    string
	UserAgent string
	Path      string
	Method    string
	Details   map[string]string
	Metadata  map[string]interface{}
}

// NewEngine creates a monitoring engine. A nil sink keeps all events local;
// otherwise high-severity events are forwarded through an async dispatcher
// when running in production.
func NewEngine(cfg Config, sink Sink, dispatcherCfg DispatcherConfig) *Engine {
	if cfg.RingCapacity <= 0 {
		cfg.RingCapacity = 1000
	}
	if cfg.MaxEventsPerHour <= 0 {
		cfg.MaxEventsPerHour = 50
	}
	if cfg.VelocityWindow <= 0 {
		cfg.VelocityWindow = time.Hour
	}
	if cfg.BlacklistTTL <= 0 {
		cfg.BlacklistTTL = time.Hour
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	e := &Engine{
		cfg:       cfg,
		ring:      NewEventRing(cfg.RingCapacity),
		velocity:  NewVelocityTracker(cfg.VelocityWindow, cfg.MaxTrackedIPs, now),
		blacklist: NewBlacklist(cfg.MaxBlacklistEntries, now),
		seclog:    logging.NewSecurityLogger(),
		now:       now,
	}

	if sink != nil {
		e.dispatcher = NewDispatcher(sink, dispatcherCfg)
		logging.Info().Str("sink", sink.Name()).Msg("telemetry sink registered")
	}

	return e
}

// LogEvent records a security event and returns the immutable event record.
// The call never blocks on telemetry delivery.
func (e *Engine) LogEvent(input EventInput) *Event {
	typ := EventType(input.Type)
	if !typ.Known() {
		metrics.RecordUnknownEventType()
		logging.Warn().
			Str("type", input.Type).
			Msg("unknown event type, recording as suspicious_request")
		typ = EventTypeSuspiciousRequest
	}

	event := &Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Severity:  typ.Severity(),
		Timestamp: e.now().UTC(),
		IP:        input.IP,
		UserID:    input.UserID,
		UserAgent: input.UserAgent,
		Path:      input.Path,
		Method:    input.Method,
		Details:   copyDetails(input.Details),
		Metadata:  copyMetadata(input.Metadata),
	}

	e.ingest(event, false)

	return event
}

// ingest runs one event through retention, routing, and velocity tracking.
// Synthesized events skip detection so a detection can never trigger itself.
func (e *Engine) ingest(event *Event, synthesized bool) {
	e.ring.Append(RecentEvent{
		Type:      event.Type,
		Timestamp: event.Timestamp.UnixMilli(),
		IP:        event.IP,
	})
	metrics.RecordSecurityEvent(string(event.Type), string(event.Severity))
	metrics.UpdateRecentEvents(e.ring.Len())
	if synthesized {
		metrics.RecordSynthesizedEvent()
	}

	e.emit(event)

	if event.IP == "" {
		return
	}

	count := e.velocity.Bump(event.IP)
	metrics.UpdateTrackedIPs(e.velocity.Len())

	if !synthesized {
		e.detect(event.IP, count)
	}
}

// emit routes the event to telemetry or the local diagnostic log.
// Telemetry delivery is fire-and-forget via the dispatcher queue.
func (e *Engine) emit(event *Event) {
	if e.cfg.Production && event.Severity.AtLeast(SeverityHigh) && e.dispatcher != nil {
		e.dispatcher.Enqueue(event)
		return
	}

	e.seclog.LogEvent(&logging.SecurityEvent{
		Event:     string(event.Type),
		Severity:  string(event.Severity),
		Source:    "monitor",
		UserID:    event.UserID,
		IPAddress: event.IP,
		UserAgent: event.UserAgent,
		Path:      event.Path,
		Method:    event.Method,
		Details:   event.Details,
	})
}

// detect blacklists the IP and synthesizes an api_abuse event when the
// count exceeds the threshold. Each triggering event refreshes the ban TTL
// and produces exactly one synthesized event.
func (e *Engine) detect(ip string, count int) {
	if count <= e.cfg.MaxEventsPerHour {
		return
	}

	e.blacklist.Ban(ip, e.cfg.BlacklistTTL)
	metrics.RecordAnomalyDetection("event_velocity")
	metrics.RecordBlacklistAddition()
	metrics.UpdateBlacklistEntries(e.blacklist.Len())

	logging.Warn().
		Str("ip", ip).
		Int("count", count).
		Int("threshold", e.cfg.MaxEventsPerHour).
		Dur("ttl", e.cfg.BlacklistTTL).
		Msg("event velocity threshold exceeded, IP blacklisted")

	synthesized := &Event{
		ID:          uuid.NewString(),
		Type:        EventTypeAPIAbuse,
		Severity:    EventTypeAPIAbuse.Severity(),
		Timestamp:   e.now().UTC(),
		IP:          ip,
		Path:        "/",
		Method:      "ANY",
		Metadata:    map[string]interface{}{"event_count": count},
		Synthesized: true,
	}

	e.ingest(synthesized, true)
}

// IsIPBlacklisted reports whether the IP is actively blocked. Reading an
// expired entry removes it.
func (e *Engine) IsIPBlacklisted(ip string) bool {
	blocked := e.blacklist.IsBlacklisted(ip)
	metrics.UpdateBlacklistEntries(e.blacklist.Len())
	return blocked
}

// BlacklistStatus returns the ban expiry and whether the IP is actively
// blocked.
func (e *Engine) BlacklistStatus(ip string) (time.Time, bool) {
	expiresAt, blocked := e.blacklist.Status(ip)
	metrics.UpdateBlacklistEntries(e.blacklist.Len())
	return expiresAt, blocked
}

// Stats returns a snapshot of the engine's observable state.
func (e *Engine) Stats() Stats {
	return Stats{
		RecentEventsCount: e.ring.Len(),
		EventsByType:      e.ring.CountByType(),
		BlacklistedIPs:    e.blacklist.Len(),
		TopSuspiciousIPs:  e.velocity.Top(topSuspiciousLimit),
	}
}

// RecentEvents returns a copy of the retained events, oldest first.
func (e *Engine) RecentEvents() []RecentEvent {
	return e.ring.Snapshot()
}

// TelemetryStats returns dispatcher counters. Zero counters are returned
// when no sink is configured.
func (e *Engine) TelemetryStats() DispatcherStats {
	if e.dispatcher == nil {
		return DispatcherStats{}
	}
	return e.dispatcher.Stats()
}

// RunWithContext runs the background expiry sweep until the context is
// canceled. This method is designed to work with suture supervision.
//
// With sweeping disabled it blocks until cancellation so the engine still
// participates in supervised shutdown. Returns ctx.Err() on normal shutdown.
func (e *Engine) RunWithContext(ctx context.Context) error {
	logging.Info().
		Int("threshold", e.cfg.MaxEventsPerHour).
		Dur("window", e.cfg.VelocityWindow).
		Dur("sweep_interval", e.cfg.SweepInterval).
		Msg("monitoring engine started")

	if e.cfg.SweepInterval <= 0 {
		<-ctx.Done()
		e.shutdown()
		return ctx.Err()
	}

	ticker := time.NewTicker(e.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.sweep()
		case <-ctx.Done():
			e.shutdown()
			return ctx.Err()
		}
	}
}

// sweep removes elapsed velocity windows and expired bans.
func (e *Engine) sweep() {
	staleIPs := e.velocity.SweepStale()
	expiredBans := e.blacklist.SweepExpired()

	metrics.UpdateTrackedIPs(e.velocity.Len())
	metrics.UpdateBlacklistEntries(e.blacklist.Len())

	if staleIPs > 0 || expiredBans > 0 {
		logging.Debug().
			Int("stale_ips", staleIPs).
			Int("expired_bans", expiredBans).
			Msg("expiry sweep completed")
	}
}

// shutdown drains the telemetry queue and stops the dispatcher.
func (e *Engine) shutdown() {
	logging.Info().Msg("monitoring engine shutting down")
	if err := e.Close(); err != nil {
		logging.Error().Err(err).Msg("error during shutdown")
	}
}

// Close stops the telemetry dispatcher after draining queued events.
// Safe to call more than once.
func (e *Engine) Close() error {
	if e.dispatcher == nil {
		return nil
	}
	return e.dispatcher.Close()
}

// copyDetails returns a defensive copy so the stored event stays immutable
// even if the caller reuses the map.
func copyDetails(details map[string]string) map[string]string {
	if len(details) == 0 {
		return nil
	}

	out := make(map[string]string, len(details))
	for k, v := range details {
		out[k] = v
	}
	return out
}

// copyMetadata shallow-copies caller-supplied metadata for the same reason.
func copyMetadata(metadata map[string]interface{}) map[string]interface{} {
	if len(metadata) == 0 {
		return nil
	}

	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
