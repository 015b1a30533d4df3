// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/dquillon/vigil/internal/audit"
	"github.com/dquillon/vigil/internal/config"
	"github.com/dquillon/vigil/internal/logging"
	"github.com/dquillon/vigil/internal/monitor"
)

// maxEventBodyBytes caps ingest payloads. Event metadata is small; anything
// near this limit is abuse, not telemetry.
const maxEventBodyBytes = 1 << 20

// Handler contains the dependencies for API handlers.
type Handler struct {
	engine    *monitor.Engine
	auditor   *audit.Auditor
	cfg       *config.Config
	startTime time.Time
}

// NewHandler creates an API handler bound to the engine and auditor.
func NewHandler(engine *monitor.Engine, auditor *audit.Auditor, cfg *config.Config) *Handler {
	return &Handler{
		engine:    engine,
		auditor:   auditor,
		cfg:       cfg,
		startTime: time.Now(),
	}
}

// ingestResponse echoes the recorded event's identity back to the caller.
type ingestResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Timestamp time.Time `json:"timestamp"`
}

// blacklistResponse answers a membership query for one address.
type blacklistResponse struct {
	IP          string     `json:"ip"`
	Blacklisted bool       `json:"blacklisted"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// auditResponse carries the full checklist with its aggregate.
type auditResponse struct {
	Checks  []audit.CheckItem `json:"checks"`
	Summary audit.Summary     `json:"summary"`
}

// healthResponse reports liveness and telemetry delivery counters.
type healthResponse struct {
	Status        string                  `json:"status"`
	Environment   string                  `json:"environment"`
	UptimeSeconds int64                   `json:"uptime_seconds"`
	Telemetry     monitor.DispatcherStats `json:"telemetry"`
}

// IngestEvent handles POST /api/v1/events.
//
// The event type is validated for shape only; unknown types are accepted
// and normalized by the engine. When the payload omits the IP, the
// connection's remote address is used so self-reporting services do not
// need to resolve their own address.
func (h *Handler) IngestEvent(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxEventBodyBytes)

	var req IngestEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logging.Ctx(r.Context()).Warn().
			Str("error", sanitizeLogValue(err.Error())).
			Msg("rejecting malformed event payload")
		rw.BadRequest("request body must be valid JSON")
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
		return
	}

	ip := req.IP
	if ip == "" {
		ip = remoteHost(r)
	}

	event := h.engine.LogEvent(monitor.EventInput{
		Type:      req.Type,
		IP:        ip,
		UserID:    req.UserID,
		UserAgent: req.UserAgent,
		Path:      req.Path,
		Method:    req.Method,
		Details:   req.Details,
		Metadata:  req.Metadata,
	})

	rw.Accepted(ingestResponse{
		ID:        event.ID,
		Type:      string(event.Type),
		Severity:  string(event.Severity),
		Timestamp: event.Timestamp,
	})
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Stats())
}

// BlacklistStatus handles GET /api/v1/blacklist/{ip}.
func (h *Handler) BlacklistStatus(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ip := chi.URLParam(r, "ip")
	if net.ParseIP(ip) == nil {
		rw.BadRequest("path parameter must be a valid IP address")
		return
	}

	expiresAt, blocked := h.engine.BlacklistStatus(ip)
	data := blacklistResponse{IP: ip, Blacklisted: blocked}
	if blocked {
		data.ExpiresAt = &expiresAt
	}
	rw.Success(data)
}

// AuditReport handles GET /api/v1/audit.
func (h *Handler) AuditReport(w http.ResponseWriter, r *http.Request) {
	items := h.auditor.Run()
	NewResponseWriter(w, r).Success(auditResponse{
		Checks:  items,
		Summary: audit.Summarize(items),
	})
}

// AuditSummary handles GET /api/v1/audit/summary.
func (h *Handler) AuditSummary(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.auditor.Summary())
}

// Health handles GET /healthz.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(healthResponse{
		Status:        "ok",
		Environment:   h.cfg.Server.Environment,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Telemetry:     h.engine.TelemetryStats(),
	})
}

// remoteHost extracts the bare IP from the request's remote address.
func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
