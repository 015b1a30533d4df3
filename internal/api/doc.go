// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

/*
Package api provides the HTTP ops surface for the monitoring engine.

This package exposes event ingestion, the statistics projection, blacklist
membership queries, and the security posture audit over a small REST API.
It is a reference integration of the monitor library; the library itself
never depends on it.

Key Components:

  - Router: Chi route configuration and middleware stack
  - Handler: Request handlers bound to the engine and auditor
  - ResponseWriter: Standardized JSON envelopes with request metadata
  - Middleware: request IDs, Prometheus instrumentation, per-IP rate limits

Endpoints:

 1. Ingestion (/api/v1/):
    - POST /events: record a security event (blocklist-gated)

 2. Queries (/api/v1/):
    - GET /stats: recent-event and velocity statistics
    - GET /blacklist/{ip}: blacklist membership for one address
    - GET /audit: the full posture checklist
    - GET /audit/summary: aggregate posture score

 3. Operations:
    - GET /healthz: liveness with uptime and telemetry counters
    - GET /metrics: Prometheus exposition

Usage Example:

	engine := monitor.NewEngine(monitor.Config{}, sink, monitor.DispatcherConfig{})
	auditor := audit.NewAuditor(cfg.Settings())

	handler := api.NewHandler(engine, auditor, cfg)
	router := api.NewRouter(handler, engine, cfg)

	http.ListenAndServe(":5051", router.Setup())

Security:

  - Per-IP rate limiting on all /api/v1 routes (go-chi/httprate)
  - Blacklisted source addresses receive 403 before ingestion
  - CORS origins come from configuration, never a built-in wildcard
  - Caller-supplied strings are sanitized before logging

Thread Safety:

All handlers are safe for concurrent use. Shared state lives behind the
engine's own synchronization.

See Also:

  - internal/monitor: the engine this surface fronts
  - internal/audit: posture checklist and scoring
  - internal/validation: request DTO validation
*/
package api
