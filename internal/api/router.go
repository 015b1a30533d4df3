// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dquillon/vigil/internal/config"
	"github.com/dquillon/vigil/internal/monitor"
)

// Router assembles the HTTP routing tree.
type Router struct {
	handler *Handler
	engine  *monitor.Engine
	cfg     *config.Config
}

// NewRouter creates a router for the given handler and engine.
func NewRouter(handler *Handler, engine *monitor.Engine, cfg *config.Config) *Router {
	return &Router{
		handler: handler,
		engine:  engine,
		cfg:     cfg,
	}
}

// Setup builds the full routing tree with all middleware attached.
//
// The global stack handles request identity, client address resolution,
// panic recovery, and CORS. The /api/v1 group adds rate limiting and
// Prometheus instrumentation. The blocklist gate guards ingestion only;
// query endpoints stay reachable so operators can inspect a block from
// the blocked network if they have to.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORS(rt.cfg))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusNotFound, ErrCodeNotFound, "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed for this resource")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(RateLimit(rt.cfg))
		r.Use(Instrument)

		r.With(rt.engine.BlocklistMiddleware()).Post("/events", rt.handler.IngestEvent)

		r.Get("/stats", rt.handler.Stats)
		r.Get("/blacklist/{ip}", rt.handler.BlacklistStatus)
		r.Get("/audit", rt.handler.AuditReport)
		r.Get("/audit/summary", rt.handler.AuditSummary)
	})

	r.Get("/healthz", rt.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
