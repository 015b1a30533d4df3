// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

// Package main is the entry point for the Vigil daemon.
//
// Vigil is a self-hosted security event monitor for web applications and
// APIs. Services report security events (failed logins, injection attempts,
// rate-limit violations) over HTTP; Vigil classifies them by severity,
// tracks per-source velocity, blacklists abusive addresses, and forwards
// high-severity events to an external telemetry webhook.
//
// # Application Architecture
//
// The daemon initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Logging: Initialize zerolog from the logging section
//  3. Monitoring engine: In-memory ring, velocity tracker, and blacklist
//  4. Telemetry sink: Optional webhook dispatcher for high-severity events
//  5. Security auditor: Configuration posture checks exposed over the API
//  6. HTTP server: REST API with Prometheus metrics on port 5051
//  7. Supervision: suture tree restarting the engine sweep and HTTP server
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (MAX_EVENTS_PER_HOUR, TELEMETRY_WEBHOOK_URL, ...)
//   - Config file (config.yaml, or CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The daemon handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Drains the telemetry dispatcher queue
//
// # Example Usage
//
// Development, everything local:
//
//	ENVIRONMENT=development ./vigild
//
// Production with telemetry forwarding:
//
//	export ENVIRONMENT=production
//	export CSRF_SECRET=$(openssl rand -hex 32)
//	export SESSION_SECRET=$(openssl rand -hex 32)
//	export TELEMETRY_WEBHOOK_URL=https://siem.internal/hooks/vigil
//	./vigild
//
// Docker:
//
//	docker run -d \
//	  -e ENVIRONMENT=production \
//	  -e TELEMETRY_WEBHOOK_URL=https://siem.internal/hooks/vigil \
//	  -p 5051:5051 \
//	  ghcr.io/dquillon/vigil
//
// # Port 5051
//
// The default port 5051 is a nod to the engine's default velocity rule:
// fifty events per hour are tolerated from one address, and the
// fifty-first trips the blacklist.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dquillon/vigil/internal/api"
	"github.com/dquillon/vigil/internal/audit"
	"github.com/dquillon/vigil/internal/config"
	"github.com/dquillon/vigil/internal/logging"
	"github.com/dquillon/vigil/internal/monitor"
	"github.com/dquillon/vigil/internal/supervisor"
	"github.com/dquillon/vigil/internal/supervisor/services"
)

func main() {
	// Load configuration first to get logging settings
	cfg, err := config.Load()
	if err != nil {
		// Use default logger for config errors (config not yet available)
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Vigil with supervisor tree")

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Int("max_events_per_hour", cfg.Monitor.MaxEventsPerHour).
		Bool("telemetry_enabled", cfg.Telemetry.Enabled && cfg.Telemetry.WebhookURL != "").
		Msg("Configuration loaded")

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
		logging.Warn().Msg("This should only be used for load tests and CI!")
	}

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("============================================================")
		logging.Warn().Msg("  SECURITY WARNING: CORS is configured with wildcard origin (CORS_ORIGINS=*)")
		logging.Warn().Msg("  ")
		logging.Warn().Msg("  This allows ANY website to make cross-origin requests to your API.")
		logging.Warn().Msg("  In production, set specific origins:")
		logging.Warn().Msg("    CORS_ORIGINS=https://dash.yourdomain.com")
		logging.Warn().Msg("============================================================")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Telemetry sink is optional; without it high-severity events stay in
	// the local diagnostic log.
	var sink monitor.Sink
	if cfg.Telemetry.Enabled && cfg.Telemetry.WebhookURL != "" {
		sink = monitor.NewWebhookSink(monitor.WebhookSinkConfig{
			WebhookURL: cfg.Telemetry.WebhookURL,
			Headers:    cfg.Telemetry.Headers,
			Timeout:    cfg.Telemetry.Timeout,
			Enabled:    true,
		})
		logging.Info().Str("url", cfg.Telemetry.WebhookURL).Msg("Telemetry webhook sink configured")
	} else {
		logging.Info().Msg("Telemetry sink disabled - high-severity events stay in the local log")
	}

	engine := monitor.NewEngine(monitor.Config{
		RingCapacity:        cfg.Monitor.RingCapacity,
		MaxEventsPerHour:    cfg.Monitor.MaxEventsPerHour,
		VelocityWindow:      cfg.Monitor.VelocityWindow,
		BlacklistTTL:        cfg.Monitor.BlacklistTTL,
		MaxTrackedIPs:       cfg.Monitor.MaxTrackedIPs,
		MaxBlacklistEntries: cfg.Monitor.MaxBlacklistEntries,
		SweepInterval:       cfg.Monitor.SweepInterval,
		Production:          cfg.IsProduction(),
	}, sink, monitor.DispatcherConfig{
		QueueSize:   cfg.Telemetry.QueueSize,
		Timeout:     cfg.Telemetry.Timeout,
		RateLimitMs: cfg.Telemetry.RateLimitMs,
	})
	defer func() {
		if err := engine.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing monitoring engine")
		}
	}()
	logging.Info().Msg("Monitoring engine initialized")

	// Run the configuration audit once at startup so misconfigurations
	// surface in the log before the first request arrives.
	auditor := audit.NewAuditor(cfg.Settings())
	summary := auditor.Summary()
	if summary.Failed > 0 {
		logging.Warn().
			Int("score", summary.Score).
			Int("failed", summary.Failed).
			Msg("Startup security audit found failing checks")
	}

	handler := api.NewHandler(engine, auditor, cfg)
	router := api.NewRouter(handler, engine, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	tree.AddMonitorService(services.NewMonitorService(engine))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// Wait for supervisor to finish (either from signal or error)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
