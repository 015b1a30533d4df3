// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

// Package audit runs the security posture checklist against the
// application configuration.
//
// The checklist is a fixed, ordered list of independent checks. Each check
// inspects one aspect of the configuration through the read-only Settings
// interface and yields a CheckItem with a status of pass, fail, warning,
// or not_checked. Checks never modify state and never depend on each
// other, so the report is reproducible for a given configuration.
//
// # Checks
//
// The checklist covers five categories:
//
// Configuration:
//   - database_url: the database connection string is set
//
// Secrets:
//   - csrf_secret: set, not a placeholder, at least 32 characters
//   - session_secret: same rules as csrf_secret
//   - admin_password: not a placeholder (empty downgrades to warning)
//
// Runtime:
//   - environment: production passes, anything else warns
//
// Hardening:
//   - rate_limiting: warns when API rate limiting is disabled
//   - cors_origins: wildcard origins fail in production, warn elsewhere
//   - secure_cookies: production must require HTTPS cookies
//   - tls_certificate: production without a certificate pair warns
//
// Observability:
//   - telemetry_sink: warns when no telemetry webhook is configured
//
// Checks gated on production mode report not_checked in other
// environments rather than vanishing, so the report shape is stable.
//
// # Scoring
//
// The summary score is the percentage of passing checks over the full
// checklist length, rounded to the nearest integer. Warnings and
// not_checked items count toward the denominator but not the numerator.
// An empty checklist scores 100.
//
// # Usage Example
//
//	auditor := audit.NewAuditor(cfg.Settings())
//
//	// Full report
//	items := auditor.Run()
//
//	// Aggregate score
//	summary := auditor.Summary()
//	fmt.Printf("posture score: %d/100\n", summary.Score)
//
// # See Also
//
//   - internal/config: the koanf-backed Settings implementation
//   - internal/api: audit report and summary endpoints
package audit
