// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package audit

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dquillon/vigil/internal/logging"
	"github.com/dquillon/vigil/internal/metrics"
)

// minSecretLength is the shortest secret that passes without a warning.
const minSecretLength = 32

// placeholderTokens flag template values that were never replaced.
// Mirrors the startup validation list so audit and validation agree on
// what counts as an unset secret.
var placeholderTokens = []string{
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

// Auditor runs the fixed posture checklist against a settings source.
// Every run produces a fresh report; the Auditor itself holds no state
// beyond the settings reference and is safe for concurrent use.
type Auditor struct {
	settings Settings
}

// NewAuditor creates an auditor reading from the given settings source.
func NewAuditor(settings Settings) *Auditor {
	return &Auditor{settings: settings}
}

// Run executes the checklist in its fixed order and returns one item per
// check.
func (a *Auditor) Run() []CheckItem {
	start := time.Now()

	items := []CheckItem{
		a.checkDatabaseURL(),
		a.checkSecret("csrf_secret", "security.csrf_secret", "CSRF signing secret is set and not a placeholder"),
		a.checkSecret("session_secret", "security.session_secret", "Session signing secret is set and not a placeholder"),
		a.checkAdminPassword(),
		a.checkEnvironment(),
		a.checkRateLimiting(),
		a.checkCORSOrigins(),
		a.checkSecureCookies(),
		a.checkTLSCertificate(),
		a.checkTelemetrySink(),
	}

	summary := Summarize(items)
	metrics.RecordAuditRun(time.Since(start), summary.Score, countByStatus(items))

	logging.Info().
		Int("score", summary.Score).
		Int("passed", summary.Passed).
		Int("failed", summary.Failed).
		Int("warnings", summary.Warnings).
		Msg("security audit completed")

	return items
}

// Summary runs the checklist and aggregates the outcome.
func (a *Auditor) Summary() Summary {
	return Summarize(a.Run())
}

// Summarize aggregates checklist items into counts and a 0-100 score.
// Every item counts toward the denominator, including not_checked ones,
// so a gated check can never inflate the score by not applying. An empty
// checklist scores 100.
func Summarize(items []CheckItem) Summary {
	summary := Summary{Total: len(items)}
	for _, item := range items {
		switch item.Status {
		case StatusPass:
			summary.Passed++
		case StatusFail:
			summary.Failed++
		case StatusWarning:
			summary.Warnings++
		case StatusNotChecked:
			summary.NotChecked++
		}
	}

	if summary.Total == 0 {
		summary.Score = 100
		return summary
	}
	summary.Score = int(math.Round(float64(summary.Passed) / float64(summary.Total) * 100))
	return summary
}

func (a *Auditor) checkDatabaseURL() CheckItem {
	item := CheckItem{
		ID:          "database_url",
		Category:    CategoryConfiguration,
		Description: "Database connection string is configured",
		Status:      StatusPass,
	}
	if value, _ := a.settings.String("database.url"); value == "" {
		item.Status = StatusFail
		item.Details = "database.url is empty"
	}
	return item
}

func (a *Auditor) checkSecret(id, key, description string) CheckItem {
	item := CheckItem{
		ID:          id,
		Category:    CategorySecrets,
		Description: description,
		Status:      StatusPass,
	}

	value, _ := a.settings.String(key)
	switch {
	case value == "":
		item.Status = StatusFail
		item.Details = key + " is empty"
	case containsPlaceholder(value):
		item.Status = StatusFail
		item.Details = key + " contains a placeholder value"
	case len(value) < minSecretLength:
		item.Status = StatusWarning
		item.Details = fmt.Sprintf("%s is shorter than %d characters", key, minSecretLength)
	}
	return item
}

func (a *Auditor) checkAdminPassword() CheckItem {
	item := CheckItem{
		ID:          "admin_password",
		Category:    CategorySecrets,
		Description: "Admin password does not use a placeholder value",
		Status:      StatusPass,
	}

	value, _ := a.settings.String("security.admin_password")
	switch {
	case containsPlaceholder(value):
		item.Status = StatusFail
		item.Details = "security.admin_password contains a placeholder value"
	case value == "":
		item.Status = StatusWarning
		item.Details = "security.admin_password is empty"
	}
	return item
}

func (a *Auditor) checkEnvironment() CheckItem {
	item := CheckItem{
		ID:          "environment",
		Category:    CategoryRuntime,
		Description: "Runtime environment is production",
		Status:      StatusPass,
	}
	if !a.isProduction() {
		env, _ := a.settings.String("server.environment")
		item.Status = StatusWarning
		item.Details = fmt.Sprintf("environment is %q, not production", env)
	}
	return item
}

func (a *Auditor) checkRateLimiting() CheckItem {
	item := CheckItem{
		ID:          "rate_limiting",
		Category:    CategoryHardening,
		Description: "API rate limiting is enabled",
		Status:      StatusPass,
	}
	if disabled, ok := a.settings.Bool("security.rate_limit_disabled"); ok && disabled {
		item.Status = StatusWarning
		item.Details = "rate limiting is disabled"
	}
	return item
}

func (a *Auditor) checkCORSOrigins() CheckItem {
	item := CheckItem{
		ID:          "cors_origins",
		Category:    CategoryHardening,
		Description: "CORS origins are restricted",
		Status:      StatusPass,
	}
	for _, origin := range a.settings.Strings("security.cors_origins") {
		if origin != "*" {
			continue
		}
		if a.isProduction() {
			item.Status = StatusFail
			item.Details = "wildcard CORS origin in production"
		} else {
			item.Status = StatusWarning
			item.Details = "wildcard CORS origin"
		}
		break
	}
	return item
}

func (a *Auditor) checkSecureCookies() CheckItem {
	item := CheckItem{
		ID:          "secure_cookies",
		Category:    CategoryHardening,
		Description: "Session cookies require HTTPS",
		Status:      StatusPass,
	}
	if !a.isProduction() {
		item.Status = StatusNotChecked
		item.Details = "only enforced in production"
		return item
	}
	if secure, _ := a.settings.Bool("security.cookie_secure"); !secure {
		item.Status = StatusFail
		item.Details = "security.cookie_secure is disabled in production"
	}
	return item
}

func (a *Auditor) checkTLSCertificate() CheckItem {
	item := CheckItem{
		ID:          "tls_certificate",
		Category:    CategoryHardening,
		Description: "TLS certificate is configured",
		Status:      StatusPass,
	}
	if !a.isProduction() {
		item.Status = StatusNotChecked
		item.Details = "only enforced in production"
		return item
	}

	cert, _ := a.settings.String("security.tls_cert_file")
	key, _ := a.settings.String("security.tls_key_file")
	if cert == "" || key == "" {
		item.Status = StatusWarning
		item.Details = "no TLS certificate pair, relying on an upstream terminator"
	}
	return item
}

func (a *Auditor) checkTelemetrySink() CheckItem {
	item := CheckItem{
		ID:          "telemetry_sink",
		Category:    CategoryObservability,
		Description: "Telemetry sink is configured",
		Status:      StatusPass,
	}
	if url, _ := a.settings.String("telemetry.webhook_url"); url == "" {
		item.Status = StatusWarning
		item.Details = "telemetry.webhook_url is empty, high-severity events stay in local logs"
	}
	return item
}

func (a *Auditor) isProduction() bool {
	env, _ := a.settings.String("server.environment")
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	}
	return false
}

// containsPlaceholder reports whether a value looks like an unset template
// placeholder.
func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, token := range placeholderTokens {
		if strings.Contains(upper, token) {
			return true
		}
	}
	return false
}

func countByStatus(items []CheckItem) map[string]int {
	counts := make(map[string]int, 4)
	for _, item := range items {
		counts[string(item.Status)]++
	}
	return counts
}
