// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package audit

import (
	"strings"
	"testing"
)

type fakeSettings struct {
	strings map[string]string
	bools   map[string]bool
	lists   map[string][]string
}

func (f fakeSettings) String(key string) (string, bool) {
	v, ok := f.strings[key]
	return v, ok
}

func (f fakeSettings) Bool(key string) (bool, bool) {
	v, ok := f.bools[key]
	return v, ok
}

func (f fakeSettings) Strings(key string) []string {
	return f.lists[key]
}

// secureProductionSettings returns a configuration that passes every check.
func secureProductionSettings() fakeSettings {
	return fakeSettings{
		strings: map[string]string{
			"database.url":            "postgres://vigil:s3cret@db:5432/vigil",
			"security.csrf_secret":    strings.Repeat("c", 48),
			"security.session_secret": strings.Repeat("s", 48),
			"security.admin_password": "9a1f7c0b2e8d4056",
			"server.environment":      "production",
			"security.tls_cert_file":  "/etc/vigil/tls/cert.pem",
			"security.tls_key_file":   "/etc/vigil/tls/key.pem",
			"telemetry.webhook_url":   "https://siem.internal/hooks/vigil",
		},
		bools: map[string]bool{
			"security.cookie_secure": true,
		},
		lists: map[string][]string{
			"security.cors_origins": {"https://app.internal"},
		},
	}
}

func findCheck(t *testing.T, items []CheckItem, id string) CheckItem {
	t.Helper()
	for _, item := range items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("check %q not found in report", id)
	return CheckItem{}
}

func TestAuditor_HardenedProductionPassesEverything(t *testing.T) {
	t.Parallel()

	auditor := NewAuditor(secureProductionSettings())
	items := auditor.Run()

	if len(items) != 10 {
		t.Fatalf("checklist length = %d, want 10", len(items))
	}
	for _, item := range items {
		if item.Status != StatusPass {
			t.Errorf("check %s = %s (%s), want pass", item.ID, item.Status, item.Details)
		}
	}

	summary := auditor.Summary()
	if summary.Score != 100 {
		t.Errorf("score = %d, want 100", summary.Score)
	}
}

func TestAuditor_ChecklistOrderIsStable(t *testing.T) {
	t.Parallel()

	want := []string{
		"database_url",
		"csrf_secret",
		"session_secret",
		"admin_password",
		"environment",
		"rate_limiting",
		"cors_origins",
		"secure_cookies",
		"tls_certificate",
		"telemetry_sink",
	}

	items := NewAuditor(secureProductionSettings()).Run()
	if len(items) != len(want) {
		t.Fatalf("checklist length = %d, want %d", len(items), len(want))
	}
	for i, id := range want {
		if items[i].ID != id {
			t.Errorf("items[%d].ID = %s, want %s", i, items[i].ID, id)
		}
	}
}

func TestAuditor_ScoreWithFailuresAndWarnings(t *testing.T) {
	t.Parallel()

	// Wildcard CORS and insecure cookies fail in production; a missing
	// TLS pair only warns. Seven of ten checks pass.
	settings := secureProductionSettings()
	settings.lists["security.cors_origins"] = []string{"*"}
	settings.bools["security.cookie_secure"] = false
	delete(settings.strings, "security.tls_cert_file")

	summary := NewAuditor(settings).Summary()

	if summary.Passed != 7 {
		t.Errorf("passed = %d, want 7", summary.Passed)
	}
	if summary.Failed != 2 {
		t.Errorf("failed = %d, want 2", summary.Failed)
	}
	if summary.Warnings != 1 {
		t.Errorf("warnings = %d, want 1", summary.Warnings)
	}
	if summary.Score != 70 {
		t.Errorf("score = %d, want 70", summary.Score)
	}
}

func TestAuditor_DevelopmentGatesProductionChecks(t *testing.T) {
	t.Parallel()

	settings := secureProductionSettings()
	settings.strings["server.environment"] = "development"

	items := NewAuditor(settings).Run()

	if got := findCheck(t, items, "environment"); got.Status != StatusWarning {
		t.Errorf("environment = %s, want warning outside production", got.Status)
	}
	if got := findCheck(t, items, "secure_cookies"); got.Status != StatusNotChecked {
		t.Errorf("secure_cookies = %s, want not_checked outside production", got.Status)
	}
	if got := findCheck(t, items, "tls_certificate"); got.Status != StatusNotChecked {
		t.Errorf("tls_certificate = %s, want not_checked outside production", got.Status)
	}

	// Gated checks stay in the denominator: 7 pass of 10 total.
	summary := Summarize(items)
	if summary.NotChecked != 2 {
		t.Errorf("not_checked = %d, want 2", summary.NotChecked)
	}
	if summary.Score != 70 {
		t.Errorf("score = %d, want 70", summary.Score)
	}
}

func TestAuditor_SecretRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  string
		status Status
	}{
		{"empty", "", StatusFail},
		{"placeholder", "CHANGEME-before-deploy", StatusFail},
		{"short", "only-twenty-chars-xy", StatusWarning},
		{"strong", strings.Repeat("k", 40), StatusPass},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := secureProductionSettings()
			settings.strings["security.csrf_secret"] = tt.value

			item := findCheck(t, NewAuditor(settings).Run(), "csrf_secret")
			if item.Status != tt.status {
				t.Errorf("csrf_secret with %q = %s, want %s", tt.value, item.Status, tt.status)
			}
		})
	}
}

func TestAuditor_AdminPasswordRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		value  string
		status Status
	}{
		{"placeholder", "YOUR_PASSWORD", StatusFail},
		{"empty", "", StatusWarning},
		{"set", "b4f92c6d1e83a750", StatusPass},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			settings := secureProductionSettings()
			settings.strings["security.admin_password"] = tt.value

			item := findCheck(t, NewAuditor(settings).Run(), "admin_password")
			if item.Status != tt.status {
				t.Errorf("admin_password with %q = %s, want %s", tt.value, item.Status, tt.status)
			}
		})
	}
}

func TestAuditor_RateLimitingDisabledWarns(t *testing.T) {
	t.Parallel()

	settings := secureProductionSettings()
	settings.bools["security.rate_limit_disabled"] = true

	item := findCheck(t, NewAuditor(settings).Run(), "rate_limiting")
	if item.Status != StatusWarning {
		t.Errorf("rate_limiting = %s, want warning when disabled", item.Status)
	}
}

func TestAuditor_MissingTelemetrySinkWarns(t *testing.T) {
	t.Parallel()

	settings := secureProductionSettings()
	delete(settings.strings, "telemetry.webhook_url")

	item := findCheck(t, NewAuditor(settings).Run(), "telemetry_sink")
	if item.Status != StatusWarning {
		t.Errorf("telemetry_sink = %s, want warning when unset", item.Status)
	}
}

func TestSummarize_EmptyChecklistScoresFull(t *testing.T) {
	t.Parallel()

	summary := Summarize(nil)
	if summary.Score != 100 {
		t.Errorf("score = %d, want 100 for empty checklist", summary.Score)
	}
	if summary.Total != 0 {
		t.Errorf("total = %d, want 0", summary.Total)
	}
}

func TestSummarize_RoundsToNearest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		passed int
		total  int
		score  int
	}{
		{"one_of_three", 1, 3, 33},
		{"two_of_three", 2, 3, 67},
		{"five_of_six", 5, 6, 83},
		{"all", 4, 4, 100},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			items := make([]CheckItem, 0, tt.total)
			for i := 0; i < tt.passed; i++ {
				items = append(items, CheckItem{Status: StatusPass})
			}
			for i := tt.passed; i < tt.total; i++ {
				items = append(items, CheckItem{Status: StatusFail})
			}

			if got := Summarize(items).Score; got != tt.score {
				t.Errorf("Summarize(%d/%d).Score = %d, want %d", tt.passed, tt.total, got, tt.score)
			}
		})
	}
}
