// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package audit

// Status classifies the outcome of a single posture check.
type Status string

const (
	// StatusPass means the check found nothing wrong.
	StatusPass Status = "pass"

	// StatusFail means the check found a condition that must be fixed.
	StatusFail Status = "fail"

	// StatusWarning means the check found a condition worth reviewing.
	StatusWarning Status = "warning"

	// StatusNotChecked means the check does not apply in the current
	// environment. It still counts toward the score denominator.
	StatusNotChecked Status = "not_checked"
)

// Category groups related checks in the report.
type Category string

const (
	CategoryConfiguration Category = "configuration"
	CategorySecrets       Category = "secrets"
	CategoryRuntime       Category = "runtime"
	CategoryHardening     Category = "hardening"
	CategoryObservability Category = "observability"
)

// CheckItem is the outcome of one posture check.
type CheckItem struct {
	// ID is the stable identifier of the check.
	ID string `json:"id"`

	// Category groups the check in reports.
	Category Category `json:"category"`

	// Description states the condition the check verifies.
	Description string `json:"description"`

	// Status is the outcome of this run.
	Status Status `json:"status"`

	// Details explains a non-passing status.
	Details string `json:"details,omitempty"`
}

// Summary aggregates one checklist run into counts and a score.
type Summary struct {
	Passed     int `json:"passed"`
	Failed     int `json:"failed"`
	Warnings   int `json:"warnings"`
	NotChecked int `json:"not_checked"`
	Total      int `json:"total"`

	// Score is the percentage of passing checks, 0 to 100.
	Score int `json:"score"`
}

// Settings is the read-only configuration surface the checks consult.
// The koanf-backed config.Store satisfies it; tests supply fakes.
type Settings interface {
	// String returns the string value for a dotted key and whether it exists.
	String(key string) (string, bool)

	// Bool returns the boolean value for a dotted key and whether it exists.
	Bool(key string) (bool, bool)

	// Strings returns the string-slice value for a dotted key, nil when absent.
	Strings(key string) []string
}
