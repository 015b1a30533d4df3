// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package api

import (
	"github.com/dquillon/vigil/internal/validation"
)

// IngestEventRequest is the POST /api/v1/events payload.
//
// Type is required; unknown values are recorded as suspicious_request by
// the engine rather than rejected here, so the boundary never drops a
// signal. The remaining fields describe the request the event came from.
type IngestEventRequest struct {
	Type      string                 `json:"type" validate:"required,max=64"`
	IP        string                 `json:"ip" validate:"omitempty,ip"`
	UserID    string                 `json:"user_id" validate:"omitempty,max=128"`
	UserAgent string                 `json:"user_agent" validate:"omitempty,max=512"`
	Path      string                 `json:"path" validate:"omitempty,max=2048"`
	Method    string                 `json:"method" validate:"omitempty,max=16"`
	Details   map[string]string      `json:"details" validate:"omitempty,max=32"`
	Metadata  map[string]interface{} `json:"metadata" validate:"omitempty,max=32"`
}

// validateRequest validates a struct using go-playground/validator.
// Returns nil when validation passes, or an APIError describing every
// failing field.
func validateRequest(v interface{}) *APIError {
	validationErr := validation.ValidateStruct(v)
	if validationErr == nil {
		return nil
	}

	apiErr := validationErr.ToAPIError()
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
}
