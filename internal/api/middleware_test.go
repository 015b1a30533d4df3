// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dquillon/vigil/internal/config"
	"github.com/dquillon/vigil/internal/logging"
)

func TestRequestID_GeneratedWhenAbsent(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured == "" {
		t.Error("Expected a generated request ID in context")
	}
	if got := w.Header().Get("X-Request-ID"); got != captured {
		t.Errorf("Response header %q does not match context ID %q", got, captured)
	}
}

func TestRequestID_ReusesIncomingHeader(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = logging.RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "req-upstream-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if captured != "req-upstream-42" {
		t.Errorf("Expected req-upstream-42, got %q", captured)
	}
	if got := w.Header().Get("X-Request-ID"); got != "req-upstream-42" {
		t.Errorf("Expected header echo req-upstream-42, got %q", got)
	}
}

func TestInstrument_PassesThroughStatus(t *testing.T) {
	handlerCalled := false
	handler := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("Handler should be called")
	}
	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTeapot)
	}
}

func TestInstrument_DefaultsToOK(t *testing.T) {
	handler := Instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("implicit 200"))
	}))

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRateLimit_DisabledIsNoOp(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{RateLimitDisabled: true},
	}

	handler := RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Request %d: status = %d, want 200", i+1, w.Code)
		}
	}
}

func TestRateLimit_ExceededReturnsEnvelope(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{
			RateLimitReqs:   1,
			RateLimitWindow: time.Minute,
		},
	}

	handler := RateLimit(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last *httptest.ResponseRecorder
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		req.RemoteAddr = "198.51.100.88:33000"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", last.Code, http.StatusTooManyRequests)
	}

	env := decodeEnvelope(t, last)
	if env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("Expected error code %s, got %+v", ErrCodeTooManyRequests, env.Error)
	}
}

func TestCORS_SpecificOriginReflected(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{CORSOrigins: []string{"https://dash.internal"}},
	}

	handlerCalled := false
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://dash.internal")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if !handlerCalled {
		t.Error("Handler should be called")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://dash.internal" {
		t.Errorf("Access-Control-Allow-Origin = %q, want https://dash.internal", got)
	}
}

func TestCORS_PreflightSkipsHandler(t *testing.T) {
	cfg := &config.Config{
		Security: config.SecurityConfig{CORSOrigins: []string{"*"}},
	}

	handlerCalled := false
	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK && w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 200 or 204", w.Code)
	}
	if handlerCalled {
		t.Error("Handler should not be called for OPTIONS preflight")
	}
	if w.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("Access-Control-Allow-Methods should be set")
	}
}
