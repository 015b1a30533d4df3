// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func blacklistedEngine(t *testing.T, ip string) *Engine {
	t.Helper()

	cfg := DefaultConfig()
	cfg.MaxEventsPerHour = 1
	cfg.SweepInterval = 0
	cfg.Now = newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)).Now
	engine := NewEngine(cfg, nil, DispatcherConfig{})

	engine.LogEvent(EventInput{Type: "auth_failure", IP: ip})
	engine.LogEvent(EventInput{Type: "auth_failure", IP: ip})
	if !engine.IsIPBlacklisted(ip) {
		t.Fatal("setup: expected IP to be blacklisted")
	}
	return engine
}

func TestBlocklistMiddleware_RejectsBlacklistedIP(t *testing.T) {
	t.Parallel()

	engine := blacklistedEngine(t, "203.0.113.7")

	handlerCalled := false
	handler := engine.BlocklistMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if handlerCalled {
		t.Error("wrapped handler should not run for a blacklisted IP")
	}
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if body := rec.Body.String(); !strings.Contains(body, "ip_blacklisted") {
		t.Errorf("body = %q, want an ip_blacklisted error code", body)
	}
}

func TestBlocklistMiddleware_PassesCleanIP(t *testing.T) {
	t.Parallel()

	engine := blacklistedEngine(t, "203.0.113.7")

	handlerCalled := false
	handler := engine.BlocklistMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", nil)
	req.RemoteAddr = "198.51.100.9:51234"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if !handlerCalled {
		t.Error("wrapped handler should run for a clean IP")
	}
	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
}

func TestBlocklistMiddleware_HandlesPortlessRemoteAddr(t *testing.T) {
	t.Parallel()

	engine := blacklistedEngine(t, "203.0.113.7")

	handler := engine.BlocklistMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	req.RemoteAddr = "203.0.113.7"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 for portless remote address", rec.Code)
	}
}
