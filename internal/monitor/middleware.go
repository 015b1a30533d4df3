// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"net"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/dquillon/vigil/internal/metrics"
)

// blockedResponse is the fixed 403 body served to blacklisted clients.
type blockedResponse struct {
	Status string       `json:"status"`
	Error  blockedError `json:"error"`
}

type blockedError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// BlocklistMiddleware rejects requests from blacklisted source IPs with a
// 403 JSON response before they reach the wrapped handler. The engine
// itself only answers the membership query; callers decide which routes
// get the gate.
//
// The client address is taken from r.RemoteAddr, so mount this after any
// real-IP resolution middleware.
func (e *Engine) BlocklistMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if ip != "" && e.IsIPBlacklisted(ip) {
				metrics.RecordBlacklistHit(r.URL.Path)
				writeBlocked(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP extracts the bare IP from the request's remote address.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeBlocked(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)

	body := blockedResponse{
		Status: "error",
		Error: blockedError{
			Code:    "ip_blacklisted",
			Message: "source address is temporarily blocked",
		},
	}
	// The status line is already committed; an encode failure here has no
	// recovery path.
	_ = json.NewEncoder(w).Encode(body)
}
