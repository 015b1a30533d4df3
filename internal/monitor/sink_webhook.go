// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// WebhookSink delivers events to a generic webhook endpoint. Delivery pacing
// and retry policy belong to the Dispatcher; the sink performs a single POST
// per call.
type WebhookSink struct {
	webhookURL string
	headers    map[string]string
	client     *http.Client
	enabled    bool
	mu         sync.RWMutex
}

// WebhookSinkConfig configures the webhook sink.
type WebhookSinkConfig struct {
	WebhookURL string            `json:"webhook_url"`
	Headers    map[string]string `json:"headers,omitempty"` // Custom headers (e.g., auth)
	Timeout    time.Duration     `json:"timeout"`
	Enabled    bool              `json:"enabled"`
}

// WebhookPayload is the JSON payload sent to the webhook endpoint.
type WebhookPayload struct {
	Event     *Event    `json:"event"`
	EventType string    `json:"event_type"` // security_event
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // vigil
}

// NewWebhookSink creates a new webhook sink.
func NewWebhookSink(config WebhookSinkConfig) *WebhookSink {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	headers := make(map[string]string)
	for k, v := range config.Headers {
		headers[k] = v
	}

	return &WebhookSink{
		webhookURL: config.WebhookURL,
		headers:    headers,
		enabled:    config.Enabled,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Name returns the sink name.
func (s *WebhookSink) Name() string {
	return "webhook"
}

// Enabled returns whether this sink is enabled.
func (s *WebhookSink) Enabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enabled && s.webhookURL != ""
}

// SetEnabled enables or disables the sink.
func (s *WebhookSink) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// SetWebhookURL updates the webhook URL.
func (s *WebhookSink) SetWebhookURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.webhookURL = url
}

// Send delivers an event to the webhook endpoint.
func (s *WebhookSink) Send(ctx context.Context, event *Event) error {
	s.mu.RLock()
	if !s.enabled || s.webhookURL == "" {
		s.mu.RUnlock()
		return nil
	}
	webhookURL := s.webhookURL
	headers := make(map[string]string)
	for k, v := range s.headers {
		headers[k] = v
	}
	s.mu.RUnlock()

	payload := WebhookPayload{
		Event:     event,
		EventType: "security_event",
		Timestamp: time.Now(),
		Source:    "vigil",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}
