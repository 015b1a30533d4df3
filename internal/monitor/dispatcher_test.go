// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
)

// blockingSink parks deliveries until released, so tests can fill the
// queue deterministically.
type blockingSink struct {
	started chan struct{}
	release chan struct{}
	mu      sync.Mutex
	sent    int
}

func newBlockingSink() *blockingSink {
	return &blockingSink{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
}

func (s *blockingSink) Send(ctx context.Context, _ *Event) error {
	s.started <- struct{}{}
	select {
	case <-s.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.mu.Lock()
	s.sent++
	s.mu.Unlock()
	return nil
}

func (s *blockingSink) Name() string  { return "blocking" }
func (s *blockingSink) Enabled() bool { return true }

func (s *blockingSink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sent
}

// failingSink refuses every delivery and counts attempts.
type failingSink struct {
	mu    sync.Mutex
	calls int
}

func (s *failingSink) Send(context.Context, *Event) error {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return errors.New("delivery refused")
}

func (s *failingSink) Name() string  { return "failing" }
func (s *failingSink) Enabled() bool { return true }

func (s *failingSink) attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func telemetryEvent(id string) *Event {
	return &Event{ID: id, Type: EventTypeSQLInjectionAttempt, Severity: SeverityCritical, IP: "203.0.113.7"}
}

func TestDispatcher_DeliversQueuedEvents(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	dispatcher := NewDispatcher(sink, DispatcherConfig{QueueSize: 16})

	for _, id := range []string{"ev-1", "ev-2", "ev-3"} {
		if !dispatcher.Enqueue(telemetryEvent(id)) {
			t.Fatalf("Enqueue(%s) unexpectedly dropped", id)
		}
	}

	if err := dispatcher.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if got := len(sink.captured()); got != 3 {
		t.Errorf("delivered events = %d, want 3", got)
	}

	stats := dispatcher.Stats()
	if stats.Sent != 3 {
		t.Errorf("stats.Sent = %d, want 3", stats.Sent)
	}
	if stats.Dropped != 0 || stats.Failures != 0 {
		t.Errorf("stats = %+v, want no drops or failures", stats)
	}
	if depth := dispatcher.QueueDepth(); depth != 0 {
		t.Errorf("queue depth after drain = %d, want 0", depth)
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	t.Parallel()

	sink := newBlockingSink()
	dispatcher := NewDispatcher(sink, DispatcherConfig{QueueSize: 1})

	// The worker takes the first event and parks inside Send, leaving
	// the single queue slot empty.
	if !dispatcher.Enqueue(telemetryEvent("ev-1")) {
		t.Fatal("first enqueue should succeed")
	}
	<-sink.started

	if !dispatcher.Enqueue(telemetryEvent("ev-2")) {
		t.Fatal("second enqueue should occupy the free slot")
	}
	if dispatcher.Enqueue(telemetryEvent("ev-3")) {
		t.Fatal("third enqueue should be dropped with the queue full")
	}

	close(sink.release)
	if err := dispatcher.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if got := sink.delivered(); got != 2 {
		t.Errorf("delivered events = %d, want 2", got)
	}

	stats := dispatcher.Stats()
	if stats.Sent != 2 {
		t.Errorf("stats.Sent = %d, want 2", stats.Sent)
	}
	if stats.Dropped != 1 {
		t.Errorf("stats.Dropped = %d, want 1", stats.Dropped)
	}
}

func TestDispatcher_CountsFailures(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	dispatcher := NewDispatcher(sink, DispatcherConfig{QueueSize: 16})

	for i := 0; i < 3; i++ {
		dispatcher.Enqueue(telemetryEvent("ev-fail"))
	}

	if err := dispatcher.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	stats := dispatcher.Stats()
	if stats.Failures != 3 {
		t.Errorf("stats.Failures = %d, want 3", stats.Failures)
	}
	if stats.Sent != 0 {
		t.Errorf("stats.Sent = %d, want 0", stats.Sent)
	}
}

func TestDispatcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	t.Parallel()

	sink := &failingSink{}
	dispatcher := NewDispatcher(sink, DispatcherConfig{QueueSize: 16})

	for i := 0; i < 6; i++ {
		dispatcher.Enqueue(telemetryEvent("ev-fail"))
	}

	if err := dispatcher.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// The breaker opens after the fifth consecutive failure, so the
	// sixth delivery is short-circuited without reaching the sink.
	if got := sink.attempts(); got != 5 {
		t.Errorf("sink attempts = %d, want 5", got)
	}
	if stats := dispatcher.Stats(); stats.Failures != 6 {
		t.Errorf("stats.Failures = %d, want 6", stats.Failures)
	}
}

func TestDispatcher_RateLimitedDelivery(t *testing.T) {
	t.Parallel()

	sink := &fakeSink{}
	dispatcher := NewDispatcher(sink, DispatcherConfig{QueueSize: 16, RateLimitMs: 1})

	for i := 0; i < 3; i++ {
		dispatcher.Enqueue(telemetryEvent("ev-paced"))
	}

	if err := dispatcher.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	if got := len(sink.captured()); got != 3 {
		t.Errorf("delivered events = %d, want 3", got)
	}
}

func TestDispatcher_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	dispatcher := NewDispatcher(&fakeSink{}, DispatcherConfig{QueueSize: 4})
	if err := dispatcher.Close(); err != nil {
		t.Fatalf("first Close() failed: %v", err)
	}
	if err := dispatcher.Close(); err != nil {
		t.Fatalf("second Close() failed: %v", err)
	}
}
