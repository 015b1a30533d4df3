// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/dquillon/vigil/internal/logging"
	"github.com/dquillon/vigil/internal/metrics"
)

// Dispatcher delivers events to a telemetry sink asynchronously. Ingestion
// never blocks on delivery: events are queued on a bounded channel and a
// single worker drains it. When the queue is full the event is dropped and
// counted, never the caller stalled.
//
// Deliveries run behind a circuit breaker so a failing sink stops consuming
// worker time, and an optional rate limiter paces outbound requests.
type Dispatcher struct {
	sink    Sink
	events  chan *Event
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	breaker *gobreaker.CircuitBreaker[interface{}]
	limiter *rate.Limiter
	timeout time.Duration

	sent     atomic.Int64
	dropped  atomic.Int64
	failures atomic.Int64
}

// DispatcherConfig configures the telemetry dispatcher.
type DispatcherConfig struct {
	// QueueSize is the bounded queue capacity (default: 256).
	QueueSize int

	// Timeout bounds each delivery attempt (default: 10s).
	Timeout time.Duration

	// RateLimitMs is the minimum interval between deliveries in
	// milliseconds. Zero means unlimited.
	RateLimitMs int
}

// DispatcherStats is a snapshot of dispatcher counters.
type DispatcherStats struct {
	Sent     int64 `json:"sent"`
	Dropped  int64 `json:"dropped"`
	Failures int64 `json:"failures"`
}

// NewDispatcher creates a dispatcher and starts its delivery worker.
func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimitMs > 0 {
		interval := time.Duration(cfg.RateLimitMs) * time.Millisecond
		limiter = rate.NewLimiter(rate.Every(interval), 1)
	}

	d := &Dispatcher{
		sink:    sink,
		events:  make(chan *Event, queueSize),
		stop:    make(chan struct{}),
		limiter: limiter,
		timeout: timeout,
	}

	d.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "telemetry",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetCircuitBreakerState(name, int(to))
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("telemetry circuit breaker state changed")
		},
	})

	d.wg.Add(1)
	go d.run()

	return d
}

// Enqueue queues an event for delivery. Returns false if the queue is full
// and the event was dropped.
func (d *Dispatcher) Enqueue(event *Event) bool {
	select {
	case d.events <- event:
		metrics.UpdateTelemetryQueueDepth(len(d.events))
		return true
	default:
		d.dropped.Add(1)
		metrics.RecordTelemetryDrop()
		logging.Warn().
			Str("event_id", event.ID).
			Str("type", string(event.Type)).
			Msg("telemetry queue full, dropping event")
		return false
	}
}

// Stats returns a snapshot of delivery counters.
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Sent:     d.sent.Load(),
		Dropped:  d.dropped.Load(),
		Failures: d.failures.Load(),
	}
}

// QueueDepth returns the number of events waiting for delivery.
func (d *Dispatcher) QueueDepth() int {
	return len(d.events)
}

// Close stops the worker after draining queued events. Safe to call more
// than once.
func (d *Dispatcher) Close() error {
	d.once.Do(func() {
		close(d.stop)
	})
	d.wg.Wait()
	return nil
}

// run drains the queue until stopped. On shutdown, queued events are
// delivered before the worker exits.
func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case event := <-d.events:
			d.deliver(event)
			metrics.UpdateTelemetryQueueDepth(len(d.events))
		case <-d.stop:
			for {
				select {
				case event := <-d.events:
					d.deliver(event)
				default:
					metrics.UpdateTelemetryQueueDepth(0)
					return
				}
			}
		}
	}
}

// deliver sends one event through the rate limiter and circuit breaker.
func (d *Dispatcher) deliver(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			d.failures.Add(1)
			metrics.RecordTelemetrySend(0, err)
			return
		}
	}

	start := time.Now()
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.sink.Send(ctx, event)
	})
	metrics.RecordTelemetrySend(time.Since(start), err)

	if err != nil {
		d.failures.Add(1)
		metrics.RecordCircuitBreakerRequest("telemetry", "failure")
		logging.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("sink", d.sink.Name()).
			Msg("telemetry delivery failed")
		return
	}

	d.sent.Add(1)
	metrics.RecordCircuitBreakerRequest("telemetry", "success")
}
