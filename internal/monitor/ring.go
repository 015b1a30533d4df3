// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"sync"
)

// EventRing is a fixed-capacity FIFO buffer of recent events. When full, each
// append overwrites the oldest entry. The ring never reallocates after
// construction, so memory usage is bounded regardless of event volume.
//
// Complexity:
//   - Append: O(1)
//   - Snapshot: O(n)
//   - CountByType: O(n)
type EventRing struct {
	mu       sync.Mutex
	buf      []RecentEvent
	head     int // index of the oldest entry
	size     int
	capacity int
}

// NewEventRing creates a ring holding at most capacity events.
func NewEventRing(capacity int) *EventRing {
	if capacity <= 0 {
		capacity = 1000
	}

	return &EventRing{
		buf:      make([]RecentEvent, capacity),
		capacity: capacity,
	}
}

// Append adds an event to the ring, evicting the oldest entry when full.
func (r *EventRing) Append(event RecentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < r.capacity {
		r.buf[(r.head+r.size)%r.capacity] = event
		r.size++
		return
	}

	// Full: overwrite the oldest slot and advance the head
	r.buf[r.head] = event
	r.head = (r.head + 1) % r.capacity
}

// Len returns the number of events currently held.
func (r *EventRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size
}

// Capacity returns the fixed capacity of the ring.
func (r *EventRing) Capacity() int {
	return r.capacity
}

// Snapshot returns a copy of the ring contents in insertion order, oldest
// first. The returned slice is owned by the caller.
func (r *EventRing) Snapshot() []RecentEvent {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]RecentEvent, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%r.capacity]
	}
	return out
}

// CountByType aggregates the ring contents by event type.
func (r *EventRing) CountByType() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int)
	for i := 0; i < r.size; i++ {
		counts[string(r.buf[(r.head+i)%r.capacity].Type)]++
	}
	return counts
}
