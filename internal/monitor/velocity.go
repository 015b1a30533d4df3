// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/dquillon/vigil/internal/metrics"
)

// velocityEntry tracks one IP's event count within the current window.
type velocityEntry struct {
	count         int
	windowResetAt time.Time
}

// VelocityTracker counts events per IP within a fixed rolling window. Each IP
// carries its own window: the first event opens it, subsequent events
// increment the count, and the first event at or after the reset time starts
// a fresh window with a count of one. Counts never decay mid-window.
//
// All event types count toward the total. An IP emitting only low-severity
// events at high volume is still flagged.
type VelocityTracker struct {
	mu      sync.Mutex
	entries map[string]*velocityEntry
	window  time.Duration
	maxIPs  int
	now     func() time.Time
}

// NewVelocityTracker creates a tracker with the given window and IP cap.
// A nil now function defaults to time.Now.
func NewVelocityTracker(window time.Duration, maxIPs int, now func() time.Time) *VelocityTracker {
	if window <= 0 {
		window = time.Hour
	}
	if now == nil {
		now = time.Now
	}

	return &VelocityTracker{
		entries: make(map[string]*velocityEntry),
		window:  window,
		maxIPs:  maxIPs,
		now:     now,
	}
}

// Bump records one event for the IP and returns the count within the current
// window. A missing entry or an elapsed window starts a new window at one.
func (v *VelocityTracker) Bump(ip string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()

	entry, exists := v.entries[ip]
	if !exists {
		if v.maxIPs > 0 && len(v.entries) >= v.maxIPs {
			v.evictOldest()
		}
		v.entries[ip] = &velocityEntry{count: 1, windowResetAt: now.Add(v.window)}
		return 1
	}

	if !now.Before(entry.windowResetAt) {
		entry.count = 1
		entry.windowResetAt = now.Add(v.window)
		metrics.RecordWindowReset()
		return 1
	}

	entry.count++
	return entry.count
}

// Count returns the stored count for the IP without recording an event.
// Elapsed windows are not reset by reads.
func (v *VelocityTracker) Count(ip string) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, exists := v.entries[ip]
	if !exists {
		return 0
	}
	return entry.count
}

// Len returns the number of tracked IPs.
func (v *VelocityTracker) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.entries)
}

// Top returns the n IPs with the highest stored counts, descending. Ties are
// broken by IP address ascending so repeated calls produce stable output.
func (v *VelocityTracker) Top(n int) []IPCount {
	v.mu.Lock()
	counts := make([]IPCount, 0, len(v.entries))
	for ip, entry := range v.entries {
		counts = append(counts, IPCount{IP: ip, Count: entry.count})
	}
	v.mu.Unlock()

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].IP < counts[j].IP
	})

	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// SweepStale removes entries whose window has elapsed. Returns the number of
// entries removed.
func (v *VelocityTracker) SweepStale() int {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	removed := 0
	for ip, entry := range v.entries {
		if !now.Before(entry.windowResetAt) {
			delete(v.entries, ip)
			removed++
		}
	}
	return removed
}

// evictOldest removes the entry with the earliest window reset.
// Must be called with lock held.
func (v *VelocityTracker) evictOldest() {
	var oldestIP string
	var oldestReset time.Time

	for ip, entry := range v.entries {
		if oldestIP == "" || entry.windowResetAt.Before(oldestReset) {
			oldestIP = ip
			oldestReset = entry.windowResetAt
		}
	}

	if oldestIP != "" {
		delete(v.entries, oldestIP)
		metrics.RecordVelocityEviction()
	}
}
