// Vigil - Runtime Security Event Monitoring and Anomaly Response
// Copyright 2026 D. Quillon (dquillon)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dquillon/vigil

package monitor

import (
	"sync"
	"time"

	"github.com/dquillon/vigil/internal/metrics"
)

// Blacklist is a thread-safe set of blocked IPs with per-entry expiry.
// Expired entries are removed lazily when read; an expired entry that is
// never read again stays stored until the optional background sweep runs.
// Len deliberately counts stored entries, expired or not, so the stats
// surface reflects actual memory usage rather than logical membership.
type Blacklist struct {
	mu         sync.Mutex
	entries    map[string]time.Time // IP -> expiry
	maxEntries int
	now        func() time.Time
}

// NewBlacklist creates a blacklist capped at maxEntries. A nil now function
// defaults to time.Now.
func NewBlacklist(maxEntries int, now func() time.Time) *Blacklist {
	if now == nil {
		now = time.Now
	}

	return &Blacklist{
		entries:    make(map[string]time.Time),
		maxEntries: maxEntries,
		now:        now,
	}
}

// Ban adds the IP with the given TTL. Banning an already-listed IP refreshes
// its expiry to now+ttl.
func (b *Blacklist) Ban(ip string, ttl time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[ip]; !exists {
		if b.maxEntries > 0 && len(b.entries) >= b.maxEntries {
			b.evictEarliest()
		}
	}
	b.entries[ip] = b.now().Add(ttl)
}

// IsBlacklisted reports whether the IP is actively blocked. An entry whose
// expiry has passed is deleted during the check and reported as not blocked.
func (b *Blacklist) IsBlacklisted(ip string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, exists := b.entries[ip]
	if !exists {
		return false
	}

	if !b.now().Before(expiresAt) {
		delete(b.entries, ip)
		metrics.RecordBlacklistExpiry(1)
		return false
	}
	return true
}

// Status returns the entry's expiry and whether the IP is actively blocked.
// Like IsBlacklisted, reading an expired entry removes it.
func (b *Blacklist) Status(ip string) (time.Time, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiresAt, exists := b.entries[ip]
	if !exists {
		return time.Time{}, false
	}

	if !b.now().Before(expiresAt) {
		delete(b.entries, ip)
		metrics.RecordBlacklistExpiry(1)
		return time.Time{}, false
	}
	return expiresAt, true
}

// Len returns the number of stored entries, including expired entries that
// have not yet been read or swept.
func (b *Blacklist) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// SweepExpired removes all expired entries. Returns the number removed.
func (b *Blacklist) SweepExpired() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	removed := 0
	for ip, expiresAt := range b.entries {
		if !now.Before(expiresAt) {
			delete(b.entries, ip)
			removed++
		}
	}
	if removed > 0 {
		metrics.RecordBlacklistExpiry(removed)
	}
	return removed
}

// evictEarliest removes the entry closest to expiry.
// Must be called with lock held.
func (b *Blacklist) evictEarliest() {
	var earliestIP string
	var earliestExpiry time.Time

	for ip, expiresAt := range b.entries {
		if earliestIP == "" || expiresAt.Before(earliestExpiry) {
			earliestIP = ip
			earliestExpiry = expiresAt
		}
	}

	if earliestIP != "" {
		delete(b.entries, earliestIP)
		metrics.RecordBlacklistEviction()
	}
}
