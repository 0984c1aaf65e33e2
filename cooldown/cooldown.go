// Package cooldown implements the fixed-window rate limit that gates how
// often a single member's messages can earn XP.
package cooldown

import (
	"sync"
	"time"

	"levelkit/core"
)

type bucketKey struct {
	tenant core.TenantID
	member core.MemberID
}

type bucket struct {
	windowStart time.Time
	count       int
}

// Limiter tracks one cooldown bucket per (tenant, member). Buckets are
// created lazily and never evicted; state is in-memory only, so a process
// restart clears all cooldowns.
type Limiter struct {
	mu      sync.Mutex
	rate    int
	per     time.Duration
	buckets map[bucketKey]*bucket
}

// NewLimiter builds a limiter allowing rate qualifying messages per window.
func NewLimiter(rate int, per time.Duration) (*Limiter, error) {
	if rate <= 0 {
		return nil, &core.ConfigError{Field: "rate", Reason: "must be greater than zero"}
	}
	if per <= 0 {
		return nil, &core.ConfigError{Field: "per", Reason: "must be greater than zero"}
	}
	return &Limiter{rate: rate, per: per, buckets: map[bucketKey]*bucket{}}, nil
}

// Rate returns the allowed message count per window.
func (l *Limiter) Rate() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rate
}

// Per returns the window duration.
func (l *Limiter) Per() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.per
}

// CheckAndConsume reports whether a message at now may earn XP. When the
// window has elapsed the bucket resets (count=1) and the call is allowed;
// within the window the count increments until rate is exceeded, after which
// calls are rejected without mutating further state.
func (l *Limiter) CheckAndConsume(tenant core.TenantID, member core.MemberID, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := bucketKey{tenant: tenant, member: member}
	b, ok := l.buckets[key]
	if !ok {
		l.buckets[key] = &bucket{windowStart: now, count: 1}
		return true
	}
	if now.Sub(b.windowStart) >= l.per {
		b.windowStart = now
		b.count = 1
		return true
	}
	if b.count >= l.rate {
		return false
	}
	b.count++
	return true
}

// SetCooldown replaces the rate and window, clearing all existing buckets.
func (l *Limiter) SetCooldown(rate int, per time.Duration) error {
	if rate <= 0 || per <= 0 {
		return &core.ConfigError{Field: "rate/per", Reason: "values must be greater than zero"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rate = rate
	l.per = per
	l.buckets = map[bucketKey]*bucket{}
	return nil
}
