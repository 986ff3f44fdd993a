package local

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type keyLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// Throttle keeps one token bucket per key, typically a normalized email.
// A nil Throttle allows everything.
type Throttle struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	mu       sync.Mutex
	limiters map[string]*keyLimiter
}

// NewThrottle creates a throttle allowing limit events per second with the
// given burst for each key.
func NewThrottle(limit rate.Limit, burst int, now func() time.Time) *Throttle {
	if now == nil {
		now = time.Now
	}
	return &Throttle{
		limit:    limit,
		burst:    burst,
		now:      now,
		limiters: make(map[string]*keyLimiter),
	}
}

// Allow consumes one event for key and reports whether it was permitted.
func (t *Throttle) Allow(key string) bool {
	if t == nil {
		return true
	}
	now := t.now()
	return t.limiterFor(key, now).AllowN(now, 1)
}

// Reset forgets the history of key, e.g. after a successful sign in.
func (t *Throttle) Reset(key string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.limiters, key)
}

// Prune drops limiters idle for longer than idle and returns how many were
// removed.
func (t *Throttle) Prune(idle time.Duration) int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-idle)
	removed := 0
	for key, kl := range t.limiters {
		if kl.lastAccess.Before(cutoff) {
			delete(t.limiters, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys.
func (t *Throttle) Len() int {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.limiters)
}

func (t *Throttle) limiterFor(key string, now time.Time) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	if kl, ok := t.limiters[key]; ok {
		kl.lastAccess = now
		return kl.limiter
	}

	kl := &keyLimiter{
		limiter:    rate.NewLimiter(t.limit, t.burst),
		lastAccess: now,
	}
	t.limiters[key] = kl
	return kl.limiter
}
