// internal/failover/ratelimit.go
package failover

import (
	"sync"
	"time"
)

// RateLimit bounds how many failovers may happen per sliding window. Check
// reports eligibility without recording anything; Consume records one action.
// The split lets the decision engine probe before committing, so evaluating a
// signal that does not trigger never burns a slot.
//
// State is in-memory only: a coordinator restart resets the window.
type RateLimit struct {
	mu       sync.Mutex
	maxCount int
	window   time.Duration
	events   []time.Time
	now      func() time.Time
}

// NewRateLimit creates a limiter allowing maxCount actions per window.
func NewRateLimit(maxCount int, window time.Duration) *RateLimit {
	return &RateLimit{
		maxCount: maxCount,
		window:   window,
		events:   make([]time.Time, 0, maxCount),
		now:      time.Now,
	}
}

// Check reports whether one more action is currently permitted. It does not
// consume a slot.
func (r *RateLimit) Check() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evict(r.now())
	return len(r.events) < r.maxCount
}

// Consume records one action against the window.
func (r *RateLimit) Consume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.evict(now)
	r.events = append(r.events, now)
}

// evict drops timestamps older than the window. Caller must hold mu.
func (r *RateLimit) evict(now time.Time) {
	kept := r.events[:0]
	for _, t := range r.events {
		if now.Sub(t) < r.window {
			kept = append(kept, t)
		}
	}
	r.events = kept
}
