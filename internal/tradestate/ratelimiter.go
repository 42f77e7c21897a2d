package tradestate

import (
	"sync"
	"time"
)

// rateLimiter is a simple token bucket bounding how often the reconciler may
// escalate an ambiguous intent (spec.md §4.6.4: "bounded by an alert rate
// limiter"). Stdlib-only: the pack's library surface (redis, sql, kafka) has
// nothing lighter-weight for a single-process in-memory bucket than a
// mutex and a counter.
type rateLimiter struct {
	mu         sync.Mutex
	tokens     float64
	max        float64
	refillRate float64 // tokens per second
	last       time.Time
}

func newRateLimiter(max float64, refillPerSecond float64) *rateLimiter {
	return &rateLimiter{tokens: max, max: max, refillRate: refillPerSecond, last: nowFunc()}
}

// Allow reports whether one token is available and, if so, consumes it.
func (r *rateLimiter) Allow() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := nowFunc()
	elapsed := now.Sub(r.last).Seconds()
	r.last = now
	r.tokens += elapsed * r.refillRate
	if r.tokens > r.max {
		r.tokens = r.max
	}
	if r.tokens < 1 {
		return false
	}
	r.tokens--
	return true
}
