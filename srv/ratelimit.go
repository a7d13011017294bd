package srv

import (
	"sync"
	"time"
)

// RateLimiter implements a simple token bucket rate limiter per client key.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // tokens per interval
	interval time.Duration // refill interval
	burst    int           // max tokens
	now      func() time.Time
}

type visitor struct {
	tokens   int
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter that allows `rate` requests per `interval`
// with a burst capacity of `burst`.
func NewRateLimiter(rate int, interval time.Duration, burst int) *RateLimiter {
	rl := newRateLimiter(rate, interval, burst)
	// Cleanup stale entries every minute
	go rl.cleanup()
	return rl
}

func newRateLimiter(rate int, interval time.Duration, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		interval: interval,
		burst:    burst,
		now:      time.Now,
	}
}

func (rl *RateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for key, v := range rl.visitors {
			if rl.now().Sub(v.lastSeen) > 5*time.Minute {
				delete(rl.visitors, key)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow checks if a request for the given key should be allowed.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[key]
	now := rl.now()

	if !exists {
		rl.visitors[key] = &visitor{tokens: rl.burst - 1, lastSeen: now}
		return true
	}

	// Refill whole intervals only; a partial interval keeps lastSeen so the
	// remainder still counts toward the next refill.
	intervals := int(now.Sub(v.lastSeen) / rl.interval)
	if intervals > 0 {
		v.tokens += intervals * rl.rate
		if v.tokens > rl.burst {
			v.tokens = rl.burst
		}
		v.lastSeen = v.lastSeen.Add(time.Duration(intervals) * rl.interval)
	}

	if v.tokens > 0 {
		v.tokens--
		return true
	}
	return false
}
