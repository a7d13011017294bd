package srv

import (
	"sync"
	"testing"
	"time"
)

// fakeClock drives a RateLimiter without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// newTestRateLimiter creates a rate limiter without the cleanup goroutine
// for deterministic testing.
func newTestRateLimiter(rate int, interval time.Duration, burst int) (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rl := newRateLimiter(rate, interval, burst)
	rl.now = clock.Now
	return rl, clock
}

func TestRateLimiter_FirstRequestAllowed(t *testing.T) {
	rl, _ := newTestRateLimiter(1, time.Second, 5)

	if !rl.Allow("192.168.1.1") {
		t.Error("first request should be allowed")
	}
}

func TestRateLimiter_BurstCapacity(t *testing.T) {
	burst := 5
	rl, _ := newTestRateLimiter(1, time.Second, burst)
	ip := "192.168.1.1"

	// Should allow exactly `burst` requests
	for i := 0; i < burst; i++ {
		if !rl.Allow(ip) {
			t.Errorf("request %d should be allowed (within burst)", i+1)
		}
	}

	// Next request should be denied
	if rl.Allow(ip) {
		t.Error("request after burst exhausted should be denied")
	}
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	rl, _ := newTestRateLimiter(1, time.Second, 2)

	// Exhaust IP1's tokens
	rl.Allow("ip1")
	rl.Allow("ip1")

	if rl.Allow("ip1") {
		t.Error("ip1 should be rate limited")
	}

	// IP2 should still have full burst
	if !rl.Allow("ip2") {
		t.Error("ip2 should not be affected by ip1's rate limit")
	}
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	rl, clock := newTestRateLimiter(1, 100*time.Millisecond, 2)
	ip := "192.168.1.1"

	rl.Allow(ip)
	rl.Allow(ip)

	if rl.Allow(ip) {
		t.Error("should be denied after burst exhausted")
	}

	clock.Advance(150 * time.Millisecond)

	if !rl.Allow(ip) {
		t.Error("should be allowed after token refill")
	}

	if rl.Allow(ip) {
		t.Error("should be denied after using refilled token")
	}
}

func TestRateLimiter_PartialIntervalCarriesOver(t *testing.T) {
	rl, clock := newTestRateLimiter(1, 100*time.Millisecond, 1)
	ip := "192.168.1.1"

	rl.Allow(ip)

	clock.Advance(60 * time.Millisecond)
	if rl.Allow(ip) {
		t.Error("should be denied before a full interval")
	}

	clock.Advance(60 * time.Millisecond)
	if !rl.Allow(ip) {
		t.Error("two partial intervals should add up to one refill")
	}
}

func TestRateLimiter_RefillCapsAtBurst(t *testing.T) {
	rl, clock := newTestRateLimiter(10, 10*time.Millisecond, 3)
	ip := "192.168.1.1"

	rl.Allow(ip)

	clock.Advance(time.Second)

	for i := 0; i < 3; i++ {
		if !rl.Allow(ip) {
			t.Errorf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow(ip) {
		t.Error("tokens should be capped at burst")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	rl, _ := newTestRateLimiter(1, time.Minute, 50)
	ip := "192.168.1.1"

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if rl.Allow(ip) {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("expected exactly 50 allowed, got %d", allowed)
	}
}
