package gateway

import (
	"sync"
	"time"
)

// frameLimiter is a token bucket throttling inbound frames per connection so a
// misbehaving client cannot monopolize its handler chain.
type frameLimiter struct {
	mu        sync.Mutex
	tokens    float64
	capacity  float64
	rate      float64
	lastCheck time.Time
}

func newFrameLimiter(burst int, interval time.Duration) *frameLimiter {
	if burst <= 0 {
		burst = 1
	}
	if interval <= 0 {
		interval = time.Second
	}

	rate := float64(burst) / interval.Seconds()
	return &frameLimiter{
		tokens:    float64(burst),
		capacity:  float64(burst),
		rate:      rate,
		lastCheck: time.Now(),
	}
}

func (fl *frameLimiter) allow() bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(fl.lastCheck).Seconds()
	fl.lastCheck = now

	if elapsed > 0 {
		fl.tokens += elapsed * fl.rate
		if fl.tokens > fl.capacity {
			fl.tokens = fl.capacity
		}
	}

	if fl.tokens < 1 {
		return false
	}
	fl.tokens--
	return true
}
