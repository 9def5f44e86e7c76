package security

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter keeps one token bucket per identifier.
// Thread-safe; buckets idle for more than an hour are dropped by a janitor goroutine.
type RateLimiter struct {
	// Map of identifier (route-scoped client key or username) to bucket
	limiters map[string]*bucketState
	mu       sync.Mutex

	// Configuration
	maxTokens  int           // Bucket size
	refillRate time.Duration // Time between token refills

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	stopOnce      sync.Once
}

type bucketState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a new rate limiter with specified configuration.
//
// Parameters:
//   - maxTokens: Maximum number of tokens (requests) allowed in the bucket
//   - refillRate: How often to add a token back to the bucket
//
// Example:
//
//	// Allow 5 reports per hour
//	limiter := NewRateLimiter(5, 12*time.Minute)
//	defer limiter.Stop()
func NewRateLimiter(maxTokens int, refillRate time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters:    make(map[string]*bucketState),
		maxTokens:   maxTokens,
		refillRate:  refillRate,
		stopCleanup: make(chan struct{}),
	}

	rl.cleanupTicker = time.NewTicker(10 * time.Minute)
	go rl.cleanup()

	return rl
}

// PerWindow is NewRateLimiter expressed as "n requests per window".
func PerWindow(n int, window time.Duration) *RateLimiter {
	return NewRateLimiter(n, window/time.Duration(n))
}

func (rl *RateLimiter) bucket(identifier string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.limiters[identifier]
	if !ok {
		b = &bucketState{limiter: rate.NewLimiter(rate.Every(rl.refillRate), rl.maxTokens)}
		rl.limiters[identifier] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Allow reports whether a request from identifier may proceed and consumes a
// token if so.
func (rl *RateLimiter) Allow(identifier string) bool {
	return rl.bucket(identifier).Allow()
}

// RetryAfter returns how long identifier must wait for the next token.
// Zero means a request would be allowed now.
func (rl *RateLimiter) RetryAfter(identifier string) time.Duration {
	tokens := rl.bucket(identifier).Tokens()
	if tokens >= 1 {
		return 0
	}
	missing := 1 - tokens
	return time.Duration(math.Ceil(missing * float64(rl.refillRate)))
}

// Reset removes the rate limit state for a given identifier.
func (rl *RateLimiter) Reset(identifier string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.limiters, identifier)
}

func (rl *RateLimiter) cleanup() {
	for {
		select {
		case <-rl.cleanupTicker.C:
			rl.mu.Lock()
			now := time.Now()
			for id, b := range rl.limiters {
				if now.Sub(b.lastSeen) > time.Hour {
					delete(rl.limiters, id)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		rl.cleanupTicker.Stop()
		close(rl.stopCleanup)
	})
}
