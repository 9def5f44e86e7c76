// Package security provides tests for rate limiting and account lockout.
package security

import (
	"sync"
	"testing"
	"time"
)

// TestRateLimiter_Allow tests basic rate limiting functionality.
func TestRateLimiter_Allow(t *testing.T) {
	// Create limiter: 5 requests allowed, refill 1 per second
	limiter := NewRateLimiter(5, 1*time.Second)
	defer limiter.Stop()

	identifier := "reports:client-a"

	for i := 0; i < 5; i++ {
		if !limiter.Allow(identifier) {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(identifier) {
		t.Error("6th request should be denied")
	}

	if ra := limiter.RetryAfter(identifier); ra <= 0 || ra > time.Second {
		t.Errorf("Expected RetryAfter within (0, 1s], got %v", ra)
	}

	time.Sleep(1100 * time.Millisecond)

	if !limiter.Allow(identifier) {
		t.Error("Request after refill should be allowed")
	}
}

// TestRateLimiter_MultipleIdentifiers tests rate limiting per identifier.
func TestRateLimiter_MultipleIdentifiers(t *testing.T) {
	limiter := NewRateLimiter(3, 1*time.Second)
	defer limiter.Stop()

	a := "login:moderator1"
	b := "login:moderator2"

	for i := 0; i < 3; i++ {
		if !limiter.Allow(a) {
			t.Errorf("A request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(a) {
		t.Error("A 4th request should be denied")
	}

	// Separate bucket
	for i := 0; i < 3; i++ {
		if !limiter.Allow(b) {
			t.Errorf("B request %d should be allowed", i+1)
		}
	}

	if limiter.Allow(b) {
		t.Error("B 4th request should be denied")
	}
}

// TestRateLimiter_Reset tests resetting rate limit for identifier.
func TestRateLimiter_Reset(t *testing.T) {
	limiter := NewRateLimiter(3, 1*time.Second)
	defer limiter.Stop()

	identifier := "login:moderator1"

	for i := 0; i < 3; i++ {
		limiter.Allow(identifier)
	}

	if limiter.Allow(identifier) {
		t.Error("Should be rate limited")
	}

	limiter.Reset(identifier)

	if !limiter.Allow(identifier) {
		t.Error("Should be allowed after reset")
	}
	if limiter.RetryAfter(identifier) != 0 {
		t.Error("Fresh bucket should not ask to wait")
	}
}

// TestRateLimiter_TokenRefill tests gradual token refill.
func TestRateLimiter_TokenRefill(t *testing.T) {
	limiter := NewRateLimiter(3, 1*time.Second)
	defer limiter.Stop()

	identifier := "chatbot:client-a"

	for i := 0; i < 3; i++ {
		limiter.Allow(identifier)
	}

	if limiter.Allow(identifier) {
		t.Error("Should be denied (no tokens)")
	}

	time.Sleep(2100 * time.Millisecond)

	if !limiter.Allow(identifier) {
		t.Error("Should have 1 refilled token")
	}
	if !limiter.Allow(identifier) {
		t.Error("Should have 2 refilled tokens")
	}

	if limiter.Allow(identifier) {
		t.Error("Should be denied (only 2 tokens refilled)")
	}
}

// TestPerWindow tests the n-per-window constructor.
func TestPerWindow(t *testing.T) {
	limiter := PerWindow(5, time.Hour)
	defer limiter.Stop()

	if limiter.refillRate != 12*time.Minute {
		t.Errorf("Expected 12m refill, got %v", limiter.refillRate)
	}
	for i := 0; i < 5; i++ {
		if !limiter.Allow("x") {
			t.Fatalf("Request %d should be allowed", i+1)
		}
	}
	if limiter.Allow("x") {
		t.Error("6th report in an hour should be denied")
	}
}

// TestRateLimiter_StopTwice tests Stop is idempotent.
func TestRateLimiter_StopTwice(t *testing.T) {
	limiter := NewRateLimiter(1, time.Second)
	limiter.Stop()
	limiter.Stop()
}

// TestAccountLockout_RecordFailedAttempt tests failed attempt tracking.
func TestAccountLockout_RecordFailedAttempt(t *testing.T) {
	lockout := NewAccountLockout(5, 10*time.Minute)

	identifier := "moderator1"

	for i := 0; i < 4; i++ {
		if lockout.RecordFailedAttempt(identifier) {
			t.Errorf("Attempt %d should not trigger lockout", i+1)
		}
	}

	if !lockout.RecordFailedAttempt(identifier) {
		t.Error("5th attempt should trigger lockout")
	}
}

// TestAccountLockout_IsLocked tests lockout status checking.
func TestAccountLockout_IsLocked(t *testing.T) {
	lockout := NewAccountLockout(3, 5*time.Minute)
	now := time.Now()
	lockout.now = func() time.Time { return now }

	identifier := "moderator1"

	if lockout.IsLocked(identifier) {
		t.Error("Should not be locked initially")
	}

	for i := 0; i < 3; i++ {
		lockout.RecordFailedAttempt(identifier)
	}

	if !lockout.IsLocked(identifier) {
		t.Error("Should be locked after threshold")
	}

	now = now.Add(5*time.Minute + time.Second)

	if lockout.IsLocked(identifier) {
		t.Error("Should not be locked after expiration")
	}

	if lockout.RecordFailedAttempt(identifier) {
		t.Error("Counter should restart after an expired lockout")
	}
}

// TestAccountLockout_ResetAttempts tests resetting failed attempts.
func TestAccountLockout_ResetAttempts(t *testing.T) {
	lockout := NewAccountLockout(5, 10*time.Minute)

	identifier := "moderator1"

	for i := 0; i < 3; i++ {
		lockout.RecordFailedAttempt(identifier)
	}

	lockout.ResetAttempts(identifier)

	if lockout.IsLocked(identifier) {
		t.Error("Should not be locked after reset")
	}

	if lockout.RecordFailedAttempt(identifier) {
		t.Error("Should not trigger lockout after reset")
	}
}

// TestAccountLockout_GetLockoutTimeRemaining tests remaining time calculation.
func TestAccountLockout_GetLockoutTimeRemaining(t *testing.T) {
	duration := 10 * time.Second
	lockout := NewAccountLockout(3, duration)
	now := time.Now()
	lockout.now = func() time.Time { return now }

	identifier := "moderator1"

	if remaining := lockout.GetLockoutTimeRemaining(identifier); remaining != 0 {
		t.Errorf("Expected 0 remaining, got %v", remaining)
	}

	for i := 0; i < 3; i++ {
		lockout.RecordFailedAttempt(identifier)
	}

	if remaining := lockout.GetLockoutTimeRemaining(identifier); remaining != duration {
		t.Errorf("Expected %v remaining, got %v", duration, remaining)
	}

	now = now.Add(4 * time.Second)

	if remaining := lockout.GetLockoutTimeRemaining(identifier); remaining != 6*time.Second {
		t.Errorf("Expected 6s remaining, got %v", remaining)
	}
}

// TestAccountLockout_ExpiredAttempts tests attempt counter reset after 30 minutes.
func TestAccountLockout_ExpiredAttempts(t *testing.T) {
	lockout := NewAccountLockout(3, 10*time.Minute)
	now := time.Now()
	lockout.now = func() time.Time { return now }

	identifier := "moderator1"

	lockout.RecordFailedAttempt(identifier)
	lockout.RecordFailedAttempt(identifier)

	now = now.Add(31 * time.Minute)

	// Third failure, but the earlier two are outside the window
	if lockout.RecordFailedAttempt(identifier) {
		t.Error("Stale attempts should not count towards lockout")
	}
}

// TestRateLimiter_Concurrent tests thread safety of rate limiter.
func TestRateLimiter_Concurrent(t *testing.T) {
	limiter := NewRateLimiter(100, 100*time.Millisecond)
	defer limiter.Stop()

	var allowed int
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				if limiter.Allow("shared") {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if allowed < 100 {
		t.Errorf("Expected at least the burst of 100 to be allowed, got %d", allowed)
	}
}

// TestAccountLockout_Concurrent tests thread safety of account lockout.
func TestAccountLockout_Concurrent(t *testing.T) {
	lockout := NewAccountLockout(50, 10*time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				lockout.RecordFailedAttempt("moderator1")
				lockout.IsLocked("moderator1")
			}
		}()
	}
	wg.Wait()

	if !lockout.IsLocked("moderator1") {
		t.Error("100 concurrent failures should have locked the account")
	}
}

// BenchmarkRateLimiter_Allow benchmarks rate limiter performance.
func BenchmarkRateLimiter_Allow(b *testing.B) {
	limiter := NewRateLimiter(1000, 1*time.Millisecond)
	defer limiter.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		limiter.Allow("bench")
	}
}

// BenchmarkAccountLockout_RecordFailedAttempt benchmarks lockout tracking.
func BenchmarkAccountLockout_RecordFailedAttempt(b *testing.B) {
	lockout := NewAccountLockout(100, 10*time.Minute)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		lockout.RecordFailedAttempt("bench")
	}
}
