package security

import (
	"sync"
	"time"
)

// AccountLockout tracks failed login attempts per username and locks the
// account after a threshold.
type AccountLockout struct {
	lockouts map[string]*lockoutState
	mu       sync.Mutex

	threshold   int           // Failed attempts before lockout
	duration    time.Duration // How long account stays locked
	resetWindow time.Duration // Attempts older than this restart the count

	now func() time.Time
}

type lockoutState struct {
	failedAttempts int
	lockedUntil    time.Time
	lastAttempt    time.Time
}

// NewAccountLockout creates a new account lockout tracker.
//
// Parameters:
//   - threshold: Number of failed attempts before lockout
//   - duration: How long the account stays locked
//
// Example:
//
//	// Lock account for 30 minutes after 10 failed attempts
//	lockout := NewAccountLockout(10, 30*time.Minute)
func NewAccountLockout(threshold int, duration time.Duration) *AccountLockout {
	return &AccountLockout{
		lockouts:    make(map[string]*lockoutState),
		threshold:   threshold,
		duration:    duration,
		resetWindow: 30 * time.Minute,
		now:         time.Now,
	}
}

// RecordFailedAttempt records a failed login attempt.
// Returns true if the attempt locked the account.
func (al *AccountLockout) RecordFailedAttempt(identifier string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := al.now()
	state, ok := al.lockouts[identifier]
	if !ok || now.Sub(state.lastAttempt) > al.resetWindow {
		state = &lockoutState{}
		al.lockouts[identifier] = state
	}

	state.failedAttempts++
	state.lastAttempt = now

	if state.failedAttempts >= al.threshold {
		state.lockedUntil = now.Add(al.duration)
		return true
	}
	return false
}

// IsLocked checks if an account is currently locked.
// An expired lockout clears the attempt counter.
func (al *AccountLockout) IsLocked(identifier string) bool {
	al.mu.Lock()
	defer al.mu.Unlock()

	state, ok := al.lockouts[identifier]
	if !ok || state.lockedUntil.IsZero() {
		return false
	}

	if al.now().After(state.lockedUntil) {
		delete(al.lockouts, identifier)
		return false
	}
	return true
}

// ResetAttempts resets failed attempt counter for an identifier.
// Call this on successful login.
func (al *AccountLockout) ResetAttempts(identifier string) {
	al.mu.Lock()
	defer al.mu.Unlock()
	delete(al.lockouts, identifier)
}

// GetLockoutTimeRemaining returns how much time is left on the lockout.
// Returns 0 if not locked.
func (al *AccountLockout) GetLockoutTimeRemaining(identifier string) time.Duration {
	al.mu.Lock()
	defer al.mu.Unlock()

	state, ok := al.lockouts[identifier]
	if !ok || state.lockedUntil.IsZero() {
		return 0
	}

	remaining := state.lockedUntil.Sub(al.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}
