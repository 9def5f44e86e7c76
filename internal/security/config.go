// Package security provides centralized security configuration and utilities:
// input validation, rate limiting, brute force protection, structured security
// logging and alerting.
package security

import (
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
)

// SecurityConfig holds all security-related configuration values.
type SecurityConfig struct {
	// Password storage
	BcryptCost int // Cost factor for bcrypt hashing

	// Brute force protection
	AccountLockoutThreshold int           // Failed attempts before lockout
	AccountLockoutDuration  time.Duration // How long the account stays locked

	// Input validation
	MaxReportDescriptionLength int // Characters
	MaxLocationLength          int // Characters
	MaxEvidenceLinks           int
	MaxDonationAmount          models.Cents
	MaxDonationMessageLength   int
	MaxChatMessageLength       int
	MaxRequestBodySize         int // Bytes

	// Rate limiting (requests per window, per identifier)
	RateLimitReport   int // per hour
	RateLimitDonation int // per hour
	RateLimitLogin    int // per minute
	RateLimitChatbot  int // per minute

	// Security monitoring
	MonitoringInterval     time.Duration // How often failure counters are cleared
	AlertThresholdFailures int           // Failed logins before alerting
}

// DefaultSecurityConfig returns security configuration with recommended defaults.
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		// Bcrypt cost 12 = 2^12 iterations
		BcryptCost: 12,

		AccountLockoutThreshold: 10,
		AccountLockoutDuration:  30 * time.Minute,

		MaxReportDescriptionLength: 5000,
		MaxLocationLength:          200,
		MaxEvidenceLinks:           10,
		MaxDonationAmount:          10_000_000, // $100,000.00
		MaxDonationMessageLength:   1000,
		MaxChatMessageLength:       2000,
		MaxRequestBodySize:         1024 * 1024, // 1MB

		RateLimitReport:   5,
		RateLimitDonation: 10,
		RateLimitLogin:    5,
		RateLimitChatbot:  30,

		MonitoringInterval:     5 * time.Minute,
		AlertThresholdFailures: 5,
	}
}
