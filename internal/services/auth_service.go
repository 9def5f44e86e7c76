// Package services provides the business logic layer for the ShieldHer backend.
// Services sit between HTTP handlers and repositories and own every rule that
// is not a pure storage concern: redaction, encryption, audit and payments.
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for every login or refresh failure:
// unknown user, wrong password, inactive or locked account, bad token.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the username does not exist so that
// unknown and known usernames take the same time to reject.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("shieldher-timing-equaliser"), bcrypt.MinCost)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Tokens *TokenPair
	User   *models.AdminUser
}

// AuthService handles admin authentication and password management.
//
// Dependencies:
//   - AdminUserRepository: Database access for admin accounts
//   - TokenManager: JWT issue and verification
//   - AccountLockout / SecurityMonitor: brute force protection and alerting
//
// Security Notes:
//   - bcrypt comparison is constant-time
//   - Every failure returns ErrInvalidCredentials so callers cannot tell which
//     check failed
//   - Passwords are never logged
type AuthService struct {
	users   *repository.AdminUserRepository
	tokens  *TokenManager
	lockout *security.AccountLockout
	monitor *security.SecurityMonitor
	logger  *security.Logger
	cost    int
	now     func() time.Time
}

// NewAuthService creates and returns a new AuthService instance.
//
// Example:
//
//	auth := services.NewAuthService(tokens, secCfg, monitor, logger)
//	result, err := auth.Login(ctx, username, password)
func NewAuthService(tokens *TokenManager, cfg *security.SecurityConfig, monitor *security.SecurityMonitor, logger *security.Logger) *AuthService {
	return &AuthService{
		users:   repository.NewAdminUserRepository(),
		tokens:  tokens,
		lockout: security.NewAccountLockout(cfg.AccountLockoutThreshold, cfg.AccountLockoutDuration),
		monitor: monitor,
		logger:  logger,
		cost:    cfg.BcryptCost,
		now:     time.Now,
	}
}

// Login verifies credentials and issues an access/refresh token pair.
//
// This method:
//  1. Rejects locked accounts without touching the database
//  2. Looks up the account by username
//  3. Compares the password against the stored bcrypt hash
//  4. Records failures for lockout and alerting
//
// Returns:
//   - *LoginResult: Tokens and the account on success
//   - error: ErrInvalidCredentials for any credential problem; a wrapped
//     database error when the lookup itself fails
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s.lockout.IsLocked(username) {
		s.logger.SecurityEvent(security.EventAccountLocked, nil, username, "", "", map[string]interface{}{
			"remaining_seconds": int(s.lockout.GetLockoutTimeRemaining(username).Seconds()),
		})
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admin user: %w", err)
	}

	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return nil, s.loginFailed(username, "unknown_user")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, s.loginFailed(username, "bad_password")
	}
	if !user.IsActive {
		return nil, s.loginFailed(username, "inactive")
	}

	s.lockout.ResetAttempts(username)

	tokens, err := s.tokens.IssuePair(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		s.logger.Error("Failed to record last login", err)
	}
	s.logger.SecurityEvent(security.EventLoginSuccess, &user.ID, user.Username, "", "", nil)

	return &LoginResult{Tokens: tokens, User: user}, nil
}

func (s *AuthService) loginFailed(username, reason string) error {
	locked := s.lockout.RecordFailedAttempt(username)
	s.monitor.MonitorLoginFailure(username)
	s.logger.SecurityEvent(security.EventLoginFailure, nil, username, "", "", map[string]interface{}{
		"reason": reason,
		"locked": locked,
	})
	return ErrInvalidCredentials
}

// Refresh exchanges a refresh token for a new access token.
// The account is re-read so that deactivation and role changes take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokens.Parse(refreshToken, TokenRefresh)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up admin user: %w", err)
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(user)
	if err != nil {
		return "", err
	}
	s.logger.SecurityEvent(security.EventTokenRefresh, &user.ID, user.Username, "", "", nil)
	return access, nil
}

// Authenticate verifies a bearer access token and returns the actor.
// The account is re-read on every request: a deactivated or deleted admin
// is rejected at once and the stored role wins over the role in the token.
//
// Returns:
//   - error: ErrInvalidToken for a bad token or an unusable account; a
//     wrapped database error when the lookup itself fails
func (s *AuthService) Authenticate(ctx context.Context, token string) (models.Actor, error) {
	claims, err := s.tokens.Parse(token, TokenAccess)
	if err != nil {
		return models.Actor{}, err
	}
	actor, err := claims.Actor()
	if err != nil {
		return models.Actor{}, err
	}

	user, err := s.users.FindByID(ctx, actor.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return models.Actor{}, fmt.Errorf("%w: account no longer exists", ErrInvalidToken)
	}
	if err != nil {
		return models.Actor{}, fmt.Errorf("failed to look up admin user: %w", err)
	}
	if !user.IsActive {
		return models.Actor{}, fmt.Errorf("%w: account is inactive", ErrInvalidToken)
	}
	return models.Actor{UserID: user.ID, Username: user.Username, Role: user.Role}, nil
}

// HashPassword generates a bcrypt hash of the provided plaintext password
// using the configured cost.
//
// Returns:
//   - string: bcrypt hash including salt and cost (60 characters)
//   - error: bcrypt.ErrPasswordTooLong for inputs over 72 bytes
func (s *AuthService) HashPassword(password string) (string, error) {
	return HashPassword(password, s.cost)
}

// HashPassword hashes password with the given bcrypt cost.
// Shared with the admin tool, which has no AuthService.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	return string(hash), err
}

// VerifyPassword reports whether password matches hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
