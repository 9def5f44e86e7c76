package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Token types carried in the token_type claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

const tokenIssuer = "shieldher"

// ErrInvalidToken is returned for any token that fails parsing or validation.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the JWT claims issued to admin users.
// Subject holds the admin user id.
type Claims struct {
	Username  string `json:"username"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Actor converts verified claims into the request actor.
func (c *Claims) Actor() (models.Actor, error) {
	id, err := strconv.Atoi(c.Subject)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, err := models.ParseRole(c.Role)
	if err != nil {
		return models.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return models.Actor{UserID: id, Username: c.Username, Role: role}, nil
}

// TokenPair is the result of a successful login.
type TokenPair struct {
	Access  string
	Refresh string
}

// TokenManager issues and verifies HS256 admin tokens.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a token manager. secret must be at least 32 bytes;
// config.Load enforces this.
func NewTokenManager(secret []byte, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     secret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *TokenManager) sign(user *models.AdminUser, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Username:  user.Username,
		Role:      string(user.Role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// IssuePair signs a new access and refresh token for user.
func (m *TokenManager) IssuePair(user *models.AdminUser) (*TokenPair, error) {
	access, err := m.sign(user, TokenAccess, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(user, TokenRefresh, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// IssueAccess signs a new access token for user.
func (m *TokenManager) IssueAccess(user *models.AdminUser) (string, error) {
	return m.sign(user, TokenAccess, m.accessTTL)
}

// Parse verifies signature, expiry, issuer and token type.
//
// Returns:
//   - *Claims: Verified claims
//   - error: ErrInvalidToken (wrapped) on any failure
func (m *TokenManager) Parse(token, tokenType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, tokenType)
	}
	return claims, nil
}
