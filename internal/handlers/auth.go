package handlers

import (
	"strings"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles admin login and token refresh.
type AuthHandler struct {
	auth *services.AuthService
}

// NewAuthHandler creates a new instance of AuthHandler.
func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// LoginUser is the account summary returned with a token pair.
type LoginUser struct {
	ID       int         `json:"id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Access  string    `json:"access"`
	Refresh string    `json:"refresh"`
	User    LoginUser `json:"user"`
}

// Login exchanges admin credentials for an access/refresh token pair.
//
// Request Body:
//   - username, password
//
// Responses:
//   - 200: LoginResponse
//   - 401: "Invalid credentials" for every failure, including malformed input
//
// Side Effects:
//   - Failed attempts count towards account lockout and alerting
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return services.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return services.ErrInvalidCredentials
	}

	result, err := h.auth.Login(c.UserContext(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return err
	}

	return c.JSON(LoginResponse{
		Access:  result.Tokens.Access,
		Refresh: result.Tokens.Refresh,
		User: LoginUser{
			ID:       result.User.ID,
			Username: result.User.Username,
			Role:     result.User.Role,
		},
	})
}

// Refresh issues a new access token for a valid refresh token.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req models.RefreshRequest
	if err := bind(c, &req); err != nil || req.Refresh == "" {
		return services.ErrInvalidToken
	}

	access, err := h.auth.Refresh(c.UserContext(), req.Refresh)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"access": access})
}
