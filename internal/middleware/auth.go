// Package middleware provides HTTP middleware for authentication, authorization,
// error rendering and request hygiene.
package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

const localActor = "actor"

// Authenticator verifies a bearer access token against the current account state.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Actor, error)
}

// ActorFrom returns the authenticated admin stored by RequireAuth or OptionalAuth.
func ActorFrom(c *fiber.Ctx) (models.Actor, bool) {
	actor, ok := c.Locals(localActor).(models.Actor)
	return actor, ok
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireAuth ensures the request carries a valid admin access token for an
// active account. It rejects the request with 401 otherwise; a failed account
// lookup surfaces as a server error.
//
// Parameters:
//   - auth: Token verifier (services.AuthService)
//   - logger: Security logger for rejected attempts
//
// Context Locals Set:
//   - actor: models.Actor of the authenticated admin
//
// Example:
//
//	admin := api.Group("/admin", middleware.RequireAuth(authService, logger))
func RequireAuth(auth Authenticator, logger *security.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		actor, err := auth.Authenticate(c.UserContext(), token)
		if err != nil && !errors.Is(err, services.ErrInvalidToken) {
			return err
		}
		if err != nil {
			logger.SecurityEvent(security.EventUnauthorizedAccess, nil, "", "", "",
				map[string]interface{}{
					"method": c.Method(),
					"path":   c.Path(),
				})
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token.")
		}

		c.Locals(localActor, actor)
		return c.Next()
	}
}

// OptionalAuth stores the actor when a valid token is present and lets
// anonymous requests through unchanged. Public listings use it to show
// unpublished content to admins.
func OptionalAuth(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := bearerToken(c); token != "" {
			if actor, err := auth.Authenticate(c.UserContext(), token); err == nil {
				c.Locals(localActor, actor)
			}
		}
		return c.Next()
	}
}

// RequireCapability rejects requests whose actor's role lacks capability.
// It MUST be chained after RequireAuth.
//
// Example:
//
//	admin.Get("/audit-logs", middleware.RequireCapability(models.CapViewAuditLog, logger), h.List)
func RequireCapability(capability models.Capability, logger *security.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFrom(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication credentials were not provided.")
		}

		if !actor.Role.Can(capability) {
			logger.SecurityEvent(security.EventForbiddenAccess, &actor.UserID, actor.Username, c.IP(), c.Get(fiber.HeaderUserAgent),
				map[string]interface{}{
					"capability": string(capability),
					"method":     c.Method(),
					"path":       c.Path(),
				})
			return fiber.NewError(fiber.StatusForbidden, "You do not have permission to perform this action.")
		}

		return c.Next()
	}
}
