package middleware

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const localRequestID = "request_id"

// SecurityMiddleware provides request logging, rate limiting, security
// headers and input screening.
//
// Public routes never hand the client IP or user agent to the logger. The
// IP is used only as an in-memory rate limit key.
type SecurityMiddleware struct {
	logger *security.Logger
	config *security.SecurityConfig
}

// NewSecurityMiddleware creates a new security middleware instance.
func NewSecurityMiddleware(logger *security.Logger, config *security.SecurityConfig) *SecurityMiddleware {
	return &SecurityMiddleware{logger: logger, config: config}
}

// RequestIDFrom returns the id assigned by RequestID, or "".
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(localRequestID).(string)
	return id
}

// RequestID assigns every request a UUID, echoed in the X-Request-ID header.
// A well-formed incoming X-Request-ID is kept.
func (sm *SecurityMiddleware) RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(fiber.HeaderXRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Locals(localRequestID, id)
		c.Set(fiber.HeaderXRequestID, id)
		return c.Next()
	}
}

// RateLimit rejects requests beyond limiter's budget with 429 and Retry-After.
// Authenticated admins are keyed by user id, everyone else by client IP.
func (sm *SecurityMiddleware) RateLimit(limiter *security.RateLimiter, name string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := "ip_" + c.IP()
		var actorID *int
		if actor, ok := ActorFrom(c); ok {
			identifier = fmt.Sprintf("user_%d", actor.UserID)
			actorID = &actor.UserID
		}

		if !limiter.Allow(identifier) {
			security.RateLimitRejections.WithLabelValues(name).Inc()
			sm.logger.SecurityEvent(security.EventRateLimitExceeded, actorID, "", "", "",
				map[string]interface{}{
					"endpoint": name,
					"path":     c.Path(),
				})

			retry := int(math.Ceil(limiter.RetryAfter(identifier).Seconds()))
			if retry < 1 {
				retry = 1
			}
			c.Set(fiber.HeaderRetryAfter, fmt.Sprint(retry))
			return fiber.NewError(fiber.StatusTooManyRequests, "Request was throttled. Please try again later.")
		}

		return c.Next()
	}
}

// RequestLogger logs every request once it has completed.
//
// Errors are rendered here through the app's ErrorHandler so the logged
// status matches the response. Client IP and user agent are recorded only
// for authenticated admin requests.
func (sm *SecurityMiddleware) RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		var ip, ua string
		if _, ok := ActorFrom(c); ok {
			ip, ua = c.IP(), c.Get(fiber.HeaderUserAgent)
		}

		sm.logger.HTTPRequest(
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start).Milliseconds(),
			ip,
			ua,
		)
		return nil
	}
}

// SecureHeaders adds security headers to every response.
func (sm *SecurityMiddleware) SecureHeaders() fiber.Handler {
	return func(c *fiber.Ctx) error {
		// JSON only: nothing may be framed, scripted or embedded.
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		c.Set("Referrer-Policy", "no-referrer")
		c.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		c.Set("Cache-Control", "no-store")

		return c.Next()
	}
}

// InputValidation rejects request bodies carrying script injection markers.
// It guards admin-authored content, which is later rendered to the public.
func (sm *SecurityMiddleware) InputValidation() fiber.Handler {
	return func(c *fiber.Ctx) error {
		body := string(c.Body())
		if body == "" {
			return c.Next()
		}

		var actorID *int
		var actorName string
		if actor, ok := ActorFrom(c); ok {
			actorID, actorName = &actor.UserID, actor.Username
		}

		var event security.SecurityEventType
		switch {
		case detectSQLInjection(body):
			event = security.EventSQLInjectionAttempt
		case detectXSSAttempt(body):
			event = security.EventXSSAttempt
		}
		if event != "" {
			sm.logger.SecurityEvent(event, actorID, actorName, c.IP(), c.Get(fiber.HeaderUserAgent),
				map[string]interface{}{
					"path":   c.Path(),
					"method": c.Method(),
				})
			return fiber.NewError(fiber.StatusBadRequest, "Invalid input detected")
		}

		return c.Next()
	}
}

var sqlInjectionPatterns = []string{
	"' or '1'='1",
	"' or 1=1",
	"'; drop table",
	"'; delete from",
	"union select",
}

var xssPatterns = []string{
	"<script",
	"javascript:",
	"onerror=",
	"onload=",
	"onclick=",
	"<iframe",
}

func containsAny(input string, patterns []string) bool {
	input = strings.ToLower(input)
	for _, p := range patterns {
		if strings.Contains(input, p) {
			return true
		}
	}
	return false
}

// detectSQLInjection checks for common SQL injection patterns.
func detectSQLInjection(input string) bool {
	return containsAny(input, sqlInjectionPatterns)
}

// detectXSSAttempt checks for common XSS attack patterns.
func detectXSSAttempt(input string) bool {
	return containsAny(input, xssPatterns)
}
