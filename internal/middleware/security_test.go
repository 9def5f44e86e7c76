package middleware

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSecurityMiddleware(buf *bytes.Buffer) *SecurityMiddleware {
	return NewSecurityMiddleware(security.NewLoggerWithWriter(buf), security.DefaultSecurityConfig())
}

// TestRateLimit tests per-client throttling.
//
// Test Cases:
//   - requests within budget pass
//   - the next request is 429 with Retry-After and counted
func TestRateLimit(t *testing.T) {
	app, logs := newTestApp(t)
	sm := newTestSecurityMiddleware(logs)
	limiter := security.PerWindow(2, time.Hour)
	defer limiter.Stop()

	app.Post("/api/reports", sm.RateLimit(limiter, "report_create"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	before := testutil.ToFloat64(security.RateLimitRejections.WithLabelValues("report_create"))

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/api/reports", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/api/reports", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
	assert.Equal(t, before+1, testutil.ToFloat64(security.RateLimitRejections.WithLabelValues("report_create")))
	assert.Contains(t, logs.String(), string(security.EventRateLimitExceeded))
	assert.NotContains(t, logs.String(), "0.0.0.0")
}

// TestRequestLogger verifies the logged status matches the rendered error
// and that anonymous requests carry no client identity.
func TestRequestLogger(t *testing.T) {
	app, logs := newTestApp(t)
	sm := newTestSecurityMiddleware(logs)
	app.Use(sm.RequestLogger())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Donation not found")
	})

	req := httptest.NewRequest("GET", "/missing", nil)
	req.Header.Set("User-Agent", "survivor-phone/1.0")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, logs.String(), `"status":404`)
	assert.NotContains(t, logs.String(), "survivor-phone")
	assert.NotContains(t, logs.String(), "ip_address")
}

// TestRequestLogger_Admin verifies admin requests are logged with client identity.
func TestRequestLogger_Admin(t *testing.T) {
	app, logs := newTestApp(t)
	sm := newTestSecurityMiddleware(logs)
	app.Use(sm.RequestLogger())
	app.Get("/api/reports", RequireAuth(testTokens, security.NewLoggerWithWriter(logs)), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/api/reports", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	req.Header.Set("User-Agent", "admin-console/2.0")
	_, err := app.Test(req)
	require.NoError(t, err)

	assert.Contains(t, logs.String(), "admin-console/2.0")
}

// TestRequestID verifies ids are generated or preserved.
func TestRequestID(t *testing.T) {
	app, logs := newTestApp(t)
	sm := newTestSecurityMiddleware(logs)
	app.Use(sm.RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	_, err = uuid.Parse(resp.Header.Get("X-Request-ID"))
	assert.NoError(t, err)

	existing := uuid.NewString()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", existing)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, existing, resp.Header.Get("X-Request-ID"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "<script>")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.NotEqual(t, "<script>", resp.Header.Get("X-Request-ID"))
}

// TestSecureHeaders tests that security headers are set.
func TestSecureHeaders(t *testing.T) {
	app, logs := newTestApp(t)
	sm := newTestSecurityMiddleware(logs)
	app.Use(sm.SecureHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)

	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
		"Cache-Control":          "no-store",
	} {
		assert.Equal(t, want, resp.Header.Get(header), header)
	}
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "frame-ancestors 'none'")
}

// TestInputValidation tests injection screening on request bodies.
func TestInputValidation(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"clean", `{"title":"Know your rights"}`, fiber.StatusOK},
		{"script tag", `{"title":"<SCRIPT>alert(1)</script>"}`, fiber.StatusBadRequest},
		{"sql", `{"title":"x' OR 1=1 --"}`, fiber.StatusBadRequest},
		{"empty", ``, fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, logs := newTestApp(t)
			sm := newTestSecurityMiddleware(logs)
			app.Post("/", sm.InputValidation(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

// TestDetectors tests the pattern helpers directly.
func TestDetectors(t *testing.T) {
	assert.True(t, detectSQLInjection("1 UNION SELECT password FROM admin_users"))
	assert.False(t, detectSQLInjection("I left the union meeting early"))
	assert.True(t, detectXSSAttempt(`<img src=x onerror=alert(1)>`))
	assert.False(t, detectXSSAttempt("he took my phone"))
}
