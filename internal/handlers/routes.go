package handlers

import (
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/chatbot"
	"github.com/VeeCC-T/ShieldHer/internal/middleware"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Limiters holds the per-endpoint rate limiters.
type Limiters struct {
	Report   *security.RateLimiter
	Donation *security.RateLimiter
	Login    *security.RateLimiter
	Chatbot  *security.RateLimiter
}

// NewLimiters builds the limiters from cfg. Callers must Stop them on shutdown.
func NewLimiters(cfg *security.SecurityConfig) Limiters {
	return Limiters{
		Report:   security.PerWindow(cfg.RateLimitReport, time.Hour),
		Donation: security.PerWindow(cfg.RateLimitDonation, time.Hour),
		Login:    security.PerWindow(cfg.RateLimitLogin, time.Minute),
		Chatbot:  security.PerWindow(cfg.RateLimitChatbot, time.Minute),
	}
}

// Stop releases the limiters' janitor goroutines.
func (l Limiters) Stop() {
	for _, rl := range []*security.RateLimiter{l.Report, l.Donation, l.Login, l.Chatbot} {
		rl.Stop()
	}
}

// Server bundles everything the HTTP layer depends on.
type Server struct {
	Auth       *services.AuthService
	Reports    *services.ReportService
	Donations  *services.DonationService
	Content    *services.ContentService
	Bot        *chatbot.Bot
	Security   *security.SecurityConfig
	Logger     *security.Logger
	Limiters   Limiters
	TrustProxy bool
}

// NewApp creates the fiber application with global middleware and every route.
//
// Middleware order:
//  1. recover (panics become 500 through ErrorHandler)
//  2. request id
//  3. request logging (renders errors so the logged status is final)
//  4. security headers
func NewApp(s *Server) *fiber.App {
	cfg := fiber.Config{
		AppName:      "ShieldHer",
		ErrorHandler: middleware.ErrorHandler(s.Logger),
		BodyLimit:    s.Security.MaxRequestBodySize,
	}
	if s.TrustProxy {
		cfg.ProxyHeader = fiber.HeaderXForwardedFor
		cfg.EnableTrustedProxyCheck = false
	}
	app := fiber.New(cfg)

	sm := middleware.NewSecurityMiddleware(s.Logger, s.Security)

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(sm.RequestID())
	app.Use(sm.RequestLogger())
	app.Use(sm.SecureHeaders())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	Register(app, s, sm)
	return app
}

// Register mounts the /api routes on app.
func Register(app *fiber.App, s *Server, sm *middleware.SecurityMiddleware) {
	requireAuth := middleware.RequireAuth(s.Auth, s.Logger)
	optionalAuth := middleware.OptionalAuth(s.Auth)
	can := func(capability models.Capability) fiber.Handler {
		return middleware.RequireCapability(capability, s.Logger)
	}
	manage := []fiber.Handler{requireAuth, can(models.CapManageContent), sm.InputValidation()}
	withManage := func(h fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, manage...), h)
	}

	authH := NewAuthHandler(s.Auth)
	reportH := NewReportHandler(s.Reports)
	donationH := NewDonationHandler(s.Donations)
	contentH := NewContentHandler(s.Content)
	chatH := NewChatbotHandler(s.Bot, s.Security)
	auditH := NewAuditHandler(s.Logger)

	api := app.Group("/api")

	api.Get("/health", Health)

	// Authentication
	api.Post("/auth/login", sm.RateLimit(s.Limiters.Login, "login"), authH.Login)
	api.Post("/auth/refresh", authH.Refresh)

	// Reports: anonymous submission, admin review
	api.Post("/reports", sm.RateLimit(s.Limiters.Report, "report_create"), reportH.Create)
	api.Get("/reports/incident-types", reportH.IncidentTypes)
	api.Get("/reports/stats", requireAuth, can(models.CapViewReportStats), reportH.Stats)
	api.Get("/reports", requireAuth, can(models.CapViewReports), reportH.List)
	api.Get("/reports/:id", requireAuth, can(models.CapViewReports), reportH.Get)

	// Donations
	api.Post("/donations", sm.RateLimit(s.Limiters.Donation, "donation_create"), donationH.Create)
	api.Get("/donations/stats", requireAuth, can(models.CapViewDonations), donationH.Stats)
	api.Get("/donations", requireAuth, can(models.CapViewDonations), donationH.List)
	api.Post("/donations/:code/refund", requireAuth, can(models.CapRefundDonation), donationH.Refund)
	api.Delete("/donations/:code", requireAuth, can(models.CapDeleteDonation), donationH.Delete)
	api.Get("/donations/:code", donationH.GetByCode)

	// Lessons
	api.Get("/lessons/categories", contentH.LessonCategories)
	api.Get("/lessons/difficulties", contentH.LessonDifficulties)
	api.Get("/lessons", optionalAuth, contentH.ListLessons)
	api.Get("/lessons/:id", optionalAuth, contentH.GetLesson)
	api.Post("/lessons", withManage(contentH.CreateLesson)...)
	api.Put("/lessons/:id", withManage(contentH.UpdateLesson)...)
	api.Patch("/lessons/:id", withManage(contentH.UpdateLesson)...)
	api.Delete("/lessons/:id", withManage(contentH.DeleteLesson)...)

	// Resources
	api.Get("/resources/categories", contentH.ResourceCategories)
	api.Get("/resources/types", contentH.ResourceTypes)
	api.Get("/resources", optionalAuth, contentH.ListResources)
	api.Get("/resources/:id", optionalAuth, contentH.GetResource)
	api.Post("/resources", withManage(contentH.CreateResource)...)
	api.Put("/resources/:id", withManage(contentH.UpdateResource)...)
	api.Patch("/resources/:id", withManage(contentH.UpdateResource)...)
	api.Delete("/resources/:id", withManage(contentH.DeleteResource)...)

	// Helplines
	api.Get("/helplines/categories", contentH.HelplineCategories)
	api.Get("/helplines", optionalAuth, contentH.ListHelplines)
	api.Get("/helplines/:id", optionalAuth, contentH.GetHelpline)
	api.Post("/helplines", withManage(contentH.CreateHelpline)...)
	api.Put("/helplines/:id", withManage(contentH.UpdateHelpline)...)
	api.Patch("/helplines/:id", withManage(contentH.UpdateHelpline)...)
	api.Delete("/helplines/:id", withManage(contentH.DeleteHelpline)...)

	// Chatbot
	api.Post("/chatbot/message", sm.RateLimit(s.Limiters.Chatbot, "chatbot"), chatH.Message)
	api.Get("/chatbot/suggestions", chatH.Suggestions)
	api.Get("/chatbot/resources", chatH.Resources)

	// Audit trail
	api.Get("/audit-logs", requireAuth, can(models.CapViewAuditLog), auditH.List)
}
