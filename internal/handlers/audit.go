package handlers

import (
	"github.com/VeeCC-T/ShieldHer/internal/middleware"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/gofiber/fiber/v2"
)

// AuditHandler exposes the read-only audit trail to admins.
type AuditHandler struct {
	audit  *repository.AuditRepository
	logger *security.Logger
}

// NewAuditHandler creates a new instance of AuditHandler.
func NewAuditHandler(logger *security.Logger) *AuditHandler {
	return &AuditHandler{audit: repository.NewAuditRepository(), logger: logger}
}

// List handles GET /api/audit-logs/, newest first.
//
// Query Parameters:
//   - admin_user_id, action, resource_type, page, page_size
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		AdminUserID:  c.QueryInt("admin_user_id"),
		Action:       models.Action(c.Query("action")),
		ResourceType: c.Query("resource_type"),
	}

	page, err := h.audit.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return err
	}

	actor, _ := middleware.ActorFrom(c)
	h.logger.SecurityEvent(security.EventAuditLogView, &actor.UserID, actor.Username, c.IP(), c.Get(fiber.HeaderUserAgent),
		map[string]interface{}{"page": page.Page})

	return c.JSON(newPageResponse(c, page))
}
