package handlers

import (
	"github.com/VeeCC-T/ShieldHer/internal/middleware"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

const (
	messageReportSubmitted = "Your report has been submitted securely and anonymously. Save this confirmation code for your records."
	messageRedacted        = "Some personally identifiable information was automatically removed for your safety."
)

// ReportHandler handles anonymous report submission and admin review.
type ReportHandler struct {
	reports *services.ReportService
}

// NewReportHandler creates a new instance of ReportHandler.
func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SubmitResponse is returned to the anonymous submitter.
type SubmitResponse struct {
	ConfirmationCode string  `json:"confirmation_code"`
	Message          string  `json:"message"`
	RedactionApplied bool    `json:"redaction_applied"`
	RedactionMessage *string `json:"redaction_message"`
}

// Create accepts an anonymous incident report.
//
// Nothing identifying the submitter (IP, user agent, cookies) is read here.
//
// Responses:
//   - 201: SubmitResponse
//   - 400: field errors
func (h *ReportHandler) Create(c *fiber.Ctx) error {
	var sub models.ReportSubmission
	if err := bind(c, &sub); err != nil {
		return err
	}

	result, err := h.reports.Submit(c.UserContext(), &sub)
	if err != nil {
		return err
	}

	resp := SubmitResponse{
		ConfirmationCode: result.ConfirmationCode,
		Message:          messageReportSubmitted,
		RedactionApplied: result.RedactionApplied,
	}
	if result.RedactionApplied {
		msg := messageRedacted
		resp.RedactionMessage = &msg
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// IncidentTypes lists the selectable incident categories.
func (h *ReportHandler) IncidentTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"incident_types": models.IncidentTypes})
}

// List returns a page of reports without descriptions.
//
// Query Parameters:
//   - incident_type, redaction_applied, page, page_size
func (h *ReportHandler) List(c *fiber.Ctx) error {
	filter := repository.ReportFilter{
		IncidentType:     c.Query("incident_type"),
		RedactionApplied: queryBool(c, "redaction_applied"),
	}

	page, err := h.reports.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(newPageResponse(c, page))
}

// Get returns one report with its decrypted description. Every call is audited.
func (h *ReportHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	actor, _ := middleware.ActorFrom(c)

	view, err := h.reports.View(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// Stats returns aggregate report statistics.
func (h *ReportHandler) Stats(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	stats, err := h.reports.Stats(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
