package handlers

import (
	"errors"

	"github.com/VeeCC-T/ShieldHer/internal/middleware"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

// DonationHandler handles donations and their admin management.
type DonationHandler struct {
	donations *services.DonationService
}

// NewDonationHandler creates a new instance of DonationHandler.
func NewDonationHandler(donations *services.DonationService) *DonationHandler {
	return &DonationHandler{donations: donations}
}

// notFound turns a missing donation into the public 404 message.
func donationNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Donation not found")
	}
	return err
}

// Create charges and records a donation.
//
// Responses:
//   - 201: {success, message, donation}
//   - 400: field errors, or {error: "Payment processing failed", detail} when declined
func (h *DonationHandler) Create(c *fiber.Ctx) error {
	var req models.DonationRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	d, err := h.donations.Create(c.UserContext(), &req)
	if err != nil {
		var payErr *services.PaymentError
		if errors.As(err, &payErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Payment processing failed",
				"detail": payErr.Detail,
			})
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":  true,
		"message":  "Thank you for your donation!",
		"donation": services.NewDonationReceipt(d),
	})
}

// GetByCode returns the public receipt for a confirmation code.
func (h *DonationHandler) GetByCode(c *fiber.Ctx) error {
	d, err := h.donations.GetByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return donationNotFound(err)
	}
	return c.JSON(services.NewDonationReceipt(d))
}

// List returns a page of donations with masked donor emails.
//
// Query Parameters:
//   - status, is_anonymous, page, page_size
func (h *DonationHandler) List(c *fiber.Ctx) error {
	filter := repository.DonationFilter{
		Status:      models.DonationStatus(c.Query("status")),
		IsAnonymous: queryBool(c, "is_anonymous"),
	}

	page, err := h.donations.List(c.UserContext(), filter, pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(newPageResponse(c, page))
}

// Stats returns totals over completed donations.
func (h *DonationHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.donations.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

// Refund refunds a completed donation through the gateway.
func (h *DonationHandler) Refund(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	d, err := h.donations.Refund(c.UserContext(), actor, c.Params("code"))
	if err != nil {
		var payErr *services.PaymentError
		if errors.As(err, &payErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Refund failed",
				"detail": payErr.Detail,
			})
		}
		return donationNotFound(err)
	}
	return c.JSON(services.NewDonationReceipt(d))
}

// Delete removes a donation that never completed. Completed donations are 409.
func (h *DonationHandler) Delete(c *fiber.Ctx) error {
	actor, _ := middleware.ActorFrom(c)

	if err := h.donations.Delete(c.UserContext(), actor, c.Params("code")); err != nil {
		return donationNotFound(err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
