package services

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/codes"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/privacy"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
)

var (
	// ErrDonationNotDeletable is returned when deleting a completed donation.
	ErrDonationNotDeletable = errors.New("completed donations cannot be deleted")

	// ErrInvalidTransition is returned when a status change is not allowed.
	ErrInvalidTransition = errors.New("invalid donation status transition")
)

const defaultCurrency = "USD"

// DonationReceipt is the public view of a donation, looked up by confirmation code.
type DonationReceipt struct {
	ID               int                   `json:"id"`
	ConfirmationCode string                `json:"confirmation_code"`
	Amount           models.Cents          `json:"amount"`
	Currency         string                `json:"currency"`
	Status           models.DonationStatus `json:"status"`
	Message          string                `json:"message"`
	CreatedAt        time.Time             `json:"created_at"`
}

// NewDonationReceipt builds the public view of d.
func NewDonationReceipt(d *models.Donation) *DonationReceipt {
	return &DonationReceipt{
		ID:               d.ID,
		ConfirmationCode: d.ConfirmationCode,
		Amount:           d.Amount,
		Currency:         d.Currency,
		Status:           d.Status,
		Message:          d.Message,
		CreatedAt:        d.CreatedAt,
	}
}

// AdminDonation is the admin list view with a masked donor email.
type AdminDonation struct {
	models.Donation
	DonorEmail string `json:"donor_email"`
}

// DonationStats is the admin donation statistics payload.
type DonationStats struct {
	TotalAmount   models.Cents `json:"total_amount"`
	TotalCount    int          `json:"total_count"`
	AverageAmount models.Cents `json:"average_amount"`
	Currency      string       `json:"currency"`
}

// MaskEmail hides most of the local part: "jane@example.com" becomes
// "ja**@example.com". Anonymous or empty emails render as "Anonymous".
func MaskEmail(email string, anonymous bool) string {
	at := strings.LastIndex(email, "@")
	if anonymous || email == "" || at < 1 {
		return "Anonymous"
	}
	local, domain := email[:at], email[at:]
	if len(local) <= 2 {
		return local[:1] + "*" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + domain
}

// DonationService processes donations through the payment gateway.
//
// A donation row is written only after the gateway confirms the charge, so
// every stored donation starts as completed.
type DonationService struct {
	donations *repository.DonationRepository
	stats     *repository.StatsRepository
	audit     *repository.AuditRepository
	gateway   PaymentGateway
	validator *security.ValidationService
	scanner   *privacy.Pipeline
	codes     *codes.Generator
	logger    *security.Logger
	config    *security.SecurityConfig
}

// NewDonationService creates a donation service. scanner must use the
// donation_message scope.
func NewDonationService(
	gateway PaymentGateway,
	validator *security.ValidationService,
	scanner *privacy.Pipeline,
	cfg *security.SecurityConfig,
	logger *security.Logger,
) *DonationService {
	return &DonationService{
		donations: repository.NewDonationRepository(),
		stats:     repository.NewStatsRepository(),
		audit:     repository.NewAuditRepository(),
		gateway:   gateway,
		validator: validator,
		scanner:   scanner,
		codes:     codes.NewGenerator(),
		logger:    logger,
		config:    cfg,
	}
}

// validate checks req and returns the amount in cents.
func (s *DonationService) validate(req *models.DonationRequest) (models.Cents, error) {
	fe := security.FieldErrors{}
	if err := s.validator.ValidateStruct(req); err != nil {
		verrs, ok := security.AsFieldErrors(err)
		if !ok {
			return 0, err
		}
		for field, msgs := range verrs {
			for _, m := range msgs {
				fe.Add(field, m)
			}
		}
	}

	amount, msg := parseAmount(req.Amount, s.config.MaxDonationAmount)
	if msg != "" {
		fe.Add("amount", msg)
	}

	if !req.IsAnonymous && strings.TrimSpace(req.DonorEmail) == "" {
		fe.Add("donor_email", "Email is required for non-anonymous donations")
	}
	return amount, fe.Err()
}

// parseAmount checks the decimal text exactly: positive, at most limit and
// no fractional cents. A non-empty msg is the field error to report.
func parseAmount(raw json.Number, limit models.Cents) (amount models.Cents, msg string) {
	text := strings.TrimSpace(raw.String())
	if text == "" {
		return 0, "This field is required."
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok || strings.Contains(text, "/") {
		return 0, "A valid number is required."
	}
	switch {
	case r.Sign() <= 0:
		return 0, "Donation amount must be greater than zero"
	case r.Cmp(limit.Rat()) > 0:
		return 0, fmt.Sprintf("Donation amount cannot exceed $%s", humanDollars(limit))
	}
	amount, err := models.ParseCents(text)
	if err != nil {
		return 0, "Ensure that there are no more than 2 decimal places."
	}
	return amount, ""
}

// humanDollars renders whole dollars with thousands separators (10_000_000 -> "100,000").
func humanDollars(c models.Cents) string {
	digits := fmt.Sprintf("%d", int64(c)/100)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Create validates the request, charges the gateway and stores the donation.
//
// Returns:
//   - *models.Donation: The stored, completed donation
//   - error: security.FieldErrors for invalid input; *PaymentError when the
//     gateway declines; wrapped storage errors otherwise
func (s *DonationService) Create(ctx context.Context, req *models.DonationRequest) (*models.Donation, error) {
	amount, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	d := &models.Donation{
		Amount:      amount,
		Currency:    strings.ToUpper(req.Currency),
		DonorEmail:  strings.TrimSpace(req.DonorEmail),
		IsAnonymous: req.IsAnonymous,
		Message:     req.Message,
	}
	if d.Currency == "" {
		d.Currency = defaultCurrency
	}
	if d.IsAnonymous {
		d.DonorEmail = ""
	}

	// Messages are public-facing; PII is logged for follow-up, not blocked.
	if found := s.scanner.Scan(d.Message); len(found) > 0 {
		s.logger.SecurityEvent(security.EventDonationMessagePII, nil, "", "", "", map[string]interface{}{
			"categories": found,
		})
	}

	intent, err := s.gateway.Charge(ctx, d.Amount, d.Currency)
	if err != nil {
		s.logger.SecurityEvent(security.EventDonationPaymentErr, nil, "", "", "", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, err
	}
	d.PaymentIntentID = intent.ID
	d.Status = models.DonationCompleted

	if _, err := s.codes.Issue(ctx, codes.PrefixDonation, func(code string) error {
		d.ConfirmationCode = code
		return s.donations.Create(ctx, d)
	}); err != nil {
		s.logger.Critical("Charged donation could not be stored, refunding", err)
		if _, refundErr := s.gateway.Refund(context.WithoutCancel(ctx), intent.ID); refundErr != nil {
			s.logger.Critical("Refund of unstored donation failed", refundErr)
		}
		return nil, fmt.Errorf("failed to store donation: %w", err)
	}

	s.logger.SecurityEvent(security.EventDonationCreate, nil, "", "", "", map[string]interface{}{
		"amount":       d.Amount.String(),
		"currency":     d.Currency,
		"is_anonymous": d.IsAnonymous,
	})
	return d, nil
}

// GetByCode looks up a donation by confirmation code.
func (s *DonationService) GetByCode(ctx context.Context, code string) (*models.Donation, error) {
	return s.donations.FindByCode(ctx, code)
}

// List returns one page of donations with masked donor emails.
func (s *DonationService) List(ctx context.Context, filter repository.DonationFilter, page models.PageRequest) (models.Page[AdminDonation], error) {
	raw, err := s.donations.List(ctx, filter, page)
	if err != nil {
		return models.Page[AdminDonation]{PageRequest: page}, err
	}

	out := models.Page[AdminDonation]{Total: raw.Total, PageRequest: raw.PageRequest, Items: make([]AdminDonation, 0, len(raw.Items))}
	for _, d := range raw.Items {
		out.Items = append(out.Items, AdminDonation{Donation: d, DonorEmail: MaskEmail(d.DonorEmail, d.IsAnonymous)})
	}
	return out, nil
}

// Refund refunds a completed donation through the gateway and marks it refunded.
//
// Returns:
//   - error: repository.ErrNotFound; ErrInvalidTransition unless the donation
//     is completed; *PaymentError if the gateway refuses
func (s *DonationService) Refund(ctx context.Context, actor models.Actor, code string) (*models.Donation, error) {
	d, err := s.donations.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransitionTo(models.DonationRefunded) {
		return nil, fmt.Errorf("%w: %s donation cannot be refunded", ErrInvalidTransition, d.Status)
	}

	refundID, gwErr := s.gateway.Refund(ctx, d.PaymentIntentID)
	details := map[string]interface{}{"confirmation_code": d.ConfirmationCode}
	var storeErr error
	if gwErr == nil {
		details["refund_id"] = refundID
		storeErr = s.donations.UpdateStatus(ctx, d.ID, d.Status, models.DonationRefunded)
		if storeErr != nil {
			// Money has moved but the row still says completed; the audit
			// row carries the refund id needed to reconcile it.
			details["error"] = storeErr.Error()
			s.logger.Critical("Refunded donation could not be marked refunded", storeErr)
		}
	}

	if err := s.audit.Record(ctx, &models.AuditLog{
		AdminUserID:  &actor.UserID,
		Action:       models.ActionUpdate,
		ResourceType: "donation",
		ResourceID:   d.ConfirmationCode,
		Details:      details,
		Success:      gwErr == nil && storeErr == nil,
	}); err != nil {
		s.logger.Error("Failed to audit donation refund", err)
	}

	if gwErr != nil {
		return nil, gwErr
	}
	if storeErr != nil {
		if errors.Is(storeErr, repository.ErrStatusChanged) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTransition, storeErr)
		}
		return nil, storeErr
	}

	s.logger.SecurityEvent(security.EventDonationRefund, &actor.UserID, actor.Username, "", "", map[string]interface{}{
		"confirmation_code": d.ConfirmationCode,
	})
	d.Status = models.DonationRefunded
	return d, nil
}

// Delete removes a donation that is not completed.
func (s *DonationService) Delete(ctx context.Context, actor models.Actor, code string) error {
	d, err := s.donations.FindByCode(ctx, code)
	if err != nil {
		return err
	}
	if d.Status == models.DonationCompleted {
		return ErrDonationNotDeletable
	}

	if err := s.donations.Delete(ctx, d.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDonationNotDeletable
		}
		return err
	}

	if err := s.audit.Record(ctx, &models.AuditLog{
		AdminUserID:  &actor.UserID,
		Action:       models.ActionDelete,
		ResourceType: "donation",
		ResourceID:   d.ConfirmationCode,
		Details:      map[string]interface{}{"status": string(d.Status)},
		Success:      true,
	}); err != nil {
		s.logger.Error("Failed to audit donation delete", err)
	}
	s.logger.SecurityEvent(security.EventDonationDelete, &actor.UserID, actor.Username, "", "", map[string]interface{}{
		"confirmation_code": d.ConfirmationCode,
	})
	return nil
}

// Stats returns totals over completed donations.
func (s *DonationService) Stats(ctx context.Context) (*DonationStats, error) {
	raw, err := s.stats.GetDonationStats(ctx)
	if err != nil {
		return nil, err
	}

	return &DonationStats{
		TotalAmount:   raw.TotalAmount,
		TotalCount:    raw.TotalCount,
		AverageAmount: models.AverageCents(raw.TotalAmount, int64(raw.TotalCount)),
		Currency:      defaultCurrency,
	}, nil
}
