package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/codes"
	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// ErrStatusChanged is returned when a conditional status update finds the
// donation no longer in the expected state.
var ErrStatusChanged = errors.New("donation status changed concurrently")

// DonationRepository handles donation persistence.
// Only the mock gateway assigns payment_intent_id; both the confirmation code
// and the intent id are unique at the storage level.
type DonationRepository struct{}

// NewDonationRepository creates a new instance of DonationRepository.
func NewDonationRepository() *DonationRepository {
	return &DonationRepository{}
}

// DonationFilter narrows an admin donation listing. Zero values are ignored.
type DonationFilter struct {
	Status      models.DonationStatus
	IsAnonymous *bool
}

// amount is NUMERIC(10,2) in storage and always crosses the wire as whole cents.
const donationColumns = `id, confirmation_code, (amount * 100)::bigint, currency, donor_email, is_anonymous,
	status, payment_intent_id, message, created_at, updated_at`

func scanDonation(row pgx.Row) (*models.Donation, error) {
	var (
		d      models.Donation
		status string
		cents  int64
	)
	err := row.Scan(
		&d.ID, &d.ConfirmationCode, &cents, &d.Currency, &d.DonorEmail, &d.IsAnonymous,
		&status, &d.PaymentIntentID, &d.Message, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.Status = models.DonationStatus(status)
	d.Amount = models.Cents(cents)
	return &d, nil
}

// Create inserts a donation.
//
// Returns:
//   - error: codes.ErrCollision when the confirmation code is taken; database error otherwise
//
// Side Effects: Populates donation.ID, CreatedAt and UpdatedAt
func (r *DonationRepository) Create(ctx context.Context, d *models.Donation) error {
	if d.IsAnonymous && d.DonorEmail != "" {
		return fmt.Errorf("anonymous donation must not carry an email")
	}

	query := `
		INSERT INTO donations (confirmation_code, amount, currency, donor_email, is_anonymous,
			status, payment_intent_id, message)
		VALUES ($1, $2::bigint / 100.0, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := database.DB.QueryRow(ctx, query,
		d.ConfirmationCode, int64(d.Amount), d.Currency, d.DonorEmail, d.IsAnonymous,
		string(d.Status), d.PaymentIntentID, d.Message,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if database.IsUniqueViolation(err, "donations_confirmation_code_key") {
		return codes.ErrCollision
	}
	return err
}

// FindByCode retrieves a donation by confirmation code.
func (r *DonationRepository) FindByCode(ctx context.Context, code string) (*models.Donation, error) {
	query := `SELECT ` + donationColumns + ` FROM donations WHERE confirmation_code = $1`
	return scanDonation(database.DB.QueryRow(ctx, query, code))
}

// List returns one page of donations, newest first.
func (r *DonationRepository) List(ctx context.Context, filter DonationFilter, page models.PageRequest) (models.Page[models.Donation], error) {
	f := newFilterQuery()
	if filter.Status != "" {
		f.eq("status", string(filter.Status))
	}
	if filter.IsAnonymous != nil {
		f.eq("is_anonymous", *filter.IsAnonymous)
	}
	return listPage(ctx, "donations", donationColumns, "created_at DESC, id DESC", f, page, scanDonation)
}

// UpdateStatus moves a donation from one status to another.
// The update is conditional on the current status so two concurrent refunds
// cannot both succeed.
//
// Returns:
//   - error: ErrStatusChanged if the row is no longer in status from
func (r *DonationRepository) UpdateStatus(ctx context.Context, id int, from, to models.DonationStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("transition %s -> %s not allowed", from, to)
	}

	query := `UPDATE donations SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	tag, err := database.DB.Exec(ctx, query, string(to), id, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStatusChanged
	}
	return nil
}

// Delete removes a donation that is not completed.
// Completed donations are financial records and are never deleted.
//
// Returns:
//   - error: ErrNotFound if no deletable row matched
func (r *DonationRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM donations WHERE id = $1 AND status <> 'completed'`
	tag, err := database.DB.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
