package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// HelplineRepository handles helpline directory persistence.
// Listings are ordered by priority (highest first), then name.
type HelplineRepository struct{}

// NewHelplineRepository creates a new instance of HelplineRepository.
func NewHelplineRepository() *HelplineRepository {
	return &HelplineRepository{}
}

// HelplineFilter narrows a helpline listing. Zero values are ignored.
type HelplineFilter struct {
	Category string
	Is247    *bool
	IsActive *bool
	Search   string // matched against name, description and phone number
}

const helplineColumns = `id, name, phone_number, description, category, availability,
	is_24_7, languages, website, is_active, priority, created_at, updated_at`

func scanHelpline(row pgx.Row) (*models.Helpline, error) {
	var (
		h         models.Helpline
		languages []byte
	)
	err := row.Scan(
		&h.ID, &h.Name, &h.PhoneNumber, &h.Description, &h.Category, &h.Availability,
		&h.Is247, &languages, &h.Website, &h.IsActive, &h.Priority, &h.CreatedAt, &h.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if h.Languages, err = decodeStringList(languages); err != nil {
		return nil, fmt.Errorf("helpline %d: failed to decode languages: %w", h.ID, err)
	}
	return &h, nil
}

// FindByID retrieves a helpline by primary key.
func (r *HelplineRepository) FindByID(ctx context.Context, id int) (*models.Helpline, error) {
	query := `SELECT ` + helplineColumns + ` FROM helplines WHERE id = $1`
	return scanHelpline(database.DB.QueryRow(ctx, query, id))
}

// List returns one page of helplines.
func (r *HelplineRepository) List(ctx context.Context, filter HelplineFilter, page models.PageRequest) (models.Page[models.Helpline], error) {
	f := newFilterQuery()
	if filter.Category != "" {
		f.eq("category", filter.Category)
	}
	if filter.Is247 != nil {
		f.eq("is_24_7", *filter.Is247)
	}
	if filter.IsActive != nil {
		f.eq("is_active", *filter.IsActive)
	}
	if filter.Search != "" {
		f.search(filter.Search, "name", "description", "phone_number")
	}
	return listPage(ctx, "helplines", helplineColumns, "priority DESC, name ASC", f, page, scanHelpline)
}

// Create inserts a helpline.
//
// Side Effects: Populates helpline.ID, CreatedAt and UpdatedAt
func (r *HelplineRepository) Create(ctx context.Context, h *models.Helpline) error {
	languages, err := encodeStringList(h.Languages)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO helplines (name, phone_number, description, category, availability,
			is_24_7, languages, website, is_active, priority)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	return database.DB.QueryRow(ctx, query,
		h.Name, h.PhoneNumber, h.Description, h.Category, h.Availability,
		h.Is247, languages, h.Website, h.IsActive, h.Priority,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
}

// Update overwrites every editable column of an existing helpline.
//
// Returns:
//   - error: ErrNotFound if the helpline does not exist
func (r *HelplineRepository) Update(ctx context.Context, h *models.Helpline) error {
	languages, err := encodeStringList(h.Languages)
	if err != nil {
		return err
	}

	query := `
		UPDATE helplines
		SET name = $1, phone_number = $2, description = $3, category = $4, availability = $5,
			is_24_7 = $6, languages = $7, website = $8, is_active = $9, priority = $10, updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at
	`
	err = database.DB.QueryRow(ctx, query,
		h.Name, h.PhoneNumber, h.Description, h.Category, h.Availability,
		h.Is247, languages, h.Website, h.IsActive, h.Priority, h.ID,
	).Scan(&h.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a helpline.
func (r *HelplineRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, "helplines", id)
}
