package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// ResourceRepository handles resource directory persistence.
type ResourceRepository struct{}

// NewResourceRepository creates a new instance of ResourceRepository.
func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{}
}

// ResourceFilter narrows a resource listing. Zero values are ignored.
type ResourceFilter struct {
	Category     string
	ResourceType string
	IsPublished  *bool
	Search       string
}

const resourceColumns = `id, title, description, content, category, resource_type,
	external_url, is_published, tags, created_at, updated_at`

func scanResource(row pgx.Row) (*models.Resource, error) {
	var (
		res  models.Resource
		tags []byte
	)
	err := row.Scan(
		&res.ID, &res.Title, &res.Description, &res.Content, &res.Category, &res.ResourceType,
		&res.ExternalURL, &res.IsPublished, &tags, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if res.Tags, err = decodeStringList(tags); err != nil {
		return nil, fmt.Errorf("resource %d: failed to decode tags: %w", res.ID, err)
	}
	return &res, nil
}

func decodeStringList(raw []byte) ([]string, error) {
	out := []string{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func encodeStringList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

// FindByID retrieves a resource by primary key.
func (r *ResourceRepository) FindByID(ctx context.Context, id int) (*models.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM resources WHERE id = $1`
	return scanResource(database.DB.QueryRow(ctx, query, id))
}

// List returns one page of resources, newest first.
func (r *ResourceRepository) List(ctx context.Context, filter ResourceFilter, page models.PageRequest) (models.Page[models.Resource], error) {
	f := newFilterQuery()
	if filter.Category != "" {
		f.eq("category", filter.Category)
	}
	if filter.ResourceType != "" {
		f.eq("resource_type", filter.ResourceType)
	}
	if filter.IsPublished != nil {
		f.eq("is_published", *filter.IsPublished)
	}
	if filter.Search != "" {
		f.search(filter.Search, "title", "description")
	}
	return listPage(ctx, "resources", resourceColumns, "created_at DESC, id DESC", f, page, scanResource)
}

// Create inserts a resource.
//
// Side Effects: Populates resource.ID, CreatedAt and UpdatedAt
func (r *ResourceRepository) Create(ctx context.Context, res *models.Resource) error {
	tags, err := encodeStringList(res.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO resources (title, description, content, category, resource_type,
			external_url, is_published, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	return database.DB.QueryRow(ctx, query,
		res.Title, res.Description, res.Content, res.Category, res.ResourceType,
		res.ExternalURL, res.IsPublished, tags,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
}

// Update overwrites every editable column of an existing resource.
//
// Returns:
//   - error: ErrNotFound if the resource does not exist
func (r *ResourceRepository) Update(ctx context.Context, res *models.Resource) error {
	tags, err := encodeStringList(res.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE resources
		SET title = $1, description = $2, content = $3, category = $4, resource_type = $5,
			external_url = $6, is_published = $7, tags = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at
	`
	err = database.DB.QueryRow(ctx, query,
		res.Title, res.Description, res.Content, res.Category, res.ResourceType,
		res.ExternalURL, res.IsPublished, tags, res.ID,
	).Scan(&res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, "resources", id)
}
