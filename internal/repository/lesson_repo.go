package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/VeeCC-T/ShieldHer/internal/database"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/jackc/pgx/v5"
)

// LessonRepository handles digital-literacy lesson persistence.
type LessonRepository struct{}

// NewLessonRepository creates a new instance of LessonRepository.
func NewLessonRepository() *LessonRepository {
	return &LessonRepository{}
}

// LessonFilter narrows a lesson listing. Zero values are ignored.
type LessonFilter struct {
	Category   string
	Difficulty string
	Published  *bool
	Search     string // matched against title and description
}

const lessonColumns = `id, title, description, category, difficulty, duration_minutes,
	content, quiz, thumbnail_url, published, created_at, updated_at`

func scanLesson(row pgx.Row) (*models.Lesson, error) {
	var (
		l             models.Lesson
		content, quiz []byte
	)
	err := row.Scan(
		&l.ID, &l.Title, &l.Description, &l.Category, &l.Difficulty, &l.DurationMinutes,
		&content, &quiz, &l.ThumbnailURL, &l.Published, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	l.Content = json.RawMessage(content)
	l.Quiz = json.RawMessage(quiz)
	return &l, nil
}

func jsonOrDefault(raw json.RawMessage, def string) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return []byte(def)
	}
	return raw
}

// FindByID retrieves a lesson by primary key.
func (r *LessonRepository) FindByID(ctx context.Context, id int) (*models.Lesson, error) {
	query := `SELECT ` + lessonColumns + ` FROM lessons WHERE id = $1`
	return scanLesson(database.DB.QueryRow(ctx, query, id))
}

// List returns one page of lessons, newest first.
func (r *LessonRepository) List(ctx context.Context, filter LessonFilter, page models.PageRequest) (models.Page[models.Lesson], error) {
	f := newFilterQuery()
	if filter.Category != "" {
		f.eq("category", filter.Category)
	}
	if filter.Difficulty != "" {
		f.eq("difficulty", filter.Difficulty)
	}
	if filter.Published != nil {
		f.eq("published", *filter.Published)
	}
	if filter.Search != "" {
		f.search(filter.Search, "title", "description")
	}
	return listPage(ctx, "lessons", lessonColumns, "created_at DESC, id DESC", f, page, scanLesson)
}

// Create inserts a lesson.
//
// Side Effects: Populates lesson.ID, CreatedAt and UpdatedAt
func (r *LessonRepository) Create(ctx context.Context, l *models.Lesson) error {
	query := `
		INSERT INTO lessons (title, description, category, difficulty, duration_minutes,
			content, quiz, thumbnail_url, published)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`
	return database.DB.QueryRow(ctx, query,
		l.Title, l.Description, l.Category, l.Difficulty, l.DurationMinutes,
		jsonOrDefault(l.Content, "{}"), jsonOrDefault(l.Quiz, "[]"), l.ThumbnailURL, l.Published,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

// Update overwrites every editable column of an existing lesson.
//
// Returns:
//   - error: ErrNotFound if the lesson does not exist
func (r *LessonRepository) Update(ctx context.Context, l *models.Lesson) error {
	query := `
		UPDATE lessons
		SET title = $1, description = $2, category = $3, difficulty = $4, duration_minutes = $5,
			content = $6, quiz = $7, thumbnail_url = $8, published = $9, updated_at = NOW()
		WHERE id = $10
		RETURNING updated_at
	`
	err := database.DB.QueryRow(ctx, query,
		l.Title, l.Description, l.Category, l.Difficulty, l.DurationMinutes,
		jsonOrDefault(l.Content, "{}"), jsonOrDefault(l.Quiz, "[]"), l.ThumbnailURL, l.Published, l.ID,
	).Scan(&l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// Delete removes a lesson.
func (r *LessonRepository) Delete(ctx context.Context, id int) error {
	return deleteByID(ctx, "lessons", id)
}
