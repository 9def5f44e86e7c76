package services_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lessonCols = []string{"id", "title", "description", "category", "difficulty", "duration_minutes",
		"content", "quiz", "thumbnail_url", "published", "created_at", "updated_at"}
	helplineCols = []string{"id", "name", "phone_number", "description", "category", "availability",
		"is_24_7", "languages", "website", "is_active", "priority", "created_at", "updated_at"}
)

var contentAdmin = models.Actor{UserID: 2, Username: "editor", Role: models.RoleAdmin}

func newTestContentService(t *testing.T) (*services.ContentService, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger := security.NewLoggerWithWriter(&buf)
	return services.NewContentService(security.NewValidationService(testSecurityConfig()), logger), &buf
}

func validLessonInput() *models.LessonInput {
	return &models.LessonInput{
		Title:       "Securing your phone",
		Description: "Lock screens, app permissions and location sharing.",
		Category:    "privacy",
		Content:     json.RawMessage(`{"sections":[{"heading":"Lock screen","body":"Use a PIN."}]}`),
		Quiz:        json.RawMessage(`[{"question":"Best lock?","options":["PIN","None"],"correct_answer":0}]`),
		Published:   true,
	}
}

func expectAudit(mock pgxmock.PgxPoolIface, action, resourceType, resourceID string) {
	mock.ExpectQuery("INSERT INTO audit_logs").
		WithArgs(&contentAdmin.UserID, action, resourceType, resourceID, pgxmock.AnyArg(), true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(1, time.Now()))
}

// TestContentService_LessonValidation tests lesson body rules.
//
// Test Cases:
//   - content must be an object carrying "sections"
//   - quiz must be a list of objects with question, options and correct_answer
//   - blank titles and unknown categories are rejected
func TestContentService_LessonValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(in *models.LessonInput)
		field   string
		message string
	}{
		{"content not object", func(in *models.LessonInput) { in.Content = json.RawMessage(`[1,2]`) }, "content", "Content must be a JSON object"},
		{"content without sections", func(in *models.LessonInput) { in.Content = json.RawMessage(`{"body":"x"}`) }, "content", "Content must have 'sections' field"},
		{"quiz not list", func(in *models.LessonInput) { in.Quiz = json.RawMessage(`{"question":"x"}`) }, "quiz", "Quiz must be a list of questions"},
		{"quiz item not object", func(in *models.LessonInput) { in.Quiz = json.RawMessage(`["x"]`) }, "quiz", "Each quiz question must be an object"},
		{"quiz item missing options", func(in *models.LessonInput) {
			in.Quiz = json.RawMessage(`[{"question":"x","correct_answer":1}]`)
		}, "quiz", "Quiz question missing 'options' field"},
		{"blank title", func(in *models.LessonInput) { in.Title = "   " }, "title", "Title is required"},
		{"bad category", func(in *models.LessonInput) { in.Category = "cooking" }, "category", `"cooking" is not a valid choice.`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockDB(t)
			service, _ := newTestContentService(t)
			in := validLessonInput()
			tt.mutate(in)

			_, err := service.CreateLesson(context.Background(), contentAdmin, in)

			fe, ok := security.AsFieldErrors(err)
			require.True(t, ok, "expected FieldErrors, got %v", err)
			assert.Contains(t, fe[tt.field], tt.message)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// TestContentService_CreateLesson tests defaults, storage and auditing.
func TestContentService_CreateLesson(t *testing.T) {
	testTime := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	mock := newMockDB(t)
	service, logs := newTestContentService(t)

	// Arrange
	in := validLessonInput()
	in.Content = nil
	in.Quiz = json.RawMessage(`null`)

	mock.ExpectQuery("INSERT INTO lessons").
		WithArgs("Securing your phone", in.Description, "privacy", "beginner", 0,
			[]byte("{}"), []byte("[]"), "", true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(9, testTime, testTime))
	expectAudit(mock, "create", "lesson", "9")

	// Act
	lesson, err := service.CreateLesson(context.Background(), contentAdmin, in)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9, lesson.ID)
	assert.Equal(t, "beginner", lesson.Difficulty)
	assert.Contains(t, logs.String(), string(security.EventContentCreate))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_GetLesson tests published visibility.
//
// Test Cases:
//   - public callers get ErrNotFound for an unpublished lesson
//   - admins see it
func TestContentService_GetLesson(t *testing.T) {
	testTime := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	draft := func() *pgxmock.Rows {
		return pgxmock.NewRows(lessonCols).AddRow(4, "Draft", "d", "safety", "beginner", 10,
			[]byte(`{"sections":[]}`), []byte(`[]`), "", false, testTime, testTime)
	}

	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	mock.ExpectQuery("SELECT (.+) FROM lessons WHERE id").WithArgs(4).WillReturnRows(draft())
	_, err := service.GetLesson(context.Background(), 4, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mock.ExpectQuery("SELECT (.+) FROM lessons WHERE id").WithArgs(4).WillReturnRows(draft())
	lesson, err := service.GetLesson(context.Background(), 4, true)
	require.NoError(t, err)
	assert.Equal(t, "Draft", lesson.Title)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_ListLessons_PublicSeesPublishedOnly verifies the
// published filter is forced for public callers.
func TestContentService_ListLessons_PublicSeesPublishedOnly(t *testing.T) {
	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM lessons WHERE 1=1 AND published = \$1`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT (.+) FROM lessons").
		WithArgs(true, 20, 0).
		WillReturnRows(pgxmock.NewRows(lessonCols))

	unpublished := false
	page, err := service.ListLessons(context.Background(), repository.LessonFilter{Published: &unpublished}, false, models.NewPageRequest(1, 20))

	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_UpdateLesson_NotFound verifies a missing lesson is not audited.
func TestContentService_UpdateLesson_NotFound(t *testing.T) {
	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	mock.ExpectQuery("UPDATE lessons").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 77).
		WillReturnError(pgx.ErrNoRows)

	_, err := service.UpdateLesson(context.Background(), contentAdmin, 77, validLessonInput())

	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_ResourceValidation tests resource body rules.
func TestContentService_ResourceValidation(t *testing.T) {
	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	_, err := service.CreateResource(context.Background(), contentAdmin, &models.ResourceInput{
		Title:        " ",
		Description:  "d",
		Category:     "laws",
		ResourceType: "podcast",
	})

	fe, ok := security.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Title is required"}, fe["title"])
	assert.Contains(t, fe["resource_type"], `"podcast" is not a valid choice.`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_CreateResource_Defaults verifies article type,
// published flag and empty tags are filled in.
func TestContentService_CreateResource_Defaults(t *testing.T) {
	testTime := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	mock.ExpectQuery("INSERT INTO resources").
		WithArgs("Know your rights", "Protection orders explained.", "", "legal_rights", "article",
			"", true, []byte(`[]`)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(3, testTime, testTime))
	expectAudit(mock, "create", "resource", "3")

	res, err := service.CreateResource(context.Background(), contentAdmin, &models.ResourceInput{
		Title:       "Know your rights",
		Description: "Protection orders explained.",
		Category:    "legal_rights",
	})

	require.NoError(t, err)
	assert.Equal(t, "article", res.ResourceType)
	assert.True(t, res.IsPublished)
	assert.Equal(t, []string{}, res.Tags)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_HelplineValidation tests helpline body rules.
func TestContentService_HelplineValidation(t *testing.T) {
	mock := newMockDB(t)
	service, _ := newTestContentService(t)

	_, err := service.CreateHelpline(context.Background(), contentAdmin, &models.HelplineInput{
		Name:        "  ",
		PhoneNumber: " ",
		Description: "d",
		Category:    "crisis",
	})

	fe, ok := security.AsFieldErrors(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Helpline name is required"}, fe["name"])
	assert.Equal(t, []string{"Phone number is required"}, fe["phone_number"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestContentService_HelplineLifecycle tests update and delete auditing
// and inactive helpline visibility.
func TestContentService_HelplineLifecycle(t *testing.T) {
	testTime := time.Date(2025, 10, 25, 12, 0, 0, 0, time.UTC)
	mock := newMockDB(t)
	service, logs := newTestContentService(t)

	inactive := false
	in := &models.HelplineInput{
		Name:        "City Shelter Line",
		PhoneNumber: "555-0100",
		Description: "Overnight beds",
		Category:    "shelter",
		IsActive:    &inactive,
		Languages:   []string{"en", "es"},
	}

	mock.ExpectQuery("UPDATE helplines").
		WithArgs("City Shelter Line", "555-0100", "Overnight beds", "shelter", "",
			false, []byte(`["en","es"]`), "", false, 0, 5).
		WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testTime))
	expectAudit(mock, "update", "helpline", "5")
	mock.ExpectQuery("SELECT (.+) FROM helplines WHERE id").WithArgs(5).
		WillReturnRows(pgxmock.NewRows(helplineCols).AddRow(5, "City Shelter Line", "555-0100", "Overnight beds",
			"shelter", "", false, []byte(`["en","es"]`), "", false, 0, testTime, testTime))

	h, err := service.UpdateHelpline(context.Background(), contentAdmin, 5, in)
	require.NoError(t, err)
	assert.False(t, h.IsActive)
	assert.Equal(t, []string{"en", "es"}, h.Languages)

	mock.ExpectQuery("SELECT (.+) FROM helplines WHERE id").WithArgs(5).
		WillReturnRows(pgxmock.NewRows(helplineCols).AddRow(5, "City Shelter Line", "555-0100", "Overnight beds",
			"shelter", "", false, []byte(`[]`), "", false, 0, testTime, testTime))
	_, err = service.GetHelpline(context.Background(), 5, false)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mock.ExpectExec("DELETE FROM helplines").WithArgs(5).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	expectAudit(mock, "delete", "helpline", "5")
	require.NoError(t, service.DeleteHelpline(context.Background(), contentAdmin, 5))

	assert.Contains(t, logs.String(), string(security.EventContentUpdate))
	assert.Contains(t, logs.String(), string(security.EventContentDelete))
	assert.NoError(t, mock.ExpectationsWereMet())
}
