package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
)

var quizQuestionFields = []string{"question", "options", "correct_answer"}

// ContentService manages lessons, resources and helplines.
// Every admin mutation is written to the audit log.
type ContentService struct {
	lessons   *repository.LessonRepository
	resources *repository.ResourceRepository
	helplines *repository.HelplineRepository
	audit     *repository.AuditRepository
	validator *security.ValidationService
	logger    *security.Logger
}

// NewContentService creates a content service.
func NewContentService(validator *security.ValidationService, logger *security.Logger) *ContentService {
	return &ContentService{
		lessons:   repository.NewLessonRepository(),
		resources: repository.NewResourceRepository(),
		helplines: repository.NewHelplineRepository(),
		audit:     repository.NewAuditRepository(),
		validator: validator,
		logger:    logger,
	}
}

// structErrors runs tag validation and returns a FieldErrors ready for more checks.
func (s *ContentService) structErrors(input interface{}) (security.FieldErrors, error) {
	err := s.validator.ValidateStruct(input)
	if err == nil {
		return security.FieldErrors{}, nil
	}
	fe, ok := security.AsFieldErrors(err)
	if !ok {
		return nil, err
	}
	return fe, nil
}

func (s *ContentService) recordMutation(ctx context.Context, actor models.Actor, action models.Action, resourceType string, id int) {
	if err := s.audit.Record(ctx, &models.AuditLog{
		AdminUserID:  &actor.UserID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   strconv.Itoa(id),
		Success:      true,
	}); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to audit %s %s", action, resourceType), err)
	}

	event := map[models.Action]security.SecurityEventType{
		models.ActionCreate: security.EventContentCreate,
		models.ActionUpdate: security.EventContentUpdate,
		models.ActionDelete: security.EventContentDelete,
	}[action]
	s.logger.SecurityEvent(event, &actor.UserID, actor.Username, "", "", map[string]interface{}{
		"resource_type": resourceType,
		"resource_id":   id,
	})
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// checkLessonContent requires a JSON object with a "sections" member.
func checkLessonContent(raw json.RawMessage) string {
	if isNullJSON(raw) {
		return ""
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "Content must be a JSON object"
	}
	if _, ok := obj["sections"]; !ok {
		return "Content must have 'sections' field"
	}
	return ""
}

// checkQuiz requires a list of objects, each with question, options and correct_answer.
func checkQuiz(raw json.RawMessage) []string {
	if isNullJSON(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{"Quiz must be a list of questions"}
	}

	var msgs []string
	for _, item := range items {
		var q map[string]json.RawMessage
		if err := json.Unmarshal(item, &q); err != nil || q == nil {
			return append(msgs, "Each quiz question must be an object")
		}
		for _, field := range quizQuestionFields {
			if _, ok := q[field]; !ok {
				return append(msgs, fmt.Sprintf("Quiz question missing '%s' field", field))
			}
		}
	}
	return msgs
}

func (s *ContentService) lessonFromInput(in *models.LessonInput) (*models.Lesson, error) {
	fe, err := s.structErrors(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		fe["title"] = []string{"Title is required"}
	}
	if msg := checkLessonContent(in.Content); msg != "" {
		fe.Add("content", msg)
	}
	for _, msg := range checkQuiz(in.Quiz) {
		fe.Add("quiz", msg)
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	difficulty := in.Difficulty
	if difficulty == "" {
		difficulty = "beginner"
	}
	return &models.Lesson{
		Title:           strings.TrimSpace(in.Title),
		Description:     in.Description,
		Category:        in.Category,
		Difficulty:      difficulty,
		DurationMinutes: in.DurationMinutes,
		Content:         in.Content,
		Quiz:            in.Quiz,
		ThumbnailURL:    in.ThumbnailURL,
		Published:       in.Published,
	}, nil
}

// GetLesson returns a lesson. Unpublished lessons are only visible to admins.
func (s *ContentService) GetLesson(ctx context.Context, id int, admin bool) (*models.Lesson, error) {
	l, err := s.lessons.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && !l.Published {
		return nil, repository.ErrNotFound
	}
	return l, nil
}

// ListLessons returns a page of lessons. Non-admins only see published lessons.
func (s *ContentService) ListLessons(ctx context.Context, filter repository.LessonFilter, admin bool, page models.PageRequest) (models.Page[models.Lesson], error) {
	if !admin {
		published := true
		filter.Published = &published
	}
	return s.lessons.List(ctx, filter, page)
}

// CreateLesson validates and stores a new lesson.
func (s *ContentService) CreateLesson(ctx context.Context, actor models.Actor, in *models.LessonInput) (*models.Lesson, error) {
	l, err := s.lessonFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.lessons.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}
	s.recordMutation(ctx, actor, models.ActionCreate, "lesson", l.ID)
	return l, nil
}

// UpdateLesson validates in and overwrites lesson id.
func (s *ContentService) UpdateLesson(ctx context.Context, actor models.Actor, id int, in *models.LessonInput) (*models.Lesson, error) {
	l, err := s.lessonFromInput(in)
	if err != nil {
		return nil, err
	}
	l.ID = id
	if err := s.lessons.Update(ctx, l); err != nil {
		return nil, err
	}
	s.recordMutation(ctx, actor, models.ActionUpdate, "lesson", id)
	return s.lessons.FindByID(ctx, id)
}

// DeleteLesson removes a lesson.
func (s *ContentService) DeleteLesson(ctx context.Context, actor models.Actor, id int) error {
	if err := s.lessons.Delete(ctx, id); err != nil {
		return err
	}
	s.recordMutation(ctx, actor, models.ActionDelete, "lesson", id)
	return nil
}

func (s *ContentService) resourceFromInput(in *models.ResourceInput) (*models.Resource, error) {
	fe, err := s.structErrors(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		fe["title"] = []string{"Title is required"}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	res := &models.Resource{
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		Content:      in.Content,
		Category:     in.Category,
		ResourceType: in.ResourceType,
		ExternalURL:  in.ExternalURL,
		IsPublished:  true,
		Tags:         in.Tags,
	}
	if res.ResourceType == "" {
		res.ResourceType = "article"
	}
	if in.IsPublished != nil {
		res.IsPublished = *in.IsPublished
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	return res, nil
}

// GetResource returns a resource. Unpublished resources are only visible to admins.
func (s *ContentService) GetResource(ctx context.Context, id int, admin bool) (*models.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && !res.IsPublished {
		return nil, repository.ErrNotFound
	}
	return res, nil
}

// ListResources returns a page of resources. Non-admins only see published ones.
func (s *ContentService) ListResources(ctx context.Context, filter repository.ResourceFilter, admin bool, page models.PageRequest) (models.Page[models.Resource], error) {
	if !admin {
		published := true
		filter.IsPublished = &published
	}
	return s.resources.List(ctx, filter, page)
}

// CreateResource validates and stores a new resource.
func (s *ContentService) CreateResource(ctx context.Context, actor models.Actor, in *models.ResourceInput) (*models.Resource, error) {
	res, err := s.resourceFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}
	s.recordMutation(ctx, actor, models.ActionCreate, "resource", res.ID)
	return res, nil
}

// UpdateResource validates in and overwrites resource id.
func (s *ContentService) UpdateResource(ctx context.Context, actor models.Actor, id int, in *models.ResourceInput) (*models.Resource, error) {
	res, err := s.resourceFromInput(in)
	if err != nil {
		return nil, err
	}
	res.ID = id
	if err := s.resources.Update(ctx, res); err != nil {
		return nil, err
	}
	s.recordMutation(ctx, actor, models.ActionUpdate, "resource", id)
	return s.resources.FindByID(ctx, id)
}

// DeleteResource removes a resource.
func (s *ContentService) DeleteResource(ctx context.Context, actor models.Actor, id int) error {
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	s.recordMutation(ctx, actor, models.ActionDelete, "resource", id)
	return nil
}

func (s *ContentService) helplineFromInput(in *models.HelplineInput) (*models.Helpline, error) {
	fe, err := s.structErrors(in)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.PhoneNumber) == "" {
		fe["phone_number"] = []string{"Phone number is required"}
	}
	if strings.TrimSpace(in.Name) == "" {
		fe["name"] = []string{"Helpline name is required"}
	}
	if err := fe.Err(); err != nil {
		return nil, err
	}

	h := &models.Helpline{
		Name:         strings.TrimSpace(in.Name),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Description:  in.Description,
		Category:     in.Category,
		Availability: in.Availability,
		Is247:        in.Is247,
		Languages:    in.Languages,
		Website:      in.Website,
		IsActive:     true,
		Priority:     in.Priority,
	}
	if in.IsActive != nil {
		h.IsActive = *in.IsActive
	}
	if h.Languages == nil {
		h.Languages = []string{}
	}
	return h, nil
}

// GetHelpline returns a helpline. Inactive helplines are only visible to admins.
func (s *ContentService) GetHelpline(ctx context.Context, id int, admin bool) (*models.Helpline, error) {
	h, err := s.helplines.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !admin && !h.IsActive {
		return nil, repository.ErrNotFound
	}
	return h, nil
}

// ListHelplines returns a page of helplines. Non-admins only see active ones.
func (s *ContentService) ListHelplines(ctx context.Context, filter repository.HelplineFilter, admin bool, page models.PageRequest) (models.Page[models.Helpline], error) {
	if !admin {
		active := true
		filter.IsActive = &active
	}
	return s.helplines.List(ctx, filter, page)
}

// CreateHelpline validates and stores a new helpline.
func (s *ContentService) CreateHelpline(ctx context.Context, actor models.Actor, in *models.HelplineInput) (*models.Helpline, error) {
	h, err := s.helplineFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.helplines.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("failed to create helpline: %w", err)
	}
	s.recordMutation(ctx, actor, models.ActionCreate, "helpline", h.ID)
	return h, nil
}

// UpdateHelpline validates in and overwrites helpline id.
func (s *ContentService) UpdateHelpline(ctx context.Context, actor models.Actor, id int, in *models.HelplineInput) (*models.Helpline, error) {
	h, err := s.helplineFromInput(in)
	if err != nil {
		return nil, err
	}
	h.ID = id
	if err := s.helplines.Update(ctx, h); err != nil {
		return nil, err
	}
	s.recordMutation(ctx, actor, models.ActionUpdate, "helpline", id)
	return s.helplines.FindByID(ctx, id)
}

// DeleteHelpline removes a helpline.
func (s *ContentService) DeleteHelpline(ctx context.Context, actor models.Actor, id int) error {
	if err := s.helplines.Delete(ctx, id); err != nil {
		return err
	}
	s.recordMutation(ctx, actor, models.ActionDelete, "helpline", id)
	return nil
}
