package handlers

import (
	"github.com/VeeCC-T/ShieldHer/internal/middleware"
	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ContentHandler serves lessons, resources and helplines.
//
// Reads are public. Anonymous callers see only published lessons and
// resources and active helplines; a valid admin token lifts the filter.
// Writes require CapManageContent and are audited by the service.
type ContentHandler struct {
	content *services.ContentService
}

// NewContentHandler creates a new instance of ContentHandler.
func NewContentHandler(content *services.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

func isAdmin(c *fiber.Ctx) bool {
	_, ok := middleware.ActorFrom(c)
	return ok
}

// writeTarget returns the actor and :id for update and delete routes.
func writeTarget(c *fiber.Ctx) (models.Actor, int, error) {
	id, err := paramID(c)
	if err != nil {
		return models.Actor{}, 0, err
	}
	actor, _ := middleware.ActorFrom(c)
	return actor, id, nil
}

// Lessons

// ListLessons handles GET /api/lessons/.
//
// Query Parameters:
//   - category, difficulty, search, page, page_size
//   - published (admins only)
func (h *ContentHandler) ListLessons(c *fiber.Ctx) error {
	filter := repository.LessonFilter{
		Category:   c.Query("category"),
		Difficulty: c.Query("difficulty"),
		Published:  queryBool(c, "published"),
		Search:     c.Query("search"),
	}
	page, err := h.content.ListLessons(c.UserContext(), filter, isAdmin(c), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(newPageResponse(c, page))
}

// GetLesson handles GET /api/lessons/:id/.
func (h *ContentHandler) GetLesson(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	lesson, err := h.content.GetLesson(c.UserContext(), id, isAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(lesson)
}

// LessonCategories handles GET /api/lessons/categories/.
func (h *ContentHandler) LessonCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": models.LessonCategories})
}

// LessonDifficulties handles GET /api/lessons/difficulties/.
func (h *ContentHandler) LessonDifficulties(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"difficulties": models.LessonDifficulties})
}

// CreateLesson handles POST /api/lessons/.
func (h *ContentHandler) CreateLesson(c *fiber.Ctx) error {
	var in models.LessonInput
	if err := bind(c, &in); err != nil {
		return err
	}
	actor, _ := middleware.ActorFrom(c)

	lesson, err := h.content.CreateLesson(c.UserContext(), actor, &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(lesson)
}

// UpdateLesson handles PUT and PATCH /api/lessons/:id/.
// PATCH starts from the stored lesson, so omitted fields keep their values.
func (h *ContentHandler) UpdateLesson(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}

	var in models.LessonInput
	if c.Method() == fiber.MethodPatch {
		existing, err := h.content.GetLesson(c.UserContext(), id, true)
		if err != nil {
			return err
		}
		in = existing.Input()
	}
	if err := bind(c, &in); err != nil {
		return err
	}

	lesson, err := h.content.UpdateLesson(c.UserContext(), actor, id, &in)
	if err != nil {
		return err
	}
	return c.JSON(lesson)
}

// DeleteLesson handles DELETE /api/lessons/:id/.
func (h *ContentHandler) DeleteLesson(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}
	if err := h.content.DeleteLesson(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Resources

// ListResources handles GET /api/resources/.
func (h *ContentHandler) ListResources(c *fiber.Ctx) error {
	filter := repository.ResourceFilter{
		Category:     c.Query("category"),
		ResourceType: c.Query("resource_type"),
		IsPublished:  queryBool(c, "is_published"),
		Search:       c.Query("search"),
	}
	page, err := h.content.ListResources(c.UserContext(), filter, isAdmin(c), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(newPageResponse(c, page))
}

// GetResource handles GET /api/resources/:id/.
func (h *ContentHandler) GetResource(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	res, err := h.content.GetResource(c.UserContext(), id, isAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// ResourceCategories handles GET /api/resources/categories/.
func (h *ContentHandler) ResourceCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": models.ResourceCategories})
}

// ResourceTypes handles GET /api/resources/types/.
func (h *ContentHandler) ResourceTypes(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"types": models.ResourceTypes})
}

// CreateResource handles POST /api/resources/.
func (h *ContentHandler) CreateResource(c *fiber.Ctx) error {
	var in models.ResourceInput
	if err := bind(c, &in); err != nil {
		return err
	}
	actor, _ := middleware.ActorFrom(c)

	res, err := h.content.CreateResource(c.UserContext(), actor, &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// UpdateResource handles PUT and PATCH /api/resources/:id/.
func (h *ContentHandler) UpdateResource(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}

	var in models.ResourceInput
	if c.Method() == fiber.MethodPatch {
		existing, err := h.content.GetResource(c.UserContext(), id, true)
		if err != nil {
			return err
		}
		in = existing.Input()
	}
	if err := bind(c, &in); err != nil {
		return err
	}

	res, err := h.content.UpdateResource(c.UserContext(), actor, id, &in)
	if err != nil {
		return err
	}
	return c.JSON(res)
}

// DeleteResource handles DELETE /api/resources/:id/.
func (h *ContentHandler) DeleteResource(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}
	if err := h.content.DeleteResource(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Helplines

// ListHelplines handles GET /api/helplines/, ordered by priority then name.
func (h *ContentHandler) ListHelplines(c *fiber.Ctx) error {
	filter := repository.HelplineFilter{
		Category: c.Query("category"),
		Is247:    queryBool(c, "is_24_7"),
		IsActive: queryBool(c, "is_active"),
		Search:   c.Query("search"),
	}
	page, err := h.content.ListHelplines(c.UserContext(), filter, isAdmin(c), pageRequest(c))
	if err != nil {
		return err
	}
	return c.JSON(newPageResponse(c, page))
}

// GetHelpline handles GET /api/helplines/:id/.
func (h *ContentHandler) GetHelpline(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	helpline, err := h.content.GetHelpline(c.UserContext(), id, isAdmin(c))
	if err != nil {
		return err
	}
	return c.JSON(helpline)
}

// HelplineCategories handles GET /api/helplines/categories/.
func (h *ContentHandler) HelplineCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": models.HelplineCategories})
}

// CreateHelpline handles POST /api/helplines/.
func (h *ContentHandler) CreateHelpline(c *fiber.Ctx) error {
	var in models.HelplineInput
	if err := bind(c, &in); err != nil {
		return err
	}
	actor, _ := middleware.ActorFrom(c)

	helpline, err := h.content.CreateHelpline(c.UserContext(), actor, &in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(helpline)
}

// UpdateHelpline handles PUT and PATCH /api/helplines/:id/.
func (h *ContentHandler) UpdateHelpline(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}

	var in models.HelplineInput
	if c.Method() == fiber.MethodPatch {
		existing, err := h.content.GetHelpline(c.UserContext(), id, true)
		if err != nil {
			return err
		}
		in = existing.Input()
	}
	if err := bind(c, &in); err != nil {
		return err
	}

	helpline, err := h.content.UpdateHelpline(c.UserContext(), actor, id, &in)
	if err != nil {
		return err
	}
	return c.JSON(helpline)
}

// DeleteHelpline handles DELETE /api/helplines/:id/.
func (h *ContentHandler) DeleteHelpline(c *fiber.Ctx) error {
	actor, id, err := writeTarget(c)
	if err != nil {
		return err
	}
	if err := h.content.DeleteHelpline(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
