// Package handlers implements the JSON HTTP API of the ShieldHer backend.
//
// Handlers bind and shape requests and responses only. Validation, privacy
// handling and auditing live in the services they call, and every returned
// error is rendered by middleware.ErrorHandler.
package handlers

import (
	"encoding/json"
	"errors"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/VeeCC-T/ShieldHer/internal/models"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/gofiber/fiber/v2"
)

// listFieldMessages names the JSON list fields that get a friendly message
// when a client sends a scalar instead.
var listFieldMessages = map[string]string{
	"tags":      "Tags must be a list",
	"languages": "Languages must be a list",
}

// bind decodes a JSON body into out. An empty body leaves out untouched.
// Type mismatches are reported per field as security.FieldErrors.
func bind(c *fiber.Ctx, out interface{}) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if !strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEApplicationJSON) {
		return fiber.NewError(fiber.StatusUnsupportedMediaType, "Content-Type must be application/json.")
	}

	err := json.Unmarshal(c.Body(), out)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		field := typeErr.Field
		if i := strings.Index(field, "."); i >= 0 {
			field = field[:i]
		}
		msg, ok := listFieldMessages[field]
		if !ok || typeErr.Type == nil || typeErr.Type.Kind() != reflect.Slice {
			msg = "Invalid value."
		}
		return security.FieldErrors{field: {msg}}
	}
	return fiber.NewError(fiber.StatusBadRequest, "Malformed JSON request body.")
}

// paramID parses the :id route parameter. Anything but a positive integer is 404.
func paramID(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Not found.")
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *fiber.Ctx, key string) *bool {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// pageRequest reads page and page_size from the query string.
func pageRequest(c *fiber.Ctx) models.PageRequest {
	return models.NewPageRequest(c.QueryInt("page", 1), c.QueryInt("page_size", models.DefaultPageSize))
}

// PageResponse is the paginated list envelope.
type PageResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// newPageResponse wraps page, building next/previous links from the request URL.
func newPageResponse[T any](c *fiber.Ctx, page models.Page[T]) PageResponse[T] {
	resp := PageResponse[T]{Count: page.Total, Results: page.Items}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if page.HasNext() {
		link := pageLink(c, page.Page+1)
		resp.Next = &link
	}
	if page.HasPrevious() {
		link := pageLink(c, page.Page-1)
		resp.Previous = &link
	}
	return resp
}

func pageLink(c *fiber.Ctx, n int) string {
	q, _ := url.ParseQuery(string(c.Request().URI().QueryString()))
	if q == nil {
		q = url.Values{}
	}
	q.Set("page", strconv.Itoa(n))
	return c.BaseURL() + c.Path() + "?" + q.Encode()
}
