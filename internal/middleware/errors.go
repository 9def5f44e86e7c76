package middleware

import (
	"errors"
	"fmt"

	"github.com/VeeCC-T/ShieldHer/internal/repository"
	"github.com/VeeCC-T/ShieldHer/internal/security"
	"github.com/VeeCC-T/ShieldHer/internal/services"
	"github.com/gofiber/fiber/v2"
)

// MessageInternal is the only detail a client sees for an unexpected failure.
const MessageInternal = "An unexpected error occurred. Please try again later."

// ErrorBody is the "error" member of every error response.
type ErrorBody struct {
	Message   string               `json:"message"`
	Status    int                  `json:"status"`
	Fields    security.FieldErrors `json:"fields,omitempty"`
	RequestID string               `json:"request_id,omitempty"`
}

// ErrorResponse is the JSON envelope returned for every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// classify maps an error chain onto a status and client-safe message.
// Unknown errors become 500 with MessageInternal.
func classify(err error) ErrorBody {
	if fe, ok := security.AsFieldErrors(err); ok {
		return ErrorBody{Message: "Invalid input.", Status: fiber.StatusBadRequest, Fields: fe}
	}

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return ErrorBody{Message: fiberErr.Message, Status: fiberErr.Code}
	case errors.Is(err, services.ErrInvalidCredentials), errors.Is(err, services.ErrInvalidToken):
		return ErrorBody{Message: "Invalid credentials", Status: fiber.StatusUnauthorized}
	case errors.Is(err, repository.ErrNotFound):
		return ErrorBody{Message: "Not found.", Status: fiber.StatusNotFound}
	case errors.Is(err, services.ErrDonationNotDeletable),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, repository.ErrStatusChanged),
		errors.Is(err, repository.ErrDuplicateUsername):
		return ErrorBody{Message: sentinelMessage(err), Status: fiber.StatusConflict}
	}
	return ErrorBody{Message: MessageInternal, Status: fiber.StatusInternalServerError}
}

// sentinelMessage renders the innermost error of a chain as a sentence.
func sentinelMessage(err error) string {
	var sentinel error = err
	for {
		next := errors.Unwrap(sentinel)
		if next == nil {
			break
		}
		sentinel = next
	}
	msg := sentinel.Error()
	if msg == "" {
		return msg
	}
	if c := msg[0]; c >= 'a' && c <= 'z' {
		msg = string(c-'a'+'A') + msg[1:]
	}
	return msg + "."
}

// ErrorHandler renders every error returned by a handler as an ErrorResponse.
// 5xx errors are logged with their full chain and never described to the client.
//
// Example:
//
//	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
func ErrorHandler(logger *security.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body := classify(err)

		if body.Status >= fiber.StatusInternalServerError {
			body.Message = MessageInternal
			body.RequestID = RequestIDFrom(c)
			logger.Error(fmt.Sprintf("Unhandled error on %s %s (request %s)", c.Method(), c.Path(), body.RequestID), err)
		}

		return c.Status(body.Status).JSON(ErrorResponse{Error: body})
	}
}
