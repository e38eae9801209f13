package middleware

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/inkpress/inkpress/internal/errs"
	"github.com/inkpress/inkpress/internal/logger"
)

// ErrorHandler maps the error taxonomy onto HTTP statuses. Client-side
// failures (validation, not-found, conflict) carry their message; internal
// causes are logged in full and surfaced only as the generic status text.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := errs.HTTPStatus(err)

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	logger.Get().Error().
		Err(err).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Msg("HTTP error")

	message := http.StatusText(code)
	if code < fiber.StatusInternalServerError {
		message = err.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
	})
}
