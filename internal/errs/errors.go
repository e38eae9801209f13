package errs

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Sentinel errors for the failure categories the API distinguishes.
// Callers classify with errors.Is; everything unmatched is an unknown
// internal error.
var (
	// ErrValidation marks a request rejected before any external call.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an article/author/category/tag id that did not resolve.
	ErrNotFound = errors.New("not found")
	// ErrGeneration marks a failed text-generation backend call.
	ErrGeneration = errors.New("generation failed")
	// ErrConflict marks a unique-constraint violation (duplicate slug).
	ErrConflict = errors.New("conflict")
	// ErrTimeout marks an orchestration that exceeded its wall-clock ceiling.
	ErrTimeout = errors.New("timed out")
)

func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

func NotFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

func Generationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrGeneration)
}

func Conflictf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}

// HTTPStatus maps an error to the status code surfaced to the caller.
// Internal causes are never part of the response body; the handler logs
// them and sends the generic status text instead.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrTimeout):
		return fiber.StatusGatewayTimeout
	default:
		return fiber.StatusInternalServerError
	}
}
