package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/inkpress/inkpress/internal/logger"
)

// RequestLogger logs one structured line per request: method, path,
// status, client IP and latency.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		event := logger.Get().Info()
		if err != nil {
			event = logger.Get().Error().Err(err)
		}

		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", c.Response().StatusCode()).
			Str("ip", c.IP()).
			Dur("latency", time.Since(start)).
			Msg("request")

		return err
	}
}
