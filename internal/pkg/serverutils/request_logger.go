package serverutils

import (
	"time"

	"arthik-chat-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs one line per request through the application logger.
func RequestLogger(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		start := time.Now()
		err := ctx.Next()

		status := ctx.Response().StatusCode()
		if err != nil {
			// The app error handler has not written the status yet.
			status, _ = mapError(err)
		}

		log.Info("HTTP", "Request handled", map[string]interface{}{
			"method":      ctx.Method(),
			"path":        ctx.Path(),
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          ctx.IP(),
		})
		return err
	}
}
