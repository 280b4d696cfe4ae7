package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/jhoicas/BancoSangre-api/pkg/logger"
)

// RequestLogger registra cada petición y adjunta un sublogger con request_id al
// UserContext; los casos de uso lo recuperan con zerolog.Ctx.
func RequestLogger(log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqID := c.Get(fiber.HeaderXRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(fiber.HeaderXRequestID, reqID)

		zl := log.With().Str("request_id", reqID).Logger()
		c.SetUserContext(zl.WithContext(c.UserContext()))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		ev := zl.Info()
		if status >= fiber.StatusInternalServerError {
			ev = zl.Error().Err(err)
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("petición HTTP")
		return err
	}
}
