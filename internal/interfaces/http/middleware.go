package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

// RequestLogger registra cada petición con zerolog y la cuenta en Prometheus por ruta registrada.
func RequestLogger(log zerolog.Logger, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		started := time.Now()
		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler fije el código antes de leerlo
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		status := c.Response().StatusCode()
		route := c.Route().Path

		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", time.Since(started)).
			Str("company_id", GetCompanyID(c)).
			Msg("http")

		m.HTTPRequest(c.Method(), route, strconv.Itoa(status))
		return nil
	}
}
