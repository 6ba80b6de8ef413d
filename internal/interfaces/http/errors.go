package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/domain"
)

// retryAfterSeconds sugerencia al cliente tras un timeout de bloqueo.
const retryAfterSeconds = "1"

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// El orden importa: ErrOverReservation viaja envuelto junto a ErrInsufficientAvailableStock.
var errorMappings = []errorMapping{
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", ""},
	{domain.ErrSameWarehouseTransfer, fiber.StatusBadRequest, "SAME_WAREHOUSE_TRANSFER", ""},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", ""},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado al recurso"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrUnknownProductOrWarehouse, fiber.StatusUnprocessableEntity, "UNKNOWN_PRODUCT_OR_WAREHOUSE", ""},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE", ""},
	{domain.ErrOverReservation, fiber.StatusConflict, "OVER_RESERVATION", ""},
	{domain.ErrInsufficientAvailableStock, fiber.StatusConflict, "INSUFFICIENT_AVAILABLE_STOCK", ""},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", ""},
	{domain.ErrOverRelease, fiber.StatusConflict, "OVER_RELEASE", ""},
	{domain.ErrOverReceipt, fiber.StatusConflict, "OVER_RECEIPT", ""},
	{domain.ErrInvalidStateTransition, fiber.StatusConflict, "INVALID_STATE_TRANSITION", ""},
	{domain.ErrNoStockChange, fiber.StatusConflict, "NO_STOCK_CHANGE", ""},
	{domain.ErrNothingToReverse, fiber.StatusConflict, "NOTHING_TO_REVERSE", ""},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", ""},
	{domain.ErrConcurrencyTimeout, fiber.StatusServiceUnavailable, "CONCURRENCY_TIMEOUT", "recurso ocupado, reintente"},
}

// handleError traduce un error de dominio a su respuesta HTTP. Lo no clasificado es 500.
func handleError(c *fiber.Ctx, err error) error {
	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		if m.status == fiber.StatusServiceUnavailable {
			c.Set(fiber.HeaderRetryAfter, retryAfterSeconds)
		}
		msg := m.message
		if msg == "" {
			msg = err.Error()
		}
		return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: msg})
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
