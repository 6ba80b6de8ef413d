package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// ReservationHandler apartado de piezas para servicios programados (protegido).
type ReservationHandler struct {
	manager *inventory.ReservationManager
}

// NewReservationHandler construye el handler.
func NewReservationHandler(manager *inventory.ReservationManager) *ReservationHandler {
	return &ReservationHandler{manager: manager}
}

func (h *ReservationHandler) input(c *fiber.Ctx) (inventory.ReservationInput, bool) {
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return inventory.ReservationInput{}, false
	}
	return inventory.ReservationInput{
		CompanyID:   GetCompanyID(c),
		UserID:      GetUserID(c),
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Quantity:    in.Quantity,
		Reference:   toReference(&in.Reference),
		Notes:       in.Notes,
	}, true
}

// Reserve godoc
// @Summary      Reservar piezas
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "Pieza, bodega, cantidad y referencia (servicio)"
// @Success      200   {object}  dto.StockLevelResponse
// @Failure      409   {object}  dto.ErrorResponse  "OVER_RESERVATION"
// @Router       /api/v1/reservations/reserve [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	in, ok := h.input(c)
	if !ok {
		return badBody(c)
	}
	level, err := h.manager.Reserve(c.UserContext(), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toLevelResponse(level))
}

// Release godoc
// @Summary      Liberar reserva
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "Cantidad a liberar"
// @Success      200   {object}  dto.StockLevelResponse
// @Failure      409   {object}  dto.ErrorResponse  "OVER_RELEASE"
// @Router       /api/v1/reservations/release [post]
func (h *ReservationHandler) Release(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	in, ok := h.input(c)
	if !ok {
		return badBody(c)
	}
	level, err := h.manager.Release(c.UserContext(), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toLevelResponse(level))
}

// Fulfill godoc
// @Summary      Consumir reserva
// @Description  Libera la reserva y registra la salida usage en la misma transacción.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "Cantidad consumida"
// @Success      201   {object}  dto.FulfillResponse
// @Router       /api/v1/reservations/fulfill [post]
func (h *ReservationHandler) Fulfill(c *fiber.Ctx) error {
	if GetCompanyID(c) == "" {
		return unauthorized(c)
	}
	in, ok := h.input(c)
	if !ok {
		return badBody(c)
	}
	res, err := h.manager.Fulfill(c.UserContext(), in)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FulfillResponse{
		Movement: toMovementResponse(res.Movement),
		Level:    toLevelResponse(res.Level),
	})
}

// List godoc
// @Summary      Historial de reservas de una referencia
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        reference_type  query  string  true  "Tipo de referencia"
// @Param        reference_id    query  string  true  "ID de la referencia"
// @Success      200  {array}  dto.ReservationResponse
// @Router       /api/v1/reservations [get]
func (h *ReservationHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	ref := entity.Reference{Type: c.Query("reference_type"), ID: c.Query("reference_id")}
	list, err := h.manager.ListReservations(c.UserContext(), companyID, ref)
	if err != nil {
		return handleError(c, err)
	}
	out := make([]dto.ReservationResponse, 0, len(list))
	for _, r := range list {
		out = append(out, toReservationResponse(r))
	}
	return c.JSON(out)
}
