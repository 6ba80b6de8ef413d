package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
)

// AlertHandler alertas de stock bajo y agotado (protegido).
type AlertHandler struct {
	engine *inventory.AlertEngine
}

// NewAlertHandler construye el handler.
func NewAlertHandler(engine *inventory.AlertEngine) *AlertHandler {
	return &AlertHandler{engine: engine}
}

// ListActive godoc
// @Summary      Alertas abiertas
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Success      200  {array}  dto.AlertResponse
// @Router       /api/v1/alerts [get]
func (h *AlertHandler) ListActive(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	list, err := h.engine.ListActive(c.UserContext(), companyID, c.Query("warehouse_id"))
	if err != nil {
		return handleError(c, err)
	}
	out := make([]dto.AlertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toAlertResponse(a))
	}
	return c.JSON(out)
}

// MarkRead godoc
// @Summary      Marcar alerta como leída
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Alerta"
// @Success      200  {object}  dto.AlertResponse
// @Router       /api/v1/alerts/{id}/read [post]
func (h *AlertHandler) MarkRead(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	a, err := h.engine.MarkRead(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}

// Resolve godoc
// @Summary      Resolver alerta manualmente
// @Tags         alerts
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Alerta"
// @Success      200  {object}  dto.AlertResponse
// @Router       /api/v1/alerts/{id}/resolve [post]
func (h *AlertHandler) Resolve(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	a, err := h.engine.Resolve(c.UserContext(), companyID, c.Params("id"), GetUserID(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toAlertResponse(a))
}
