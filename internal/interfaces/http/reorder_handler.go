package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
)

// ReorderHandler sugerencias de reposición y valoración del inventario (protegido).
type ReorderHandler struct {
	planner   *inventory.ReorderPlanner
	valuation *inventory.ValuationUseCase
}

// NewReorderHandler construye el handler.
func NewReorderHandler(planner *inventory.ReorderPlanner, valuation *inventory.ValuationUseCase) *ReorderHandler {
	return &ReorderHandler{planner: planner, valuation: valuation}
}

// Suggestions godoc
// @Summary      Sugerencias de reposición
// @Description  Productos con disponible <= punto de reorden agrupados por proveedor preferido.
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Bodega a reponer; vacío compara totales de la empresa"
// @Success      200  {array}  dto.ReorderProposalDTO
// @Router       /api/v1/reorder/suggestions [get]
func (h *ReorderHandler) Suggestions(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	proposals, err := h.planner.Suggest(c.UserContext(), companyID, c.Query("warehouse_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toProposalDTOs(proposals))
}

// Valuation godoc
// @Summary      Valoración del inventario a costo promedio
// @Tags         reorder
// @Security     Bearer
// @Produce      json
// @Param        warehouse_id  query  string  false  "Filtrar por bodega"
// @Success      200  {object}  dto.ValuationResponse
// @Router       /api/v1/stock/valuation [get]
func (h *ReorderHandler) Valuation(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	report, err := h.valuation.GetValuation(c.UserContext(), companyID, c.Query("warehouse_id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toValuationResponse(report))
}
