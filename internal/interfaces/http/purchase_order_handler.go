package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/application/purchasing"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// PurchaseOrderHandler ciclo de vida de órdenes de compra (protegido).
type PurchaseOrderHandler struct {
	workflow *purchasing.Workflow
	pdf      *purchasing.PDFUseCase
	planner  *inventory.ReorderPlanner
}

// NewPurchaseOrderHandler construye el handler.
func NewPurchaseOrderHandler(workflow *purchasing.Workflow, pdf *purchasing.PDFUseCase, planner *inventory.ReorderPlanner) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{workflow: workflow, pdf: pdf, planner: planner}
}

func toLineInputs(lines []dto.PurchaseOrderLineRequest) []purchasing.LineInput {
	out := make([]purchasing.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, purchasing.LineInput{
			ProductID:       l.ProductID,
			Quantity:        l.Quantity,
			UnitCost:        l.UnitCost,
			TaxRate:         l.TaxRate,
			DiscountPercent: l.DiscountPercent,
			Notes:           l.Notes,
		})
	}
	return out
}

// Create godoc
// @Summary      Crear orden de compra (draft)
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePurchaseOrderRequest  true  "Proveedor, bodega destino y líneas"
// @Success      201   {object}  dto.PurchaseOrderResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/v1/purchase-orders [post]
func (h *PurchaseOrderHandler) Create(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	po, err := h.workflow.Create(c.UserContext(), purchasing.CreateOrderInput{
		CompanyID:            companyID,
		UserID:               userID,
		SupplierID:           in.SupplierID,
		WarehouseID:          in.WarehouseID,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
		Lines:                toLineInputs(in.Lines),
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponse(po))
}

// CreateFromSuggestions godoc
// @Summary      Generar borradores desde sugerencias de reposición
// @Description  Un borrador por proveedor preferido. Los productos sin proveedor se omiten.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateFromSuggestionsRequest  true  "Bodega a reponer"
// @Success      201   {array}  dto.PurchaseOrderResponse
// @Router       /api/v1/purchase-orders/from-suggestions [post]
func (h *PurchaseOrderHandler) CreateFromSuggestions(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.CreateFromSuggestionsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	proposals, err := h.planner.Suggest(c.UserContext(), companyID, in.WarehouseID)
	if err != nil {
		return handleError(c, err)
	}
	created, err := h.workflow.CreateFromProposals(c.UserContext(), companyID, userID, proposals)
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toOrderResponses(created))
}

// List godoc
// @Summary      Listar órdenes de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        status        query  string  false  "Estado"
// @Param        supplier_id   query  string  false  "Proveedor"
// @Param        warehouse_id  query  string  false  "Bodega destino"
// @Param        limit         query  int     false  "Límite"  default(20)
// @Param        offset        query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.PurchaseOrderListResponse
// @Router       /api/v1/purchase-orders [get]
func (h *PurchaseOrderHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	page, err := pageRequest(c)
	if err != nil {
		return handleError(c, err)
	}
	list, err := h.workflow.List(c.UserContext(), entity.PurchaseOrderFilter{
		CompanyID:   companyID,
		Status:      entity.PurchaseOrderStatus(c.Query("status")),
		SupplierID:  c.Query("supplier_id"),
		WarehouseID: c.Query("warehouse_id"),
		Limit:       page.Limit,
		Offset:      page.Offset,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.PurchaseOrderListResponse{
		Items: toOrderResponses(list),
		Page:  page.Response(len(list)),
	})
}

// Get godoc
// @Summary      Obtener orden de compra
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/purchase-orders/{id} [get]
func (h *PurchaseOrderHandler) Get(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	po, err := h.workflow.Get(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

// UpdateDraft godoc
// @Summary      Editar borrador
// @Description  Reemplaza fecha esperada, notas y líneas. Solo en draft.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "Orden"
// @Param        body  body  dto.UpdatePurchaseOrderRequest  true  "Contenido nuevo"
// @Success      200   {object}  dto.PurchaseOrderResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/purchase-orders/{id} [put]
func (h *PurchaseOrderHandler) UpdateDraft(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.UpdatePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	po, err := h.workflow.UpdateDraft(c.UserContext(), purchasing.UpdateDraftInput{
		CompanyID:            companyID,
		OrderID:              c.Params("id"),
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
		Lines:                toLineInputs(in.Lines),
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

func (h *PurchaseOrderHandler) transition(c *fiber.Ctx, step func(companyID, orderID, userID string) (*entity.PurchaseOrder, error)) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	po, err := step(companyID, c.Params("id"), userID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toOrderResponse(po))
}

// Submit godoc
// @Summary      Enviar a aprobación (draft → pending_approval)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      409  {object}  dto.ErrorResponse  "INVALID_STATE_TRANSITION"
// @Router       /api/v1/purchase-orders/{id}/submit [post]
func (h *PurchaseOrderHandler) Submit(c *fiber.Ctx) error {
	return h.transition(c, func(companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
		return h.workflow.Submit(c.UserContext(), companyID, orderID, userID)
	})
}

// Approve godoc
// @Summary      Aprobar orden (solo admin o manager)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/v1/purchase-orders/{id}/approve [post]
func (h *PurchaseOrderHandler) Approve(c *fiber.Ctx) error {
	return h.transition(c, func(companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
		return h.workflow.Approve(c.UserContext(), companyID, orderID, userID)
	})
}

// MarkOrdered godoc
// @Summary      Marcar como pedida al proveedor (approved → ordered)
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Router       /api/v1/purchase-orders/{id}/order [post]
func (h *PurchaseOrderHandler) MarkOrdered(c *fiber.Ctx) error {
	return h.transition(c, func(companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
		return h.workflow.MarkOrdered(c.UserContext(), companyID, orderID, userID)
	})
}

// Cancel godoc
// @Summary      Cancelar orden
// @Description  Las cantidades ya recibidas permanecen en el inventario.
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Orden"
// @Success      200  {object}  dto.PurchaseOrderResponse
// @Router       /api/v1/purchase-orders/{id}/cancel [post]
func (h *PurchaseOrderHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, func(companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
		return h.workflow.Cancel(c.UserContext(), companyID, orderID, userID)
	})
}

// Receive godoc
// @Summary      Registrar recepción de mercancía
// @Description  Todas las líneas se aplican o ninguna. Genera movimientos purchase con el costo de la línea.
// @Tags         purchase-orders
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                           true  "Orden"
// @Param        body  body  dto.ReceivePurchaseOrderRequest  true  "Cantidades recibidas por línea"
// @Success      201   {object}  dto.ReceiveResponse
// @Failure      409   {object}  dto.ErrorResponse  "OVER_RECEIPT"
// @Router       /api/v1/purchase-orders/{id}/receive [post]
func (h *PurchaseOrderHandler) Receive(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReceivePurchaseOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]purchasing.ReceiveLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, purchasing.ReceiveLine{
			LineID:         l.LineID,
			Quantity:       l.Quantity,
			BatchNumber:    l.BatchNumber,
			SerialNumber:   l.SerialNumber,
			ExpirationDate: l.ExpirationDate,
		})
	}
	res, err := h.workflow.Receive(c.UserContext(), purchasing.ReceiveInput{
		CompanyID: companyID,
		UserID:    userID,
		OrderID:   c.Params("id"),
		Lines:     lines,
		Notes:     in.Notes,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiveResponse{
		Order:         toOrderResponse(res.Order),
		TransactionID: res.TransactionID,
		Movements:     toMovementResponses(res.Movements),
	})
}

// DownloadPDF godoc
// @Summary      Descargar orden en PDF
// @Tags         purchase-orders
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "Orden"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/purchase-orders/{id}/pdf [get]
func (h *PurchaseOrderHandler) DownloadPDF(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	data, filename, err := h.pdf.DownloadOrderPDF(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}
