package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// StockHandler ledger de movimientos y consultas de la proyección (protegido).
type StockHandler struct {
	ledger *inventory.Ledger
	query  *inventory.StockQuery
}

// NewStockHandler construye el handler.
func NewStockHandler(ledger *inventory.Ledger, query *inventory.StockQuery) *StockHandler {
	return &StockHandler{ledger: ledger, query: query}
}

// RecordMovement godoc
// @Summary      Registrar movimiento de inventario
// @Description  Los traslados van por /stock/transfers y las compras por la recepción de su orden.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, warehouse_id, type, quantity, unit_cost (entradas con costo)"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/v1/stock/movements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if entity.MovementType(in.Type) == entity.MovementPurchase {
		return handleError(c, fmt.Errorf("%w: las compras se registran al recibir la orden de compra", domain.ErrInvalidInput))
	}
	m, err := h.ledger.RecordMovement(c.UserContext(), inventory.MovementInput{
		CompanyID:      companyID,
		UserID:         userID,
		ProductID:      in.ProductID,
		WarehouseID:    in.WarehouseID,
		Type:           entity.MovementType(in.Type),
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		Reference:      toReference(in.Reference),
		BatchNumber:    in.BatchNumber,
		SerialNumber:   in.SerialNumber,
		ExpirationDate: in.ExpirationDate,
		Notes:          in.Notes,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Transfer godoc
// @Summary      Trasladar stock entre bodegas
// @Description  Crea transfer_out y transfer_in con el mismo transaction_id, todo o nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferRequest  true  "Traslado"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/stock/transfers [post]
func (h *StockHandler) Transfer(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ledger.Transfer(c.UserContext(), inventory.TransferInput{
		CompanyID:       companyID,
		UserID:          userID,
		ProductID:       in.ProductID,
		FromWarehouseID: in.FromWarehouseID,
		ToWarehouseID:   in.ToWarehouseID,
		Quantity:        in.Quantity,
		Reference:       toReference(in.Reference),
		Notes:           in.Notes,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.TransferResponse{
		TransactionID: res.TransactionID,
		Out:           toMovementResponse(res.Out),
		In:            toMovementResponse(res.In),
	})
}

// Adjust godoc
// @Summary      Ajuste por conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "Cantidad contada y motivo"
// @Success      201   {object}  dto.MovementResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	m, err := h.ledger.Adjust(c.UserContext(), inventory.AdjustInput{
		CompanyID:   companyID,
		UserID:      userID,
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		NewQuantity: in.NewQuantity,
		UnitCost:    in.UnitCost,
		Reason:      in.Reason,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toMovementResponse(m))
}

// Reverse godoc
// @Summary      Revertir consumo de repuestos
// @Description  Devuelve al stock (return_customer) lo consumido por la referencia y aún no devuelto.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReverseRequest  true  "Referencia del servicio o venta"
// @Success      201   {object}  dto.ReverseResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/v1/stock/reversals [post]
func (h *StockHandler) Reverse(c *fiber.Ctx) error {
	companyID, userID := GetCompanyID(c), GetUserID(c)
	if companyID == "" || userID == "" {
		return unauthorized(c)
	}
	var in dto.ReverseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.ledger.ReverseReference(c.UserContext(), inventory.ReverseInput{
		CompanyID: companyID,
		UserID:    userID,
		Reference: toReference(&in.Reference),
		Notes:     in.Notes,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReverseResponse{
		TransactionID: res.TransactionID,
		Movements:     toMovementResponses(res.Movements),
	})
}

// Rebuild godoc
// @Summary      Reconstruir la proyección desde el ledger
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId    path  string  true  "Producto"
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {object}  dto.RebuildResponse
// @Router       /api/v1/stock/products/{productId}/warehouses/{warehouseId}/rebuild [post]
func (h *StockHandler) Rebuild(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	res, err := h.ledger.RebuildProjection(c.UserContext(), companyID, c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.RebuildResponse{
		Level:           toLevelResponse(res.Level),
		PreviousOnHand:  res.PreviousOnHand,
		PreviousAvgCost: res.PreviousAvgCost,
		MovementCount:   res.MovementCount,
		Drift:           res.Drift,
	})
}

// GetProductLevels godoc
// @Summary      Stock de un producto por bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto"
// @Success      200  {array}  dto.StockLevelResponse
// @Router       /api/v1/stock/products/{productId} [get]
func (h *StockHandler) GetProductLevels(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	levels, err := h.query.GetStockLevels(c.UserContext(), companyID, c.Params("productId"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toLevelResponses(levels))
}

// GetLevel godoc
// @Summary      Fila de stock de un producto en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId    path  string  true  "Producto"
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {object}  dto.StockLevelResponse
// @Router       /api/v1/stock/products/{productId}/warehouses/{warehouseId} [get]
func (h *StockHandler) GetLevel(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	l, err := h.query.GetStockLevel(c.UserContext(), companyID, c.Params("productId"), c.Params("warehouseId"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toLevelResponse(l))
}

// GetAvailable godoc
// @Summary      Disponible (on_hand - reserved) en una bodega
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId    path  string  true  "Producto"
// @Param        warehouseId  path  string  true  "Bodega"
// @Success      200  {object}  map[string]string
// @Router       /api/v1/stock/products/{productId}/warehouses/{warehouseId}/available [get]
func (h *StockHandler) GetAvailable(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	productID, warehouseID := c.Params("productId"), c.Params("warehouseId")
	available, err := h.query.GetAvailableStock(c.UserContext(), companyID, productID, warehouseID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": productID, "warehouse_id": warehouseID, "available": available})
}

// GetTotal godoc
// @Summary      Stock físico total del producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto"
// @Success      200  {object}  map[string]string
// @Router       /api/v1/stock/products/{productId}/total [get]
func (h *StockHandler) GetTotal(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	productID := c.Params("productId")
	total, err := h.query.GetTotalStock(c.UserContext(), companyID, productID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(fiber.Map{"product_id": productID, "on_hand": total})
}

// GetStatus godoc
// @Summary      Estado del producto frente a sus umbrales
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        productId  path  string  true  "Producto"
// @Success      200  {object}  dto.StockStatusResponse
// @Router       /api/v1/stock/products/{productId}/status [get]
func (h *StockHandler) GetStatus(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	st, err := h.query.GetStockStatus(c.UserContext(), companyID, c.Params("productId"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.StockStatusResponse{
		ProductID:    st.ProductID,
		Status:       string(st.Status),
		OnHand:       st.OnHand,
		Reserved:     st.Reserved,
		Available:    st.Available,
		MinStock:     st.Thresholds.MinStock,
		ReorderPoint: st.Thresholds.ReorderPoint,
	})
}

// ListWarehouseStock godoc
// @Summary      Stock de una bodega (inventario de la furgoneta)
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Bodega"
// @Success      200  {array}  dto.StockLevelResponse
// @Router       /api/v1/warehouses/{id}/stock [get]
func (h *StockHandler) ListWarehouseStock(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	levels, err := h.query.ListWarehouseStock(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toLevelResponses(levels))
}

// CheckAvailability godoc
// @Summary      Verificar piezas para un servicio
// @Description  Suma las cantidades repetidas de la misma fila. No reserva nada.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AvailabilityCheckRequest  true  "Piezas requeridas"
// @Success      200   {object}  dto.AvailabilityCheckResponse
// @Router       /api/v1/stock/availability [post]
func (h *StockHandler) CheckAvailability(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	var in dto.AvailabilityCheckRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	items := make([]inventory.AvailabilityItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, inventory.AvailabilityItem{ProductID: it.ProductID, WarehouseID: it.WarehouseID, Quantity: it.Quantity})
	}
	results, all, err := h.query.CheckAvailability(c.UserContext(), companyID, items)
	if err != nil {
		return handleError(c, err)
	}
	out := dto.AvailabilityCheckResponse{AllAvailable: all, Items: make([]dto.AvailabilityResultDTO, 0, len(results))}
	for _, r := range results {
		out.Items = append(out.Items, dto.AvailabilityResultDTO{
			ProductID:   r.ProductID,
			WarehouseID: r.WarehouseID,
			Quantity:    r.Quantity,
			Available:   r.Available,
			Sufficient:  r.Sufficient,
		})
	}
	return c.JSON(out)
}

// ListMovements godoc
// @Summary      Historial de movimientos
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id      query  string  false  "Producto"
// @Param        warehouse_id    query  string  false  "Bodega"
// @Param        transaction_id  query  string  false  "Unidad de trabajo"
// @Param        reference_type  query  string  false  "Tipo de referencia (service, purchase_order...)"
// @Param        reference_id    query  string  false  "ID de la referencia"
// @Param        type            query  string  false  "Tipo de movimiento"
// @Param        from            query  string  false  "RFC3339"
// @Param        to              query  string  false  "RFC3339"
// @Param        limit           query  int     false  "Límite"  default(20)
// @Param        offset          query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.MovementListResponse
// @Router       /api/v1/stock/movements [get]
func (h *StockHandler) ListMovements(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return handleError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return handleError(c, err)
	}
	page, err := pageRequest(c)
	if err != nil {
		return handleError(c, err)
	}
	list, err := h.query.ListMovements(c.UserContext(), entity.MovementFilter{
		CompanyID:     companyID,
		ProductID:     c.Query("product_id"),
		WarehouseID:   c.Query("warehouse_id"),
		TransactionID: c.Query("transaction_id"),
		ReferenceType: c.Query("reference_type"),
		ReferenceID:   c.Query("reference_id"),
		Type:          entity.MovementType(c.Query("type")),
		From:          from,
		To:            to,
		Limit:         page.Limit,
		Offset:        page.Offset,
	})
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(dto.MovementListResponse{
		Items: toMovementResponses(list),
		Page:  page.Response(len(list)),
	})
}

// GetMovement godoc
// @Summary      Obtener movimiento por ID
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "Movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/v1/stock/movements/{id} [get]
func (h *StockHandler) GetMovement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return unauthorized(c)
	}
	m, err := h.query.GetMovement(c.UserContext(), companyID, c.Params("id"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(toMovementResponse(m))
}

// pageRequest lee ?limit&offset y aplica los valores por defecto de dto.PageRequest.
func pageRequest(c *fiber.Ctx) (dto.PageRequest, error) {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return page, fmt.Errorf("%w: paginación inválida", domain.ErrInvalidInput)
	}
	page.DefaultPage()
	return page, nil
}

func queryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s debe ser RFC3339", domain.ErrInvalidInput, key)
	}
	return &t, nil
}
