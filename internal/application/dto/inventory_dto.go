package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReferenceDTO objeto de negocio que origina la operación (servicio, orden, traslado).
type ReferenceDTO struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// RecordMovementRequest body para POST /api/v1/stock/movements.
type RecordMovementRequest struct {
	ProductID      string           `json:"product_id"`
	WarehouseID    string           `json:"warehouse_id"`
	Type           string           `json:"type"`
	Quantity       decimal.Decimal  `json:"quantity"`
	UnitCost       *decimal.Decimal `json:"unit_cost,omitempty"`
	Reference      *ReferenceDTO    `json:"reference,omitempty"`
	BatchNumber    string           `json:"batch_number,omitempty"`
	SerialNumber   string           `json:"serial_number,omitempty"`
	ExpirationDate *time.Time       `json:"expiration_date,omitempty"`
	Notes          string           `json:"notes,omitempty"`
}

// TransferRequest body para POST /api/v1/stock/transfers.
type TransferRequest struct {
	ProductID       string          `json:"product_id"`
	FromWarehouseID string          `json:"from_warehouse_id"`
	ToWarehouseID   string          `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Reference       *ReferenceDTO   `json:"reference,omitempty"`
	Notes           string          `json:"notes,omitempty"`
}

// AdjustRequest body para POST /api/v1/stock/adjustments (conteo físico).
type AdjustRequest struct {
	ProductID   string           `json:"product_id"`
	WarehouseID string           `json:"warehouse_id"`
	NewQuantity decimal.Decimal  `json:"new_quantity"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	Reason      string           `json:"reason"`
}

// ReverseRequest body para POST /api/v1/stock/reversals.
type ReverseRequest struct {
	Reference ReferenceDTO `json:"reference"`
	Notes     string       `json:"notes,omitempty"`
}

// ReservationRequest body para reserve/release/fulfill.
type ReservationRequest struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   ReferenceDTO    `json:"reference"`
	Notes       string          `json:"notes,omitempty"`
}

// AvailabilityCheckRequest piezas que requiere un servicio.
type AvailabilityCheckRequest struct {
	Items []AvailabilityItemDTO `json:"items"`
}

// AvailabilityItemDTO pieza requerida.
type AvailabilityItemDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AvailabilityResultDTO resultado por pieza.
type AvailabilityResultDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Available   decimal.Decimal `json:"available"`
	Sufficient  bool            `json:"sufficient"`
}

// AvailabilityCheckResponse respuesta del chequeo de disponibilidad.
type AvailabilityCheckResponse struct {
	AllAvailable bool                    `json:"all_available"`
	Items        []AvailabilityResultDTO `json:"items"`
}

// StockLevelResponse fila de la proyección.
type StockLevelResponse struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// StockStatusResponse estado agregado de un producto.
type StockStatusResponse struct {
	ProductID    string          `json:"product_id"`
	Status       string          `json:"status"`
	OnHand       decimal.Decimal `json:"on_hand"`
	Reserved     decimal.Decimal `json:"reserved"`
	Available    decimal.Decimal `json:"available"`
	MinStock     decimal.Decimal `json:"min_stock"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
}

// MovementResponse movimiento del ledger.
type MovementResponse struct {
	ID                 string           `json:"id"`
	TransactionID      string           `json:"transaction_id"`
	ProductID          string           `json:"product_id"`
	WarehouseID        string           `json:"warehouse_id"`
	Type               string           `json:"type"`
	Quantity           decimal.Decimal  `json:"quantity"`
	UnitCost           *decimal.Decimal `json:"unit_cost,omitempty"`
	StockBefore        decimal.Decimal  `json:"stock_before"`
	StockAfter         decimal.Decimal  `json:"stock_after"`
	Reference          *ReferenceDTO    `json:"reference,omitempty"`
	RelatedWarehouseID string           `json:"related_warehouse_id,omitempty"`
	BatchNumber        string           `json:"batch_number,omitempty"`
	SerialNumber       string           `json:"serial_number,omitempty"`
	ExpirationDate     *time.Time       `json:"expiration_date,omitempty"`
	Notes              string           `json:"notes,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	CreatedBy          string           `json:"created_by,omitempty"`
}

// MovementListResponse historial paginado.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// TransferResponse las dos patas de un traslado.
type TransferResponse struct {
	TransactionID string           `json:"transaction_id"`
	Out           MovementResponse `json:"out"`
	In            MovementResponse `json:"in"`
}

// ReverseResponse devoluciones escritas al revertir una referencia.
type ReverseResponse struct {
	TransactionID string             `json:"transaction_id"`
	Movements     []MovementResponse `json:"movements"`
}

// FulfillResponse consumo de stock reservado.
type FulfillResponse struct {
	Movement MovementResponse   `json:"movement"`
	Level    StockLevelResponse `json:"level"`
}

// RebuildResponse resultado de reconstruir la proyección.
type RebuildResponse struct {
	Level           StockLevelResponse `json:"level"`
	PreviousOnHand  decimal.Decimal    `json:"previous_on_hand"`
	PreviousAvgCost decimal.Decimal    `json:"previous_avg_cost"`
	MovementCount   int                `json:"movement_count"`
	Drift           bool               `json:"drift"`
}

// ReservationResponse registro de auditoría de reservas.
type ReservationResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Action      string          `json:"action"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reference   ReferenceDTO    `json:"reference"`
	Notes       string          `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CreatedBy   string          `json:"created_by,omitempty"`
}

// AlertResponse alerta de stock.
type AlertResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	WarehouseID      string          `json:"warehouse_id"`
	Type             string          `json:"type"`
	Threshold        decimal.Decimal `json:"threshold"`
	CurrentAvailable decimal.Decimal `json:"current_available"`
	RaisedAt         time.Time       `json:"raised_at"`
	IsRead           bool            `json:"is_read"`
	ResolvedAt       *time.Time      `json:"resolved_at,omitempty"`
	ResolvedBy       string          `json:"resolved_by,omitempty"`
}

// ReorderLineDTO producto sugerido para reposición.
type ReorderLineDTO struct {
	ProductID     string          `json:"product_id"`
	SKU           string          `json:"sku"`
	ProductName   string          `json:"product_name"`
	Available     decimal.Decimal `json:"available"`
	ReorderPoint  decimal.Decimal `json:"reorder_point"`
	MinStock      decimal.Decimal `json:"min_stock"`
	SuggestedQty  decimal.Decimal `json:"suggested_qty"` // max(reorder_quantity, min_stock - available)
	UnitCost      decimal.Decimal `json:"unit_cost"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
}

// ReorderProposalDTO borrador propuesto por proveedor.
type ReorderProposalDTO struct {
	SupplierID    string           `json:"supplier_id"`
	WarehouseID   string           `json:"warehouse_id"`
	EstimatedCost decimal.Decimal  `json:"estimated_cost"`
	Lines         []ReorderLineDTO `json:"lines"`
}

// ValuationItemDTO valor de un producto en una bodega.
type ValuationItemDTO struct {
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	OnHand      decimal.Decimal `json:"on_hand"`
	AvgCost     decimal.Decimal `json:"avg_cost"`
	Value       decimal.Decimal `json:"value"`
}

// WarehouseValuationDTO totales por bodega.
type WarehouseValuationDTO struct {
	WarehouseID string          `json:"warehouse_id"`
	TotalUnits  decimal.Decimal `json:"total_units"`
	TotalValue  decimal.Decimal `json:"total_value"`
	Items       int             `json:"items"`
}

// ValuationResponse valoración del inventario.
type ValuationResponse struct {
	TotalValue  decimal.Decimal         `json:"total_value"`
	TotalUnits  decimal.Decimal         `json:"total_units"`
	ByWarehouse []WarehouseValuationDTO `json:"by_warehouse"`
	Items       []ValuationItemDTO      `json:"items"`
}
