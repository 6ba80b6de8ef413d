package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderLineRequest línea de una orden nueva o borrador editado.
type PurchaseOrderLineRequest struct {
	ProductID       string          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TaxRate         decimal.Decimal `json:"tax_rate"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Notes           string          `json:"notes,omitempty"`
}

// CreatePurchaseOrderRequest body para POST /api/v1/purchase-orders.
type CreatePurchaseOrderRequest struct {
	SupplierID           string                     `json:"supplier_id"`
	WarehouseID          string                     `json:"warehouse_id"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date,omitempty"`
	Notes                string                     `json:"notes,omitempty"`
	Lines                []PurchaseOrderLineRequest `json:"lines"`
}

// UpdatePurchaseOrderRequest body para PUT /api/v1/purchase-orders/:id (solo draft).
type UpdatePurchaseOrderRequest struct {
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date,omitempty"`
	Notes                string                     `json:"notes,omitempty"`
	Lines                []PurchaseOrderLineRequest `json:"lines"`
}

// ReceiveLineRequest cantidad recibida de una línea.
type ReceiveLineRequest struct {
	LineID         string          `json:"line_id"`
	Quantity       decimal.Decimal `json:"quantity"`
	BatchNumber    string          `json:"batch_number,omitempty"`
	SerialNumber   string          `json:"serial_number,omitempty"`
	ExpirationDate *time.Time      `json:"expiration_date,omitempty"`
}

// ReceivePurchaseOrderRequest body para POST /api/v1/purchase-orders/:id/receive.
type ReceivePurchaseOrderRequest struct {
	Lines []ReceiveLineRequest `json:"lines"`
	Notes string               `json:"notes,omitempty"`
}

// CreateFromSuggestionsRequest body para generar borradores desde la reposición.
type CreateFromSuggestionsRequest struct {
	WarehouseID string `json:"warehouse_id"`
}

// PurchaseOrderLineResponse línea con su acumulador.
type PurchaseOrderLineResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	QuantityOrdered  decimal.Decimal `json:"quantity_ordered"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	TaxRate          decimal.Decimal `json:"tax_rate"`
	DiscountPercent  decimal.Decimal `json:"discount_percent"`
	LineTotal        decimal.Decimal `json:"line_total"`
	Notes            string          `json:"notes,omitempty"`
}

// PurchaseOrderResponse orden de compra.
type PurchaseOrderResponse struct {
	ID                   string                      `json:"id"`
	OrderNumber          string                      `json:"order_number"`
	SupplierID           string                      `json:"supplier_id"`
	WarehouseID          string                      `json:"warehouse_id"`
	Status               string                      `json:"status"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date,omitempty"`
	OrderDate            *time.Time                  `json:"order_date,omitempty"`
	ActualDeliveryDate   *time.Time                  `json:"actual_delivery_date,omitempty"`
	Notes                string                      `json:"notes,omitempty"`
	Subtotal             decimal.Decimal             `json:"subtotal"`
	CreatedBy            string                      `json:"created_by,omitempty"`
	ApprovedBy           string                      `json:"approved_by,omitempty"`
	CancelledBy          string                      `json:"cancelled_by,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
	Lines                []PurchaseOrderLineResponse `json:"lines"`
}

// PurchaseOrderListResponse lista paginada.
type PurchaseOrderListResponse struct {
	Items []PurchaseOrderResponse `json:"items"`
	Page  PageResponse            `json:"page"`
}

// ReceiveResponse resultado de una recepción.
type ReceiveResponse struct {
	Order         PurchaseOrderResponse `json:"order"`
	TransactionID string                `json:"transaction_id"`
	Movements     []MovementResponse    `json:"movements"`
}
