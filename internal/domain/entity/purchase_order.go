package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus estado de una orden de compra.
type PurchaseOrderStatus string

const (
	POStatusDraft           PurchaseOrderStatus = "draft"
	POStatusPendingApproval PurchaseOrderStatus = "pending_approval"
	POStatusApproved        PurchaseOrderStatus = "approved"
	POStatusOrdered         PurchaseOrderStatus = "ordered"
	POStatusPartial         PurchaseOrderStatus = "partial"
	POStatusReceived        PurchaseOrderStatus = "received"
	POStatusCancelled       PurchaseOrderStatus = "cancelled"
)

// poTransitions transiciones explícitas. Las que llegan a partial/received solo las produce la recepción.
var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	POStatusDraft:           {POStatusPendingApproval, POStatusCancelled},
	POStatusPendingApproval: {POStatusApproved, POStatusCancelled},
	POStatusApproved:        {POStatusOrdered, POStatusPartial, POStatusReceived, POStatusCancelled},
	POStatusOrdered:         {POStatusPartial, POStatusReceived, POStatusCancelled},
	POStatusPartial:         {POStatusPartial, POStatusReceived, POStatusCancelled},
}

// Valid indica si el estado existe.
func (s PurchaseOrderStatus) Valid() bool {
	switch s {
	case POStatusDraft, POStatusPendingApproval, POStatusApproved, POStatusOrdered,
		POStatusPartial, POStatusReceived, POStatusCancelled:
		return true
	}
	return false
}

// IsTerminal received y cancelled son inmutables.
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == POStatusReceived || s == POStatusCancelled
}

// CanTransitionTo indica si el paso s → next está permitido.
func (s PurchaseOrderStatus) CanTransitionTo(next PurchaseOrderStatus) bool {
	for _, allowed := range poTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanReceive indica si el estado admite recepciones de mercancía.
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == POStatusApproved || s == POStatusOrdered || s == POStatusPartial
}

// PurchaseOrderLine línea de una orden de compra con su acumulador de recepción.
type PurchaseOrderLine struct {
	ID               string
	PurchaseOrderID  string
	ProductID        string
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
	TaxRate          decimal.Decimal // porcentaje informativo; el impuesto lo calcula facturación
	DiscountPercent  decimal.Decimal
	LineTotal        decimal.Decimal // neto de descuento
	Notes            string
}

// Pending cantidad que aún falta por recibir.
func (l *PurchaseOrderLine) Pending() decimal.Decimal {
	return l.QuantityOrdered.Sub(l.QuantityReceived)
}

// IsComplete indica si la línea está totalmente recibida.
func (l *PurchaseOrderLine) IsComplete() bool {
	return l.QuantityReceived.GreaterThanOrEqual(l.QuantityOrdered)
}

// ComputeTotal recalcula LineTotal = cantidad × costo × (1 - descuento/100), a 2 decimales.
func (l *PurchaseOrderLine) ComputeTotal() {
	gross := l.QuantityOrdered.Mul(l.UnitCost)
	discount := gross.Mul(l.DiscountPercent).Div(decimal.NewFromInt(100))
	l.LineTotal = gross.Sub(discount).Round(2)
}

// PurchaseOrder orden de compra a un proveedor con destino a una bodega.
type PurchaseOrder struct {
	ID                   string
	CompanyID            string
	OrderNumber          string // PO-<año>-<00001>
	SupplierID           string
	WarehouseID          string
	Status               PurchaseOrderStatus
	ExpectedDeliveryDate *time.Time
	OrderDate            *time.Time
	ActualDeliveryDate   *time.Time
	Notes                string
	Subtotal             decimal.Decimal
	CreatedBy            string
	ApprovedBy           string
	CancelledBy          string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	Lines                []*PurchaseOrderLine
}

// Line busca una línea por ID.
func (po *PurchaseOrder) Line(id string) *PurchaseOrderLine {
	for _, l := range po.Lines {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// HasOrderableLine requisito para enviar a aprobación: al menos una línea con cantidad > 0.
func (po *PurchaseOrder) HasOrderableLine() bool {
	for _, l := range po.Lines {
		if l.QuantityOrdered.IsPositive() {
			return true
		}
	}
	return false
}

// IsFullyReceived indica si todas las líneas están completas.
func (po *PurchaseOrder) IsFullyReceived() bool {
	for _, l := range po.Lines {
		if !l.IsComplete() {
			return false
		}
	}
	return true
}

// RecomputeTotals recalcula los totales de líneas y el subtotal de la orden.
func (po *PurchaseOrder) RecomputeTotals() {
	subtotal := decimal.Zero
	for _, l := range po.Lines {
		l.ComputeTotal()
		subtotal = subtotal.Add(l.LineTotal)
	}
	po.Subtotal = subtotal
}

// PurchaseOrderFilter filtros de listado de órdenes.
type PurchaseOrderFilter struct {
	CompanyID   string
	Status      PurchaseOrderStatus
	SupplierID  string
	WarehouseID string
	Limit       int
	Offset      int
}
