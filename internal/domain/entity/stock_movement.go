package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementType es el catálogo cerrado de movimientos del ledger.
// El signo de cada tipo es una función pura del tipo (ver Sign).
type MovementType string

// Entradas.
const (
	MovementPurchase       MovementType = "purchase"
	MovementTransferIn     MovementType = "transfer_in"
	MovementAdjustmentIn   MovementType = "adjustment_in"
	MovementReturnCustomer MovementType = "return_customer"
	MovementInitial        MovementType = "initial"
)

// Salidas.
const (
	MovementSale               MovementType = "sale"
	MovementTransferOut        MovementType = "transfer_out"
	MovementAdjustmentOut      MovementType = "adjustment_out"
	MovementDamaged            MovementType = "damaged"
	MovementExpired            MovementType = "expired"
	MovementServiceConsumption MovementType = "service_consumption"
	MovementReturnSupplier     MovementType = "return_supplier"
)

// MovementTypes lista todos los tipos válidos en orden estable.
var MovementTypes = []MovementType{
	MovementPurchase, MovementTransferIn, MovementAdjustmentIn, MovementReturnCustomer, MovementInitial,
	MovementSale, MovementTransferOut, MovementAdjustmentOut, MovementDamaged, MovementExpired,
	MovementServiceConsumption, MovementReturnSupplier,
}

// Sign devuelve +1 para entradas, -1 para salidas y 0 si el tipo no existe.
func (t MovementType) Sign() int {
	switch t {
	case MovementPurchase, MovementTransferIn, MovementAdjustmentIn, MovementReturnCustomer, MovementInitial:
		return 1
	case MovementSale, MovementTransferOut, MovementAdjustmentOut, MovementDamaged, MovementExpired,
		MovementServiceConsumption, MovementReturnSupplier:
		return -1
	}
	return 0
}

// Valid indica si el tipo pertenece al catálogo.
func (t MovementType) Valid() bool { return t.Sign() != 0 }

// IsInbound indica si el movimiento suma al stock físico.
func (t MovementType) IsInbound() bool { return t.Sign() > 0 }

// RequiresUnitCost indica si el movimiento debe traer costo unitario (afecta la valoración).
func (t MovementType) RequiresUnitCost() bool {
	switch t {
	case MovementPurchase, MovementAdjustmentIn, MovementInitial, MovementReturnCustomer:
		return true
	}
	return false
}

// IsConsumption indica si la salida entrega la pieza a un cliente o servicio
// (lo que una devolución de cliente puede revertir).
func (t MovementType) IsConsumption() bool {
	return t == MovementServiceConsumption || t == MovementSale
}

// IsTransfer indica si el tipo solo puede producirse como una de las dos patas de un traslado.
func (t MovementType) IsTransfer() bool {
	return t == MovementTransferIn || t == MovementTransferOut
}

// StockMovement es una entrada inmutable del ledger. Nunca se edita ni se borra:
// las correcciones se hacen con un movimiento compensatorio.
type StockMovement struct {
	ID                 string
	Seq                int64 // orden de inserción, usado para reproducir el ledger
	CompanyID          string
	TransactionID      string // compartido por todos los movimientos de una misma unidad de trabajo
	ProductID          string
	WarehouseID        string
	Type               MovementType
	Quantity           decimal.Decimal // magnitud siempre positiva; el signo lo da Type
	UnitCost           *decimal.Decimal
	StockBefore        decimal.Decimal
	StockAfter         decimal.Decimal
	ReferenceType      string
	ReferenceID        string
	RelatedWarehouseID string // solo traslados: bodega de la otra pata
	BatchNumber        string
	SerialNumber       string
	ExpirationDate     *time.Time
	Notes              string
	CreatedAt          time.Time
	CreatedBy          string
}

// SignedQuantity devuelve la cantidad con el signo implícito del tipo.
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Type.Sign() < 0 {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// MovementFilter filtra el historial de movimientos. Campos vacíos no filtran.
type MovementFilter struct {
	CompanyID     string
	ProductID     string
	WarehouseID   string
	TransactionID string
	ReferenceType string
	ReferenceID   string
	Type          MovementType
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
