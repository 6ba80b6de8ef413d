package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationAction acción registrada en la auditoría de reservas.
type ReservationAction string

const (
	ReservationReserve ReservationAction = "reserve"
	ReservationRelease ReservationAction = "release"
	ReservationFulfill ReservationAction = "fulfill"
)

// Reference enlaza una operación con el objeto de negocio que la origina (servicio, orden, traslado).
type Reference struct {
	Type string
	ID   string
}

// IsZero indica si la referencia está vacía.
func (r Reference) IsZero() bool { return r.Type == "" && r.ID == "" }

// Reservation registro de auditoría de un cambio sobre StockLevel.Reserved.
type Reservation struct {
	ID            string
	CompanyID     string
	ProductID     string
	WarehouseID   string
	Action        ReservationAction
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   string
	Notes         string
	CreatedAt     time.Time
	CreatedBy     string
}

// SignedQuantity efecto del registro sobre el saldo reservado de su referencia.
func (r *Reservation) SignedQuantity() decimal.Decimal {
	if r.Action == ReservationReserve {
		return r.Quantity
	}
	return r.Quantity.Neg()
}
