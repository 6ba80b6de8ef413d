package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockKey identifica una fila de la proyección (producto × bodega).
type StockKey struct {
	ProductID   string
	WarehouseID string
}

// Less define el orden fijo de adquisición de bloqueos: bodega y luego producto.
func (k StockKey) Less(o StockKey) bool {
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	return k.ProductID < o.ProductID
}

// StockLevel es la proyección materializada del ledger para un producto en una bodega.
// Es una caché: siempre puede reconstruirse reproduciendo los movimientos.
type StockLevel struct {
	CompanyID   string
	ProductID   string
	WarehouseID string
	OnHand      decimal.Decimal
	Reserved    decimal.Decimal
	AvgCost     decimal.Decimal // costo promedio móvil
	UpdatedAt   time.Time
}

// Key devuelve la clave de bloqueo de la fila.
func (s *StockLevel) Key() StockKey {
	return StockKey{ProductID: s.ProductID, WarehouseID: s.WarehouseID}
}

// Available = OnHand - Reserved.
func (s *StockLevel) Available() decimal.Decimal {
	return s.OnHand.Sub(s.Reserved)
}

// Value es la valoración de la fila: OnHand × AvgCost.
func (s *StockLevel) Value() decimal.Decimal {
	return s.OnHand.Mul(s.AvgCost)
}

// StockStatus resume la situación de un producto frente a sus umbrales.
type StockStatus string

const (
	StockStatusOK         StockStatus = "ok"
	StockStatusLow        StockStatus = "low"
	StockStatusCritical   StockStatus = "critical"
	StockStatusOutOfStock StockStatus = "out_of_stock"
)
