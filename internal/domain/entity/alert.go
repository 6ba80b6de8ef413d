package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType tipo de alerta de stock.
type AlertType string

const (
	AlertLowStock   AlertType = "low_stock"
	AlertOutOfStock AlertType = "out_of_stock"
)

// Alert alerta de stock bajo para un producto en una bodega.
// Solo puede existir una alerta sin resolver por (producto, bodega).
type Alert struct {
	ID               string
	CompanyID        string
	ProductID        string
	WarehouseID      string
	Type             AlertType
	Threshold        decimal.Decimal // punto de reorden que la disparó
	CurrentAvailable decimal.Decimal
	RaisedAt         time.Time
	IsRead           bool
	ResolvedAt       *time.Time
	ResolvedBy       string
}

// IsOpen indica si la alerta sigue sin resolver.
func (a *Alert) IsOpen() bool { return a.ResolvedAt == nil }
