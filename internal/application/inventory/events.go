package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Routing keys de las notificaciones de cambio.
const (
	EventStockChanged       = "inventory.stock.changed"
	EventAlertRaised        = "inventory.alert.raised"
	EventOrderStatusChanged = "purchasing.order.status_changed"
)

// StockChangedEvent se publica por cada fila de la proyección modificada en una unidad de trabajo.
type StockChangedEvent struct {
	CompanyID     string          `json:"company_id"`
	TransactionID string          `json:"transaction_id"`
	ProductID     string          `json:"product_id"`
	WarehouseID   string          `json:"warehouse_id"`
	OnHand        decimal.Decimal `json:"on_hand"`
	Reserved      decimal.Decimal `json:"reserved"`
	Available     decimal.Decimal `json:"available"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// AlertRaisedEvent se publica cuando se crea una alerta nueva.
type AlertRaisedEvent struct {
	CompanyID   string          `json:"company_id"`
	AlertID     string          `json:"alert_id"`
	ProductID   string          `json:"product_id"`
	WarehouseID string          `json:"warehouse_id"`
	Type        string          `json:"type"`
	Available   decimal.Decimal `json:"available"`
	Threshold   decimal.Decimal `json:"threshold"`
	RaisedAt    time.Time       `json:"raised_at"`
}

// OrderStatusChangedEvent se publica en cada transición de una orden de compra.
type OrderStatusChangedEvent struct {
	CompanyID  string    `json:"company_id"`
	OrderID    string    `json:"order_id"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
