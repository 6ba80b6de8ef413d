package repository

import (
	"context"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// AlertRepository puerto de persistencia de alertas de stock.
type AlertRepository interface {
	// CreateIfNoneOpen inserta la alerta solo si no hay otra abierta para la misma clave.
	// Devuelve false si ya existía una abierta.
	CreateIfNoneOpen(ctx context.Context, alert *entity.Alert) (bool, error)
	// ResolveOpen resuelve las alertas abiertas de la clave y devuelve cuántas cerró.
	ResolveOpen(ctx context.Context, companyID string, key entity.StockKey, resolvedBy string) (int, error)
	GetByID(ctx context.Context, id string) (*entity.Alert, error)
	Update(ctx context.Context, alert *entity.Alert) error
	ListOpen(ctx context.Context, companyID, warehouseID string) ([]*entity.Alert, error)
}
