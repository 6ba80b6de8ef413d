package repository

import (
	"context"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// StockLevelRepository puerto de la proyección de stock por bodega+producto.
// Get/GetForUpdate devuelven una fila en cero si aún no existe.
type StockLevelRepository interface {
	Get(ctx context.Context, companyID string, key entity.StockKey) (*entity.StockLevel, error)
	// GetForUpdate bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
	// Si no obtiene el bloqueo a tiempo devuelve domain.ErrConcurrencyTimeout.
	GetForUpdate(ctx context.Context, companyID string, key entity.StockKey) (*entity.StockLevel, error)
	Upsert(ctx context.Context, level *entity.StockLevel) error
	ListByProduct(ctx context.Context, companyID, productID string) ([]*entity.StockLevel, error)
	ListByWarehouse(ctx context.Context, companyID, warehouseID string) ([]*entity.StockLevel, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.StockLevel, error)
}
