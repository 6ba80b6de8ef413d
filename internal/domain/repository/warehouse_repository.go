package repository

import (
	"context"
	"time"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// No existe Delete: las bodegas solo se desactivan.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Warehouse, error)
	GetByCode(ctx context.Context, companyID, code string) (*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	ListByCompany(ctx context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Warehouse, error)
	// GetDefault devuelve (nil, nil) si la empresa no tiene bodega predeterminada.
	GetDefault(ctx context.Context, companyID string) (*entity.Warehouse, error)
	// SetDefault marca la bodega como predeterminada y desmarca la anterior en un solo paso.
	SetDefault(ctx context.Context, companyID, id string, at time.Time) error
}
