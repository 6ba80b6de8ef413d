package repository

import (
	"context"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// PurchaseOrderRepository puerto de persistencia de órdenes de compra con sus líneas.
type PurchaseOrderRepository interface {
	Create(ctx context.Context, po *entity.PurchaseOrder) error
	// GetByID devuelve (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// GetForUpdate bloquea la orden hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	// Update persiste cabecera y reemplaza las líneas.
	Update(ctx context.Context, po *entity.PurchaseOrder) error
	List(ctx context.Context, filter entity.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error)
	// NextOrderNumber siguiente consecutivo del año para la empresa (1, 2, ...).
	NextOrderNumber(ctx context.Context, companyID string, year int) (int, error)
}
