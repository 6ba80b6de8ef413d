package inventory

import (
	"context"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Movements    repository.StockMovementRepository
	Levels       repository.StockLevelRepository
	Reservations repository.ReservationRepository
	Orders       repository.PurchaseOrderRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza que el append al ledger y la actualización de la proyección sean un único paso atómico.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// ProductCatalog contrato mínimo con el catálogo de productos (externo).
type ProductCatalog interface {
	IsTracked(ctx context.Context, companyID, productID string) (bool, error)
	// GetReorderThresholds devuelve domain.ErrNotFound si el producto no existe.
	GetReorderThresholds(ctx context.Context, companyID, productID string) (entity.ReorderThresholds, error)
	ListTracked(ctx context.Context, companyID string) ([]*entity.ProductRef, error)
}

// SupplierDirectory contrato mínimo con el directorio de proveedores (externo).
type SupplierDirectory interface {
	// GetPreferredSupplier devuelve (nil, nil) si el producto no tiene proveedor preferido.
	GetPreferredSupplier(ctx context.Context, companyID, productID string) (*entity.SupplierOffer, error)
}

// LevelCache caché de lectura de la proyección. Puede servir datos algo viejos; nunca decide una mutación.
type LevelCache interface {
	// GetLevels ante miss devuelve la versión vigente del producto, que se pasa luego a SetLevels.
	GetLevels(ctx context.Context, companyID, productID string) (levels []*entity.StockLevel, version int64, hit bool)
	// SetLevels no escribe si el producto fue invalidado después de leer version.
	SetLevels(ctx context.Context, companyID, productID string, version int64, levels []*entity.StockLevel)
	Invalidate(ctx context.Context, companyID string, productIDs ...string)
}

// EventPublisher publica notificaciones de cambio después del commit.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}
