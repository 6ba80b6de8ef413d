package repository

import (
	"context"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// StockMovementRepository puerto del ledger: solo inserción y lectura.
type StockMovementRepository interface {
	// Append inserta el movimiento y le asigna ID (si falta) y Seq.
	Append(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListByKey devuelve todos los movimientos de un producto en una bodega en orden de Seq.
	ListByKey(ctx context.Context, companyID string, key entity.StockKey) ([]*entity.StockMovement, error)
	// ListByReference movimientos de una referencia de negocio en orden de Seq.
	ListByReference(ctx context.Context, companyID string, ref entity.Reference) ([]*entity.StockMovement, error)
	// List historial filtrado, más reciente primero.
	List(ctx context.Context, filter entity.MovementFilter) ([]*entity.StockMovement, error)
}
