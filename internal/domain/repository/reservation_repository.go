package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// ReservationRepository auditoría de reservas.
type ReservationRepository interface {
	Append(ctx context.Context, r *entity.Reservation) error
	// ReservedFor saldo reservado de una referencia en la fila (reserve - release - fulfill).
	ReservedFor(ctx context.Context, companyID string, key entity.StockKey, ref entity.Reference) (decimal.Decimal, error)
	ListByReference(ctx context.Context, companyID string, ref entity.Reference) ([]*entity.Reservation, error)
}
