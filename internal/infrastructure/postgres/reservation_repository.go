package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo auditoría stock_reservations (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

// Append inserta un registro de auditoría.
func (r *ReservationRepo) Append(ctx context.Context, res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_reservations (id, company_id, product_id, warehouse_id, action, quantity,
			reference_type, reference_id, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.CompanyID, res.ProductID, res.WarehouseID, res.Action, res.Quantity,
		res.ReferenceType, res.ReferenceID, res.Notes, res.CreatedAt, res.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("append reservation: %w", err)
	}
	return nil
}

// ReservedFor saldo vigente de la referencia en la fila.
func (r *ReservationRepo) ReservedFor(ctx context.Context, companyID string, key entity.StockKey, ref entity.Reference) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN action = 'reserve' THEN quantity ELSE -quantity END), 0)
		FROM stock_reservations
		WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		  AND reference_type = $4 AND reference_id = $5`
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, query, companyID, key.WarehouseID, key.ProductID, ref.Type, ref.ID).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reserved for reference: %w", err)
	}
	return total, nil
}

// ListByReference historial de la referencia en orden de registro.
func (r *ReservationRepo) ListByReference(ctx context.Context, companyID string, ref entity.Reference) ([]*entity.Reservation, error) {
	query := `
		SELECT id, company_id, product_id, warehouse_id, action, quantity,
			reference_type, reference_id, notes, created_at, created_by
		FROM stock_reservations
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY seq`
	rows, err := r.q.Query(ctx, query, companyID, ref.Type, ref.ID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(
			&res.ID, &res.CompanyID, &res.ProductID, &res.WarehouseID, &res.Action, &res.Quantity,
			&res.ReferenceType, &res.ReferenceID, &res.Notes, &res.CreatedAt, &res.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
