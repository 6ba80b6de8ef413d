package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

const movementColumns = `id, seq, company_id, transaction_id, product_id, warehouse_id, type, quantity, unit_cost,
	stock_before, stock_after, reference_type, reference_id, related_warehouse_id,
	batch_number, serial_number, expiration_date, notes, created_at, created_by`

// StockMovementRepo ledger stock_movements: solo INSERT y SELECT (usable con pool o tx).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Append inserta el movimiento; seq lo asigna la secuencia de la tabla.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (id, company_id, transaction_id, product_id, warehouse_id, type, quantity, unit_cost,
			stock_before, stock_after, reference_type, reference_id, related_warehouse_id,
			batch_number, serial_number, expiration_date, notes, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		m.ID, m.CompanyID, m.TransactionID, m.ProductID, m.WarehouseID, m.Type, m.Quantity, m.UnitCost,
		m.StockBefore, m.StockAfter, m.ReferenceType, m.ReferenceID, nullableString(m.RelatedWarehouseID),
		m.BatchNumber, m.SerialNumber, m.ExpirationDate, m.Notes, m.CreatedAt, m.CreatedBy,
	).Scan(&m.Seq)
	if err != nil {
		return mapLockError(fmt.Errorf("append stock movement: %w", err))
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	m, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return m, nil
}

// ListByKey movimientos de la fila en orden de inserción (para Replay).
func (r *StockMovementRepo) ListByKey(ctx context.Context, companyID string, key entity.StockKey) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		ORDER BY seq`
	return r.collect(ctx, query, companyID, key.WarehouseID, key.ProductID)
}

// ListByReference movimientos de una referencia (servicio, orden) en orden de inserción.
func (r *StockMovementRepo) ListByReference(ctx context.Context, companyID string, ref entity.Reference) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements
		WHERE company_id = $1 AND reference_type = $2 AND reference_id = $3
		ORDER BY seq`
	return r.collect(ctx, query, companyID, ref.Type, ref.ID)
}

// List historial filtrado, más reciente primero.
func (r *StockMovementRepo) List(ctx context.Context, f entity.MovementFilter) ([]*entity.StockMovement, error) {
	where := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	if f.TransactionID != "" {
		add("transaction_id = $%d", f.TransactionID)
	}
	if f.ReferenceType != "" {
		add("reference_type = $%d", f.ReferenceType)
	}
	if f.ReferenceID != "" {
		add("reference_id = $%d", f.ReferenceID)
	}
	if f.Type != "" {
		add("type = $%d", f.Type)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	lim, off := pageArgs(f.Limit, f.Offset)
	args = append(args, lim, off)
	query := fmt.Sprintf(`
		SELECT %s
		FROM stock_movements
		WHERE %s
		ORDER BY seq DESC LIMIT $%d OFFSET $%d`,
		movementColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	return r.collect(ctx, query, args...)
}

func (r *StockMovementRepo) collect(ctx context.Context, query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var (
		m       entity.StockMovement
		related *string
	)
	err := row.Scan(
		&m.ID, &m.Seq, &m.CompanyID, &m.TransactionID, &m.ProductID, &m.WarehouseID, &m.Type, &m.Quantity, &m.UnitCost,
		&m.StockBefore, &m.StockAfter, &m.ReferenceType, &m.ReferenceID, &related,
		&m.BatchNumber, &m.SerialNumber, &m.ExpirationDate, &m.Notes, &m.CreatedAt, &m.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	m.RelatedWarehouseID = stringOrEmpty(related)
	return &m, nil
}
