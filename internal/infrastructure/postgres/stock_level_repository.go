package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.StockLevelRepository = (*StockLevelRepo)(nil)

const levelColumns = `company_id, product_id, warehouse_id, on_hand, reserved, avg_cost, updated_at`

// StockLevelRepo proyección stock_levels (usable con pool o tx).
type StockLevelRepo struct {
	q Querier
}

// NewStockLevelRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockLevelRepository(q Querier) *StockLevelRepo {
	return &StockLevelRepo{q: q}
}

// Get obtiene la fila; si no existe devuelve una en cero.
func (r *StockLevelRepo) Get(ctx context.Context, companyID string, key entity.StockKey) (*entity.StockLevel, error) {
	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3`
	l, err := scanLevel(r.q.QueryRow(ctx, query, companyID, key.WarehouseID, key.ProductID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return zeroLevel(companyID, key), nil
		}
		return nil, fmt.Errorf("get stock level: %w", err)
	}
	return l, nil
}

// GetForUpdate crea la fila si falta y la bloquea (SELECT FOR UPDATE).
// Sin la inserción previa, dos primeras entradas concurrentes no tendrían fila que bloquear.
func (r *StockLevelRepo) GetForUpdate(ctx context.Context, companyID string, key entity.StockKey) (*entity.StockLevel, error) {
	_, err := r.q.Exec(ctx, `
		INSERT INTO stock_levels (company_id, product_id, warehouse_id, on_hand, reserved, avg_cost, updated_at)
		VALUES ($1, $2, $3, 0, 0, 0, now())
		ON CONFLICT (company_id, warehouse_id, product_id) DO NOTHING`,
		companyID, key.ProductID, key.WarehouseID,
	)
	if err != nil {
		return nil, mapLockError(fmt.Errorf("ensure stock level: %w", err))
	}
	query := `
		SELECT ` + levelColumns + `
		FROM stock_levels WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3
		FOR UPDATE`
	l, err := scanLevel(r.q.QueryRow(ctx, query, companyID, key.WarehouseID, key.ProductID))
	if err != nil {
		return nil, mapLockError(fmt.Errorf("get stock level for update: %w", err))
	}
	return l, nil
}

// Upsert escribe la fila completa.
func (r *StockLevelRepo) Upsert(ctx context.Context, l *entity.StockLevel) error {
	query := `
		INSERT INTO stock_levels (` + levelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, warehouse_id, product_id)
		DO UPDATE SET on_hand = EXCLUDED.on_hand, reserved = EXCLUDED.reserved,
		              avg_cost = EXCLUDED.avg_cost, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		l.CompanyID, l.ProductID, l.WarehouseID, l.OnHand, l.Reserved, l.AvgCost, l.UpdatedAt,
	)
	if err != nil {
		return mapCheckViolation(mapLockError(fmt.Errorf("upsert stock level: %w", err)))
	}
	return nil
}

// ListByProduct filas del producto en todas las bodegas.
func (r *StockLevelRepo) ListByProduct(ctx context.Context, companyID, productID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, `WHERE company_id = $1 AND product_id = $2`, companyID, productID)
}

// ListByWarehouse filas de una bodega.
func (r *StockLevelRepo) ListByWarehouse(ctx context.Context, companyID, warehouseID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, `WHERE company_id = $1 AND warehouse_id = $2`, companyID, warehouseID)
}

// ListByCompany todas las filas de la empresa.
func (r *StockLevelRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.StockLevel, error) {
	return r.list(ctx, `WHERE company_id = $1`, companyID)
}

func (r *StockLevelRepo) list(ctx context.Context, where string, args ...any) ([]*entity.StockLevel, error) {
	query := `SELECT ` + levelColumns + ` FROM stock_levels ` + where + ` ORDER BY warehouse_id, product_id`
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock levels: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockLevel
	for rows.Next() {
		l, err := scanLevel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock level: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func scanLevel(row pgx.Row) (*entity.StockLevel, error) {
	var l entity.StockLevel
	if err := row.Scan(&l.CompanyID, &l.ProductID, &l.WarehouseID, &l.OnHand, &l.Reserved, &l.AvgCost, &l.UpdatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func zeroLevel(companyID string, key entity.StockKey) *entity.StockLevel {
	return &entity.StockLevel{
		CompanyID:   companyID,
		ProductID:   key.ProductID,
		WarehouseID: key.WarehouseID,
		OnHand:      decimal.Zero,
		Reserved:    decimal.Zero,
		AvgCost:     decimal.Zero,
	}
}
