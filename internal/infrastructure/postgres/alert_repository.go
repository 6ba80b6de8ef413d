package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.AlertRepository = (*AlertRepo)(nil)

const alertColumns = `id, company_id, product_id, warehouse_id, type, threshold, current_available,
	raised_at, is_read, resolved_at, resolved_by`

// AlertRepo alertas de stock. La unicidad de la alerta abierta la garantiza el índice parcial
// stock_alerts_open_key (resolved_at IS NULL).
type AlertRepo struct {
	q Querier
}

// NewAlertRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAlertRepository(q Querier) *AlertRepo {
	return &AlertRepo{q: q}
}

// CreateIfNoneOpen inserta la alerta; false si ya había una abierta para la clave.
func (r *AlertRepo) CreateIfNoneOpen(ctx context.Context, a *entity.Alert) (bool, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_alerts (` + alertColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (company_id, warehouse_id, product_id) WHERE resolved_at IS NULL DO NOTHING`
	cmd, err := r.q.Exec(ctx, query,
		a.ID, a.CompanyID, a.ProductID, a.WarehouseID, a.Type, a.Threshold, a.CurrentAvailable,
		a.RaisedAt, a.IsRead, a.ResolvedAt, a.ResolvedBy,
	)
	if err != nil {
		return false, fmt.Errorf("insert stock alert: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// ResolveOpen cierra las alertas abiertas de la clave.
func (r *AlertRepo) ResolveOpen(ctx context.Context, companyID string, key entity.StockKey, resolvedBy string) (int, error) {
	query := `
		UPDATE stock_alerts SET resolved_at = now(), resolved_by = $4
		WHERE company_id = $1 AND warehouse_id = $2 AND product_id = $3 AND resolved_at IS NULL`
	cmd, err := r.q.Exec(ctx, query, companyID, key.WarehouseID, key.ProductID, resolvedBy)
	if err != nil {
		return 0, fmt.Errorf("resolve stock alerts: %w", err)
	}
	return int(cmd.RowsAffected()), nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *AlertRepo) GetByID(ctx context.Context, id string) (*entity.Alert, error) {
	a, err := scanAlert(r.q.QueryRow(ctx, `SELECT `+alertColumns+` FROM stock_alerts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock alert: %w", err)
	}
	return a, nil
}

// Update persiste lectura y resolución.
func (r *AlertRepo) Update(ctx context.Context, a *entity.Alert) error {
	query := `UPDATE stock_alerts SET is_read = $2, resolved_at = $3, resolved_by = $4 WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, a.ID, a.IsRead, a.ResolvedAt, a.ResolvedBy)
	if err != nil {
		return fmt.Errorf("update stock alert: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update stock alert %s: %w", a.ID, domain.ErrNotFound)
	}
	return nil
}

// ListOpen alertas sin resolver, más recientes primero. warehouseID vacío no filtra.
func (r *AlertRepo) ListOpen(ctx context.Context, companyID, warehouseID string) ([]*entity.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM stock_alerts
		WHERE company_id = $1 AND resolved_at IS NULL AND ($2 = '' OR warehouse_id = $2)
		ORDER BY raised_at DESC`
	rows, err := r.q.Query(ctx, query, companyID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock alerts: %w", err)
	}
	defer rows.Close()
	var list []*entity.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock alert: %w", err)
		}
		list = append(list, a)
	}
	return list, rows.Err()
}

func scanAlert(row pgx.Row) (*entity.Alert, error) {
	var a entity.Alert
	err := row.Scan(
		&a.ID, &a.CompanyID, &a.ProductID, &a.WarehouseID, &a.Type, &a.Threshold, &a.CurrentAvailable,
		&a.RaisedAt, &a.IsRead, &a.ResolvedAt, &a.ResolvedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
