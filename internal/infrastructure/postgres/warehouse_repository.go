package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, company_id, code, name, type, address, is_active, is_default, created_at, updated_at`

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega. Código repetido en la empresa → domain.ErrDuplicate.
func (r *WarehouseRepo) Create(ctx context.Context, w *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (` + warehouseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		w.ID, w.CompanyID, w.Code, w.Name, w.Type, w.Address, w.IsActive, w.IsDefault, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega por ID.
func (r *WarehouseRepo) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetByCode obtiene una bodega por su código dentro de la empresa.
func (r *WarehouseRepo) GetByCode(ctx context.Context, companyID, code string) (*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE company_id = $1 AND code = $2`
	return r.getOne(ctx, query, companyID, code)
}

func (r *WarehouseRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Warehouse, error) {
	w, err := scanWarehouse(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return w, nil
}

// Update actualiza una bodega existente.
func (r *WarehouseRepo) Update(ctx context.Context, w *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $2, type = $3, address = $4, is_active = $5, is_default = $6, updated_at = $7
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query, w.ID, w.Name, w.Type, w.Address, w.IsActive, w.IsDefault, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetDefault bodega predeterminada de la empresa, (nil, nil) si no hay.
func (r *WarehouseRepo) GetDefault(ctx context.Context, companyID string) (*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE company_id = $1 AND is_default`
	return r.getOne(ctx, query, companyID)
}

// SetDefault mueve la marca con un único UPDATE; la restricción de exclusión es diferida.
func (r *WarehouseRepo) SetDefault(ctx context.Context, companyID, id string, at time.Time) error {
	query := `
		UPDATE warehouses SET is_default = (id = $2), updated_at = $3
		WHERE company_id = $1 AND (is_default OR id = $2)`
	cmd, err := r.q.Exec(ctx, query, companyID, id, at)
	if err != nil {
		return fmt.Errorf("set default warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista bodegas por empresa ordenadas por código.
func (r *WarehouseRepo) ListByCompany(ctx context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Warehouse, error) {
	lim, off := pageArgs(limit, offset)
	query := `
		SELECT ` + warehouseColumns + `
		FROM warehouses
		WHERE company_id = $1 AND (NOT $2 OR is_active)
		ORDER BY code LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, activeOnly, lim, off)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	err := row.Scan(&w.ID, &w.CompanyID, &w.Code, &w.Name, &w.Type, &w.Address, &w.IsActive, &w.IsDefault, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
