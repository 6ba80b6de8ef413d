package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

var (
	_ inventory.ProductCatalog    = (*CatalogRepo)(nil)
	_ inventory.SupplierDirectory = (*CatalogRepo)(nil)
)

// CatalogRepo lectura del catálogo de productos y proveedores. El inventario nunca escribe aquí.
type CatalogRepo struct {
	q Querier
}

// NewCatalogRepository construye el adaptador de lectura del catálogo.
func NewCatalogRepository(q Querier) *CatalogRepo {
	return &CatalogRepo{q: q}
}

// IsTracked false si el producto no existe, es de otra empresa o no controla stock.
func (r *CatalogRepo) IsTracked(ctx context.Context, companyID, productID string) (bool, error) {
	var tracked bool
	err := r.q.QueryRow(ctx,
		`SELECT is_tracked FROM products WHERE id = $1 AND company_id = $2`, productID, companyID,
	).Scan(&tracked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("product tracking: %w", err)
	}
	return tracked, nil
}

// GetReorderThresholds umbrales del producto.
func (r *CatalogRepo) GetReorderThresholds(ctx context.Context, companyID, productID string) (entity.ReorderThresholds, error) {
	var t entity.ReorderThresholds
	err := r.q.QueryRow(ctx, `
		SELECT min_stock, reorder_point, reorder_quantity
		FROM products WHERE id = $1 AND company_id = $2`, productID, companyID,
	).Scan(&t.MinStock, &t.ReorderPoint, &t.ReorderQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return t, domain.ErrNotFound
		}
		return t, fmt.Errorf("reorder thresholds: %w", err)
	}
	return t, nil
}

// ListTracked productos con control de stock ordenados por SKU.
func (r *CatalogRepo) ListTracked(ctx context.Context, companyID string) ([]*entity.ProductRef, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, company_id, sku, name, is_tracked, min_stock, reorder_point, reorder_quantity
		FROM products WHERE company_id = $1 AND is_tracked
		ORDER BY sku`, companyID)
	if err != nil {
		return nil, fmt.Errorf("list tracked products: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductRef
	for rows.Next() {
		var p entity.ProductRef
		if err := rows.Scan(
			&p.ID, &p.CompanyID, &p.SKU, &p.Name, &p.IsTracked,
			&p.Thresholds.MinStock, &p.Thresholds.ReorderPoint, &p.Thresholds.ReorderQuantity,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}

// GetPreferredSupplier (nil, nil) si el producto no tiene proveedor preferido.
func (r *CatalogRepo) GetPreferredSupplier(ctx context.Context, companyID, productID string) (*entity.SupplierOffer, error) {
	var o entity.SupplierOffer
	err := r.q.QueryRow(ctx, `
		SELECT sp.supplier_id, sp.unit_cost
		FROM supplier_products sp
		JOIN products p ON p.id = sp.product_id
		WHERE sp.product_id = $1 AND p.company_id = $2 AND sp.is_preferred`, productID, companyID,
	).Scan(&o.SupplierID, &o.UnitCost)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("preferred supplier: %w", err)
	}
	return &o, nil
}
