package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

const orderColumns = `id, company_id, order_number, supplier_id, warehouse_id, status,
	expected_delivery_date, order_date, actual_delivery_date, notes, subtotal,
	created_by, approved_by, cancelled_by, created_at, updated_at`

const orderLineColumns = `id, purchase_order_id, product_id, quantity_ordered, quantity_received,
	unit_cost, tax_rate, discount_percent, line_total, notes`

// PurchaseOrderRepo órdenes de compra y sus líneas (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta cabecera y líneas. Se espera que corra dentro de una tx.
func (r *PurchaseOrderRepo) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		po.ID, po.CompanyID, po.OrderNumber, po.SupplierID, po.WarehouseID, po.Status,
		po.ExpectedDeliveryDate, po.OrderDate, po.ActualDeliveryDate, po.Notes, po.Subtotal,
		po.CreatedBy, po.ApprovedBy, po.CancelledBy, po.CreatedAt, po.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return mapLockError(fmt.Errorf("insert purchase order: %w", err))
	}
	return r.insertLines(ctx, po)
}

// GetByID devuelve (nil, nil) si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1`, id)
}

// GetForUpdate bloquea la cabecera; las líneas solo se tocan a través de ella.
func (r *PurchaseOrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := r.get(ctx, `SELECT `+orderColumns+` FROM purchase_orders WHERE id = $1 FOR UPDATE`, id)
	return po, mapLockError(err)
}

func (r *PurchaseOrderRepo) get(ctx context.Context, query string, id string) (*entity.PurchaseOrder, error) {
	po, err := scanOrder(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if err := r.loadLines(ctx, []*entity.PurchaseOrder{po}); err != nil {
		return nil, err
	}
	return po, nil
}

// Update persiste la cabecera y reemplaza las líneas.
func (r *PurchaseOrderRepo) Update(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		UPDATE purchase_orders SET
			supplier_id = $2, warehouse_id = $3, status = $4,
			expected_delivery_date = $5, order_date = $6, actual_delivery_date = $7,
			notes = $8, subtotal = $9, approved_by = $10, cancelled_by = $11, updated_at = $12
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		po.ID, po.SupplierID, po.WarehouseID, po.Status,
		po.ExpectedDeliveryDate, po.OrderDate, po.ActualDeliveryDate,
		po.Notes, po.Subtotal, po.ApprovedBy, po.CancelledBy, po.UpdatedAt,
	)
	if err != nil {
		return mapLockError(fmt.Errorf("update purchase order: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM purchase_order_lines WHERE purchase_order_id = $1`, po.ID); err != nil {
		return fmt.Errorf("delete purchase order lines: %w", err)
	}
	return r.insertLines(ctx, po)
}

func (r *PurchaseOrderRepo) insertLines(ctx context.Context, po *entity.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_order_lines (position, ` + orderLineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for i, l := range po.Lines {
		_, err := r.q.Exec(ctx, query, i,
			l.ID, po.ID, l.ProductID, l.QuantityOrdered, l.QuantityReceived,
			l.UnitCost, l.TaxRate, l.DiscountPercent, l.LineTotal, l.Notes,
		)
		if err != nil {
			return fmt.Errorf("insert purchase order line: %w", err)
		}
	}
	return nil
}

// List órdenes filtradas, número de orden descendente.
func (r *PurchaseOrderRepo) List(ctx context.Context, f entity.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	where := []string{"company_id = $1"}
	args := []any{f.CompanyID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.SupplierID != "" {
		add("supplier_id = $%d", f.SupplierID)
	}
	if f.WarehouseID != "" {
		add("warehouse_id = $%d", f.WarehouseID)
	}
	lim, off := pageArgs(f.Limit, f.Offset)
	args = append(args, lim, off)
	query := fmt.Sprintf(`
		SELECT %s FROM purchase_orders
		WHERE %s
		ORDER BY order_number DESC LIMIT $%d OFFSET $%d`,
		orderColumns, strings.Join(where, " AND "), len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	var list []*entity.PurchaseOrder
	for rows.Next() {
		po, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		list = append(list, po)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// NextOrderNumber incrementa el contador anual; la fila queda bloqueada hasta el fin de la tx.
func (r *PurchaseOrderRepo) NextOrderNumber(ctx context.Context, companyID string, year int) (int, error) {
	query := `
		INSERT INTO purchase_order_sequences (company_id, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (company_id, year) DO UPDATE SET last_value = purchase_order_sequences.last_value + 1
		RETURNING last_value`
	var next int
	if err := r.q.QueryRow(ctx, query, companyID, year).Scan(&next); err != nil {
		return 0, mapLockError(fmt.Errorf("next order number: %w", err))
	}
	return next, nil
}

func (r *PurchaseOrderRepo) loadLines(ctx context.Context, orders []*entity.PurchaseOrder) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*entity.PurchaseOrder, len(orders))
	ids := make([]string, 0, len(orders))
	for _, po := range orders {
		byID[po.ID] = po
		ids = append(ids, po.ID)
	}
	query := `
		SELECT ` + orderLineColumns + `
		FROM purchase_order_lines
		WHERE purchase_order_id = ANY($1)
		ORDER BY purchase_order_id, position`
	rows, err := r.q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list purchase order lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.PurchaseOrderLine
		if err := rows.Scan(
			&l.ID, &l.PurchaseOrderID, &l.ProductID, &l.QuantityOrdered, &l.QuantityReceived,
			&l.UnitCost, &l.TaxRate, &l.DiscountPercent, &l.LineTotal, &l.Notes,
		); err != nil {
			return fmt.Errorf("scan purchase order line: %w", err)
		}
		if po := byID[l.PurchaseOrderID]; po != nil {
			po.Lines = append(po.Lines, &l)
		}
	}
	return rows.Err()
}

func scanOrder(row pgx.Row) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := row.Scan(
		&po.ID, &po.CompanyID, &po.OrderNumber, &po.SupplierID, &po.WarehouseID, &po.Status,
		&po.ExpectedDeliveryDate, &po.OrderDate, &po.ActualDeliveryDate, &po.Notes, &po.Subtotal,
		&po.CreatedBy, &po.ApprovedBy, &po.CancelledBy, &po.CreatedAt, &po.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &po, nil
}
