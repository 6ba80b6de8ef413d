package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// ReverseInput entrada para revertir el consumo de repuestos de una referencia (servicio o venta).
type ReverseInput struct {
	CompanyID string
	UserID    string
	Reference entity.Reference
	Notes     string
}

// ReverseResult devoluciones escritas, todas con el mismo TransactionID.
type ReverseResult struct {
	TransactionID string
	Movements     []*entity.StockMovement
}

// ReverseReference devuelve al stock lo consumido por la referencia y aún no devuelto.
// Escribe un return_customer por fila, valorado al costo promedio vigente. Repetir la
// llamada no duplica devoluciones: sin saldo pendiente devuelve domain.ErrNothingToReverse.
func (l *Ledger) ReverseReference(ctx context.Context, in ReverseInput) (*ReverseResult, error) {
	started := time.Now()
	defer l.hooks.Observe("reverse_reference", started)

	if in.CompanyID == "" || in.Reference.IsZero() {
		return nil, fmt.Errorf("%w: la referencia es obligatoria", domain.ErrInvalidInput)
	}

	txID := uuid.New().String()
	var (
		res    *ReverseResult
		levels []*entity.StockLevel
	)
	err := RunWithRetry(ctx, l.txRunner, l.retry, func(r TxRepos) error {
		history, err := r.Movements.ListByReference(ctx, in.CompanyID, in.Reference)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		_, keys := outstanding(history)
		if len(keys) == 0 {
			return domain.ErrNothingToReverse
		}
		for _, k := range keys {
			if err := checkTarget(ctx, l.warehouseRepo, l.catalog, in.CompanyID, k.ProductID, k.WarehouseID); err != nil {
				return err
			}
		}
		locked, err := LockInOrder(ctx, r.Levels, in.CompanyID, keys...)
		if err != nil {
			return err
		}

		// con las filas bloqueadas, una reversión concurrente ya confirmada es visible
		history, err = r.Movements.ListByReference(ctx, in.CompanyID, in.Reference)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		net, keys := outstanding(history)
		if len(keys) == 0 {
			return domain.ErrNothingToReverse
		}

		res = &ReverseResult{TransactionID: txID}
		levels = levels[:0]
		for _, k := range keys {
			level, ok := locked[k]
			if !ok {
				if level, err = r.Levels.GetForUpdate(ctx, in.CompanyID, k); err != nil {
					return fmt.Errorf("get stock: %w", err)
				}
			}
			cost := level.AvgCost
			mov := l.newMovement(MovementInput{
				CompanyID: in.CompanyID, UserID: in.UserID, ProductID: k.ProductID,
				WarehouseID: k.WarehouseID, Type: entity.MovementReturnCustomer,
				Quantity: net[k], UnitCost: &cost, Reference: in.Reference, Notes: in.Notes,
			}, txID)
			if err := l.apply(ctx, r, level, mov); err != nil {
				return err
			}
			res.Movements = append(res.Movements, mov)
			levels = append(levels, level)
		}
		return nil
	})
	if err != nil {
		l.hooks.Failed("reverse_reference", err)
		return nil, fmt.Errorf("reverse reference: %w", err)
	}

	l.hooks.AfterCommit(ctx, in.CompanyID, txID, res.Movements, levels)
	return res, nil
}

// outstanding neto consumido y no devuelto por fila; solo las claves con saldo positivo, en orden de bloqueo.
func outstanding(history []*entity.StockMovement) (map[entity.StockKey]decimal.Decimal, []entity.StockKey) {
	net := make(map[entity.StockKey]decimal.Decimal)
	for _, m := range history {
		var delta decimal.Decimal
		switch {
		case m.Type.IsConsumption():
			delta = m.Quantity
		case m.Type == entity.MovementReturnCustomer:
			delta = m.Quantity.Neg()
		default:
			continue
		}
		k := entity.StockKey{ProductID: m.ProductID, WarehouseID: m.WarehouseID}
		net[k] = net[k].Add(delta)
	}
	keys := make([]entity.StockKey, 0, len(net))
	for k, q := range net {
		if q.IsPositive() {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return net, keys
}
