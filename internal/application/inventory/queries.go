package inventory

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// StockQuery consultas de solo lectura sobre la última proyección confirmada.
// Pueden devolver datos algo viejos (caché); nunca se usan para autorizar una mutación.
type StockQuery struct {
	levelRepo    repository.StockLevelRepository
	movementRepo repository.StockMovementRepository
	catalog      ProductCatalog
	cache        LevelCache
}

// NewStockQuery construye el caso de uso. cache puede ser nil.
func NewStockQuery(
	levelRepo repository.StockLevelRepository,
	movementRepo repository.StockMovementRepository,
	catalog ProductCatalog,
	cache LevelCache,
) *StockQuery {
	return &StockQuery{levelRepo: levelRepo, movementRepo: movementRepo, catalog: catalog, cache: cache}
}

// AvailabilityItem pieza requerida por un servicio.
type AvailabilityItem struct {
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
}

// AvailabilityResult resultado por pieza de CheckAvailability.
type AvailabilityResult struct {
	AvailabilityItem
	Available  decimal.Decimal
	Sufficient bool
}

// StockStatusResult estado de un producto sumando todas sus bodegas.
type StockStatusResult struct {
	ProductID  string
	OnHand     decimal.Decimal
	Reserved   decimal.Decimal
	Available  decimal.Decimal
	Status     entity.StockStatus
	Thresholds entity.ReorderThresholds
}

// GetStockLevels filas de un producto en todas las bodegas.
func (q *StockQuery) GetStockLevels(ctx context.Context, companyID, productID string) ([]*entity.StockLevel, error) {
	var version int64
	if q.cache != nil {
		levels, v, hit := q.cache.GetLevels(ctx, companyID, productID)
		if hit {
			return levels, nil
		}
		version = v
	}
	levels, err := q.levelRepo.ListByProduct(ctx, companyID, productID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	if q.cache != nil {
		q.cache.SetLevels(ctx, companyID, productID, version, levels)
	}
	return levels, nil
}

// ListWarehouseStock filas de una bodega.
func (q *StockQuery) ListWarehouseStock(ctx context.Context, companyID, warehouseID string) ([]*entity.StockLevel, error) {
	levels, err := q.levelRepo.ListByWarehouse(ctx, companyID, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}
	return levels, nil
}

// GetStockLevel fila de una clave; en cero si nunca tuvo movimientos.
func (q *StockQuery) GetStockLevel(ctx context.Context, companyID, productID, warehouseID string) (*entity.StockLevel, error) {
	level, err := q.levelRepo.Get(ctx, companyID, entity.StockKey{ProductID: productID, WarehouseID: warehouseID})
	if err != nil {
		return nil, fmt.Errorf("get stock: %w", err)
	}
	return level, nil
}

// GetAvailableStock disponible (onHand - reserved) en una bodega.
func (q *StockQuery) GetAvailableStock(ctx context.Context, companyID, productID, warehouseID string) (decimal.Decimal, error) {
	level, err := q.GetStockLevel(ctx, companyID, productID, warehouseID)
	if err != nil {
		return decimal.Zero, err
	}
	return level.Available(), nil
}

// GetTotalStock stock físico sumando todas las bodegas.
func (q *StockQuery) GetTotalStock(ctx context.Context, companyID, productID string) (decimal.Decimal, error) {
	levels, err := q.GetStockLevels(ctx, companyID, productID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, l := range levels {
		total = total.Add(l.OnHand)
	}
	return total, nil
}

// GetStockStatus clasifica el producto (ok, low, critical, out_of_stock) con el total de bodegas.
func (q *StockQuery) GetStockStatus(ctx context.Context, companyID, productID string) (*StockStatusResult, error) {
	th, err := q.catalog.GetReorderThresholds(ctx, companyID, productID)
	if err != nil {
		return nil, fmt.Errorf("get thresholds: %w", err)
	}
	levels, err := q.GetStockLevels(ctx, companyID, productID)
	if err != nil {
		return nil, err
	}
	res := &StockStatusResult{ProductID: productID, Thresholds: th}
	for _, l := range levels {
		res.OnHand = res.OnHand.Add(l.OnHand)
		res.Reserved = res.Reserved.Add(l.Reserved)
	}
	res.Available = res.OnHand.Sub(res.Reserved)
	res.Status = inventory.Status(res.OnHand, res.Available, th)
	return res, nil
}

// CheckAvailability verifica si hay disponible suficiente para una lista de piezas.
// Las piezas repetidas se acumulan por clave.
func (q *StockQuery) CheckAvailability(ctx context.Context, companyID string, items []AvailabilityItem) ([]AvailabilityResult, bool, error) {
	need := make(map[entity.StockKey]decimal.Decimal, len(items))
	for _, it := range items {
		if it.ProductID == "" || it.WarehouseID == "" || !it.Quantity.IsPositive() {
			return nil, false, fmt.Errorf("%w: pieza inválida", domain.ErrInvalidInput)
		}
		k := entity.StockKey{ProductID: it.ProductID, WarehouseID: it.WarehouseID}
		need[k] = need[k].Add(it.Quantity)
	}

	all := true
	out := make([]AvailabilityResult, 0, len(items))
	for _, it := range items {
		available, err := q.GetAvailableStock(ctx, companyID, it.ProductID, it.WarehouseID)
		if err != nil {
			return nil, false, err
		}
		k := entity.StockKey{ProductID: it.ProductID, WarehouseID: it.WarehouseID}
		ok := available.GreaterThanOrEqual(need[k])
		all = all && ok
		out = append(out, AvailabilityResult{AvailabilityItem: it, Available: available, Sufficient: ok})
	}
	return out, all, nil
}

// ListMovements historial filtrado del ledger.
func (q *StockQuery) ListMovements(ctx context.Context, filter entity.MovementFilter) ([]*entity.StockMovement, error) {
	if filter.CompanyID == "" {
		return nil, fmt.Errorf("%w: empresa obligatoria", domain.ErrInvalidInput)
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, filter.Type)
	}
	list, err := q.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return list, nil
}

// GetMovement movimiento por ID dentro de la empresa.
func (q *StockQuery) GetMovement(ctx context.Context, companyID, id string) (*entity.StockMovement, error) {
	m, err := q.movementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get movement: %w", err)
	}
	if m == nil {
		return nil, domain.ErrNotFound
	}
	if m.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return m, nil
}
