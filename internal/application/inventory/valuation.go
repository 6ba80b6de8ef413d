package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// ValuationItem valor de un producto en una bodega.
type ValuationItem struct {
	ProductID   string
	WarehouseID string
	OnHand      decimal.Decimal
	AvgCost     decimal.Decimal
	Value       decimal.Decimal
}

// WarehouseValuation totales de una bodega.
type WarehouseValuation struct {
	WarehouseID string
	TotalUnits  decimal.Decimal
	TotalValue  decimal.Decimal
	Items       int
}

// ValuationReport agregación de solo lectura sobre StockLevel × AvgCost.
type ValuationReport struct {
	TotalValue  decimal.Decimal
	TotalUnits  decimal.Decimal
	Items       []ValuationItem
	ByWarehouse []WarehouseValuation
}

// ValuationUseCase consultas de valoración de inventario al costo promedio móvil.
type ValuationUseCase struct {
	levelRepo repository.StockLevelRepository
}

// NewValuationUseCase construye el caso de uso.
func NewValuationUseCase(levelRepo repository.StockLevelRepository) *ValuationUseCase {
	return &ValuationUseCase{levelRepo: levelRepo}
}

// GetValuation valora el inventario de la empresa; warehouseID vacío incluye todas las bodegas.
// Las filas sin stock no aparecen en el detalle.
func (uc *ValuationUseCase) GetValuation(ctx context.Context, companyID, warehouseID string) (*ValuationReport, error) {
	var (
		levels []*entity.StockLevel
		err    error
	)
	if warehouseID != "" {
		levels, err = uc.levelRepo.ListByWarehouse(ctx, companyID, warehouseID)
	} else {
		levels, err = uc.levelRepo.ListByCompany(ctx, companyID)
	}
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}

	report := &ValuationReport{Items: []ValuationItem{}, ByWarehouse: []WarehouseValuation{}}
	byWh := make(map[string]*WarehouseValuation)
	for _, l := range levels {
		if l.OnHand.IsZero() {
			continue
		}
		value := l.Value()
		report.Items = append(report.Items, ValuationItem{
			ProductID:   l.ProductID,
			WarehouseID: l.WarehouseID,
			OnHand:      l.OnHand,
			AvgCost:     l.AvgCost,
			Value:       value.Round(inventory.ValuationScale),
		})
		report.TotalValue = report.TotalValue.Add(value)
		report.TotalUnits = report.TotalUnits.Add(l.OnHand)

		w, ok := byWh[l.WarehouseID]
		if !ok {
			w = &WarehouseValuation{WarehouseID: l.WarehouseID}
			byWh[l.WarehouseID] = w
		}
		w.TotalValue = w.TotalValue.Add(value)
		w.TotalUnits = w.TotalUnits.Add(l.OnHand)
		w.Items++
	}
	report.TotalValue = report.TotalValue.Round(inventory.ValuationScale)

	for _, w := range byWh {
		w.TotalValue = w.TotalValue.Round(inventory.ValuationScale)
		report.ByWarehouse = append(report.ByWarehouse, *w)
	}
	sort.Slice(report.ByWarehouse, func(i, j int) bool {
		return report.ByWarehouse[i].WarehouseID < report.ByWarehouse[j].WarehouseID
	})
	sort.Slice(report.Items, func(i, j int) bool {
		if report.Items[i].WarehouseID != report.Items[j].WarehouseID {
			return report.Items[i].WarehouseID < report.Items[j].WarehouseID
		}
		return report.Items[i].ProductID < report.Items[j].ProductID
	})
	return report, nil
}
