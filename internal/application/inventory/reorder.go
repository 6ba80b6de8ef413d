package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// ReorderLine producto bajo punto de reorden con la cantidad sugerida.
type ReorderLine struct {
	ProductID     string
	SKU           string
	ProductName   string
	Available     decimal.Decimal
	ReorderPoint  decimal.Decimal
	MinStock      decimal.Decimal
	Quantity      decimal.Decimal
	UnitCost      decimal.Decimal
	EstimatedCost decimal.Decimal
}

// ReorderProposal borrador de orden de compra propuesto para un proveedor.
// SupplierID vacío agrupa productos sin proveedor preferido (no generan borrador).
type ReorderProposal struct {
	SupplierID    string
	WarehouseID   string
	Lines         []ReorderLine
	EstimatedCost decimal.Decimal
}

// ReorderPlanner genera sugerencias de reposición agrupadas por proveedor preferido.
// Solo lee la proyección y el catálogo.
type ReorderPlanner struct {
	levelRepo     repository.StockLevelRepository
	warehouseRepo repository.WarehouseRepository
	catalog       ProductCatalog
	suppliers     SupplierDirectory
}

// NewReorderPlanner construye el planificador de reposición.
func NewReorderPlanner(
	levelRepo repository.StockLevelRepository,
	warehouseRepo repository.WarehouseRepository,
	catalog ProductCatalog,
	suppliers SupplierDirectory,
) *ReorderPlanner {
	return &ReorderPlanner{
		levelRepo:     levelRepo,
		warehouseRepo: warehouseRepo,
		catalog:       catalog,
		suppliers:     suppliers,
	}
}

// Suggest recorre los productos inventariables con available ≤ reorderPoint en la bodega y
// propone una orden por proveedor con cantidad = max(reorderQuantity, minStock - available).
// Con warehouseID vacío compara el total de la empresa por producto y propone reponer la
// bodega predeterminada (WarehouseID vacío si la empresa no tiene una activa).
func (p *ReorderPlanner) Suggest(ctx context.Context, companyID, warehouseID string) ([]ReorderProposal, error) {
	var (
		levels []*entity.StockLevel
		target string
		err    error
	)
	if warehouseID == "" {
		target, err = p.defaultWarehouse(ctx, companyID)
		if err != nil {
			return nil, err
		}
		levels, err = p.levelRepo.ListByCompany(ctx, companyID)
	} else {
		var wh *entity.Warehouse
		if wh, err = p.warehouseRepo.GetByID(ctx, warehouseID); err != nil {
			return nil, fmt.Errorf("get warehouse: %w", err)
		}
		if wh == nil || wh.CompanyID != companyID || !wh.IsActive {
			return nil, domain.ErrUnknownProductOrWarehouse
		}
		target = warehouseID
		levels, err = p.levelRepo.ListByWarehouse(ctx, companyID, warehouseID)
	}
	if err != nil {
		return nil, fmt.Errorf("list stock: %w", err)
	}

	products, err := p.catalog.ListTracked(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	byProduct := aggregateByProduct(levels)

	groups := make(map[string]*ReorderProposal)
	for _, prod := range products {
		available, avgCost := decimal.Zero, decimal.Zero
		if l, ok := byProduct[prod.ID]; ok {
			available, avgCost = l.Available(), l.AvgCost
		}
		if !inventory.NeedsReorder(available, prod.Thresholds) {
			continue
		}
		qty := inventory.SuggestedQuantity(available, prod.Thresholds)
		if !qty.IsPositive() {
			continue
		}

		supplierID, unitCost := "", avgCost
		offer, err := p.suppliers.GetPreferredSupplier(ctx, companyID, prod.ID)
		if err != nil {
			return nil, fmt.Errorf("preferred supplier: %w", err)
		}
		if offer != nil {
			supplierID = offer.SupplierID
			if offer.UnitCost.IsPositive() {
				unitCost = offer.UnitCost
			}
		}

		g, ok := groups[supplierID]
		if !ok {
			g = &ReorderProposal{SupplierID: supplierID, WarehouseID: target}
			groups[supplierID] = g
		}
		line := ReorderLine{
			ProductID:     prod.ID,
			SKU:           prod.SKU,
			ProductName:   prod.Name,
			Available:     available,
			ReorderPoint:  prod.Thresholds.ReorderPoint,
			MinStock:      prod.Thresholds.MinStock,
			Quantity:      qty,
			UnitCost:      unitCost,
			EstimatedCost: qty.Mul(unitCost).Round(inventory.ValuationScale),
		}
		g.Lines = append(g.Lines, line)
		g.EstimatedCost = g.EstimatedCost.Add(line.EstimatedCost)
	}

	proposals := make([]ReorderProposal, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Lines, func(i, j int) bool {
			// Mayor déficit primero
			defI := g.Lines[i].ReorderPoint.Sub(g.Lines[i].Available)
			defJ := g.Lines[j].ReorderPoint.Sub(g.Lines[j].Available)
			if !defI.Equal(defJ) {
				return defI.GreaterThan(defJ)
			}
			return g.Lines[i].ProductID < g.Lines[j].ProductID
		})
		proposals = append(proposals, *g)
	}
	sort.Slice(proposals, func(i, j int) bool { return proposals[i].SupplierID < proposals[j].SupplierID })
	return proposals, nil
}

func (p *ReorderPlanner) defaultWarehouse(ctx context.Context, companyID string) (string, error) {
	wh, err := p.warehouseRepo.GetDefault(ctx, companyID)
	if err != nil {
		return "", fmt.Errorf("get default warehouse: %w", err)
	}
	if wh == nil || !wh.IsActive {
		return "", nil
	}
	return wh.ID, nil
}

// aggregateByProduct suma las filas de cada producto. Con varias filas el costo es el
// promedio ponderado por onHand.
func aggregateByProduct(levels []*entity.StockLevel) map[string]*entity.StockLevel {
	out := make(map[string]*entity.StockLevel, len(levels))
	value := make(map[string]decimal.Decimal, len(levels))
	rows := make(map[string]int, len(levels))
	for _, l := range levels {
		agg, ok := out[l.ProductID]
		if !ok {
			c := *l
			out[l.ProductID] = &c
			value[l.ProductID] = l.Value()
			rows[l.ProductID] = 1
			continue
		}
		agg.OnHand = agg.OnHand.Add(l.OnHand)
		agg.Reserved = agg.Reserved.Add(l.Reserved)
		value[l.ProductID] = value[l.ProductID].Add(l.Value())
		rows[l.ProductID]++
	}
	for id, agg := range out {
		if rows[id] > 1 && agg.OnHand.IsPositive() {
			agg.AvgCost = value[id].DivRound(agg.OnHand, inventory.CostScale)
		}
	}
	return out
}
