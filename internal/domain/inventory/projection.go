package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

// ApplyMovement aplica un movimiento sobre la proyección y rellena StockBefore/StockAfter.
// No muta la fila si el movimiento viola alguna invariante.
//
// Entradas con costo recalculan el costo promedio móvil; las salidas solo reducen cantidad.
// Una salida que deja onHand < 0 falla con ErrInsufficientStock; una que deja onHand < reserved
// falla con ErrInsufficientAvailableStock (el stock reservado solo se consume vía fulfill).
func ApplyMovement(level *entity.StockLevel, mov *entity.StockMovement) error {
	if !mov.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, mov.Type)
	}
	if !mov.Quantity.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}

	before := level.OnHand
	if mov.Type.IsInbound() {
		if mov.UnitCost != nil {
			level.AvgCost = CostCalculator(level.OnHand, level.AvgCost, mov.Quantity, *mov.UnitCost)
		}
		level.OnHand = level.OnHand.Add(mov.Quantity)
	} else {
		after := level.OnHand.Sub(mov.Quantity)
		if after.IsNegative() {
			return domain.ErrInsufficientStock
		}
		if after.LessThan(level.Reserved) {
			return domain.ErrInsufficientAvailableStock
		}
		level.OnHand = after
	}
	mov.StockBefore = before
	mov.StockAfter = level.OnHand
	return nil
}

// Replay recalcula onHand y costo promedio a partir del ledger, en orden de Seq.
// No valida invariantes: refleja exactamente lo que dice la historia.
func Replay(movements []*entity.StockMovement) (onHand, avgCost decimal.Decimal) {
	onHand, avgCost = decimal.Zero, decimal.Zero
	for _, m := range movements {
		if m.Type.IsInbound() && m.UnitCost != nil {
			avgCost = CostCalculator(onHand, avgCost, m.Quantity, *m.UnitCost)
		}
		onHand = onHand.Add(m.SignedQuantity())
	}
	return onHand, avgCost
}

// Status clasifica el stock de un producto frente a sus umbrales de reposición.
func Status(onHand, available decimal.Decimal, th entity.ReorderThresholds) entity.StockStatus {
	switch {
	case !onHand.IsPositive():
		return entity.StockStatusOutOfStock
	case available.LessThanOrEqual(th.MinStock):
		return entity.StockStatusCritical
	case available.LessThanOrEqual(th.ReorderPoint):
		return entity.StockStatusLow
	}
	return entity.StockStatusOK
}

// SuggestedQuantity cantidad a pedir: max(reorderQuantity, minStock - available).
func SuggestedQuantity(available decimal.Decimal, th entity.ReorderThresholds) decimal.Decimal {
	gap := th.MinStock.Sub(available)
	return decimal.Max(th.ReorderQuantity, gap)
}

// NeedsReorder available ≤ reorderPoint.
func NeedsReorder(available decimal.Decimal, th entity.ReorderThresholds) bool {
	return available.LessThanOrEqual(th.ReorderPoint)
}
