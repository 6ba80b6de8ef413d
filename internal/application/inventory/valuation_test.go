package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

func TestValuation_TotalesPorBodega(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "10", "1.25")
	f.record(t, entity.MovementPurchase, prodFelt, whMain, "3", "7.333")
	f.record(t, entity.MovementPurchase, prodFelt, whVan, "2", "10")
	f.record(t, entity.MovementSale, prodFelt, whVan, "2")

	uc := inventory.NewValuationUseCase(f.store.Levels())
	report, err := uc.GetValuation(ctx, companyID, "")
	require.NoError(t, err)

	// 12.50 + 21.999 → 34.50; la fila vacía de la furgoneta no aparece
	assert.Equal(t, "34.50", report.TotalValue.StringFixed(2))
	assert.True(t, report.TotalUnits.Equal(d("13")))
	require.Len(t, report.Items, 2)
	require.Len(t, report.ByWarehouse, 1)
	assert.Equal(t, whMain, report.ByWarehouse[0].WarehouseID)
	assert.Equal(t, 2, report.ByWarehouse[0].Items)

	van, err := uc.GetValuation(ctx, companyID, whVan)
	require.NoError(t, err)
	assert.True(t, van.TotalValue.IsZero())
	assert.Empty(t, van.Items)
}
