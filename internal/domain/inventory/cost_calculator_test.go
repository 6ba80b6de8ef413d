package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCostCalculator_PromedioPonderado(t *testing.T) {
	// (10 × 5 + 10 × 7) / 20 = 6
	got := inventory.CostCalculator(d("10"), d("5"), d("10"), d("7"))
	assert.True(t, got.Equal(d("6")), "got %s", got)
}

func TestCostCalculator_SinStockTomaCostoEntrada(t *testing.T) {
	got := inventory.CostCalculator(decimal.Zero, decimal.Zero, d("10"), d("5"))
	assert.True(t, got.Equal(d("5")), "got %s", got)

	// Stock negativo no pondera
	got = inventory.CostCalculator(d("-3"), d("100"), d("2"), d("8"))
	assert.True(t, got.Equal(d("8")), "got %s", got)
}

func TestCostCalculator_RedondeaMitadArriba(t *testing.T) {
	// (1 × 1 + 2 × 2) / 3 = 1.666666… → 1.6667
	got := inventory.CostCalculator(d("1"), d("1"), d("2"), d("2"))
	assert.Equal(t, "1.6667", got.StringFixed(inventory.CostScale))
}

// Un solo redondeo a CostScale: 1.000049999995 queda en 1.0000 y no sube a 1.0001.
func TestCostCalculator_RedondeaUnaSolaVez(t *testing.T) {
	got := inventory.CostCalculator(d("0"), d("0"), d("1"), d("1.000049999995"))
	assert.Equal(t, "1.0000", got.StringFixed(inventory.CostScale))

	half := inventory.CostCalculator(d("0"), d("0"), d("1"), d("1.00005"))
	assert.Equal(t, "1.0001", half.StringFixed(inventory.CostScale))
}

func TestHasValidScale(t *testing.T) {
	assert.True(t, inventory.HasValidScale(d("1.25")))
	assert.True(t, inventory.HasValidScale(d("3")))
	assert.False(t, inventory.HasValidScale(d("0.001")))
}
