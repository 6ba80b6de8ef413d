package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

func TestStockQuery_TotalesYEstado(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "3", "1")
	f.record(t, entity.MovementPurchase, prodPin, whVan, "1", "1")

	total, err := f.query.GetTotalStock(ctx, companyID, prodPin)
	require.NoError(t, err)
	assert.True(t, total.Equal(d("4")))

	status, err := f.query.GetStockStatus(ctx, companyID, prodPin)
	require.NoError(t, err)
	assert.Equal(t, entity.StockStatusLow, status.Status)

	_, err = f.query.GetStockStatus(ctx, companyID, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty, err := f.query.GetAvailableStock(ctx, companyID, prodFelt, whMain)
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestStockQuery_CheckAvailabilityAcumulaPiezasRepetidas(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whVan, "5", "1")

	results, all, err := f.query.CheckAvailability(ctx, companyID, []inventory.AvailabilityItem{
		{ProductID: prodPin, WarehouseID: whVan, Quantity: d("3")},
		{ProductID: prodPin, WarehouseID: whVan, Quantity: d("3")},
	})
	require.NoError(t, err)
	assert.False(t, all)
	require.Len(t, results, 2)
	assert.False(t, results[0].Sufficient)

	_, all, err = f.query.CheckAvailability(ctx, companyID, []inventory.AvailabilityItem{
		{ProductID: prodPin, WarehouseID: whVan, Quantity: d("5")},
	})
	require.NoError(t, err)
	assert.True(t, all)

	_, _, err = f.query.CheckAvailability(ctx, companyID, []inventory.AvailabilityItem{{ProductID: prodPin}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockQuery_Movimientos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.record(t, entity.MovementPurchase, prodPin, whMain, "3", "1")
	f.record(t, entity.MovementSale, prodPin, whMain, "1")

	sales, err := f.query.ListMovements(ctx, entity.MovementFilter{CompanyID: companyID, Type: entity.MovementSale})
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	_, err = f.query.ListMovements(ctx, entity.MovementFilter{CompanyID: companyID, Type: "gift"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := f.query.GetMovement(ctx, companyID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Seq)

	_, err = f.query.GetMovement(ctx, "company-2", m.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestStockQuery_MovimientosPorReferencia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "5", "1")
	f.consume(t, entity.MovementServiceConsumption, prodPin, whMain, "2")
	_, err := f.ledger.RecordMovement(ctx, inventory.MovementInput{
		CompanyID: companyID, ProductID: prodPin, WarehouseID: whMain, Type: entity.MovementSale,
		Quantity: d("1"), Reference: entity.Reference{Type: "service", ID: "SRV-2000"},
	})
	require.NoError(t, err)

	list, err := f.query.ListMovements(ctx, entity.MovementFilter{
		CompanyID: companyID, ReferenceType: serviceRef.Type, ReferenceID: serviceRef.ID,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.MovementServiceConsumption, list[0].Type)

	byType, err := f.query.ListMovements(ctx, entity.MovementFilter{CompanyID: companyID, ReferenceType: "service"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)
}

func TestStockQuery_CacheEscribeConLaVersionLeida(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "5", "1")

	cache := &cacheMock{}
	cache.On("GetLevels", ctx, companyID, prodPin).Return(nil, int64(7), false).Once()
	cache.On("SetLevels", ctx, companyID, prodPin, int64(7), mock.MatchedBy(func(l []*entity.StockLevel) bool {
		return len(l) == 1 && l[0].OnHand.Equal(d("5"))
	})).Once()

	q := inventory.NewStockQuery(f.store.Levels(), f.store.Movements(), f.catalog, cache)
	levels, err := q.GetStockLevels(ctx, companyID, prodPin)
	require.NoError(t, err)
	require.Len(t, levels, 1)

	cached := []*entity.StockLevel{{CompanyID: companyID, ProductID: prodPin, WarehouseID: whMain, OnHand: d("99")}}
	cache.On("GetLevels", ctx, companyID, prodPin).Return(cached, int64(7), true).Once()
	levels, err = q.GetStockLevels(ctx, companyID, prodPin)
	require.NoError(t, err)
	assert.True(t, levels[0].OnHand.Equal(d("99")), "un hit no consulta la proyección")

	cache.AssertExpectations(t)
}
