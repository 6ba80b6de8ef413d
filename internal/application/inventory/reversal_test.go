package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

var serviceRef = entity.Reference{Type: "service", ID: "SRV-1042"}

func (f *fixture) consume(t *testing.T, typ entity.MovementType, productID, warehouseID, qty string, cost ...string) {
	t.Helper()
	in := inventory.MovementInput{
		CompanyID: companyID, UserID: userID, ProductID: productID, WarehouseID: warehouseID,
		Type: typ, Quantity: d(qty), Reference: serviceRef,
	}
	if len(cost) > 0 {
		in.UnitCost = ptr(d(cost[0]))
	}
	_, err := f.ledger.RecordMovement(context.Background(), in)
	require.NoError(t, err)
}

func TestReverseReference_DevuelveSoloLoPendiente(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "10", "4")
	f.record(t, entity.MovementPurchase, prodFelt, whVan, "5", "8")

	f.consume(t, entity.MovementServiceConsumption, prodPin, whMain, "3")
	f.consume(t, entity.MovementServiceConsumption, prodFelt, whVan, "1")
	f.consume(t, entity.MovementReturnCustomer, prodPin, whMain, "1", "4")

	res, err := f.ledger.ReverseReference(ctx, inventory.ReverseInput{
		CompanyID: companyID, UserID: userID, Reference: serviceRef, Notes: "servicio anulado",
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	assert.NotEmpty(t, res.TransactionID)

	first, second := res.Movements[0], res.Movements[1]
	assert.Equal(t, prodPin, first.ProductID)
	assert.Equal(t, whMain, first.WarehouseID)
	assert.True(t, first.Quantity.Equal(d("2")))
	assert.Equal(t, prodFelt, second.ProductID)
	assert.True(t, second.Quantity.Equal(d("1")))
	for _, m := range res.Movements {
		assert.Equal(t, entity.MovementReturnCustomer, m.Type)
		assert.Equal(t, res.TransactionID, m.TransactionID)
		assert.Equal(t, serviceRef.ID, m.ReferenceID)
	}

	pin := f.level(t, prodPin, whMain)
	assert.True(t, pin.OnHand.Equal(d("10")), pin.OnHand.String())
	assert.True(t, pin.AvgCost.Equal(d("4")), pin.AvgCost.String())
	assert.True(t, f.level(t, prodFelt, whVan).OnHand.Equal(d("5")))

	_, err = f.ledger.ReverseReference(ctx, inventory.ReverseInput{CompanyID: companyID, UserID: userID, Reference: serviceRef})
	assert.ErrorIs(t, err, domain.ErrNothingToReverse)
}

func TestReverseReference_Validaciones(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.ledger.ReverseReference(ctx, inventory.ReverseInput{CompanyID: companyID})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// una referencia con solo entradas no tiene consumo que revertir
	_, err = f.ledger.RecordMovement(ctx, inventory.MovementInput{
		CompanyID: companyID, ProductID: prodPin, WarehouseID: whMain, Type: entity.MovementPurchase,
		Quantity: d("4"), UnitCost: ptr(d("3")), Reference: entity.Reference{Type: "purchase_order", ID: "PO-9"},
	})
	require.NoError(t, err)
	_, err = f.ledger.ReverseReference(ctx, inventory.ReverseInput{
		CompanyID: companyID, Reference: entity.Reference{Type: "purchase_order", ID: "PO-9"},
	})
	assert.ErrorIs(t, err, domain.ErrNothingToReverse)
}

func TestReverseReference_ConcurrenteDevuelveUnaSolaVez(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.record(t, entity.MovementPurchase, prodPin, whMain, "10", "4")
	f.consume(t, entity.MovementServiceConsumption, prodPin, whMain, "6")

	const workers = 8
	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		ok, nothing int
		other       []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ledger.ReverseReference(ctx, inventory.ReverseInput{CompanyID: companyID, Reference: serviceRef})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrNothingToReverse):
				nothing++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, nothing)
	assert.True(t, f.level(t, prodPin, whMain).OnHand.Equal(d("10")))

	res, err := f.ledger.RebuildProjection(ctx, companyID, prodPin, whMain)
	require.NoError(t, err)
	assert.False(t, res.Drift)
}
