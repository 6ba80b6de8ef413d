package purchasing_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/application/purchasing"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/memory"
)

const (
	companyID   = "company-1"
	buyerID     = "buyer-1"
	managerID   = "manager-1"
	warehouse   = "wh-main"
	bassStrings = "bass-string"
	damperFelt  = "damper-felt"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type countingPublisher struct{ byKey map[string]int }

func (p *countingPublisher) Publish(_ context.Context, routingKey string, _ any) error {
	p.byKey[routingKey]++
	return nil
}

type env struct {
	store     *memory.Store
	catalog   *memory.Catalog
	workflow  *purchasing.Workflow
	query     *inventory.StockQuery
	publisher *countingPublisher
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore(0)
	catalog := memory.NewCatalog()
	require.NoError(t, store.Warehouses().Create(context.Background(), &entity.Warehouse{
		ID: warehouse, CompanyID: companyID, Code: "MAIN", Name: "Central", Type: entity.WarehouseTypeCentral, IsActive: true,
	}))
	for _, id := range []string{bassStrings, damperFelt} {
		catalog.PutProduct(&entity.ProductRef{ID: id, CompanyID: companyID, SKU: id, Name: id, IsTracked: true})
	}

	pub := &countingPublisher{byKey: map[string]int{}}
	hooks := &inventory.Hooks{Publisher: pub, Logger: zerolog.Nop()}
	ledger := inventory.NewLedger(store, store.Warehouses(), catalog, hooks, inventory.DefaultRetryPolicy)
	wf := purchasing.NewWorkflow(store, store.Orders(), store.Warehouses(), catalog, ledger, hooks, inventory.DefaultRetryPolicy)
	return &env{
		store:     store,
		catalog:   catalog,
		workflow:  wf,
		query:     inventory.NewStockQuery(store.Levels(), store.Movements(), catalog, nil),
		publisher: pub,
	}
}

// approvedOrder crea una orden y la lleva hasta approved.
func (e *env) approvedOrder(t *testing.T, lines ...purchasing.LineInput) *entity.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po, err := e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, UserID: buyerID, SupplierID: "sup-1", WarehouseID: warehouse, Lines: lines,
	})
	require.NoError(t, err)
	_, err = e.workflow.Submit(ctx, companyID, po.ID, buyerID)
	require.NoError(t, err)
	po, err = e.workflow.Approve(ctx, companyID, po.ID, managerID)
	require.NoError(t, err)
	return po
}

func (e *env) onHand(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	l, err := e.query.GetStockLevel(context.Background(), companyID, productID, warehouse)
	require.NoError(t, err)
	return l.OnHand
}

func TestWorkflow_CrearAsignaNumeroYTotales(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	po, err := e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, UserID: buyerID, SupplierID: "sup-1", WarehouseID: warehouse,
		Lines: []purchasing.LineInput{
			{ProductID: bassStrings, Quantity: d("10"), UnitCost: d("4.50")},
			{ProductID: damperFelt, Quantity: d("2"), UnitCost: d("100"), DiscountPercent: d("5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusDraft, po.Status)
	assert.Equal(t, fmt.Sprintf("PO-%d-00001", time.Now().UTC().Year()), po.OrderNumber)
	assert.Equal(t, "235.00", po.Subtotal.StringFixed(2))

	second, err := e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, SupplierID: "sup-2", WarehouseID: warehouse,
	})
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("PO-%d-00002", time.Now().UTC().Year()), second.OrderNumber)

	// Sin líneas no se puede enviar a aprobación
	_, err = e.workflow.Submit(ctx, companyID, second.ID, buyerID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestWorkflow_CrearValidaEntradas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.workflow.Create(ctx, purchasing.CreateOrderInput{CompanyID: companyID, WarehouseID: warehouse})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, SupplierID: "sup-1", WarehouseID: "nope",
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProductOrWarehouse)

	_, err = e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, SupplierID: "sup-1", WarehouseID: warehouse,
		Lines: []purchasing.LineInput{{ProductID: "ghost", Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrUnknownProductOrWarehouse)

	_, err = e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, SupplierID: "sup-1", WarehouseID: warehouse,
		Lines: []purchasing.LineInput{{ProductID: bassStrings, Quantity: d("1"), DiscountPercent: d("120")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWorkflow_RecepcionParcialYCompleta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po := e.approvedOrder(t, purchasing.LineInput{ProductID: bassStrings, Quantity: d("10"), UnitCost: d("4")})
	po, err := e.workflow.MarkOrdered(ctx, companyID, po.ID, buyerID)
	require.NoError(t, err)
	require.NotNil(t, po.OrderDate)
	lineID := po.Lines[0].ID

	res, err := e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, UserID: buyerID, OrderID: po.ID,
		Lines: []purchasing.ReceiveLine{{LineID: lineID, Quantity: d("6"), BatchNumber: "L-1"}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusPartial, res.Order.Status)
	assert.True(t, res.Order.Lines[0].QuantityReceived.Equal(d("6")))
	assert.Nil(t, res.Order.ActualDeliveryDate)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementPurchase, res.Movements[0].Type)
	assert.Equal(t, purchasing.ReferenceTypePurchaseOrder, res.Movements[0].ReferenceType)
	assert.Equal(t, po.ID, res.Movements[0].ReferenceID)
	assert.Equal(t, "L-1", res.Movements[0].BatchNumber)

	res, err = e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, UserID: buyerID, OrderID: po.ID,
		Lines: []purchasing.ReceiveLine{{LineID: lineID, Quantity: d("4")}},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, res.Order.Status)
	assert.NotNil(t, res.Order.ActualDeliveryDate)
	assert.True(t, e.onHand(t, bassStrings).Equal(d("10")))

	purchases, err := e.query.ListMovements(ctx, entity.MovementFilter{CompanyID: companyID, Type: entity.MovementPurchase})
	require.NoError(t, err)
	assert.Len(t, purchases, 2)

	// received es terminal
	_, err = e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID, Lines: []purchasing.ReceiveLine{{LineID: lineID, Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = e.workflow.Cancel(ctx, companyID, po.ID, buyerID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	// draft → pending → approved → ordered → partial → received
	assert.Equal(t, 5, e.publisher.byKey[inventory.EventOrderStatusChanged])
}

func TestWorkflow_SobreRecepcionNoAplicaNada(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po := e.approvedOrder(t,
		purchasing.LineInput{ProductID: bassStrings, Quantity: d("5"), UnitCost: d("4")},
		purchasing.LineInput{ProductID: damperFelt, Quantity: d("2"), UnitCost: d("30")},
	)

	_, err := e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID,
		Lines: []purchasing.ReceiveLine{
			{LineID: po.Lines[0].ID, Quantity: d("5")},
			{LineID: po.Lines[1].ID, Quantity: d("3")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)

	assert.True(t, e.onHand(t, bassStrings).IsZero())
	assert.True(t, e.onHand(t, damperFelt).IsZero())
	got, err := e.workflow.Get(ctx, companyID, po.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusApproved, got.Status)
	assert.True(t, got.Lines[0].QuantityReceived.IsZero())

	// La misma línea repetida en una entrega también cuenta
	_, err = e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID,
		Lines: []purchasing.ReceiveLine{
			{LineID: po.Lines[1].ID, Quantity: d("1")},
			{LineID: po.Lines[1].ID, Quantity: d("2")},
		},
	})
	assert.ErrorIs(t, err, domain.ErrOverReceipt)
}

func TestWorkflow_RecepcionesConcurrentesNoExcedenLoPedido(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po := e.approvedOrder(t, purchasing.LineInput{ProductID: bassStrings, Quantity: d("10"), UnitCost: d("4")})
	lineID := po.Lines[0].ID

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, over int
		other    []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.workflow.Receive(ctx, purchasing.ReceiveInput{
				CompanyID: companyID, UserID: buyerID, OrderID: po.ID,
				Lines: []purchasing.ReceiveLine{{LineID: lineID, Quantity: d("3")}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrOverReceipt):
				over++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 3, ok)
	assert.Equal(t, workers-3, over)

	got, err := e.workflow.Get(ctx, companyID, po.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].QuantityReceived.Equal(d("9")))
	assert.True(t, got.Lines[0].QuantityReceived.LessThanOrEqual(got.Lines[0].QuantityOrdered))
	assert.Equal(t, entity.POStatusPartial, got.Status)
	assert.True(t, e.onHand(t, bassStrings).Equal(d("9")))
}

func TestWorkflow_RecepcionDesdeApprovedDirecta(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po := e.approvedOrder(t,
		purchasing.LineInput{ProductID: bassStrings, Quantity: d("5"), UnitCost: d("4")},
		purchasing.LineInput{ProductID: damperFelt, Quantity: d("2"), UnitCost: d("30")},
	)

	res, err := e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID,
		Lines: []purchasing.ReceiveLine{
			{LineID: po.Lines[1].ID, Quantity: d("2")},
			{LineID: po.Lines[0].ID, Quantity: d("5")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusReceived, res.Order.Status)
	assert.Len(t, res.Movements, 2)
	assert.Equal(t, res.TransactionID, res.Movements[0].TransactionID)
	assert.Equal(t, res.TransactionID, res.Movements[1].TransactionID)
}

func TestWorkflow_CancelarConservaRecepcionesPrevias(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po := e.approvedOrder(t, purchasing.LineInput{ProductID: bassStrings, Quantity: d("10"), UnitCost: d("4")})

	_, err := e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID, Lines: []purchasing.ReceiveLine{{LineID: po.Lines[0].ID, Quantity: d("3")}},
	})
	require.NoError(t, err)

	po, err = e.workflow.Cancel(ctx, companyID, po.ID, managerID)
	require.NoError(t, err)
	assert.Equal(t, entity.POStatusCancelled, po.Status)
	assert.Equal(t, managerID, po.CancelledBy)
	assert.True(t, e.onHand(t, bassStrings).Equal(d("3")), "cancelar no revierte movimientos")

	_, err = e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID, Lines: []purchasing.ReceiveLine{{LineID: po.Lines[0].ID, Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestWorkflow_TransicionesInvalidas(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	po, err := e.workflow.Create(ctx, purchasing.CreateOrderInput{
		CompanyID: companyID, SupplierID: "sup-1", WarehouseID: warehouse,
		Lines: []purchasing.LineInput{{ProductID: bassStrings, Quantity: d("1"), UnitCost: d("1")}},
	})
	require.NoError(t, err)

	_, err = e.workflow.Approve(ctx, companyID, po.ID, managerID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = e.workflow.MarkOrdered(ctx, companyID, po.ID, buyerID)
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	_, err = e.workflow.Receive(ctx, purchasing.ReceiveInput{
		CompanyID: companyID, OrderID: po.ID, Lines: []purchasing.ReceiveLine{{LineID: po.Lines[0].ID, Quantity: d("1")}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	_, err = e.workflow.Submit(ctx, "company-2", po.ID, buyerID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = e.workflow.Submit(ctx, companyID, "missing", buyerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Editar solo en draft
	po, err = e.workflow.UpdateDraft(ctx, purchasing.UpdateDraftInput{
		CompanyID: companyID, OrderID: po.ID, Notes: "urgente",
		Lines: []purchasing.LineInput{{ProductID: damperFelt, Quantity: d("4"), UnitCost: d("2.5")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", po.Subtotal.StringFixed(2))
	_, err = e.workflow.Submit(ctx, companyID, po.ID, buyerID)
	require.NoError(t, err)
	_, err = e.workflow.UpdateDraft(ctx, purchasing.UpdateDraftInput{CompanyID: companyID, OrderID: po.ID})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestWorkflow_CrearDesdeSugerencias(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	created, err := e.workflow.CreateFromProposals(ctx, companyID, buyerID, []inventory.ReorderProposal{
		{SupplierID: "", WarehouseID: warehouse, Lines: []inventory.ReorderLine{{ProductID: bassStrings, Quantity: d("3")}}},
		{SupplierID: "sup-9", WarehouseID: warehouse, Lines: []inventory.ReorderLine{
			{ProductID: bassStrings, Quantity: d("20"), UnitCost: d("1.5")},
			{ProductID: damperFelt, Quantity: d("4"), UnitCost: d("10")},
		}},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, "sup-9", created[0].SupplierID)
	assert.Equal(t, entity.POStatusDraft, created[0].Status)
	assert.Len(t, created[0].Lines, 2)

	list, err := e.workflow.List(ctx, entity.PurchaseOrderFilter{CompanyID: companyID, Status: entity.POStatusDraft})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
