package inventory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/piano-stock-api/pkg/metrics"
)

const (
	companyID = "company-1"
	userID    = "tech-1"
	whMain    = "wh-main"
	whVan     = "wh-van"
	prodPin   = "tuning-pin"
	prodFelt  = "hammer-felt"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(v decimal.Decimal) *decimal.Decimal { return &v }

// recorder publicador que guarda lo publicado.
type recorder struct {
	mu     sync.Mutex
	events map[string][]any
}

func (r *recorder) Publish(_ context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.events == nil {
		r.events = make(map[string][]any)
	}
	r.events[routingKey] = append(r.events[routingKey], payload)
	return nil
}

func (r *recorder) count(routingKey string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events[routingKey])
}

type fixture struct {
	store     *memory.Store
	catalog   *memory.Catalog
	publisher *recorder
	metrics   *metrics.Metrics
	alerts    *inventory.AlertEngine
	hooks     *inventory.Hooks
	ledger    *inventory.Ledger
	query     *inventory.StockQuery
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore(500 * time.Millisecond)
	catalog := memory.NewCatalog()
	pub := &recorder{}
	m := metrics.New(prometheus.NewRegistry())
	alerts := inventory.NewAlertEngine(store.Levels(), store.Alerts(), catalog, pub, m, zerolog.Nop())
	hooks := &inventory.Hooks{Alerts: alerts, Publisher: pub, Metrics: m, Logger: zerolog.Nop()}

	for _, w := range []*entity.Warehouse{
		{ID: whMain, CompanyID: companyID, Code: "MAIN", Name: "Taller central", Type: entity.WarehouseTypeCentral, IsActive: true},
		{ID: whVan, CompanyID: companyID, Code: "VAN1", Name: "Furgoneta 1", Type: entity.WarehouseTypeVehicle, IsActive: true},
		{ID: "wh-closed", CompanyID: companyID, Code: "OLD", Name: "Cerrada", Type: entity.WarehouseTypeCentral},
	} {
		require.NoError(t, store.Warehouses().Create(ctx, w))
	}
	catalog.PutProduct(&entity.ProductRef{
		ID: prodPin, CompanyID: companyID, SKU: "PIN-7", Name: "Clavija de afinación", IsTracked: true,
		Thresholds: entity.ReorderThresholds{MinStock: d("2"), ReorderPoint: d("5"), ReorderQuantity: d("20")},
	})
	catalog.PutProduct(&entity.ProductRef{
		ID: prodFelt, CompanyID: companyID, SKU: "FELT-1", Name: "Fieltro de martillo", IsTracked: true,
		Thresholds: entity.ReorderThresholds{MinStock: d("10"), ReorderPoint: d("4"), ReorderQuantity: d("5")},
	})
	catalog.PutProduct(&entity.ProductRef{ID: "service-fee", CompanyID: companyID, SKU: "SRV", Name: "Mano de obra"})

	ledger := inventory.NewLedger(store, store.Warehouses(), catalog, hooks, inventory.DefaultRetryPolicy)
	return &fixture{
		store:     store,
		catalog:   catalog,
		publisher: pub,
		metrics:   m,
		alerts:    alerts,
		hooks:     hooks,
		ledger:    ledger,
		query:     inventory.NewStockQuery(store.Levels(), store.Movements(), catalog, nil),
	}
}

func (f *fixture) record(t *testing.T, typ entity.MovementType, productID, warehouseID, qty string, cost ...string) *entity.StockMovement {
	t.Helper()
	in := inventory.MovementInput{
		CompanyID: companyID, UserID: userID, ProductID: productID, WarehouseID: warehouseID,
		Type: typ, Quantity: d(qty),
	}
	if len(cost) > 0 {
		in.UnitCost = ptr(d(cost[0]))
	}
	m, err := f.ledger.RecordMovement(context.Background(), in)
	require.NoError(t, err)
	return m
}

func (f *fixture) level(t *testing.T, productID, warehouseID string) *entity.StockLevel {
	t.Helper()
	l, err := f.query.GetStockLevel(context.Background(), companyID, productID, warehouseID)
	require.NoError(t, err)
	return l
}
