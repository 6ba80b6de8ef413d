package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/application/usecase"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/infrastructure/memory"
)

type warehouseRepoMock struct {
	mock.Mock
}

func (m *warehouseRepoMock) Create(ctx context.Context, w *entity.Warehouse) error {
	return m.Called(ctx, w).Error(0)
}

func (m *warehouseRepoMock) GetByID(ctx context.Context, id string) (*entity.Warehouse, error) {
	args := m.Called(ctx, id)
	w, _ := args.Get(0).(*entity.Warehouse)
	return w, args.Error(1)
}

func (m *warehouseRepoMock) GetByCode(ctx context.Context, companyID, code string) (*entity.Warehouse, error) {
	args := m.Called(ctx, companyID, code)
	w, _ := args.Get(0).(*entity.Warehouse)
	return w, args.Error(1)
}

func (m *warehouseRepoMock) Update(ctx context.Context, w *entity.Warehouse) error {
	return m.Called(ctx, w).Error(0)
}

func (m *warehouseRepoMock) GetDefault(ctx context.Context, companyID string) (*entity.Warehouse, error) {
	args := m.Called(ctx, companyID)
	w, _ := args.Get(0).(*entity.Warehouse)
	return w, args.Error(1)
}

func (m *warehouseRepoMock) SetDefault(ctx context.Context, companyID, id string, at time.Time) error {
	return m.Called(ctx, companyID, id, at).Error(0)
}

func (m *warehouseRepoMock) ListByCompany(ctx context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Warehouse, error) {
	args := m.Called(ctx, companyID, activeOnly, limit, offset)
	list, _ := args.Get(0).([]*entity.Warehouse)
	return list, args.Error(1)
}

func TestWarehouseUseCase_CrearNormalizaCodigo(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByCode", ctx, "c1", "VAN-2").Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(w *entity.Warehouse) bool {
		return w.Code == "VAN-2" && w.Type == entity.WarehouseTypeVehicle && w.IsActive
	})).Return(nil)

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	out, err := uc.Create(ctx, "c1", dto.CreateWarehouseRequest{Code: " van-2 ", Name: "Furgoneta 2", Type: "vehicle"})

	require.NoError(t, err)
	assert.Equal(t, "VAN-2", out.Code)
	assert.Equal(t, "vehicle", out.Type)
	assert.NotEmpty(t, out.ID)
	repo.AssertExpectations(t)
}

func TestWarehouseUseCase_CodigoDuplicado(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByCode", ctx, "c1", "MAIN").Return(&entity.Warehouse{ID: "w1", CompanyID: "c1", Code: "MAIN"}, nil)

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	_, err := uc.Create(ctx, "c1", dto.CreateWarehouseRequest{Code: "main", Name: "Central"})

	assert.ErrorIs(t, err, domain.ErrDuplicate)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestWarehouseUseCase_TipoInvalido(t *testing.T) {
	uc := usecase.NewWarehouseUseCase(&warehouseRepoMock{}, nil, nil)
	_, err := uc.Create(context.Background(), "c1", dto.CreateWarehouseRequest{Code: "X", Name: "X", Type: "garage"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWarehouseUseCase_OtraEmpresaEsForbidden(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByID", ctx, "w1").Return(&entity.Warehouse{ID: "w1", CompanyID: "otra"}, nil)

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	_, err := uc.GetByID(ctx, "c1", "w1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestWarehouseUseCase_Inexistente(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByID", ctx, "nope").Return(nil, nil)

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	_, err := uc.GetByID(ctx, "c1", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWarehouseUseCase_DesactivarPersisteSoloSiCambia(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByID", ctx, "w1").Return(&entity.Warehouse{ID: "w1", CompanyID: "c1", IsActive: true}, nil).Once()
	repo.On("Update", ctx, mock.MatchedBy(func(w *entity.Warehouse) bool { return !w.IsActive })).Return(nil).Once()

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	out, err := uc.SetActive(ctx, "c1", "w1", false)
	require.NoError(t, err)
	assert.False(t, out.IsActive)

	repo.On("GetByID", ctx, "w2").Return(&entity.Warehouse{ID: "w2", CompanyID: "c1", IsActive: false}, nil).Once()
	_, err = uc.SetActive(ctx, "c1", "w2", false)
	require.NoError(t, err)

	repo.AssertNumberOfCalls(t, "Update", 1)
}

func TestWarehouseUseCase_DesactivarQuitaPredeterminada(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByID", ctx, "w1").Return(&entity.Warehouse{ID: "w1", CompanyID: "c1", IsActive: true, IsDefault: true}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(w *entity.Warehouse) bool { return !w.IsActive && !w.IsDefault })).Return(nil)

	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	out, err := uc.SetActive(ctx, "c1", "w1", false)
	require.NoError(t, err)
	assert.False(t, out.IsDefault)
	repo.AssertExpectations(t)
}

func TestWarehouseUseCase_InactivaNoPuedeSerPredeterminada(t *testing.T) {
	ctx := context.Background()
	repo := &warehouseRepoMock{}
	repo.On("GetByID", ctx, "w1").Return(&entity.Warehouse{ID: "w1", CompanyID: "c1", IsActive: false}, nil)

	yes := true
	uc := usecase.NewWarehouseUseCase(repo, nil, nil)
	_, err := uc.Update(ctx, "c1", "w1", dto.UpdateWarehouseRequest{IsDefault: &yes})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	repo.AssertNotCalled(t, "SetDefault", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWarehouseUseCase_PredeterminadaUnicaPorEmpresa(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	uc := usecase.NewWarehouseUseCase(store.Warehouses(), store.Levels(), memory.NewCatalog())

	_, err := uc.GetDefault(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	central, err := uc.Create(ctx, "c1", dto.CreateWarehouseRequest{Code: "MAIN", Name: "Taller central", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, central.IsDefault)
	van, err := uc.Create(ctx, "c1", dto.CreateWarehouseRequest{Code: "VAN-1", Name: "Furgoneta 1", Type: "vehicle"})
	require.NoError(t, err)
	assert.False(t, van.IsDefault)

	got, err := uc.GetDefault(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, central.ID, got.ID)

	yes := true
	_, err = uc.Update(ctx, "c1", van.ID, dto.UpdateWarehouseRequest{IsDefault: &yes})
	require.NoError(t, err)

	got, err = uc.GetDefault(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, van.ID, got.ID)
	prev, err := uc.GetByID(ctx, "c1", central.ID)
	require.NoError(t, err)
	assert.False(t, prev.IsDefault)

	_, err = uc.GetDefault(ctx, "c2")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWarehouseUseCase_EstadisticasDeStock(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore(time.Second)
	catalog := memory.NewCatalog()
	uc := usecase.NewWarehouseUseCase(store.Warehouses(), store.Levels(), catalog)

	wh, err := uc.Create(ctx, "c1", dto.CreateWarehouseRequest{Code: "MAIN", Name: "Taller central"})
	require.NoError(t, err)

	th := entity.ReorderThresholds{
		MinStock:        decimal.NewFromInt(2),
		ReorderPoint:    decimal.NewFromInt(5),
		ReorderQuantity: decimal.NewFromInt(10),
	}
	for _, id := range []string{"felt", "string", "pin"} {
		catalog.PutProduct(&entity.ProductRef{ID: id, CompanyID: "c1", SKU: id, Name: id, IsTracked: true, Thresholds: th})
	}
	put := func(productID, onHand, avgCost string) {
		require.NoError(t, store.Levels().Upsert(ctx, &entity.StockLevel{
			CompanyID: "c1", ProductID: productID, WarehouseID: wh.ID,
			OnHand: decimal.RequireFromString(onHand), AvgCost: decimal.RequireFromString(avgCost),
		}))
	}
	put("felt", "20", "1.5000")  // ok
	put("string", "4", "2.3333") // bajo
	put("pin", "0", "0.7500")    // agotado

	out, err := uc.GetWithStats(ctx, "c1", wh.ID)
	require.NoError(t, err)
	assert.Equal(t, wh.ID, out.ID)
	assert.Equal(t, 3, out.TotalProducts)
	assert.Equal(t, 1, out.LowStockProducts)
	assert.Equal(t, 1, out.OutOfStockProducts)
	// 20×1.5 + 4×2.3333 = 39.3332
	assert.Equal(t, "39.33", out.TotalValue.StringFixed(2))

	_, err = uc.GetWithStats(ctx, "c2", wh.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
