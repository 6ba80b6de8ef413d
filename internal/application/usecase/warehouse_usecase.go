package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/application/dto"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// ProductThresholds umbrales de los productos controlados, para las estadísticas por bodega.
type ProductThresholds interface {
	ListTracked(ctx context.Context, companyID string) ([]*entity.ProductRef, error)
}

// WarehouseUseCase registro de bodegas. Las bodegas no se eliminan, solo se desactivan.
type WarehouseUseCase struct {
	repo     repository.WarehouseRepository
	levels   repository.StockLevelRepository
	products ProductThresholds
}

// NewWarehouseUseCase construye el caso de uso. levels y products solo los usa GetWithStats.
func NewWarehouseUseCase(repo repository.WarehouseRepository, levels repository.StockLevelRepository, products ProductThresholds) *WarehouseUseCase {
	return &WarehouseUseCase{repo: repo, levels: levels, products: products}
}

// Create crea una nueva bodega activa. El código es único por empresa (ErrDuplicate).
func (uc *WarehouseUseCase) Create(ctx context.Context, companyID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: código y nombre son obligatorios", domain.ErrInvalidInput)
	}
	whType := entity.WarehouseTypeCentral
	if in.Type != "" {
		whType = entity.WarehouseType(in.Type)
	}
	if !whType.Valid() {
		return nil, fmt.Errorf("%w: tipo de bodega %q", domain.ErrInvalidInput, in.Type)
	}

	existing, err := uc.repo.GetByCode(ctx, companyID, code)
	if err != nil {
		return nil, fmt.Errorf("get warehouse by code: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Code:      code,
		Name:      name,
		Type:      whType,
		Address:   in.Address,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, warehouse); err != nil {
		return nil, err
	}
	if in.IsDefault {
		if err := uc.repo.SetDefault(ctx, companyID, warehouse.ID, now); err != nil {
			return nil, fmt.Errorf("set default warehouse: %w", err)
		}
		warehouse.IsDefault = true
	}
	return toWarehouseResponse(warehouse), nil
}

func (uc *WarehouseUseCase) load(ctx context.Context, companyID, id string) (*entity.Warehouse, error) {
	warehouse, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.ErrNotFound
	}
	if warehouse.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return warehouse, nil
}

// GetByID obtiene una bodega de la empresa.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza nombre, tipo o dirección. El código no cambia.
func (uc *WarehouseUseCase) Update(ctx context.Context, companyID, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("%w: nombre vacío", domain.ErrInvalidInput)
		}
		warehouse.Name = strings.TrimSpace(*in.Name)
	}
	if in.Type != nil {
		t := entity.WarehouseType(*in.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("%w: tipo de bodega %q", domain.ErrInvalidInput, *in.Type)
		}
		warehouse.Type = t
	}
	if in.Address != nil {
		warehouse.Address = *in.Address
	}
	makeDefault := false
	if in.IsDefault != nil {
		if *in.IsDefault && !warehouse.IsActive {
			return nil, fmt.Errorf("%w: una bodega inactiva no puede ser la predeterminada", domain.ErrInvalidInput)
		}
		makeDefault = *in.IsDefault && !warehouse.IsDefault
		if !*in.IsDefault {
			warehouse.IsDefault = false
		}
	}
	warehouse.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	if makeDefault {
		if err := uc.repo.SetDefault(ctx, companyID, warehouse.ID, warehouse.UpdatedAt); err != nil {
			return nil, fmt.Errorf("set default warehouse: %w", err)
		}
		warehouse.IsDefault = true
	}
	return toWarehouseResponse(warehouse), nil
}

// GetDefault bodega predeterminada activa de la empresa. Sin ella → ErrNotFound.
func (uc *WarehouseUseCase) GetDefault(ctx context.Context, companyID string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetDefault(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if warehouse == nil || !warehouse.IsActive {
		return nil, domain.ErrNotFound
	}
	return toWarehouseResponse(warehouse), nil
}

// GetWithStats bodega junto con el resumen de su stock valorado a costo promedio.
func (uc *WarehouseUseCase) GetWithStats(ctx context.Context, companyID, id string) (*dto.WarehouseStatsResponse, error) {
	warehouse, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	levels, err := uc.levels.ListByWarehouse(ctx, companyID, id)
	if err != nil {
		return nil, fmt.Errorf("list levels: %w", err)
	}
	products, err := uc.products.ListTracked(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list tracked products: %w", err)
	}
	thresholds := make(map[string]entity.ReorderThresholds, len(products))
	for _, p := range products {
		thresholds[p.ID] = p.Thresholds
	}

	out := &dto.WarehouseStatsResponse{
		WarehouseResponse: *toWarehouseResponse(warehouse),
		TotalValue:        decimal.Zero,
	}
	for _, l := range levels {
		out.TotalProducts++
		out.TotalValue = out.TotalValue.Add(l.Value())
		switch inventory.Status(l.OnHand, l.Available(), thresholds[l.ProductID]) {
		case entity.StockStatusOutOfStock:
			out.OutOfStockProducts++
		case entity.StockStatusLow, entity.StockStatusCritical:
			out.LowStockProducts++
		}
	}
	out.TotalValue = out.TotalValue.Round(inventory.ValuationScale)
	return out, nil
}

// SetActive activa o desactiva la bodega. Una bodega inactiva rechaza movimientos nuevos
// pero su historial sigue consultable.
func (uc *WarehouseUseCase) SetActive(ctx context.Context, companyID, id string, active bool) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if warehouse.IsActive == active {
		return toWarehouseResponse(warehouse), nil
	}
	warehouse.IsActive = active
	if !active {
		warehouse.IsDefault = false
	}
	warehouse.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, warehouse); err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// List lista bodegas por empresa con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, companyID string, activeOnly bool, page dto.PageRequest) (*dto.WarehouseListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.ListByCompany(ctx, companyID, activeOnly, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  page.Response(len(items)),
	}, nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		CompanyID: w.CompanyID,
		Code:      w.Code,
		Name:      w.Name,
		Type:      string(w.Type),
		Address:   w.Address,
		IsActive:  w.IsActive,
		IsDefault: w.IsDefault,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
