package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest entrada para crear una bodega.
type CreateWarehouseRequest struct {
	Code      string `json:"code" validate:"required,min=1,max=50"`
	Name      string `json:"name" validate:"required,min=1,max=200"`
	Type      string `json:"type"` // central | vehicle | workshop | consignment (default central)
	Address   string `json:"address"`
	IsDefault bool   `json:"is_default"`
}

// UpdateWarehouseRequest entrada para actualizar una bodega.
type UpdateWarehouseRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=200"`
	Type      *string `json:"type"`
	Address   *string `json:"address"`
	IsDefault *bool   `json:"is_default"`
}

// WarehouseResponse salida de una bodega.
type WarehouseResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Address   string    `json:"address"`
	IsActive  bool      `json:"is_active"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WarehouseStatsResponse bodega con el resumen de su stock.
type WarehouseStatsResponse struct {
	WarehouseResponse
	TotalProducts      int             `json:"total_products"`
	TotalValue         decimal.Decimal `json:"total_value"`
	LowStockProducts   int             `json:"low_stock_products"`
	OutOfStockProducts int             `json:"out_of_stock_products"`
}

// WarehouseListResponse lista paginada de bodegas.
type WarehouseListResponse struct {
	Items []WarehouseResponse `json:"items"`
	Page  PageResponse        `json:"page"`
}
