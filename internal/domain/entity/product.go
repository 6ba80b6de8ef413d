package entity

import "github.com/shopspring/decimal"

// ReorderThresholds son los umbrales de reposición que el catálogo define por producto.
type ReorderThresholds struct {
	MinStock        decimal.Decimal
	ReorderPoint    decimal.Decimal
	ReorderQuantity decimal.Decimal
}

// ProductRef es la vista mínima del catálogo de productos que consume el inventario.
type ProductRef struct {
	ID         string
	CompanyID  string
	SKU        string
	Name       string
	IsTracked  bool
	Thresholds ReorderThresholds
}

// SupplierOffer es el proveedor preferido de un producto y su último costo pactado.
type SupplierOffer struct {
	SupplierID string
	UnitCost   decimal.Decimal
}
