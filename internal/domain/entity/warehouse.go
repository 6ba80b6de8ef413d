package entity

import "time"

// WarehouseType clasifica la ubicación física o virtual del stock.
type WarehouseType string

const (
	WarehouseTypeCentral     WarehouseType = "central"
	WarehouseTypeVehicle     WarehouseType = "vehicle"  // furgoneta de un técnico
	WarehouseTypeWorkshop    WarehouseType = "workshop" // taller
	WarehouseTypeConsignment WarehouseType = "consignment"
)

// Valid indica si el tipo pertenece al catálogo cerrado.
func (t WarehouseType) Valid() bool {
	switch t {
	case WarehouseTypeCentral, WarehouseTypeVehicle, WarehouseTypeWorkshop, WarehouseTypeConsignment:
		return true
	}
	return false
}

// Warehouse representa una bodega donde se almacena inventario (multi-bodega).
// Nunca se borra físicamente: los movimientos históricos deben seguir siendo atribuibles.
type Warehouse struct {
	ID        string
	CompanyID string
	Code      string // único por empresa
	Name      string
	Type      WarehouseType
	Address   string
	IsActive  bool
	IsDefault bool // a lo sumo una por empresa; destino de la reposición agregada
	CreatedAt time.Time
	UpdatedAt time.Time
}
