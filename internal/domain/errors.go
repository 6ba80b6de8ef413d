package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")
)

// Errores del motor de inventario. Cada uno implica una corrección distinta del lado del llamador.
var (
	ErrInsufficientStock          = errors.New("stock insuficiente")
	ErrInsufficientAvailableStock = errors.New("stock disponible insuficiente")
	ErrOverReservation            = errors.New("la reserva excede el stock disponible")
	ErrOverRelease                = errors.New("la liberación excede lo reservado para la referencia")
	ErrOverReceipt                = errors.New("la recepción excede la cantidad pedida")
	ErrSameWarehouseTransfer      = errors.New("la bodega de origen y destino son la misma")
	ErrUnknownProductOrWarehouse  = errors.New("producto o bodega desconocido o inactivo")
	ErrInvalidStateTransition     = errors.New("transición de estado no permitida")
	ErrNoStockChange              = errors.New("la cantidad nueva es igual a la actual")
	ErrNothingToReverse           = errors.New("la referencia no tiene consumo pendiente de revertir")

	// ErrConcurrencyTimeout es el único error reintentable: no se pudo tomar el bloqueo a tiempo.
	ErrConcurrencyTimeout = errors.New("tiempo de espera de bloqueo agotado")
)

// IsRetryable indica si el error puede reintentarse sin intervención del usuario.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyTimeout)
}
