package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// ReservationManager aparta stock para trabajos pendientes sin tocar el stock físico hasta el consumo.
// Es el único escritor de StockLevel.Reserved.
type ReservationManager struct {
	ledger        *Ledger
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
	catalog       ProductCatalog
	auditRepo     repository.ReservationRepository
	hooks         *Hooks
	retry         RetryPolicy
	now           func() time.Time
}

// NewReservationManager construye el gestor de reservas sobre el mismo ledger.
// auditRepo se usa solo para consultas fuera de transacción.
func NewReservationManager(ledger *Ledger, auditRepo repository.ReservationRepository) *ReservationManager {
	return &ReservationManager{
		ledger:        ledger,
		auditRepo:     auditRepo,
		txRunner:      ledger.txRunner,
		warehouseRepo: ledger.warehouseRepo,
		catalog:       ledger.catalog,
		hooks:         ledger.hooks,
		retry:         ledger.retry,
		now:           ledger.now,
	}
}

// ReservationInput entrada común de reserve/release/fulfill. Reference es obligatoria:
// identifica el servicio u orden que necesita las piezas.
type ReservationInput struct {
	CompanyID   string
	UserID      string
	ProductID   string
	WarehouseID string
	Quantity    decimal.Decimal
	Reference   entity.Reference
	Notes       string
}

// FulfillResult movimiento de consumo y fila resultante.
type FulfillResult struct {
	Movement *entity.StockMovement
	Level    *entity.StockLevel
}

func (in ReservationInput) validate() error {
	if in.CompanyID == "" || in.ProductID == "" || in.WarehouseID == "" {
		return fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrInvalidInput)
	}
	if in.Reference.Type == "" || in.Reference.ID == "" {
		return fmt.Errorf("%w: la reserva requiere referencia", domain.ErrInvalidInput)
	}
	return validateQuantity(in.Quantity)
}

func (in ReservationInput) key() entity.StockKey {
	return entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
}

func (m *ReservationManager) audit(in ReservationInput, action entity.ReservationAction) *entity.Reservation {
	return &entity.Reservation{
		ID:            uuid.New().String(),
		CompanyID:     in.CompanyID,
		ProductID:     in.ProductID,
		WarehouseID:   in.WarehouseID,
		Action:        action,
		Quantity:      in.Quantity,
		ReferenceType: in.Reference.Type,
		ReferenceID:   in.Reference.ID,
		Notes:         in.Notes,
		CreatedAt:     m.now(),
		CreatedBy:     in.UserID,
	}
}

// Reserve aumenta Reserved. Falla con ErrInsufficientAvailableStock si Reserved + cantidad > OnHand.
// No genera movimiento: reservar no es un evento físico.
func (m *ReservationManager) Reserve(ctx context.Context, in ReservationInput) (*entity.StockLevel, error) {
	started := time.Now()
	defer m.hooks.Observe("reserve", started)

	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkTarget(ctx, m.warehouseRepo, m.catalog, in.CompanyID, in.ProductID, in.WarehouseID); err != nil {
		m.hooks.Failed("reserve", err)
		return nil, err
	}

	var level *entity.StockLevel
	err := RunWithRetry(ctx, m.txRunner, m.retry, func(r TxRepos) error {
		var err error
		level, err = r.Levels.GetForUpdate(ctx, in.CompanyID, in.key())
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		if level.Reserved.Add(in.Quantity).GreaterThan(level.OnHand) {
			return fmt.Errorf("%w: %w", domain.ErrInsufficientAvailableStock, domain.ErrOverReservation)
		}
		level.Reserved = level.Reserved.Add(in.Quantity)
		level.UpdatedAt = m.now()
		if err := r.Reservations.Append(ctx, m.audit(in, entity.ReservationReserve)); err != nil {
			return fmt.Errorf("append reservation: %w", err)
		}
		return r.Levels.Upsert(ctx, level)
	})
	if err != nil {
		m.hooks.Failed("reserve", err)
		return nil, fmt.Errorf("reserve: %w", err)
	}

	m.hooks.AfterCommit(ctx, in.CompanyID, "", nil, []*entity.StockLevel{level})
	return level, nil
}

// Release libera lo reservado por una referencia. Falla con ErrOverRelease si la cantidad
// excede el saldo reservado de esa referencia.
func (m *ReservationManager) Release(ctx context.Context, in ReservationInput) (*entity.StockLevel, error) {
	started := time.Now()
	defer m.hooks.Observe("release", started)

	if err := in.validate(); err != nil {
		return nil, err
	}

	var level *entity.StockLevel
	err := RunWithRetry(ctx, m.txRunner, m.retry, func(r TxRepos) error {
		var err error
		level, err = r.Levels.GetForUpdate(ctx, in.CompanyID, in.key())
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		if err := m.releaseLocked(ctx, r, level, in); err != nil {
			return err
		}
		if err := r.Reservations.Append(ctx, m.audit(in, entity.ReservationRelease)); err != nil {
			return fmt.Errorf("append reservation: %w", err)
		}
		level.UpdatedAt = m.now()
		return r.Levels.Upsert(ctx, level)
	})
	if err != nil {
		m.hooks.Failed("release", err)
		return nil, fmt.Errorf("release: %w", err)
	}

	m.hooks.AfterCommit(ctx, in.CompanyID, "", nil, []*entity.StockLevel{level})
	return level, nil
}

// releaseLocked descuenta de Reserved validando el saldo de la referencia. La fila debe estar bloqueada.
func (m *ReservationManager) releaseLocked(ctx context.Context, r TxRepos, level *entity.StockLevel, in ReservationInput) error {
	held, err := r.Reservations.ReservedFor(ctx, in.CompanyID, in.key(), in.Reference)
	if err != nil {
		return fmt.Errorf("reserved for reference: %w", err)
	}
	if in.Quantity.GreaterThan(held) || in.Quantity.GreaterThan(level.Reserved) {
		return domain.ErrOverRelease
	}
	level.Reserved = level.Reserved.Sub(in.Quantity)
	return nil
}

// Fulfill consume stock reservado: libera la reserva de la referencia y registra un
// service_consumption por la misma cantidad, atómicamente. Available no cambia.
func (m *ReservationManager) Fulfill(ctx context.Context, in ReservationInput) (*FulfillResult, error) {
	started := time.Now()
	defer m.hooks.Observe("fulfill", started)

	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := checkTarget(ctx, m.warehouseRepo, m.catalog, in.CompanyID, in.ProductID, in.WarehouseID); err != nil {
		m.hooks.Failed("fulfill", err)
		return nil, err
	}

	txID := uuid.New().String()
	var res *FulfillResult
	err := RunWithRetry(ctx, m.txRunner, m.retry, func(r TxRepos) error {
		level, err := r.Levels.GetForUpdate(ctx, in.CompanyID, in.key())
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		if err := m.releaseLocked(ctx, r, level, in); err != nil {
			return err
		}
		mov := m.ledger.newMovement(MovementInput{
			CompanyID: in.CompanyID, UserID: in.UserID, ProductID: in.ProductID,
			WarehouseID: in.WarehouseID, Type: entity.MovementServiceConsumption,
			Quantity: in.Quantity, Reference: in.Reference, Notes: in.Notes,
		}, txID)
		if err := m.ledger.apply(ctx, r, level, mov); err != nil {
			return err
		}
		if err := r.Reservations.Append(ctx, m.audit(in, entity.ReservationFulfill)); err != nil {
			return fmt.Errorf("append reservation: %w", err)
		}
		res = &FulfillResult{Movement: mov, Level: level}
		return nil
	})
	if err != nil {
		m.hooks.Failed("fulfill", err)
		return nil, fmt.Errorf("fulfill: %w", err)
	}

	m.hooks.AfterCommit(ctx, in.CompanyID, txID, []*entity.StockMovement{res.Movement}, []*entity.StockLevel{res.Level})
	return res, nil
}

// ListReservations auditoría de reservas de una referencia.
func (m *ReservationManager) ListReservations(ctx context.Context, companyID string, ref entity.Reference) ([]*entity.Reservation, error) {
	if ref.Type == "" || ref.ID == "" {
		return nil, fmt.Errorf("%w: referencia obligatoria", domain.ErrInvalidInput)
	}
	list, err := m.auditRepo.ListByReference(ctx, companyID, ref)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return list, nil
}
