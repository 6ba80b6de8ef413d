package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// Ledger registra movimientos de inventario de forma transaccional: el append al ledger y la
// actualización de la proyección (con bloqueo de fila SELECT FOR UPDATE) van en la misma tx.
type Ledger struct {
	txRunner      TxRunner
	warehouseRepo repository.WarehouseRepository
	catalog       ProductCatalog
	hooks         *Hooks
	retry         RetryPolicy
	now           func() time.Time
}

// NewLedger construye el caso de uso. hooks puede ser nil.
func NewLedger(
	txRunner TxRunner,
	warehouseRepo repository.WarehouseRepository,
	catalog ProductCatalog,
	hooks *Hooks,
	retry RetryPolicy,
) *Ledger {
	return &Ledger{
		txRunner:      txRunner,
		warehouseRepo: warehouseRepo,
		catalog:       catalog,
		hooks:         hooks,
		retry:         retry,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// MovementInput entrada para registrar un movimiento.
// UnitCost es obligatorio para purchase, adjustment_in, initial y return_customer.
type MovementInput struct {
	CompanyID      string
	UserID         string
	ProductID      string
	WarehouseID    string
	Type           entity.MovementType
	Quantity       decimal.Decimal
	UnitCost       *decimal.Decimal
	Reference      entity.Reference
	BatchNumber    string
	SerialNumber   string
	ExpirationDate *time.Time
	Notes          string
}

// TransferInput entrada para trasladar stock entre bodegas.
type TransferInput struct {
	CompanyID       string
	UserID          string
	ProductID       string
	FromWarehouseID string
	ToWarehouseID   string
	Quantity        decimal.Decimal
	Reference       entity.Reference
	Notes           string
}

// TransferResult las dos patas del traslado, con el mismo TransactionID.
type TransferResult struct {
	TransactionID string
	Out           *entity.StockMovement
	In            *entity.StockMovement
}

// AdjustInput entrada para un ajuste por conteo físico.
type AdjustInput struct {
	CompanyID   string
	UserID      string
	ProductID   string
	WarehouseID string
	NewQuantity decimal.Decimal
	// UnitCost para ajustes al alza; si es nil se usa el costo promedio actual.
	UnitCost *decimal.Decimal
	Reason   string
}

// RebuildResult compara la proyección viva con la reconstruida desde el ledger.
type RebuildResult struct {
	Level           *entity.StockLevel
	PreviousOnHand  decimal.Decimal
	PreviousAvgCost decimal.Decimal
	MovementCount   int
	Drift           bool
}

// validateMovement reglas que no dependen del estado persistido.
func validateMovement(in MovementInput) error {
	if in.CompanyID == "" || in.ProductID == "" || in.WarehouseID == "" {
		return fmt.Errorf("%w: empresa, producto y bodega son obligatorios", domain.ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: tipo de movimiento %q", domain.ErrInvalidInput, in.Type)
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return err
	}
	if in.Type.RequiresUnitCost() && in.UnitCost == nil {
		return fmt.Errorf("%w: el tipo %s requiere costo unitario", domain.ErrInvalidInput, in.Type)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	return nil
}

func validateQuantity(q decimal.Decimal) error {
	if !q.IsPositive() {
		return fmt.Errorf("%w: la cantidad debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if !inventory.HasValidScale(q) {
		return fmt.Errorf("%w: la cantidad admite máximo %d decimales", domain.ErrInvalidInput, inventory.QuantityScale)
	}
	return nil
}

// checkTarget verifica que la bodega exista, sea de la empresa y esté activa, y que el producto sea inventariable.
func checkTarget(ctx context.Context, warehouseRepo repository.WarehouseRepository, catalog ProductCatalog, companyID, productID string, warehouseIDs ...string) error {
	for _, id := range warehouseIDs {
		wh, err := warehouseRepo.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get warehouse: %w", err)
		}
		if wh == nil || wh.CompanyID != companyID || !wh.IsActive {
			return domain.ErrUnknownProductOrWarehouse
		}
	}
	tracked, err := catalog.IsTracked(ctx, companyID, productID)
	if err != nil {
		return fmt.Errorf("check product: %w", err)
	}
	if !tracked {
		return domain.ErrUnknownProductOrWarehouse
	}
	return nil
}

// LockInOrder bloquea las filas de la proyección en orden fijo (bodega, producto) para evitar deadlocks.
// Las claves repetidas se bloquean una sola vez.
func LockInOrder(ctx context.Context, levels repository.StockLevelRepository, companyID string, keys ...entity.StockKey) (map[entity.StockKey]*entity.StockLevel, error) {
	sorted := make([]entity.StockKey, 0, len(keys))
	seen := make(map[entity.StockKey]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			sorted = append(sorted, k)
		}
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })

	locked := make(map[entity.StockKey]*entity.StockLevel, len(sorted))
	for _, k := range sorted {
		level, err := levels.GetForUpdate(ctx, companyID, k)
		if err != nil {
			return nil, fmt.Errorf("lock stock %s/%s: %w", k.WarehouseID, k.ProductID, err)
		}
		locked[k] = level
	}
	return locked, nil
}

// RecordMovement agrega un movimiento al ledger y actualiza la proyección en la misma transacción.
// Los traslados deben registrarse con Transfer.
func (l *Ledger) RecordMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	started := time.Now()
	defer l.hooks.Observe("record_movement", started)

	if err := validateMovement(in); err != nil {
		return nil, err
	}
	if in.Type.IsTransfer() {
		return nil, fmt.Errorf("%w: los traslados se registran con transfer", domain.ErrInvalidInput)
	}
	if err := checkTarget(ctx, l.warehouseRepo, l.catalog, in.CompanyID, in.ProductID, in.WarehouseID); err != nil {
		l.hooks.Failed("record_movement", err)
		return nil, err
	}

	txID := uuid.New().String()
	var (
		mov   *entity.StockMovement
		level *entity.StockLevel
	)
	err := RunWithRetry(ctx, l.txRunner, l.retry, func(r TxRepos) error {
		var err error
		mov, level, err = l.record(ctx, r, in, txID)
		return err
	})
	if err != nil {
		l.hooks.Failed("record_movement", err)
		return nil, fmt.Errorf("record movement: %w", err)
	}

	l.hooks.AfterCommit(ctx, in.CompanyID, txID, []*entity.StockMovement{mov}, []*entity.StockLevel{level})
	return mov, nil
}

// RecordInTx registra un movimiento dentro de una transacción ajena (recepción de órdenes de compra).
// El llamador valida bodega y producto, y debe haber bloqueado las filas con LockInOrder si son varias.
func (l *Ledger) RecordInTx(ctx context.Context, r TxRepos, in MovementInput, txID string) (*entity.StockMovement, *entity.StockLevel, error) {
	if err := validateMovement(in); err != nil {
		return nil, nil, err
	}
	return l.record(ctx, r, in, txID)
}

func (l *Ledger) record(ctx context.Context, r TxRepos, in MovementInput, txID string) (*entity.StockMovement, *entity.StockLevel, error) {
	key := entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
	level, err := r.Levels.GetForUpdate(ctx, in.CompanyID, key)
	if err != nil {
		return nil, nil, fmt.Errorf("get stock: %w", err)
	}
	mov := l.newMovement(in, txID)
	if err := l.apply(ctx, r, level, mov); err != nil {
		return nil, nil, err
	}
	return mov, level, nil
}

func (l *Ledger) newMovement(in MovementInput, txID string) *entity.StockMovement {
	return &entity.StockMovement{
		ID:             uuid.New().String(),
		CompanyID:      in.CompanyID,
		TransactionID:  txID,
		ProductID:      in.ProductID,
		WarehouseID:    in.WarehouseID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		UnitCost:       in.UnitCost,
		ReferenceType:  in.Reference.Type,
		ReferenceID:    in.Reference.ID,
		BatchNumber:    in.BatchNumber,
		SerialNumber:   in.SerialNumber,
		ExpirationDate: in.ExpirationDate,
		Notes:          in.Notes,
		CreatedAt:      l.now(),
		CreatedBy:      in.UserID,
	}
}

// apply valida y aplica el movimiento sobre la fila bloqueada, lo agrega al ledger y persiste la fila.
func (l *Ledger) apply(ctx context.Context, r TxRepos, level *entity.StockLevel, mov *entity.StockMovement) error {
	if err := inventory.ApplyMovement(level, mov); err != nil {
		return err
	}
	if err := r.Movements.Append(ctx, mov); err != nil {
		return fmt.Errorf("append movement: %w", err)
	}
	level.UpdatedAt = mov.CreatedAt
	if err := r.Levels.Upsert(ctx, level); err != nil {
		return fmt.Errorf("upsert stock: %w", err)
	}
	return nil
}

// Transfer mueve stock entre dos bodegas: transfer_out en origen y transfer_in en destino,
// ambos en la misma transacción y con el mismo TransactionID. Si la salida falla no se escribe nada.
// La entrada valora al costo promedio del origen.
func (l *Ledger) Transfer(ctx context.Context, in TransferInput) (*TransferResult, error) {
	started := time.Now()
	defer l.hooks.Observe("transfer", started)

	if in.CompanyID == "" || in.ProductID == "" || in.FromWarehouseID == "" || in.ToWarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodegas son obligatorios", domain.ErrInvalidInput)
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.ErrSameWarehouseTransfer
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return nil, err
	}
	if err := checkTarget(ctx, l.warehouseRepo, l.catalog, in.CompanyID, in.ProductID, in.FromWarehouseID, in.ToWarehouseID); err != nil {
		l.hooks.Failed("transfer", err)
		return nil, err
	}

	txID := uuid.New().String()
	srcKey := entity.StockKey{ProductID: in.ProductID, WarehouseID: in.FromWarehouseID}
	dstKey := entity.StockKey{ProductID: in.ProductID, WarehouseID: in.ToWarehouseID}
	ref := in.Reference
	if ref.IsZero() {
		ref = entity.Reference{Type: "transfer", ID: txID}
	}

	var res *TransferResult
	var src, dst *entity.StockLevel
	err := RunWithRetry(ctx, l.txRunner, l.retry, func(r TxRepos) error {
		locked, err := LockInOrder(ctx, r.Levels, in.CompanyID, srcKey, dstKey)
		if err != nil {
			return err
		}
		src, dst = locked[srcKey], locked[dstKey]

		cost := src.AvgCost
		out := l.newMovement(MovementInput{
			CompanyID: in.CompanyID, UserID: in.UserID, ProductID: in.ProductID,
			WarehouseID: in.FromWarehouseID, Type: entity.MovementTransferOut,
			Quantity: in.Quantity, UnitCost: &cost, Reference: ref, Notes: in.Notes,
		}, txID)
		out.RelatedWarehouseID = in.ToWarehouseID
		if err := l.apply(ctx, r, src, out); err != nil {
			return err
		}

		inMov := l.newMovement(MovementInput{
			CompanyID: in.CompanyID, UserID: in.UserID, ProductID: in.ProductID,
			WarehouseID: in.ToWarehouseID, Type: entity.MovementTransferIn,
			Quantity: in.Quantity, UnitCost: &cost, Reference: ref, Notes: in.Notes,
		}, txID)
		inMov.RelatedWarehouseID = in.FromWarehouseID
		if err := l.apply(ctx, r, dst, inMov); err != nil {
			return err
		}
		res = &TransferResult{TransactionID: txID, Out: out, In: inMov}
		return nil
	})
	if err != nil {
		l.hooks.Failed("transfer", err)
		return nil, fmt.Errorf("transfer: %w", err)
	}

	l.hooks.AfterCommit(ctx, in.CompanyID, txID,
		[]*entity.StockMovement{res.Out, res.In}, []*entity.StockLevel{src, dst})
	return res, nil
}

// Adjust lleva el stock físico a NewQuantity con un único adjustment_in o adjustment_out por la diferencia.
// Una diferencia nula devuelve domain.ErrNoStockChange.
func (l *Ledger) Adjust(ctx context.Context, in AdjustInput) (*entity.StockMovement, error) {
	started := time.Now()
	defer l.hooks.Observe("adjust", started)

	if in.CompanyID == "" || in.ProductID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrInvalidInput)
	}
	if in.NewQuantity.IsNegative() || !inventory.HasValidScale(in.NewQuantity) {
		return nil, fmt.Errorf("%w: cantidad nueva inválida", domain.ErrInvalidInput)
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput)
	}
	if err := checkTarget(ctx, l.warehouseRepo, l.catalog, in.CompanyID, in.ProductID, in.WarehouseID); err != nil {
		l.hooks.Failed("adjust", err)
		return nil, err
	}

	txID := uuid.New().String()
	key := entity.StockKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID}
	var (
		mov   *entity.StockMovement
		level *entity.StockLevel
	)
	err := RunWithRetry(ctx, l.txRunner, l.retry, func(r TxRepos) error {
		var err error
		level, err = r.Levels.GetForUpdate(ctx, in.CompanyID, key)
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		delta := in.NewQuantity.Sub(level.OnHand)
		if delta.IsZero() {
			return domain.ErrNoStockChange
		}

		mi := MovementInput{
			CompanyID: in.CompanyID, UserID: in.UserID, ProductID: in.ProductID,
			WarehouseID: in.WarehouseID, Quantity: delta.Abs(), Notes: in.Reason,
			Reference: entity.Reference{Type: "adjustment", ID: txID},
		}
		if delta.IsPositive() {
			mi.Type = entity.MovementAdjustmentIn
			cost := level.AvgCost
			if in.UnitCost != nil {
				cost = *in.UnitCost
			}
			mi.UnitCost = &cost
		} else {
			mi.Type = entity.MovementAdjustmentOut
		}
		mov = l.newMovement(mi, txID)
		return l.apply(ctx, r, level, mov)
	})
	if err != nil {
		l.hooks.Failed("adjust", err)
		return nil, fmt.Errorf("adjust: %w", err)
	}

	l.hooks.AfterCommit(ctx, in.CompanyID, txID, []*entity.StockMovement{mov}, []*entity.StockLevel{level})
	return mov, nil
}

// RebuildProjection reproduce el ledger de la clave y corrige la proyección si difiere.
// En operación normal Drift es siempre false.
func (l *Ledger) RebuildProjection(ctx context.Context, companyID, productID, warehouseID string) (*RebuildResult, error) {
	if companyID == "" || productID == "" || warehouseID == "" {
		return nil, fmt.Errorf("%w: producto y bodega son obligatorios", domain.ErrInvalidInput)
	}
	key := entity.StockKey{ProductID: productID, WarehouseID: warehouseID}

	var res *RebuildResult
	err := RunWithRetry(ctx, l.txRunner, l.retry, func(r TxRepos) error {
		level, err := r.Levels.GetForUpdate(ctx, companyID, key)
		if err != nil {
			return fmt.Errorf("get stock: %w", err)
		}
		movements, err := r.Movements.ListByKey(ctx, companyID, key)
		if err != nil {
			return fmt.Errorf("list movements: %w", err)
		}
		onHand, avgCost := inventory.Replay(movements)

		res = &RebuildResult{
			PreviousOnHand:  level.OnHand,
			PreviousAvgCost: level.AvgCost,
			MovementCount:   len(movements),
			Drift:           !onHand.Equal(level.OnHand) || !avgCost.Equal(level.AvgCost),
		}
		if res.Drift {
			level.OnHand = onHand
			level.AvgCost = avgCost
			level.UpdatedAt = l.now()
			if err := r.Levels.Upsert(ctx, level); err != nil {
				return fmt.Errorf("upsert stock: %w", err)
			}
		}
		res.Level = level
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild projection: %w", err)
	}
	if res.Drift && l.hooks != nil {
		l.hooks.Logger.Warn().
			Str("company_id", companyID).Str("product_id", productID).Str("warehouse_id", warehouseID).
			Str("previous_on_hand", res.PreviousOnHand.String()).Str("rebuilt_on_hand", res.Level.OnHand.String()).
			Msg("proyección de stock corregida desde el ledger")
		if l.hooks.Cache != nil {
			l.hooks.Cache.Invalidate(ctx, companyID, productID)
		}
	}
	return res, nil
}
