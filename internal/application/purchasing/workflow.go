package purchasing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	domaininv "github.com/jhoicas/piano-stock-api/internal/domain/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

// ReferenceTypePurchaseOrder tipo de referencia de los movimientos generados por recepciones.
const ReferenceTypePurchaseOrder = "purchase_order"

var hundred = decimal.NewFromInt(100)

// Workflow máquina de estados de órdenes de compra. Su recepción es el único productor
// de movimientos purchase y escribe en el ledger solo a través de Ledger.RecordInTx.
type Workflow struct {
	txRunner      inventory.TxRunner
	orderRepo     repository.PurchaseOrderRepository
	warehouseRepo repository.WarehouseRepository
	catalog       inventory.ProductCatalog
	ledger        *inventory.Ledger
	hooks         *inventory.Hooks
	retry         inventory.RetryPolicy
	now           func() time.Time
}

// NewWorkflow construye el caso de uso. orderRepo se usa para lecturas fuera de transacción.
func NewWorkflow(
	txRunner inventory.TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	warehouseRepo repository.WarehouseRepository,
	catalog inventory.ProductCatalog,
	ledger *inventory.Ledger,
	hooks *inventory.Hooks,
	retry inventory.RetryPolicy,
) *Workflow {
	return &Workflow{
		txRunner:      txRunner,
		orderRepo:     orderRepo,
		warehouseRepo: warehouseRepo,
		catalog:       catalog,
		ledger:        ledger,
		hooks:         hooks,
		retry:         retry,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// LineInput línea de una orden nueva o de un borrador editado.
type LineInput struct {
	ProductID       string
	Quantity        decimal.Decimal
	UnitCost        decimal.Decimal
	TaxRate         decimal.Decimal
	DiscountPercent decimal.Decimal
	Notes           string
}

// CreateOrderInput entrada para crear una orden en draft.
type CreateOrderInput struct {
	CompanyID            string
	UserID               string
	SupplierID           string
	WarehouseID          string
	ExpectedDeliveryDate *time.Time
	Notes                string
	Lines                []LineInput
}

// UpdateDraftInput reemplaza el contenido editable de un borrador.
type UpdateDraftInput struct {
	CompanyID            string
	OrderID              string
	ExpectedDeliveryDate *time.Time
	Notes                string
	Lines                []LineInput
}

// ReceiveLine cantidad recibida de una línea, con su lote opcional.
type ReceiveLine struct {
	LineID         string
	Quantity       decimal.Decimal
	BatchNumber    string
	SerialNumber   string
	ExpirationDate *time.Time
}

// ReceiveInput una entrega física del proveedor.
type ReceiveInput struct {
	CompanyID string
	UserID    string
	OrderID   string
	Lines     []ReceiveLine
	Notes     string
}

// ReceiveResult orden actualizada y movimientos purchase generados.
type ReceiveResult struct {
	Order         *entity.PurchaseOrder
	TransactionID string
	Movements     []*entity.StockMovement
}

func (w *Workflow) buildLines(ctx context.Context, companyID, orderID string, in []LineInput) ([]*entity.PurchaseOrderLine, error) {
	lines := make([]*entity.PurchaseOrderLine, 0, len(in))
	for i, li := range in {
		if li.ProductID == "" {
			return nil, fmt.Errorf("%w: línea %d sin producto", domain.ErrInvalidInput, i+1)
		}
		if li.Quantity.IsNegative() || !domaininv.HasValidScale(li.Quantity) {
			return nil, fmt.Errorf("%w: línea %d con cantidad inválida", domain.ErrInvalidInput, i+1)
		}
		if li.UnitCost.IsNegative() || li.TaxRate.IsNegative() {
			return nil, fmt.Errorf("%w: línea %d con costo o impuesto negativo", domain.ErrInvalidInput, i+1)
		}
		if li.DiscountPercent.IsNegative() || li.DiscountPercent.GreaterThan(hundred) {
			return nil, fmt.Errorf("%w: línea %d con descuento fuera de 0-100", domain.ErrInvalidInput, i+1)
		}
		tracked, err := w.catalog.IsTracked(ctx, companyID, li.ProductID)
		if err != nil {
			return nil, fmt.Errorf("check product: %w", err)
		}
		if !tracked {
			return nil, domain.ErrUnknownProductOrWarehouse
		}
		lines = append(lines, &entity.PurchaseOrderLine{
			ID:               uuid.New().String(),
			PurchaseOrderID:  orderID,
			ProductID:        li.ProductID,
			QuantityOrdered:  li.Quantity,
			QuantityReceived: decimal.Zero,
			UnitCost:         li.UnitCost,
			TaxRate:          li.TaxRate,
			DiscountPercent:  li.DiscountPercent,
			Notes:            li.Notes,
		})
	}
	return lines, nil
}

func (w *Workflow) checkWarehouse(ctx context.Context, companyID, warehouseID string) error {
	wh, err := w.warehouseRepo.GetByID(ctx, warehouseID)
	if err != nil {
		return fmt.Errorf("get warehouse: %w", err)
	}
	if wh == nil || wh.CompanyID != companyID || !wh.IsActive {
		return domain.ErrUnknownProductOrWarehouse
	}
	return nil
}

// Create registra una orden en draft con número PO-<año>-<00001>.
func (w *Workflow) Create(ctx context.Context, in CreateOrderInput) (*entity.PurchaseOrder, error) {
	if in.CompanyID == "" || in.SupplierID == "" || in.WarehouseID == "" {
		return nil, fmt.Errorf("%w: proveedor y bodega son obligatorios", domain.ErrInvalidInput)
	}
	if err := w.checkWarehouse(ctx, in.CompanyID, in.WarehouseID); err != nil {
		return nil, err
	}

	now := w.now()
	po := &entity.PurchaseOrder{
		ID:                   uuid.New().String(),
		CompanyID:            in.CompanyID,
		SupplierID:           in.SupplierID,
		WarehouseID:          in.WarehouseID,
		Status:               entity.POStatusDraft,
		ExpectedDeliveryDate: in.ExpectedDeliveryDate,
		Notes:                in.Notes,
		CreatedBy:            in.UserID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	lines, err := w.buildLines(ctx, in.CompanyID, po.ID, in.Lines)
	if err != nil {
		return nil, err
	}
	po.Lines = lines
	po.RecomputeTotals()

	err = inventory.RunWithRetry(ctx, w.txRunner, w.retry, func(r inventory.TxRepos) error {
		seq, err := r.Orders.NextOrderNumber(ctx, in.CompanyID, now.Year())
		if err != nil {
			return fmt.Errorf("next order number: %w", err)
		}
		po.OrderNumber = fmt.Sprintf("PO-%d-%05d", now.Year(), seq)
		return r.Orders.Create(ctx, po)
	})
	if err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	return po, nil
}

// transition ejecuta un cambio de estado con la orden bloqueada y publica el evento tras el commit.
func (w *Workflow) transition(ctx context.Context, companyID, orderID, actorID string, mutate func(po *entity.PurchaseOrder) error) (*entity.PurchaseOrder, error) {
	var (
		po   *entity.PurchaseOrder
		from entity.PurchaseOrderStatus
	)
	err := inventory.RunWithRetry(ctx, w.txRunner, w.retry, func(r inventory.TxRepos) error {
		var err error
		po, err = lockOrder(ctx, r, companyID, orderID)
		if err != nil {
			return err
		}
		from = po.Status
		if err := mutate(po); err != nil {
			return err
		}
		po.UpdatedAt = w.now()
		return r.Orders.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	if from != po.Status {
		w.hooks.Publish(ctx, inventory.EventOrderStatusChanged, inventory.OrderStatusChangedEvent{
			CompanyID: companyID, OrderID: po.ID, From: string(from), To: string(po.Status),
			ActorID: actorID, OccurredAt: po.UpdatedAt,
		})
	}
	return po, nil
}

func lockOrder(ctx context.Context, r inventory.TxRepos, companyID, orderID string) (*entity.PurchaseOrder, error) {
	po, err := r.Orders.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	if po.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return po, nil
}

func moveTo(po *entity.PurchaseOrder, next entity.PurchaseOrderStatus) error {
	if !po.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s → %s", domain.ErrInvalidStateTransition, po.Status, next)
	}
	po.Status = next
	return nil
}

// UpdateDraft reemplaza líneas, notas y fecha esperada mientras la orden está en draft.
func (w *Workflow) UpdateDraft(ctx context.Context, in UpdateDraftInput) (*entity.PurchaseOrder, error) {
	lines, err := w.buildLines(ctx, in.CompanyID, in.OrderID, in.Lines)
	if err != nil {
		return nil, err
	}
	po, err := w.transition(ctx, in.CompanyID, in.OrderID, "", func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusDraft {
			return fmt.Errorf("%w: solo se edita en draft", domain.ErrInvalidStateTransition)
		}
		po.Lines = lines
		po.Notes = in.Notes
		po.ExpectedDeliveryDate = in.ExpectedDeliveryDate
		po.RecomputeTotals()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update draft: %w", err)
	}
	return po, nil
}

// Submit draft → pending_approval. Requiere al menos una línea con cantidad > 0.
func (w *Workflow) Submit(ctx context.Context, companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
	po, err := w.transition(ctx, companyID, orderID, userID, func(po *entity.PurchaseOrder) error {
		if po.Status == entity.POStatusDraft && !po.HasOrderableLine() {
			return fmt.Errorf("%w: la orden no tiene líneas con cantidad", domain.ErrInvalidStateTransition)
		}
		return moveTo(po, entity.POStatusPendingApproval)
	})
	if err != nil {
		return nil, fmt.Errorf("submit: %w", err)
	}
	return po, nil
}

// Approve pending_approval → approved. La identidad del aprobador no se valida aquí.
func (w *Workflow) Approve(ctx context.Context, companyID, orderID, approverID string) (*entity.PurchaseOrder, error) {
	po, err := w.transition(ctx, companyID, orderID, approverID, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusPendingApproval {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidStateTransition, po.Status, entity.POStatusApproved)
		}
		po.Status = entity.POStatusApproved
		po.ApprovedBy = approverID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("approve: %w", err)
	}
	return po, nil
}

// MarkOrdered approved → ordered: la orden se envió al proveedor. Sin efecto en el ledger.
func (w *Workflow) MarkOrdered(ctx context.Context, companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
	po, err := w.transition(ctx, companyID, orderID, userID, func(po *entity.PurchaseOrder) error {
		if po.Status != entity.POStatusApproved {
			return fmt.Errorf("%w: %s → %s", domain.ErrInvalidStateTransition, po.Status, entity.POStatusOrdered)
		}
		po.Status = entity.POStatusOrdered
		now := w.now()
		po.OrderDate = &now
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mark ordered: %w", err)
	}
	return po, nil
}

// Cancel permitido en cualquier estado no terminal. No revierte recepciones parciales previas.
func (w *Workflow) Cancel(ctx context.Context, companyID, orderID, userID string) (*entity.PurchaseOrder, error) {
	po, err := w.transition(ctx, companyID, orderID, userID, func(po *entity.PurchaseOrder) error {
		if err := moveTo(po, entity.POStatusCancelled); err != nil {
			return err
		}
		po.CancelledBy = userID
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cancel: %w", err)
	}
	return po, nil
}

// Receive registra una entrega: un movimiento purchase por línea al costo de la línea.
// Todas las líneas se validan antes de escribir y todo va en una sola transacción:
// si una falla (p. ej. ErrOverReceipt) no queda nada aplicado.
func (w *Workflow) Receive(ctx context.Context, in ReceiveInput) (*ReceiveResult, error) {
	started := time.Now()
	defer w.hooks.Observe("receive", started)

	if in.CompanyID == "" || in.OrderID == "" || len(in.Lines) == 0 {
		return nil, fmt.Errorf("%w: la recepción requiere orden y líneas", domain.ErrInvalidInput)
	}
	for _, rl := range in.Lines {
		if rl.LineID == "" || !rl.Quantity.IsPositive() || !domaininv.HasValidScale(rl.Quantity) {
			return nil, fmt.Errorf("%w: línea de recepción inválida", domain.ErrInvalidInput)
		}
	}

	txID := uuid.New().String()
	var (
		res    *ReceiveResult
		from   entity.PurchaseOrderStatus
		levels map[entity.StockKey]*entity.StockLevel
	)
	err := inventory.RunWithRetry(ctx, w.txRunner, w.retry, func(r inventory.TxRepos) error {
		po, err := lockOrder(ctx, r, in.CompanyID, in.OrderID)
		if err != nil {
			return err
		}
		from = po.Status
		if !po.Status.CanReceive() {
			return fmt.Errorf("%w: no se puede recibir en estado %s", domain.ErrInvalidStateTransition, po.Status)
		}
		if err := w.checkWarehouse(ctx, in.CompanyID, po.WarehouseID); err != nil {
			return err
		}

		// 1. Validar todas las líneas antes de tocar el ledger
		incoming := make(map[string]decimal.Decimal, len(in.Lines))
		keys := make([]entity.StockKey, 0, len(in.Lines))
		for _, rl := range in.Lines {
			line := po.Line(rl.LineID)
			if line == nil {
				return fmt.Errorf("%w: línea %s no pertenece a la orden", domain.ErrInvalidInput, rl.LineID)
			}
			incoming[rl.LineID] = incoming[rl.LineID].Add(rl.Quantity)
			if line.QuantityReceived.Add(incoming[rl.LineID]).GreaterThan(line.QuantityOrdered) {
				return fmt.Errorf("%w: línea %s", domain.ErrOverReceipt, rl.LineID)
			}
			keys = append(keys, entity.StockKey{ProductID: line.ProductID, WarehouseID: po.WarehouseID})
		}

		// 2. Bloquear filas de stock en orden fijo
		if _, err := inventory.LockInOrder(ctx, r.Levels, in.CompanyID, keys...); err != nil {
			return err
		}

		// 3. Movimientos purchase y acumuladores
		levels = make(map[entity.StockKey]*entity.StockLevel, len(keys))
		movements := make([]*entity.StockMovement, 0, len(in.Lines))
		ref := entity.Reference{Type: ReferenceTypePurchaseOrder, ID: po.ID}
		for _, rl := range in.Lines {
			line := po.Line(rl.LineID)
			cost := line.UnitCost
			mov, level, err := w.ledger.RecordInTx(ctx, r, inventory.MovementInput{
				CompanyID:      in.CompanyID,
				UserID:         in.UserID,
				ProductID:      line.ProductID,
				WarehouseID:    po.WarehouseID,
				Type:           entity.MovementPurchase,
				Quantity:       rl.Quantity,
				UnitCost:       &cost,
				Reference:      ref,
				BatchNumber:    rl.BatchNumber,
				SerialNumber:   rl.SerialNumber,
				ExpirationDate: rl.ExpirationDate,
				Notes:          in.Notes,
			}, txID)
			if err != nil {
				return err
			}
			line.QuantityReceived = line.QuantityReceived.Add(rl.Quantity)
			movements = append(movements, mov)
			levels[level.Key()] = level
		}

		// 4. Derivar estado
		next := entity.POStatusPartial
		now := w.now()
		if po.IsFullyReceived() {
			next = entity.POStatusReceived
			po.ActualDeliveryDate = &now
		}
		if err := moveTo(po, next); err != nil {
			return err
		}
		po.UpdatedAt = now
		if err := r.Orders.Update(ctx, po); err != nil {
			return fmt.Errorf("update purchase order: %w", err)
		}
		res = &ReceiveResult{Order: po, TransactionID: txID, Movements: movements}
		return nil
	})
	if err != nil {
		w.hooks.Failed("receive", err)
		return nil, fmt.Errorf("receive: %w", err)
	}

	touched := make([]*entity.StockLevel, 0, len(levels))
	for _, l := range levels {
		touched = append(touched, l)
	}
	w.hooks.AfterCommit(ctx, in.CompanyID, txID, res.Movements, touched)
	if w.hooks != nil {
		w.hooks.Metrics.Receipt()
	}
	if from != res.Order.Status {
		w.hooks.Publish(ctx, inventory.EventOrderStatusChanged, inventory.OrderStatusChangedEvent{
			CompanyID: in.CompanyID, OrderID: res.Order.ID, From: string(from), To: string(res.Order.Status),
			ActorID: in.UserID, OccurredAt: res.Order.UpdatedAt,
		})
	}
	return res, nil
}

// Get orden con sus líneas.
func (w *Workflow) Get(ctx context.Context, companyID, orderID string) (*entity.PurchaseOrder, error) {
	po, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	if po == nil {
		return nil, domain.ErrNotFound
	}
	if po.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return po, nil
}

// List órdenes de la empresa con filtros opcionales.
func (w *Workflow) List(ctx context.Context, filter entity.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, filter.Status)
	}
	list, err := w.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	return list, nil
}

// CreateFromProposals crea un borrador por cada propuesta de reposición con proveedor asignado.
func (w *Workflow) CreateFromProposals(ctx context.Context, companyID, userID string, proposals []inventory.ReorderProposal) ([]*entity.PurchaseOrder, error) {
	created := make([]*entity.PurchaseOrder, 0, len(proposals))
	for _, p := range proposals {
		if p.SupplierID == "" || len(p.Lines) == 0 {
			continue
		}
		lines := make([]LineInput, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, LineInput{ProductID: l.ProductID, Quantity: l.Quantity, UnitCost: l.UnitCost})
		}
		po, err := w.Create(ctx, CreateOrderInput{
			CompanyID:   companyID,
			UserID:      userID,
			SupplierID:  p.SupplierID,
			WarehouseID: p.WarehouseID,
			Notes:       "Generada desde sugerencias de reposición",
			Lines:       lines,
		})
		if err != nil {
			return created, err
		}
		created = append(created, po)
	}
	return created, nil
}
