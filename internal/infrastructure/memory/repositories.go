package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
	"github.com/jhoicas/piano-stock-api/internal/domain/repository"
)

var (
	_ repository.WarehouseRepository     = (*WarehouseRepo)(nil)
	_ repository.StockLevelRepository    = (*LevelRepo)(nil)
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
	_ repository.ReservationRepository   = (*ReservationRepo)(nil)
	_ repository.PurchaseOrderRepository = (*OrderRepo)(nil)
	_ repository.AlertRepository         = (*AlertRepo)(nil)
)

// ── Bodegas ──────────────────────────────────────────────────────────────────

// WarehouseRepo bodegas en memoria (no transaccional).
type WarehouseRepo struct{ s *Store }

// Create persiste una nueva bodega. El código es único por empresa.
func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.warehouses {
		if other.CompanyID == w.CompanyID && other.Code == w.Code {
			return domain.ErrDuplicate
		}
	}
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *WarehouseRepo) GetByID(_ context.Context, id string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	w, ok := r.s.warehouses[id]
	if !ok {
		return nil, nil
	}
	c := *w
	return &c, nil
}

// GetByCode busca por código dentro de la empresa.
func (r *WarehouseRepo) GetByCode(_ context.Context, companyID, code string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID && w.Code == code {
			c := *w
			return &c, nil
		}
	}
	return nil, nil
}

// Update reemplaza la bodega.
func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.warehouses[w.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *w
	r.s.warehouses[w.ID] = &c
	return nil
}

// GetDefault devuelve (nil, nil) si la empresa no tiene predeterminada.
func (r *WarehouseRepo) GetDefault(_ context.Context, companyID string) (*entity.Warehouse, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID && w.IsDefault {
			c := *w
			return &c, nil
		}
	}
	return nil, nil
}

// SetDefault marca id y desmarca la anterior bajo el mismo lock.
func (r *WarehouseRepo) SetDefault(_ context.Context, companyID, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	target, ok := r.s.warehouses[id]
	if !ok || target.CompanyID != companyID {
		return domain.ErrNotFound
	}
	for _, w := range r.s.warehouses {
		if w.CompanyID == companyID && w.IsDefault && w.ID != id {
			w.IsDefault = false
			w.UpdatedAt = at
		}
	}
	target.IsDefault = true
	target.UpdatedAt = at
	return nil
}

// ListByCompany lista por código con paginación.
func (r *WarehouseRepo) ListByCompany(_ context.Context, companyID string, activeOnly bool, limit, offset int) ([]*entity.Warehouse, error) {
	r.s.mu.RLock()
	var list []*entity.Warehouse
	for _, w := range r.s.warehouses {
		if w.CompanyID != companyID || (activeOnly && !w.IsActive) {
			continue
		}
		c := *w
		list = append(list, &c)
	}
	r.s.mu.RUnlock()
	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })
	return paginate(list, limit, offset), nil
}

// ── Proyección ───────────────────────────────────────────────────────────────

// LevelRepo proyección de stock. Con tx != nil bloquea y difiere escrituras.
type LevelRepo struct {
	s  *Store
	tx *tx
}

func (r *LevelRepo) read(companyID string, k entity.StockKey) *entity.StockLevel {
	key := newLevelKey(companyID, k)
	if r.tx != nil {
		if l, ok := r.tx.levels[key]; ok {
			return cloneLevel(l)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if l, ok := r.s.levels[key]; ok {
		return cloneLevel(l)
	}
	return &entity.StockLevel{CompanyID: companyID, ProductID: k.ProductID, WarehouseID: k.WarehouseID}
}

// Get devuelve la fila (o una en cero) sin bloquear.
func (r *LevelRepo) Get(_ context.Context, companyID string, k entity.StockKey) (*entity.StockLevel, error) {
	return r.read(companyID, k), nil
}

// GetForUpdate bloquea la fila hasta el fin de la transacción.
func (r *LevelRepo) GetForUpdate(ctx context.Context, companyID string, k entity.StockKey) (*entity.StockLevel, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, newLevelKey(companyID, k).lockName()); err != nil {
			return nil, err
		}
	}
	return r.read(companyID, k), nil
}

// Upsert guarda la fila (diferida dentro de una transacción).
func (r *LevelRepo) Upsert(_ context.Context, l *entity.StockLevel) error {
	key := newLevelKey(l.CompanyID, l.Key())
	if r.tx != nil {
		r.tx.levels[key] = cloneLevel(l)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.levels[key] = cloneLevel(l)
	return nil
}

func (r *LevelRepo) list(match func(levelKey) bool) []*entity.StockLevel {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.StockLevel
	for k, l := range r.s.levels {
		if match(k) {
			out = append(out, cloneLevel(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key().Less(out[j].Key()) })
	return out
}

// ListByProduct filas de un producto.
func (r *LevelRepo) ListByProduct(_ context.Context, companyID, productID string) ([]*entity.StockLevel, error) {
	return r.list(func(k levelKey) bool { return k.companyID == companyID && k.productID == productID }), nil
}

// ListByWarehouse filas de una bodega.
func (r *LevelRepo) ListByWarehouse(_ context.Context, companyID, warehouseID string) ([]*entity.StockLevel, error) {
	return r.list(func(k levelKey) bool { return k.companyID == companyID && k.warehouseID == warehouseID }), nil
}

// ListByCompany todas las filas de la empresa.
func (r *LevelRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.StockLevel, error) {
	return r.list(func(k levelKey) bool { return k.companyID == companyID }), nil
}

// ── Ledger ───────────────────────────────────────────────────────────────────

// MovementRepo ledger append-only.
type MovementRepo struct {
	s  *Store
	tx *tx
}

// Append agrega el movimiento; dentro de una transacción el Seq se asigna al confirmar.
func (r *MovementRepo) Append(_ context.Context, m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, m)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.seq++
	m.Seq = r.s.seq
	r.s.movements = append(r.s.movements, cloneMovement(m))
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movements {
		if m.ID == id {
			return cloneMovement(m), nil
		}
	}
	return nil, nil
}

// ListByKey movimientos confirmados (y los pendientes de la tx) en orden de Seq.
func (r *MovementRepo) ListByKey(_ context.Context, companyID string, k entity.StockKey) ([]*entity.StockMovement, error) {
	return r.collect(func(m *entity.StockMovement) bool {
		return m.CompanyID == companyID && m.ProductID == k.ProductID && m.WarehouseID == k.WarehouseID
	}), nil
}

// ListByReference movimientos de una referencia, confirmados y pendientes de la tx.
func (r *MovementRepo) ListByReference(_ context.Context, companyID string, ref entity.Reference) ([]*entity.StockMovement, error) {
	return r.collect(func(m *entity.StockMovement) bool {
		return m.CompanyID == companyID && m.ReferenceType == ref.Type && m.ReferenceID == ref.ID
	}), nil
}

func (r *MovementRepo) collect(match func(*entity.StockMovement) bool) []*entity.StockMovement {
	r.s.mu.RLock()
	var out []*entity.StockMovement
	for _, m := range r.s.movements {
		if match(m) {
			out = append(out, cloneMovement(m))
		}
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, m := range r.tx.movements {
			if match(m) {
				out = append(out, cloneMovement(m))
			}
		}
	}
	return out
}

// List historial filtrado, más reciente primero.
func (r *MovementRepo) List(_ context.Context, f entity.MovementFilter) ([]*entity.StockMovement, error) {
	r.s.mu.RLock()
	var out []*entity.StockMovement
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		switch {
		case m.CompanyID != f.CompanyID,
			f.ProductID != "" && m.ProductID != f.ProductID,
			f.WarehouseID != "" && m.WarehouseID != f.WarehouseID,
			f.TransactionID != "" && m.TransactionID != f.TransactionID,
			f.ReferenceType != "" && m.ReferenceType != f.ReferenceType,
			f.ReferenceID != "" && m.ReferenceID != f.ReferenceID,
			f.Type != "" && m.Type != f.Type,
			f.From != nil && m.CreatedAt.Before(*f.From),
			f.To != nil && m.CreatedAt.After(*f.To):
			continue
		}
		out = append(out, cloneMovement(m))
	}
	r.s.mu.RUnlock()
	return paginate(out, f.Limit, f.Offset), nil
}

// ── Reservas ─────────────────────────────────────────────────────────────────

// ReservationRepo auditoría de reservas.
type ReservationRepo struct {
	s  *Store
	tx *tx
}

// Append agrega un registro de auditoría.
func (r *ReservationRepo) Append(_ context.Context, res *entity.Reservation) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	c := *res
	if r.tx != nil {
		r.tx.reservations = append(r.tx.reservations, &c)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.reservations = append(r.s.reservations, &c)
	return nil
}

// ReservedFor saldo reservado por la referencia en la fila.
func (r *ReservationRepo) ReservedFor(_ context.Context, companyID string, k entity.StockKey, ref entity.Reference) (decimal.Decimal, error) {
	total := decimal.Zero
	add := func(res *entity.Reservation) {
		if res.CompanyID == companyID && res.ProductID == k.ProductID && res.WarehouseID == k.WarehouseID &&
			res.ReferenceType == ref.Type && res.ReferenceID == ref.ID {
			total = total.Add(res.SignedQuantity())
		}
	}
	r.s.mu.RLock()
	for _, res := range r.s.reservations {
		add(res)
	}
	r.s.mu.RUnlock()
	if r.tx != nil {
		for _, res := range r.tx.reservations {
			add(res)
		}
	}
	return total, nil
}

// ListByReference auditoría de una referencia en orden cronológico.
func (r *ReservationRepo) ListByReference(_ context.Context, companyID string, ref entity.Reference) ([]*entity.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*entity.Reservation
	for _, res := range r.s.reservations {
		if res.CompanyID == companyID && res.ReferenceType == ref.Type && res.ReferenceID == ref.ID {
			c := *res
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── Órdenes de compra ────────────────────────────────────────────────────────

// OrderRepo órdenes de compra con sus líneas.
type OrderRepo struct {
	s  *Store
	tx *tx
}

func (r *OrderRepo) read(id string) *entity.PurchaseOrder {
	if r.tx != nil {
		if po, ok := r.tx.orders[id]; ok {
			return cloneOrder(po)
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if po, ok := r.s.orders[id]; ok {
		return cloneOrder(po)
	}
	return nil
}

func (r *OrderRepo) write(po *entity.PurchaseOrder) {
	if r.tx != nil {
		r.tx.orders[po.ID] = cloneOrder(po)
		return
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.orders[po.ID] = cloneOrder(po)
}

// Create persiste una orden nueva.
func (r *OrderRepo) Create(_ context.Context, po *entity.PurchaseOrder) error {
	if existing := r.read(po.ID); existing != nil {
		return domain.ErrDuplicate
	}
	r.write(po)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	return r.read(id), nil
}

// GetForUpdate bloquea la orden hasta el fin de la transacción.
func (r *OrderRepo) GetForUpdate(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	if r.tx != nil {
		if err := r.tx.lock(ctx, "po:"+id); err != nil {
			return nil, err
		}
	}
	return r.read(id), nil
}

// Update reemplaza cabecera y líneas.
func (r *OrderRepo) Update(_ context.Context, po *entity.PurchaseOrder) error {
	if existing := r.read(po.ID); existing == nil {
		return domain.ErrNotFound
	}
	r.write(po)
	return nil
}

// List órdenes filtradas, más recientes primero.
func (r *OrderRepo) List(_ context.Context, f entity.PurchaseOrderFilter) ([]*entity.PurchaseOrder, error) {
	r.s.mu.RLock()
	var out []*entity.PurchaseOrder
	for _, po := range r.s.orders {
		switch {
		case po.CompanyID != f.CompanyID,
			f.Status != "" && po.Status != f.Status,
			f.SupplierID != "" && po.SupplierID != f.SupplierID,
			f.WarehouseID != "" && po.WarehouseID != f.WarehouseID:
			continue
		}
		out = append(out, cloneOrder(po))
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber > out[j].OrderNumber })
	return paginate(out, f.Limit, f.Offset), nil
}

// NextOrderNumber consecutivo anual por empresa, serializado con un bloqueo propio.
func (r *OrderRepo) NextOrderNumber(ctx context.Context, companyID string, year int) (int, error) {
	key := companyID + ":" + strconv.Itoa(year)
	if r.tx == nil {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
		r.s.orderSeq[key]++
		return r.s.orderSeq[key], nil
	}
	if err := r.tx.lock(ctx, "poseq:"+key); err != nil {
		return 0, err
	}
	next, ok := r.tx.orderSeq[key]
	if !ok {
		r.s.mu.RLock()
		next = r.s.orderSeq[key]
		r.s.mu.RUnlock()
	}
	next++
	r.tx.orderSeq[key] = next
	return next, nil
}

// ── Alertas ──────────────────────────────────────────────────────────────────

// AlertRepo alertas de stock (no transaccional, operaciones atómicas bajo el mutex del store).
type AlertRepo struct{ s *Store }

// CreateIfNoneOpen inserta solo si no hay otra abierta para la clave.
func (r *AlertRepo) CreateIfNoneOpen(_ context.Context, a *entity.Alert) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.alerts {
		if other.IsOpen() && other.CompanyID == a.CompanyID &&
			other.ProductID == a.ProductID && other.WarehouseID == a.WarehouseID {
			return false, nil
		}
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	r.s.alerts[a.ID] = cloneAlert(a)
	return true, nil
}

// ResolveOpen resuelve las alertas abiertas de la clave.
func (r *AlertRepo) ResolveOpen(_ context.Context, companyID string, k entity.StockKey, resolvedBy string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	now := nowUTC()
	for _, a := range r.s.alerts {
		if a.IsOpen() && a.CompanyID == companyID && a.ProductID == k.ProductID && a.WarehouseID == k.WarehouseID {
			resolvedAt := now
			a.ResolvedAt = &resolvedAt
			a.ResolvedBy = resolvedBy
			n++
		}
	}
	return n, nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *AlertRepo) GetByID(_ context.Context, id string) (*entity.Alert, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.alerts[id]
	if !ok {
		return nil, nil
	}
	return cloneAlert(a), nil
}

// Update reemplaza la alerta.
func (r *AlertRepo) Update(_ context.Context, a *entity.Alert) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.alerts[a.ID]; !ok {
		return fmt.Errorf("update alert: %w", domain.ErrNotFound)
	}
	r.s.alerts[a.ID] = cloneAlert(a)
	return nil
}

// ListOpen alertas sin resolver, más recientes primero.
func (r *AlertRepo) ListOpen(_ context.Context, companyID, warehouseID string) ([]*entity.Alert, error) {
	r.s.mu.RLock()
	var out []*entity.Alert
	for _, a := range r.s.alerts {
		if a.IsOpen() && a.CompanyID == companyID && (warehouseID == "" || a.WarehouseID == warehouseID) {
			out = append(out, cloneAlert(a))
		}
	}
	r.s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].RaisedAt.After(out[j].RaisedAt) })
	return out, nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
