// Package memory implementa los puertos de persistencia en memoria con la misma disciplina
// transaccional que PostgreSQL: bloqueo por fila con espera acotada y escrituras diferidas
// hasta el commit. Se usa en tests y con STORE_DRIVER=memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
	"github.com/jhoicas/piano-stock-api/internal/domain"
	"github.com/jhoicas/piano-stock-api/internal/domain/entity"
)

var _ inventory.TxRunner = (*Store)(nil)

// DefaultLockTimeout espera máxima por el bloqueo de una fila.
const DefaultLockTimeout = 2 * time.Second

type levelKey struct {
	companyID   string
	productID   string
	warehouseID string
}

func newLevelKey(companyID string, k entity.StockKey) levelKey {
	return levelKey{companyID: companyID, productID: k.ProductID, warehouseID: k.WarehouseID}
}

func (k levelKey) lockName() string {
	return "level:" + k.companyID + ":" + k.warehouseID + ":" + k.productID
}

// Store estado confirmado. mu protege los mapas; los bloqueos de fila viven en locks.
type Store struct {
	mu           sync.RWMutex
	warehouses   map[string]*entity.Warehouse
	levels       map[levelKey]*entity.StockLevel
	movements    []*entity.StockMovement
	seq          int64
	reservations []*entity.Reservation
	orders       map[string]*entity.PurchaseOrder
	orderSeq     map[string]int
	alerts       map[string]*entity.Alert

	locks       *lockTable
	lockTimeout time.Duration
}

// NewStore construye un almacén vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		warehouses:  make(map[string]*entity.Warehouse),
		levels:      make(map[levelKey]*entity.StockLevel),
		orders:      make(map[string]*entity.PurchaseOrder),
		orderSeq:    make(map[string]int),
		alerts:      make(map[string]*entity.Alert),
		locks:       newLockTable(),
		lockTimeout: lockTimeout,
	}
}

// Run ejecuta fn con repositorios atados a una transacción. Si fn devuelve error nada se aplica.
func (s *Store) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	t := &tx{
		s:        s,
		held:     make(map[string]bool),
		levels:   make(map[levelKey]*entity.StockLevel),
		orders:   make(map[string]*entity.PurchaseOrder),
		orderSeq: make(map[string]int),
	}
	defer t.releaseAll()

	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// Warehouses repositorio de bodegas fuera de transacción.
func (s *Store) Warehouses() *WarehouseRepo { return &WarehouseRepo{s: s} }

// Levels repositorio de la proyección fuera de transacción.
func (s *Store) Levels() *LevelRepo { return &LevelRepo{s: s} }

// Movements repositorio del ledger fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// Reservations repositorio de auditoría de reservas fuera de transacción.
func (s *Store) Reservations() *ReservationRepo { return &ReservationRepo{s: s} }

// Orders repositorio de órdenes de compra fuera de transacción.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{s: s} }

// Alerts repositorio de alertas.
func (s *Store) Alerts() *AlertRepo { return &AlertRepo{s: s} }

// tx escrituras diferidas de una unidad de trabajo.
type tx struct {
	s            *Store
	held         map[string]bool
	levels       map[levelKey]*entity.StockLevel
	movements    []*entity.StockMovement
	reservations []*entity.Reservation
	orders       map[string]*entity.PurchaseOrder
	orderSeq     map[string]int
}

func (t *tx) repos() inventory.TxRepos {
	return inventory.TxRepos{
		Movements:    &MovementRepo{s: t.s, tx: t},
		Levels:       &LevelRepo{s: t.s, tx: t},
		Reservations: &ReservationRepo{s: t.s, tx: t},
		Orders:       &OrderRepo{s: t.s, tx: t},
	}
}

// lock toma el bloqueo una sola vez por transacción (reentrante).
func (t *tx) lock(ctx context.Context, name string) error {
	if t.held[name] {
		return nil
	}
	if err := t.s.locks.acquire(ctx, name, t.s.lockTimeout); err != nil {
		return err
	}
	t.held[name] = true
	return nil
}

func (t *tx) releaseAll() {
	for name := range t.held {
		t.s.locks.release(name)
	}
	t.held = nil
}

func (t *tx) commit() {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, l := range t.levels {
		s.levels[k] = cloneLevel(l)
	}
	for _, m := range t.movements {
		s.seq++
		m.Seq = s.seq
		s.movements = append(s.movements, cloneMovement(m))
	}
	s.reservations = append(s.reservations, t.reservations...)
	for id, po := range t.orders {
		s.orders[id] = cloneOrder(po)
	}
	for k, v := range t.orderSeq {
		s.orderSeq[k] = v
	}
}

// lockTable un semáforo de capacidad 1 por nombre de fila.
type lockTable struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{slots: make(map[string]chan struct{})}
}

func (lt *lockTable) slot(name string) chan struct{} {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.slots[name]
	if !ok {
		ch = make(chan struct{}, 1)
		lt.slots[name] = ch
	}
	return ch
}

func (lt *lockTable) acquire(ctx context.Context, name string, timeout time.Duration) error {
	ch := lt.slot(name)
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return domain.ErrConcurrencyTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (lt *lockTable) release(name string) {
	<-lt.slot(name)
}

func cloneLevel(l *entity.StockLevel) *entity.StockLevel {
	c := *l
	return &c
}

func cloneMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	return &c
}

func cloneOrder(po *entity.PurchaseOrder) *entity.PurchaseOrder {
	c := *po
	c.Lines = make([]*entity.PurchaseOrderLine, 0, len(po.Lines))
	for _, l := range po.Lines {
		lc := *l
		c.Lines = append(c.Lines, &lc)
	}
	return &c
}

func cloneAlert(a *entity.Alert) *entity.Alert {
	c := *a
	return &c
}

func nowUTC() time.Time { return time.Now().UTC() }
