package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/piano-stock-api/internal/application/inventory"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL READ COMMITTED.
// El aislamiento de las filas de stock lo dan los SELECT FOR UPDATE, no el nivel de la tx.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los fallos de bloqueo salen como domain.ErrConcurrencyTimeout.
func (r *TxRunner) Run(ctx context.Context, fn func(repos inventory.TxRepos) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := inventory.TxRepos{
		Movements:    NewStockMovementRepository(tx),
		Levels:       NewStockLevelRepository(tx),
		Reservations: NewReservationRepository(tx),
		Orders:       NewPurchaseOrderRepository(tx),
	}
	if err := fn(repos); err != nil {
		return mapLockError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return mapLockError(fmt.Errorf("commit transaction: %w", err))
	}
	return nil
}
