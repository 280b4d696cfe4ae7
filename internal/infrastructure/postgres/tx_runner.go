package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Cada transacción fija lock_timeout: si un SELECT FOR UPDATE no obtiene sus filas a tiempo
// la tx aborta con domain.ErrLockTimeout en lugar de esperar indefinidamente.
type TxRunner struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
}

// NewTxRunner construye el runner con el pool y la espera máxima por candados.
func NewTxRunner(pool *pgxpool.Pool, lockTimeout time.Duration) *TxRunner {
	return &TxRunner{pool: pool, lockTimeout: lockTimeout}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	entryRepo repository.InventoryEntryRepository,
	requestRepo repository.BloodRequestRepository,
	issueRepo repository.IssueRecordRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if r.lockTimeout > 0 {
		ms := fmt.Sprintf("%dms", r.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, "SELECT set_config('lock_timeout', $1, true)", ms); err != nil {
			return mapError(err, "set lock_timeout")
		}
	}

	if err := fn(NewInventoryEntryRepository(tx), NewBloodRequestRepository(tx), NewIssueRecordRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return mapError(err, "commit transaction")
	}
	return nil
}
