package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Commit si fn devuelve nil; Rollback en cualquier otro caso. Los candados tomados
// dentro de fn (SELECT FOR UPDATE) se liberan al terminar la transacción.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		entryRepo repository.InventoryEntryRepository,
		requestRepo repository.BloodRequestRepository,
		issueRepo repository.IssueRecordRepository,
	) error) error
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time
