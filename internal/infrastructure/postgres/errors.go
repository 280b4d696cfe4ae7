package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

// Códigos SQLSTATE que el ledger traduce a errores de dominio.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeLockNotAvailable    = "55P03"
	codeDeadlockDetected    = "40P01"
	codeQueryCanceled       = "57014"
)

// mapError traduce errores de pgx a sentinels de dominio conservando el contexto de la operación.
func mapError(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrDuplicate)
		case codeForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, domain.ErrNotFound)
		case codeCheckViolation:
			return &domain.ValidationError{Field: pgErr.ConstraintName, Reason: pgErr.Message}
		case codeLockNotAvailable, codeDeadlockDetected:
			return fmt.Errorf("%s: %w", op, domain.ErrLockTimeout)
		case codeQueryCanceled:
			return fmt.Errorf("%s: %w", op, context.Canceled)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
