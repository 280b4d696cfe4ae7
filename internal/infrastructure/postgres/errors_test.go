package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"sin filas", pgx.ErrNoRows, domain.ErrNotFound},
		{"único", &pgconn.PgError{Code: codeUniqueViolation}, domain.ErrDuplicate},
		{"check", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "inventory_entries_balance"}, domain.ErrValidation},
		{"lock_timeout", &pgconn.PgError{Code: codeLockNotAvailable}, domain.ErrLockTimeout},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, domain.ErrLockTimeout},
		{"contexto", context.DeadlineExceeded, context.DeadlineExceeded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tc.err, "op"), tc.want)
		})
	}
	assert.NoError(t, mapError(nil, "op"))

	other := errors.New("conexión rota")
	assert.ErrorIs(t, mapError(other, "op"), other)
}
