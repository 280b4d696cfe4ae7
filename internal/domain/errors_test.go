package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

func TestInsufficientInventoryError_MatchSentinel(t *testing.T) {
	var err error = &domain.InsufficientInventoryError{
		HospitalID: "h1", BloodGroup: "O+", Requested: 5, Available: 2, Shortfall: 3,
	}
	wrapped := fmt.Errorf("fulfill: %w", err)

	assert.ErrorIs(t, wrapped, domain.ErrInsufficientInventory)
	assert.NotErrorIs(t, wrapped, domain.ErrLockTimeout)

	var target *domain.InsufficientInventoryError
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, 3, target.Shortfall)
}

func TestInvalidStateError_MatchSentinel(t *testing.T) {
	err := &domain.InvalidStateError{RequestID: "r1", Current: "fulfilled", Operation: "fulfill"}
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	assert.Contains(t, err.Error(), "fulfilled")
}

func TestValidationError_MatchSentinel(t *testing.T) {
	err := domain.NewValidationError("units", "debe ser positivo")
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}
