package inventory_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/inventory"
)

var today = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func lot(id string, units int, expiry time.Time) *entity.InventoryEntry {
	return &entity.InventoryEntry{
		ID:             id,
		HospitalID:     "h1",
		BloodGroup:     entity.BloodGroupOPos,
		UnitsAvailable: units,
		OriginalUnits:  units,
		ExpiryDate:     expiry,
		Status:         entity.EntryStatusAvailable,
	}
}

func TestPlanFEFO_ConsumeEnOrdenDeVencimiento(t *testing.T) {
	e3 := lot("e3", 4, today.AddDate(0, 0, 30))
	e1 := lot("e1", 2, today.AddDate(0, 0, 2))
	e2 := lot("e2", 3, today.AddDate(0, 0, 10))

	plan, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, []*entity.InventoryEntry{e3, e1, e2}, 6, today)
	require.NoError(t, err)

	assert.Equal(t, []entity.Consumption{
		{EntryID: "e1", Units: 2},
		{EntryID: "e2", Units: 3},
		{EntryID: "e3", Units: 1},
	}, plan)
}

func TestPlanFEFO_ExcluyeVencidosNoBarridos(t *testing.T) {
	vencido := lot("old", 10, today.AddDate(0, 0, -1))
	vigente := lot("new", 2, today)

	_, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, []*entity.InventoryEntry{vencido, vigente}, 3, today)

	var insufficient *domain.InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 2, insufficient.Available)
	assert.Equal(t, 1, insufficient.Shortfall)
}

func TestPlanFEFO_VenceHoyTodaviaEsElegible(t *testing.T) {
	e := lot("e", 1, today)
	plan, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, []*entity.InventoryEntry{e}, 1, today)
	require.NoError(t, err)
	assert.Len(t, plan, 1)
}

func TestPlanFEFO_IgnoraAgotadosYExpirados(t *testing.T) {
	agotado := lot("d", 0, today.AddDate(0, 0, 1))
	agotado.Status = entity.EntryStatusDepleted
	expirado := lot("x", 5, today.AddDate(0, 0, 1))
	expirado.Status = entity.EntryStatusExpired

	_, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, []*entity.InventoryEntry{agotado, expirado}, 1, today)
	assert.ErrorIs(t, err, domain.ErrInsufficientInventory)
}

func TestPlanFEFO_EmpateDeVencimientoOrdenaPorID(t *testing.T) {
	b := lot("b", 1, today.AddDate(0, 0, 5))
	a := lot("a", 1, today.AddDate(0, 0, 5))

	plan, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, []*entity.InventoryEntry{b, a}, 1, today)
	require.NoError(t, err)
	assert.Equal(t, "a", plan[0].EntryID)
}

func TestPlanFEFO_UnidadesNoPositivas(t *testing.T) {
	_, err := inventory.PlanFEFO("h1", entity.BloodGroupOPos, nil, 0, today)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
