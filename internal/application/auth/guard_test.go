package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/infrastructure/memory"
)

func newGuard() (*auth.Guard, *memory.Store) {
	store := memory.NewStore()
	store.AddHospital(entity.HospitalRef{ID: "h1", Name: "Hospital Central", Approved: true})
	store.AddHospital(entity.HospitalRef{ID: "h2", Name: "Clínica Norte", Approved: false})
	store.AddActor(entity.Actor{ID: "staff", Role: entity.RoleHospital, HospitalID: "h1"})
	store.AddActor(entity.Actor{ID: "admin", Role: entity.RoleAdmin})
	store.AddActor(entity.Actor{ID: "donante", Role: entity.RoleDonor})
	return auth.NewGuard(store, store), store
}

func TestGuard_ActorVacioEsNoAutorizado(t *testing.T) {
	g, _ := newGuard()
	_, err := g.Actor(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestGuard_ActorDesconocidoFallaCerrado(t *testing.T) {
	g, _ := newGuard()
	_, err := g.Actor(context.Background(), "fantasma")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestGuard_DirectorioCaidoFallaCerrado(t *testing.T) {
	g, store := newGuard()
	store.DirectoryErr = errors.New("perfiles no disponible")

	_, err := g.RequireHospitalManager(context.Background(), "staff", "h1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.Hospital(context.Background(), "h1", true)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGuard_RequireHospitalManager(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()

	actor, err := g.RequireHospitalManager(ctx, "staff", "h1")
	require.NoError(t, err)
	assert.Equal(t, "h1", actor.HospitalID)

	_, err = g.RequireHospitalManager(ctx, "staff", "h2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.RequireHospitalManager(ctx, "donante", "h1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.RequireHospitalManager(ctx, "admin", "h2")
	assert.NoError(t, err)
}

func TestGuard_Hospital(t *testing.T) {
	g, _ := newGuard()
	ctx := context.Background()

	ref, err := g.Hospital(ctx, "h1", true)
	require.NoError(t, err)
	assert.Equal(t, "Hospital Central", ref.Name)

	_, err = g.Hospital(ctx, "h2", true)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = g.Hospital(ctx, "h2", false)
	assert.NoError(t, err)

	_, err = g.Hospital(ctx, "h9", false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGuard_RequireAdmin(t *testing.T) {
	g, _ := newGuard()
	_, err := g.RequireAdmin(context.Background(), "staff")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = g.RequireAdmin(context.Background(), "admin")
	assert.NoError(t, err)
}
