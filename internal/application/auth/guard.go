package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// Guard resuelve actores y hospitales contra los colaboradores externos y aplica
// las reglas de rol del ledger. Falla cerrado: si el colaborador no responde,
// la referencia se trata como inexistente.
type Guard struct {
	actors    repository.ActorDirectory
	hospitals repository.HospitalDirectory
}

// NewGuard construye el guard con los directorios de actores y hospitales.
func NewGuard(actors repository.ActorDirectory, hospitals repository.HospitalDirectory) *Guard {
	return &Guard{actors: actors, hospitals: hospitals}
}

// Actor resuelve la identidad. Actor vacío -> ErrUnauthorized; desconocido o directorio caído -> ErrForbidden.
func (g *Guard) Actor(ctx context.Context, actorID string) (entity.Actor, error) {
	if actorID == "" {
		return entity.Actor{}, domain.ErrUnauthorized
	}
	actor, err := g.actors.ResolveActor(ctx, actorID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return entity.Actor{}, err
		}
		return entity.Actor{}, fmt.Errorf("%w: actor %s no resuelto", domain.ErrForbidden, actorID)
	}
	return actor, nil
}

// RequireHospitalManager exige rol admin o personal del hospital indicado.
func (g *Guard) RequireHospitalManager(ctx context.Context, actorID, hospitalID string) (entity.Actor, error) {
	actor, err := g.Actor(ctx, actorID)
	if err != nil {
		return entity.Actor{}, err
	}
	if !actor.CanManageHospital(hospitalID) {
		return entity.Actor{}, fmt.Errorf("%w: rol %s no opera el hospital %s", domain.ErrForbidden, actor.Role, hospitalID)
	}
	return actor, nil
}

// RequireRequester exige que el actor pueda registrar solicitudes para el paciente y hospital.
func (g *Guard) RequireRequester(ctx context.Context, actorID, patientID, hospitalID string) (entity.Actor, error) {
	actor, err := g.Actor(ctx, actorID)
	if err != nil {
		return entity.Actor{}, err
	}
	if !actor.CanRequestFor(patientID, hospitalID) {
		return entity.Actor{}, fmt.Errorf("%w: rol %s no puede solicitar para el paciente %s", domain.ErrForbidden, actor.Role, patientID)
	}
	return actor, nil
}

// RequireAdmin exige rol admin.
func (g *Guard) RequireAdmin(ctx context.Context, actorID string) (entity.Actor, error) {
	actor, err := g.Actor(ctx, actorID)
	if err != nil {
		return entity.Actor{}, err
	}
	if actor.Role != entity.RoleAdmin {
		return entity.Actor{}, fmt.Errorf("%w: se requiere rol admin", domain.ErrForbidden)
	}
	return actor, nil
}

// Hospital resuelve un hospital. Desconocido o directorio caído -> ErrNotFound;
// si requireApproved y el hospital no está aprobado -> ErrForbidden.
func (g *Guard) Hospital(ctx context.Context, hospitalID string, requireApproved bool) (entity.HospitalRef, error) {
	ref, err := g.hospitals.ResolveHospital(ctx, hospitalID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return entity.HospitalRef{}, err
		}
		return entity.HospitalRef{}, fmt.Errorf("%w: hospital %s (directorio no disponible)", domain.ErrNotFound, hospitalID)
	}
	if !ref.Exists {
		return entity.HospitalRef{}, fmt.Errorf("%w: hospital %s", domain.ErrNotFound, hospitalID)
	}
	if requireApproved && !ref.Approved {
		return entity.HospitalRef{}, fmt.Errorf("%w: hospital %s no aprobado", domain.ErrForbidden, hospitalID)
	}
	return ref, nil
}
