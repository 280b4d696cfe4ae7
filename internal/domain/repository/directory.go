package repository

import (
	"context"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// HospitalDirectory consulta al colaborador de perfiles por un hospital.
// Un hospital desconocido se devuelve con Exists=false y err nil.
type HospitalDirectory interface {
	ResolveHospital(ctx context.Context, hospitalID string) (entity.HospitalRef, error)
}

// ActorDirectory resuelve rol y vínculos de un actor autenticado.
// Devuelve domain.ErrNotFound si el actor no existe.
type ActorDirectory interface {
	ResolveActor(ctx context.Context, actorID string) (entity.Actor, error)
}
