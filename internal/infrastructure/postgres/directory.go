package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var (
	_ repository.HospitalDirectory = (*Directory)(nil)
	_ repository.ActorDirectory    = (*Directory)(nil)
)

// Directory resuelve hospitales y actores desde las tablas de referencia que mantiene
// el servicio de perfiles. El ledger solo las lee; Upsert* existe para el CLI de carga.
type Directory struct {
	q Querier
}

// NewDirectory construye el adaptador de directorio.
func NewDirectory(q Querier) *Directory {
	return &Directory{q: q}
}

// ResolveHospital devuelve Exists=false si el hospital no está registrado.
func (d *Directory) ResolveHospital(ctx context.Context, hospitalID string) (entity.HospitalRef, error) {
	ref := entity.HospitalRef{ID: hospitalID}
	err := d.q.QueryRow(ctx, `SELECT name, approved FROM hospitals WHERE id = $1`, hospitalID).Scan(&ref.Name, &ref.Approved)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ref, nil
		}
		return entity.HospitalRef{}, mapError(err, "resolve hospital")
	}
	ref.Exists = true
	return ref, nil
}

// ResolveActor devuelve domain.ErrNotFound si el actor no está registrado.
func (d *Directory) ResolveActor(ctx context.Context, actorID string) (entity.Actor, error) {
	a := entity.Actor{ID: actorID}
	err := d.q.QueryRow(ctx,
		`SELECT role, COALESCE(hospital_id, ''), COALESCE(patient_id, '') FROM actors WHERE id = $1`, actorID,
	).Scan(&a.Role, &a.HospitalID, &a.PatientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.Actor{}, fmt.Errorf("actor %s: %w", actorID, domain.ErrNotFound)
		}
		return entity.Actor{}, mapError(err, "resolve actor")
	}
	return a, nil
}

// UpsertHospital registra o actualiza un hospital de referencia.
func (d *Directory) UpsertHospital(ctx context.Context, ref entity.HospitalRef) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO hospitals (id, name, approved) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, approved = EXCLUDED.approved`,
		ref.ID, ref.Name, ref.Approved)
	return mapError(err, "upsert hospital")
}

// UpsertActor registra o actualiza un actor de referencia.
func (d *Directory) UpsertActor(ctx context.Context, a entity.Actor) error {
	_, err := d.q.Exec(ctx, `
		INSERT INTO actors (id, role, hospital_id, patient_id) VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role, hospital_id = EXCLUDED.hospital_id, patient_id = EXCLUDED.patient_id`,
		a.ID, a.Role, a.HospitalID, a.PatientID)
	return mapError(err, "upsert actor")
}
