package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.BloodRequestRepository = (*BloodRequestRepo)(nil)

const requestColumns = `id, patient_id, hospital_id, blood_group, units_requested, urgency, reason,
	doctor_name, notes, required_by, status, requested_at, decided_at, decided_by, decision_note, fulfilled_at`

// BloodRequestRepo implementación de solicitudes sobre PostgreSQL (usable con pool o tx).
type BloodRequestRepo struct {
	q Querier
}

// NewBloodRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBloodRequestRepository(q Querier) *BloodRequestRepo {
	return &BloodRequestRepo{q: q}
}

func scanRequest(row pgx.Row) (*entity.BloodRequest, error) {
	var r entity.BloodRequest
	var group, urgency, status string
	err := row.Scan(
		&r.ID, &r.PatientID, &r.HospitalID, &group, &r.UnitsRequested, &urgency, &r.Reason,
		&r.DoctorName, &r.Notes, &r.RequiredBy, &status, &r.RequestedAt, &r.DecidedAt, &r.DecidedBy,
		&r.DecisionNote, &r.FulfilledAt,
	)
	if err != nil {
		return nil, err
	}
	r.BloodGroup = entity.BloodGroup(group)
	r.Urgency = entity.Urgency(urgency)
	r.Status = entity.RequestStatus(status)
	return &r, nil
}

// Create inserta una solicitud nueva.
func (r *BloodRequestRepo) Create(ctx context.Context, req *entity.BloodRequest) error {
	query := `
		INSERT INTO blood_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.PatientID, req.HospitalID, string(req.BloodGroup), req.UnitsRequested, string(req.Urgency), req.Reason,
		req.DoctorName, req.Notes, req.RequiredBy, string(req.Status), req.RequestedAt, req.DecidedAt, req.DecidedBy,
		req.DecisionNote, req.FulfilledAt,
	)
	return mapError(err, "insert blood request")
}

func (r *BloodRequestRepo) get(ctx context.Context, query, id, op string) (*entity.BloodRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err, op)
	}
	return req, nil
}

// GetByID obtiene una solicitud por ID; nil si no existe.
func (r *BloodRequestRepo) GetByID(ctx context.Context, id string) (*entity.BloodRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM blood_requests WHERE id = $1`, id, "get blood request")
}

// GetForUpdate obtiene la solicitud y bloquea su fila (SELECT FOR UPDATE).
func (r *BloodRequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.BloodRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM blood_requests WHERE id = $1 FOR UPDATE`, id, "lock blood request")
}

// UpdateStatus persiste estado y marcas de decisión/cumplimiento.
func (r *BloodRequestRepo) UpdateStatus(ctx context.Context, req *entity.BloodRequest) error {
	query := `
		UPDATE blood_requests
		SET status = $2, decided_at = $3, decided_by = $4, decision_note = $5, fulfilled_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, req.ID, string(req.Status), req.DecidedAt, req.DecidedBy, req.DecisionNote, req.FulfilledAt)
	if err != nil {
		return mapError(err, "update blood request")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update blood request %s: %w", req.ID, domain.ErrNotFound)
	}
	return nil
}

// List solicitudes filtradas, más recientes primero.
func (r *BloodRequestRepo) List(ctx context.Context, filter repository.RequestFilter) ([]*entity.BloodRequest, error) {
	b := psql.Select(requestColumns).From("blood_requests").OrderBy("requested_at DESC", "id ASC")
	if filter.HospitalID != "" {
		b = b.Where(sq.Eq{"hospital_id": filter.HospitalID})
	}
	if filter.PatientID != "" {
		b = b.Where(sq.Eq{"patient_id": filter.PatientID})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.BloodGroup != "" {
		b = b.Where(sq.Eq{"blood_group": string(filter.BloodGroup)})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list requests: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list blood requests")
	}
	defer rows.Close()
	var list []*entity.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, mapError(err, "scan blood request")
		}
		list = append(list, req)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list blood requests")
	}
	return list, nil
}
