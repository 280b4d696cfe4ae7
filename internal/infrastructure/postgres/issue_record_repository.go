package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.IssueRecordRepository = (*IssueRecordRepo)(nil)

const issueColumns = `id, COALESCE(request_id, ''), hospital_id, blood_group, units_issued, issued_to, issued_by, issued_at, notes`

// IssueRecordRepo registros de salida sobre PostgreSQL. Solo inserción: un trigger rechaza UPDATE/DELETE.
type IssueRecordRepo struct {
	q Querier
}

// NewIssueRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIssueRecordRepository(q Querier) *IssueRecordRepo {
	return &IssueRecordRepo{q: q}
}

// Create inserta el registro y sus lotes consumidos en orden. request_id es UNIQUE:
// una segunda salida para la misma solicitud devuelve domain.ErrDuplicate.
func (r *IssueRecordRepo) Create(ctx context.Context, rec *entity.IssueRecord) error {
	var requestID *string
	if rec.RequestID != "" {
		requestID = &rec.RequestID
	}
	query := `
		INSERT INTO issue_records (id, request_id, hospital_id, blood_group, units_issued, issued_to, issued_by, issued_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.q.Exec(ctx, query,
		rec.ID, requestID, rec.HospitalID, string(rec.BloodGroup), rec.UnitsIssued,
		rec.IssuedTo, rec.IssuedBy, rec.IssuedAt, rec.Notes,
	); err != nil {
		return mapError(err, "insert issue record")
	}
	for i, c := range rec.Consumed {
		if _, err := r.q.Exec(ctx,
			`INSERT INTO issue_record_entries (issue_id, position, entry_id, units) VALUES ($1, $2, $3, $4)`,
			rec.ID, i, c.EntryID, c.Units,
		); err != nil {
			return mapError(err, "insert issue record entry")
		}
	}
	return nil
}

func scanIssue(row pgx.Row) (*entity.IssueRecord, error) {
	var rec entity.IssueRecord
	var group string
	if err := row.Scan(&rec.ID, &rec.RequestID, &rec.HospitalID, &group, &rec.UnitsIssued,
		&rec.IssuedTo, &rec.IssuedBy, &rec.IssuedAt, &rec.Notes); err != nil {
		return nil, err
	}
	rec.BloodGroup = entity.BloodGroup(group)
	return &rec, nil
}

func (r *IssueRecordRepo) getOne(ctx context.Context, where string, arg string) (*entity.IssueRecord, error) {
	rec, err := scanIssue(r.q.QueryRow(ctx, `SELECT `+issueColumns+` FROM issue_records WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err, "get issue record")
	}
	if err := r.loadConsumed(ctx, []*entity.IssueRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByID obtiene un registro por ID; nil si no existe.
func (r *IssueRecordRepo) GetByID(ctx context.Context, id string) (*entity.IssueRecord, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByRequestID obtiene el registro de salida de una solicitud; nil si no tiene.
func (r *IssueRecordRepo) GetByRequestID(ctx context.Context, requestID string) (*entity.IssueRecord, error) {
	if requestID == "" {
		return nil, nil
	}
	return r.getOne(ctx, "request_id = $1", requestID)
}

// ListByHospital salidas de un hospital, más recientes primero.
func (r *IssueRecordRepo) ListByHospital(ctx context.Context, hospitalID string, limit, offset int) ([]*entity.IssueRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT ` + issueColumns + `
		FROM issue_records
		WHERE hospital_id = $1
		ORDER BY issued_at DESC, id ASC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, hospitalID, limit, offset)
	if err != nil {
		return nil, mapError(err, "list issue records")
	}
	var list []*entity.IssueRecord
	for rows.Next() {
		rec, err := scanIssue(rows)
		if err != nil {
			rows.Close()
			return nil, mapError(err, "scan issue record")
		}
		list = append(list, rec)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "list issue records")
	}
	if err := r.loadConsumed(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadConsumed completa Consumed de cada registro en una sola consulta.
func (r *IssueRecordRepo) loadConsumed(ctx context.Context, recs []*entity.IssueRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(recs))
	byID := make(map[string]*entity.IssueRecord, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
	}
	rows, err := r.q.Query(ctx, `
		SELECT issue_id, entry_id, units
		FROM issue_record_entries
		WHERE issue_id = ANY($1)
		ORDER BY issue_id, position`, ids)
	if err != nil {
		return mapError(err, "load issue entries")
	}
	defer rows.Close()
	for rows.Next() {
		var issueID string
		var c entity.Consumption
		if err := rows.Scan(&issueID, &c.EntryID, &c.Units); err != nil {
			return mapError(err, "scan issue entry")
		}
		if rec, ok := byID[issueID]; ok {
			rec.Consumed = append(rec.Consumed, c)
		}
	}
	return mapError(rows.Err(), "load issue entries")
}
