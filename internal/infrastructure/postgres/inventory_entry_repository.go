package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.InventoryEntryRepository = (*InventoryEntryRepo)(nil)

const entryColumns = `id, hospital_id, blood_group, units_available, units_consumed, original_units,
	collection_date, expiry_date, status, source_donation_id, created_at, updated_at`

// InventoryEntryRepo implementación del ledger de lotes sobre PostgreSQL (usable con pool o tx).
type InventoryEntryRepo struct {
	q Querier
}

// NewInventoryEntryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryEntryRepository(q Querier) *InventoryEntryRepo {
	return &InventoryEntryRepo{q: q}
}

func scanEntry(row pgx.Row) (*entity.InventoryEntry, error) {
	var e entity.InventoryEntry
	var group, status string
	err := row.Scan(
		&e.ID, &e.HospitalID, &group, &e.UnitsAvailable, &e.UnitsConsumed, &e.OriginalUnits,
		&e.CollectionDate, &e.ExpiryDate, &status, &e.SourceDonationID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.BloodGroup = entity.BloodGroup(group)
	e.Status = entity.EntryStatus(status)
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]*entity.InventoryEntry, error) {
	defer rows.Close()
	var list []*entity.InventoryEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Create inserta un lote nuevo (solo inserción, sin candados).
func (r *InventoryEntryRepo) Create(ctx context.Context, e *entity.InventoryEntry) error {
	query := `
		INSERT INTO inventory_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.HospitalID, string(e.BloodGroup), e.UnitsAvailable, e.UnitsConsumed, e.OriginalUnits,
		e.CollectionDate, e.ExpiryDate, string(e.Status), e.SourceDonationID, e.CreatedAt, e.UpdatedAt,
	)
	return mapError(err, "insert inventory entry")
}

// GetByID obtiene un lote por ID; nil si no existe.
func (r *InventoryEntryRepo) GetByID(ctx context.Context, id string) (*entity.InventoryEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM inventory_entries WHERE id = $1`
	e, err := scanEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, mapError(err, "get inventory entry")
	}
	return e, nil
}

// List lotes filtrados en orden FEFO.
func (r *InventoryEntryRepo) List(ctx context.Context, filter repository.InventoryFilter) ([]*entity.InventoryEntry, error) {
	b := psql.Select(entryColumns).From("inventory_entries").OrderBy("expiry_date ASC", "id ASC")
	if filter.HospitalID != "" {
		b = b.Where(sq.Eq{"hospital_id": filter.HospitalID})
	}
	if filter.BloodGroup != "" {
		b = b.Where(sq.Eq{"blood_group": string(filter.BloodGroup)})
	}
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		b = b.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		b = b.Offset(uint64(filter.Offset))
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list inventory: %w", err)
	}
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "list inventory")
	}
	list, err := collectEntries(rows)
	if err != nil {
		return nil, mapError(err, "scan inventory")
	}
	return list, nil
}

// SumEligible suma unidades elegibles sin bloquear.
func (r *InventoryEntryRepo) SumEligible(ctx context.Context, hospitalID string, group entity.BloodGroup, today time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(units_available), 0)
		FROM inventory_entries
		WHERE hospital_id = $1 AND blood_group = $2
		  AND status = 'available' AND units_available > 0 AND expiry_date >= $3`
	var total int64
	if err := r.q.QueryRow(ctx, query, hospitalID, string(group), entity.Day(today)).Scan(&total); err != nil {
		return 0, mapError(err, "sum eligible")
	}
	return int(total), nil
}

// ListEligibleForUpdate bloquea los lotes elegibles en orden de vencimiento ascendente.
// El ORDER BY fija el orden de adquisición de candados para que dos asignaciones
// sobre el mismo (hospital, grupo) no se bloqueen mutuamente.
func (r *InventoryEntryRepo) ListEligibleForUpdate(ctx context.Context, hospitalID string, group entity.BloodGroup, today time.Time) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE hospital_id = $1 AND blood_group = $2
		  AND status = 'available' AND units_available > 0 AND expiry_date >= $3
		ORDER BY expiry_date ASC, id ASC
		FOR UPDATE`
	rows, err := r.q.Query(ctx, query, hospitalID, string(group), entity.Day(today))
	if err != nil {
		return nil, mapError(err, "lock eligible entries")
	}
	list, err := collectEntries(rows)
	if err != nil {
		return nil, mapError(err, "lock eligible entries")
	}
	return list, nil
}

// UpdateUnits persiste unidades y estado de un lote ya bloqueado.
func (r *InventoryEntryRepo) UpdateUnits(ctx context.Context, e *entity.InventoryEntry) error {
	query := `
		UPDATE inventory_entries
		SET units_available = $2, units_consumed = $3, status = $4, updated_at = $5
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, e.ID, e.UnitsAvailable, e.UnitsConsumed, string(e.Status), e.UpdatedAt)
	if err != nil {
		return mapError(err, "update inventory entry")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update inventory entry %s: %w", e.ID, domain.ErrNotFound)
	}
	return nil
}

// ExpireBefore marca Expired los lotes disponibles con expiry_date < today. Conserva units_available.
func (r *InventoryEntryRepo) ExpireBefore(ctx context.Context, scope repository.ExpiryScope, today time.Time) (int, error) {
	b := psql.Update("inventory_entries").
		Set("status", string(entity.EntryStatusExpired)).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Eq{"status": string(entity.EntryStatusAvailable)}).
		Where(sq.Lt{"expiry_date": entity.Day(today)})
	if scope.HospitalID != "" {
		b = b.Where(sq.Eq{"hospital_id": scope.HospitalID})
	}
	if scope.BloodGroup != "" {
		b = b.Where(sq.Eq{"blood_group": string(scope.BloodGroup)})
	}
	query, args, err := b.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build expire: %w", err)
	}
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return 0, mapError(err, "expire entries")
	}
	return int(tag.RowsAffected()), nil
}

// Summarize calcula los totales por grupo al vuelo; no existe un contador almacenado.
func (r *InventoryEntryRepo) Summarize(ctx context.Context, hospitalID string, today time.Time) ([]repository.BloodGroupSummary, error) {
	query := `
		SELECT blood_group,
		       COALESCE(SUM(units_available) FILTER (WHERE status = 'available' AND expiry_date >= $2), 0),
		       COALESCE(SUM(units_consumed), 0),
		       COALESCE(SUM(units_available) FILTER (WHERE status = 'expired' OR (status = 'available' AND expiry_date < $2)), 0),
		       COUNT(*) FILTER (WHERE status = 'available' AND expiry_date >= $2),
		       COUNT(*) FILTER (WHERE status = 'depleted'),
		       COUNT(*) FILTER (WHERE status = 'expired' OR (status = 'available' AND expiry_date < $2)),
		       COALESCE(ROUND(SUM(units_consumed)::numeric * 100 / NULLIF(SUM(original_units), 0), 2), 0)
		FROM inventory_entries
		WHERE hospital_id = $1
		GROUP BY blood_group`
	rows, err := r.q.Query(ctx, query, hospitalID, entity.Day(today))
	if err != nil {
		return nil, mapError(err, "summarize inventory")
	}
	defer rows.Close()

	var out []repository.BloodGroupSummary
	for rows.Next() {
		var s repository.BloodGroupSummary
		var group string
		var avail, consumed, expired, nAvail, nDepleted, nExpired int64
		if err := rows.Scan(&group, &avail, &consumed, &expired, &nAvail, &nDepleted, &nExpired, &s.UtilizationPct); err != nil {
			return nil, mapError(err, "scan summary")
		}
		s.BloodGroup = entity.BloodGroup(group)
		s.AvailableUnits = int(avail)
		s.ConsumedUnits = int(consumed)
		s.ExpiredUnits = int(expired)
		s.AvailableEntries = int(nAvail)
		s.DepletedEntries = int(nDepleted)
		s.ExpiredEntries = int(nExpired)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, "scan summary")
	}
	sort.SliceStable(out, func(i, j int) bool {
		return groupRank(out[i].BloodGroup) < groupRank(out[j].BloodGroup)
	})
	return out, nil
}

func groupRank(g entity.BloodGroup) int {
	for i, bg := range entity.BloodGroups {
		if bg == g {
			return i
		}
	}
	return len(entity.BloodGroups)
}

// ListExpiring lotes disponibles que vencen entre from y to (inclusive).
func (r *InventoryEntryRepo) ListExpiring(ctx context.Context, hospitalID string, from, to time.Time) ([]*entity.InventoryEntry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM inventory_entries
		WHERE hospital_id = $1 AND status = 'available' AND units_available > 0
		  AND expiry_date BETWEEN $2 AND $3
		ORDER BY expiry_date ASC, id ASC`
	rows, err := r.q.Query(ctx, query, hospitalID, entity.Day(from), entity.Day(to))
	if err != nil {
		return nil, mapError(err, "list expiring")
	}
	list, err := collectEntries(rows)
	if err != nil {
		return nil, mapError(err, "list expiring")
	}
	return list, nil
}
