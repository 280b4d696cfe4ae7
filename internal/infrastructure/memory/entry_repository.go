package memory

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.InventoryEntryRepository = (*entryRepo)(nil)

type entryRepo struct {
	s  *Store
	tx *txn
}

// visible mezcla el estado confirmado con las escrituras pendientes de la transacción.
func (r *entryRepo) visible() map[string]entity.InventoryEntry {
	r.s.mu.Lock()
	out := make(map[string]entity.InventoryEntry, len(r.s.entries))
	for id, e := range r.s.entries {
		out[id] = e
	}
	r.s.mu.Unlock()
	if r.tx != nil {
		for id, e := range r.tx.entries {
			out[id] = e
		}
	}
	return out
}

func (r *entryRepo) write(e entity.InventoryEntry) {
	if r.tx != nil {
		r.tx.entries[e.ID] = e
		return
	}
	r.s.mu.Lock()
	r.s.entries[e.ID] = e
	r.s.mu.Unlock()
}

func (r *entryRepo) Create(_ context.Context, entry *entity.InventoryEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	for _, e := range r.visible() {
		if e.ID == entry.ID {
			return domain.ErrDuplicate
		}
		if entry.SourceDonationID != nil && e.SourceDonationID != nil && *e.SourceDonationID == *entry.SourceDonationID {
			return domain.ErrDuplicate
		}
	}
	r.write(*entry)
	return nil
}

func (r *entryRepo) GetByID(_ context.Context, id string) (*entity.InventoryEntry, error) {
	e, ok := r.visible()[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *entryRepo) List(_ context.Context, filter repository.InventoryFilter) ([]*entity.InventoryEntry, error) {
	var list []*entity.InventoryEntry
	for _, e := range r.visible() {
		e := e
		if filter.HospitalID != "" && e.HospitalID != filter.HospitalID {
			continue
		}
		if filter.BloodGroup != "" && e.BloodGroup != filter.BloodGroup {
			continue
		}
		if filter.Status != "" && e.Status != filter.Status {
			continue
		}
		list = append(list, &e)
	}
	inventory.SortFEFO(list)
	return page(list, filter.Limit, filter.Offset), nil
}

func (r *entryRepo) SumEligible(_ context.Context, hospitalID string, group entity.BloodGroup, today time.Time) (int, error) {
	return inventory.EligibleUnits(r.scoped(hospitalID, group), today), nil
}

func (r *entryRepo) ListEligibleForUpdate(ctx context.Context, hospitalID string, group entity.BloodGroup, today time.Time) ([]*entity.InventoryEntry, error) {
	if r.tx == nil {
		return nil, errors.New("memory: ListEligibleForUpdate requiere transacción")
	}
	// Un candado por (hospital, grupo) cubre todas las filas que una asignación podría tocar.
	if err := r.s.lock(ctx, r.tx, entryLockKey(hospitalID, group)); err != nil {
		return nil, err
	}
	var list []*entity.InventoryEntry
	for _, e := range r.scoped(hospitalID, group) {
		if e.EligibleOn(today) {
			list = append(list, e)
		}
	}
	inventory.SortFEFO(list)
	return list, nil
}

func (r *entryRepo) scoped(hospitalID string, group entity.BloodGroup) []*entity.InventoryEntry {
	var list []*entity.InventoryEntry
	for _, e := range r.visible() {
		e := e
		if e.HospitalID == hospitalID && e.BloodGroup == group {
			list = append(list, &e)
		}
	}
	return list
}

func (r *entryRepo) UpdateUnits(_ context.Context, entry *entity.InventoryEntry) error {
	if _, ok := r.visible()[entry.ID]; !ok {
		return domain.ErrNotFound
	}
	if entry.UnitsAvailable < 0 || entry.UnitsAvailable+entry.UnitsConsumed != entry.OriginalUnits {
		return domain.NewValidationError("units", "viola el balance del lote")
	}
	r.write(*entry)
	return nil
}

func (r *entryRepo) ExpireBefore(ctx context.Context, scope repository.ExpiryScope, today time.Time) (int, error) {
	now := time.Now()
	inScope := func(e entity.InventoryEntry) bool {
		if scope.HospitalID != "" && e.HospitalID != scope.HospitalID {
			return false
		}
		return scope.BloodGroup == "" || e.BloodGroup == scope.BloodGroup
	}

	// Primero los candados de cada (hospital, grupo) afectado, en orden fijo; luego se relee.
	pending := make(map[string]bool)
	for _, e := range r.visible() {
		c := e
		if inScope(e) && c.Expire(today, now) {
			pending[entryLockKey(e.HospitalID, e.BloodGroup)] = true
		}
	}
	keys := make([]string, 0, len(pending))
	for key := range pending {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if r.tx == nil {
			if err := r.s.locks.acquire(ctx, key, r.s.LockTimeout); err != nil {
				return 0, err
			}
			defer r.s.locks.release(key)
			continue
		}
		if err := r.s.lock(ctx, r.tx, key); err != nil {
			return 0, err
		}
	}

	count := 0
	for _, e := range r.visible() {
		e := e
		if !inScope(e) || !pending[entryLockKey(e.HospitalID, e.BloodGroup)] {
			continue
		}
		if e.Expire(today, now) {
			r.write(e)
			count++
		}
	}
	return count, nil
}

func entryLockKey(hospitalID string, group entity.BloodGroup) string {
	return "entries:" + hospitalID + "|" + group.String()
}

func (r *entryRepo) Summarize(_ context.Context, hospitalID string, today time.Time) ([]repository.BloodGroupSummary, error) {
	byGroup := make(map[entity.BloodGroup]*repository.BloodGroupSummary)
	original := make(map[entity.BloodGroup]int)
	for _, e := range r.visible() {
		if e.HospitalID != hospitalID {
			continue
		}
		s, ok := byGroup[e.BloodGroup]
		if !ok {
			s = &repository.BloodGroupSummary{BloodGroup: e.BloodGroup}
			byGroup[e.BloodGroup] = s
		}
		original[e.BloodGroup] += e.OriginalUnits
		s.ConsumedUnits += e.UnitsConsumed
		switch {
		case e.Status == entity.EntryStatusDepleted:
			s.DepletedEntries++
		case e.Status == entity.EntryStatusExpired || e.IsExpiredOn(today):
			s.ExpiredEntries++
			s.ExpiredUnits += e.UnitsAvailable
		default:
			s.AvailableEntries++
			s.AvailableUnits += e.UnitsAvailable
		}
	}
	out := make([]repository.BloodGroupSummary, 0, len(byGroup))
	for _, g := range entity.BloodGroups {
		s, ok := byGroup[g]
		if !ok {
			continue
		}
		s.UtilizationPct = decimal.Zero
		if original[g] > 0 {
			s.UtilizationPct = decimal.NewFromInt(int64(s.ConsumedUnits)).
				Mul(decimal.NewFromInt(100)).
				Div(decimal.NewFromInt(int64(original[g]))).
				Round(2)
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *entryRepo) ListExpiring(_ context.Context, hospitalID string, from, to time.Time) ([]*entity.InventoryEntry, error) {
	var list []*entity.InventoryEntry
	for _, e := range r.visible() {
		e := e
		if e.HospitalID != hospitalID || e.Status != entity.EntryStatusAvailable {
			continue
		}
		if e.ExpiryDate.Before(from) || e.ExpiryDate.After(to) {
			continue
		}
		list = append(list, &e)
	}
	inventory.SortFEFO(list)
	return list, nil
}

func page[T any](list []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(list) {
			return nil
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
