package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.IssueRecordRepository = (*issueRepo)(nil)

type issueRepo struct {
	s  *Store
	tx *txn
}

func (r *issueRepo) all() []entity.IssueRecord {
	r.s.mu.Lock()
	out := make([]entity.IssueRecord, 0, len(r.s.issues))
	for _, rec := range r.s.issues {
		out = append(out, rec)
	}
	r.s.mu.Unlock()
	if r.tx != nil {
		for _, rec := range r.tx.issues {
			out = append(out, rec)
		}
	}
	return out
}

func (r *issueRepo) Create(_ context.Context, rec *entity.IssueRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	for _, existing := range r.all() {
		if existing.ID == rec.ID || (rec.RequestID != "" && existing.RequestID == rec.RequestID) {
			return domain.ErrDuplicate
		}
	}
	stored := *rec
	stored.Consumed = append([]entity.Consumption(nil), rec.Consumed...)
	if r.tx != nil {
		r.tx.issues[stored.ID] = stored
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.issueRequestTaken(stored.RequestID, stored.ID) {
		return domain.ErrDuplicate
	}
	r.s.issues[stored.ID] = stored
	return nil
}

func (r *issueRepo) GetByID(_ context.Context, id string) (*entity.IssueRecord, error) {
	for _, rec := range r.all() {
		if rec.ID == id {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *issueRepo) GetByRequestID(_ context.Context, requestID string) (*entity.IssueRecord, error) {
	if requestID == "" {
		return nil, nil
	}
	for _, rec := range r.all() {
		if rec.RequestID == requestID {
			rec := rec
			return &rec, nil
		}
	}
	return nil, nil
}

func (r *issueRepo) ListByHospital(_ context.Context, hospitalID string, limit, offset int) ([]*entity.IssueRecord, error) {
	var list []*entity.IssueRecord
	for _, rec := range r.all() {
		rec := rec
		if rec.HospitalID == hospitalID {
			list = append(list, &rec)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].IssuedAt.Equal(list[j].IssuedAt) {
			return list[i].IssuedAt.After(list[j].IssuedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, limit, offset), nil
}
