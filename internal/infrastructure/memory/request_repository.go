package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

var _ repository.BloodRequestRepository = (*requestRepo)(nil)

type requestRepo struct {
	s  *Store
	tx *txn
}

func (r *requestRepo) lookup(id string) (entity.BloodRequest, bool) {
	if r.tx != nil {
		if req, ok := r.tx.requests[id]; ok {
			return req, true
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	req, ok := r.s.requests[id]
	return req, ok
}

func (r *requestRepo) write(req entity.BloodRequest) {
	if r.tx != nil {
		r.tx.requests[req.ID] = req
		return
	}
	r.s.mu.Lock()
	r.s.requests[req.ID] = req
	r.s.mu.Unlock()
}

func (r *requestRepo) Create(_ context.Context, req *entity.BloodRequest) error {
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if _, ok := r.lookup(req.ID); ok {
		return domain.ErrDuplicate
	}
	r.write(*req)
	return nil
}

func (r *requestRepo) GetByID(_ context.Context, id string) (*entity.BloodRequest, error) {
	req, ok := r.lookup(id)
	if !ok {
		return nil, nil
	}
	return &req, nil
}

func (r *requestRepo) GetForUpdate(ctx context.Context, id string) (*entity.BloodRequest, error) {
	if r.tx != nil {
		if err := r.s.lock(ctx, r.tx, "request:"+id); err != nil {
			return nil, err
		}
	}
	return r.GetByID(ctx, id)
}

func (r *requestRepo) UpdateStatus(_ context.Context, req *entity.BloodRequest) error {
	if _, ok := r.lookup(req.ID); !ok {
		return domain.ErrNotFound
	}
	r.write(*req)
	return nil
}

func (r *requestRepo) List(_ context.Context, filter repository.RequestFilter) ([]*entity.BloodRequest, error) {
	r.s.mu.Lock()
	all := make(map[string]entity.BloodRequest, len(r.s.requests))
	for id, req := range r.s.requests {
		all[id] = req
	}
	r.s.mu.Unlock()
	if r.tx != nil {
		for id, req := range r.tx.requests {
			all[id] = req
		}
	}

	var list []*entity.BloodRequest
	for _, req := range all {
		req := req
		if filter.HospitalID != "" && req.HospitalID != filter.HospitalID {
			continue
		}
		if filter.PatientID != "" && req.PatientID != filter.PatientID {
			continue
		}
		if filter.Status != "" && req.Status != filter.Status {
			continue
		}
		if filter.BloodGroup != "" && req.BloodGroup != filter.BloodGroup {
			continue
		}
		list = append(list, &req)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if !list[i].RequestedAt.Equal(list[j].RequestedAt) {
			return list[i].RequestedAt.After(list[j].RequestedAt)
		}
		return list[i].ID < list[j].ID
	})
	return page(list, filter.Limit, filter.Offset), nil
}
