package repository

import (
	"context"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// RequestFilter filtros para listar solicitudes. Campos vacíos no filtran.
type RequestFilter struct {
	HospitalID string
	PatientID  string
	Status     entity.RequestStatus
	BloodGroup entity.BloodGroup
	Limit      int
	Offset     int
}

// BloodRequestRepository puerto de persistencia de solicitudes de sangre.
type BloodRequestRepository interface {
	Create(ctx context.Context, req *entity.BloodRequest) error
	GetByID(ctx context.Context, id string) (*entity.BloodRequest, error)
	// GetForUpdate bloquea la fila de la solicitud (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.BloodRequest, error)
	// UpdateStatus persiste estado y marcas de decisión/cumplimiento.
	UpdateStatus(ctx context.Context, req *entity.BloodRequest) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.BloodRequest, error)
}
