package repository

import (
	"context"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// IssueRecordRepository puerto de persistencia de registros de salida (solo inserción).
type IssueRecordRepository interface {
	// Create inserta el registro y sus lotes consumidos. Devuelve domain.ErrDuplicate
	// si la solicitud ya tiene un registro de salida.
	Create(ctx context.Context, rec *entity.IssueRecord) error
	GetByID(ctx context.Context, id string) (*entity.IssueRecord, error)
	GetByRequestID(ctx context.Context, requestID string) (*entity.IssueRecord, error)
	ListByHospital(ctx context.Context, hospitalID string, limit, offset int) ([]*entity.IssueRecord, error)
}
