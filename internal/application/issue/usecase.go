package issue

import (
	"context"
	"fmt"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// SlipGenerator genera el comprobante imprimible de una salida de unidades.
type SlipGenerator interface {
	GenerateIssueSlip(ctx context.Context, rec *entity.IssueRecord, hospital entity.HospitalRef, req *entity.BloodRequest) ([]byte, error)
}

// UseCase consultas de registros de salida (inmutables) y su comprobante.
type UseCase struct {
	issueRepo   repository.IssueRecordRepository
	requestRepo repository.BloodRequestRepository
	guard       *auth.Guard
	generator   SlipGenerator
}

// NewUseCase construye el caso de uso de registros de salida.
func NewUseCase(
	issueRepo repository.IssueRecordRepository,
	requestRepo repository.BloodRequestRepository,
	guard *auth.Guard,
	generator SlipGenerator,
) *UseCase {
	return &UseCase{issueRepo: issueRepo, requestRepo: requestRepo, guard: guard, generator: generator}
}

func (uc *UseCase) authorize(ctx context.Context, actorID string, rec *entity.IssueRecord) error {
	_, err := uc.guard.RequireHospitalManager(ctx, actorID, rec.HospitalID)
	return err
}

// Get devuelve un registro por id.
func (uc *UseCase) Get(ctx context.Context, actorID, issueID string) (*entity.IssueRecord, error) {
	rec, err := uc.issueRepo.GetByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: registro de salida %s", domain.ErrNotFound, issueID)
	}
	if err := uc.authorize(ctx, actorID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetByRequest devuelve el registro de salida de una solicitud cumplida.
func (uc *UseCase) GetByRequest(ctx context.Context, actorID, requestID string) (*entity.IssueRecord, error) {
	rec, err := uc.issueRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: la solicitud %s no tiene salida", domain.ErrNotFound, requestID)
	}
	if err := uc.authorize(ctx, actorID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// List salidas de un hospital, más recientes primero.
func (uc *UseCase) List(ctx context.Context, actorID, hospitalID string, limit, offset int) ([]*entity.IssueRecord, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, hospitalID); err != nil {
		return nil, err
	}
	return uc.issueRepo.ListByHospital(ctx, hospitalID, limit, offset)
}

// Slip genera el PDF del comprobante de salida. Devuelve los bytes y un nombre de archivo sugerido.
func (uc *UseCase) Slip(ctx context.Context, actorID, issueID string) ([]byte, string, error) {
	rec, err := uc.Get(ctx, actorID, issueID)
	if err != nil {
		return nil, "", err
	}
	hospital, err := uc.guard.Hospital(ctx, rec.HospitalID, false)
	if err != nil {
		return nil, "", err
	}
	var req *entity.BloodRequest
	if rec.RequestID != "" {
		if req, err = uc.requestRepo.GetByID(ctx, rec.RequestID); err != nil {
			return nil, "", err
		}
	}
	pdf, err := uc.generator.GenerateIssueSlip(ctx, rec, hospital, req)
	if err != nil {
		return nil, "", fmt.Errorf("comprobante: generar pdf: %w", err)
	}
	return pdf, fmt.Sprintf("salida-%s.pdf", rec.ID), nil
}
