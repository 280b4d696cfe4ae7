package request

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// SubmitInput datos de una nueva solicitud de sangre.
type SubmitInput struct {
	PatientID  string
	HospitalID string
	BloodGroup string
	Units      int
	Urgency    string
	Reason     string
	DoctorName string
	Notes      string
	RequiredBy *time.Time
}

// FulfillInput datos opcionales del registro de salida.
type FulfillInput struct {
	IssuedTo string
	Notes    string
}

// FulfillResult solicitud cumplida y su registro de salida.
type FulfillResult struct {
	Request *entity.BloodRequest
	Issue   *entity.IssueRecord
}

// UseCase máquina de estados de solicitudes: pending -> approved|rejected; approved -> fulfilled.
type UseCase struct {
	txRunner    inventory.TxRunner
	requestRepo repository.BloodRequestRepository
	engine      *inventory.AllocationEngine
	guard       *auth.Guard
	Now         inventory.Clock
}

// NewUseCase construye el caso de uso de solicitudes.
func NewUseCase(
	txRunner inventory.TxRunner,
	requestRepo repository.BloodRequestRepository,
	engine *inventory.AllocationEngine,
	guard *auth.Guard,
) *UseCase {
	return &UseCase{
		txRunner:    txRunner,
		requestRepo: requestRepo,
		engine:      engine,
		guard:       guard,
		Now:         time.Now,
	}
}

// Submit registra una solicitud; siempre queda en pending.
func (uc *UseCase) Submit(ctx context.Context, actorID string, in SubmitInput) (*entity.BloodRequest, error) {
	patientID := strings.TrimSpace(in.PatientID)
	if patientID == "" {
		return nil, domain.NewValidationError("patient_id", "requerido")
	}
	if _, err := uc.guard.RequireRequester(ctx, actorID, patientID, in.HospitalID); err != nil {
		return nil, err
	}

	group, ok := entity.ParseBloodGroup(in.BloodGroup)
	if !ok {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	if in.Units < entity.MinUnitsPerRequest || in.Units > entity.MaxUnitsPerRequest {
		return nil, domain.NewValidationError("units", fmt.Sprintf("debe estar entre %d y %d", entity.MinUnitsPerRequest, entity.MaxUnitsPerRequest))
	}
	urgency := entity.Urgency(strings.ToLower(strings.TrimSpace(in.Urgency)))
	if !urgency.Valid() {
		return nil, domain.NewValidationError("urgency", "debe ser low, medium, high o critical")
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, domain.NewValidationError("reason", "requerido")
	}
	now := uc.Now()
	if in.RequiredBy != nil && entity.Day(*in.RequiredBy).Before(entity.Day(now)) {
		return nil, domain.NewValidationError("required_by", "no puede estar en el pasado")
	}

	if _, err := uc.guard.Hospital(ctx, in.HospitalID, true); err != nil {
		return nil, err
	}

	req := &entity.BloodRequest{
		ID:             uuid.New().String(),
		PatientID:      patientID,
		HospitalID:     in.HospitalID,
		BloodGroup:     group,
		UnitsRequested: in.Units,
		Urgency:        urgency,
		Reason:         reason,
		DoctorName:     strings.TrimSpace(in.DoctorName),
		Notes:          strings.TrimSpace(in.Notes),
		RequiredBy:     in.RequiredBy,
		Status:         entity.RequestStatusPending,
		RequestedAt:    now,
	}
	if err := uc.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("request_id", req.ID).Str("hospital_id", req.HospitalID).
		Str("blood_group", group.String()).Int("units", req.UnitsRequested).
		Str("urgency", string(urgency)).Msg("solicitud registrada")
	return req, nil
}

// load obtiene la solicitud sin bloquear y verifica que el actor opere su hospital.
func (uc *UseCase) load(ctx context.Context, actorID, requestID string) (*entity.BloodRequest, entity.Actor, error) {
	req, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, entity.Actor{}, err
	}
	if req == nil {
		return nil, entity.Actor{}, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
	}
	actor, err := uc.guard.RequireHospitalManager(ctx, actorID, req.HospitalID)
	if err != nil {
		return nil, entity.Actor{}, err
	}
	return req, actor, nil
}

// Decide aprueba o rechaza una solicitud pendiente. Rechazar no toca el ledger.
func (uc *UseCase) Decide(ctx context.Context, actorID, requestID, decision, note string) (*entity.BloodRequest, error) {
	if _, _, err := uc.load(ctx, actorID, requestID); err != nil {
		return nil, err
	}
	status := entity.RequestStatus(strings.ToLower(strings.TrimSpace(decision)))

	var out *entity.BloodRequest
	err := uc.txRunner.Run(ctx, func(
		_ repository.InventoryEntryRepository,
		requestRepo repository.BloodRequestRepository,
		_ repository.IssueRecordRepository,
	) error {
		req, err := requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
		}
		if err := req.Decide(status, actorID, strings.TrimSpace(note), uc.Now()); err != nil {
			return err
		}
		if err := requestRepo.UpdateStatus(ctx, req); err != nil {
			return err
		}
		out = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Info().Str("request_id", requestID).Str("decision", string(status)).
		Str("actor_id", actorID).Msg("solicitud decidida")
	return out, nil
}

// Fulfill emite las unidades de una solicitud aprobada. La asignación y el paso a fulfilled
// se confirman en la misma transacción: si la asignación falla la solicitud sigue approved
// y no se consume ningún lote.
func (uc *UseCase) Fulfill(ctx context.Context, actorID, requestID string, in FulfillInput) (*FulfillResult, error) {
	if _, _, err := uc.load(ctx, actorID, requestID); err != nil {
		return nil, err
	}

	var out *FulfillResult
	err := uc.txRunner.Run(ctx, func(
		entryRepo repository.InventoryEntryRepository,
		requestRepo repository.BloodRequestRepository,
		issueRepo repository.IssueRecordRepository,
	) error {
		req, err := requestRepo.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
		}
		if err := req.CanFulfill(); err != nil {
			return err
		}
		// Sin destinatario explícito, las unidades se entregan al paciente de la solicitud.
		issuedTo := strings.TrimSpace(in.IssuedTo)
		if issuedTo == "" {
			issuedTo = req.PatientID
		}
		now := uc.Now()
		res, err := uc.engine.AllocateInTx(ctx, entryRepo, issueRepo, inventory.AllocationInput{
			RequestID:  req.ID,
			HospitalID: req.HospitalID,
			BloodGroup: req.BloodGroup,
			Units:      req.UnitsRequested,
			IssuedBy:   actorID,
			IssuedTo:   issuedTo,
			Notes:      strings.TrimSpace(in.Notes),
		}, now)
		if err != nil {
			return err
		}
		if err := req.MarkFulfilled(now); err != nil {
			return err
		}
		if err := requestRepo.UpdateStatus(ctx, req); err != nil {
			return err
		}
		out = &FulfillResult{Request: req, Issue: res.Issue}
		return nil
	})
	if err != nil {
		var ie *domain.InsufficientInventoryError
		if errors.As(err, &ie) {
			zerolog.Ctx(ctx).Warn().Str("request_id", requestID).Int("shortfall", ie.Shortfall).
				Msg("solicitud aprobada sin inventario suficiente")
		}
		return nil, err
	}
	return out, nil
}

// ApproveAndFulfill aprueba y luego cumple en dos pasos independientes. Si la emisión
// falla la aprobación se mantiene y se devuelve la solicitud aprobada junto con el error.
func (uc *UseCase) ApproveAndFulfill(ctx context.Context, actorID, requestID, note string, in FulfillInput) (*FulfillResult, error) {
	approved, err := uc.Decide(ctx, actorID, requestID, string(entity.RequestStatusApproved), note)
	if err != nil {
		return nil, err
	}
	res, err := uc.Fulfill(ctx, actorID, requestID, in)
	if err != nil {
		return &FulfillResult{Request: approved}, err
	}
	return res, nil
}

// Get devuelve una solicitud si el actor es su paciente o opera su hospital.
func (uc *UseCase) Get(ctx context.Context, actorID, requestID string) (*entity.BloodRequest, error) {
	actor, err := uc.guard.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	req, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%w: solicitud %s", domain.ErrNotFound, requestID)
	}
	if !actor.CanRequestFor(req.PatientID, req.HospitalID) {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

// List acota el filtro según el rol: el paciente ve las suyas y el hospital las de su sede.
func (uc *UseCase) List(ctx context.Context, actorID string, filter repository.RequestFilter) ([]*entity.BloodRequest, error) {
	actor, err := uc.guard.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case entity.RoleAdmin:
	case entity.RoleHospital:
		if filter.HospitalID != "" && filter.HospitalID != actor.HospitalID {
			return nil, domain.ErrForbidden
		}
		filter.HospitalID = actor.HospitalID
	case entity.RolePatient:
		if filter.PatientID != "" && filter.PatientID != actor.PatientID {
			return nil, domain.ErrForbidden
		}
		filter.PatientID = actor.PatientID
	default:
		return nil, domain.ErrForbidden
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "estado desconocido")
	}
	if filter.BloodGroup != "" && !filter.BloodGroup.Valid() {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	return uc.requestRepo.List(ctx, filter)
}
