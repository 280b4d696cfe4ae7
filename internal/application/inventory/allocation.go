package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	dominv "github.com/jhoicas/BancoSangre-api/internal/domain/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// AllocationInput datos de una salida de unidades.
type AllocationInput struct {
	RequestID  string
	HospitalID string
	BloodGroup entity.BloodGroup
	Units      int
	IssuedBy   string
	IssuedTo   string
	Notes      string
}

// AllocationResult lotes consumidos en orden FEFO y el registro de salida creado.
type AllocationResult struct {
	Consumed []entity.Consumption
	Issue    *entity.IssueRecord
}

// AllocationEngine selecciona y descuenta unidades del ledger bajo bloqueo de fila.
// Todo o nada: si no alcanza el inventario elegible no se toca ningún lote.
type AllocationEngine struct {
	txRunner TxRunner
	Now      Clock
}

// NewAllocationEngine construye el motor de asignación.
func NewAllocationEngine(txRunner TxRunner) *AllocationEngine {
	return &AllocationEngine{txRunner: txRunner, Now: time.Now}
}

// Allocate abre su propia transacción y asigna in.Units unidades.
// Es la entrada para asignaciones sin solicitud asociada (in.RequestID vacío, por ejemplo
// traslados internos); el cumplimiento de solicitudes usa AllocateInTx dentro de su transacción.
func (e *AllocationEngine) Allocate(ctx context.Context, in AllocationInput) (*AllocationResult, error) {
	var res *AllocationResult
	err := e.txRunner.Run(ctx, func(
		entryRepo repository.InventoryEntryRepository,
		_ repository.BloodRequestRepository,
		issueRepo repository.IssueRecordRepository,
	) error {
		var err error
		res, err = e.AllocateInTx(ctx, entryRepo, issueRepo, in, e.Now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// AllocateInTx asigna dentro de una transacción ya abierta por el llamador, para que
// la salida y el cambio de estado de la solicitud se confirmen juntos.
//  1. barre los lotes vencidos del (hospital, grupo) de forma perezosa
//  2. bloquea los lotes elegibles en orden de vencimiento ascendente
//  3. calcula el plan FEFO; si falta inventario devuelve el faltante sin escribir
//  4. descuenta cada lote y registra la salida
func (e *AllocationEngine) AllocateInTx(
	ctx context.Context,
	entryRepo repository.InventoryEntryRepository,
	issueRepo repository.IssueRecordRepository,
	in AllocationInput,
	now time.Time,
) (*AllocationResult, error) {
	if in.HospitalID == "" {
		return nil, domain.NewValidationError("hospital_id", "requerido")
	}
	if !in.BloodGroup.Valid() {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	if in.Units <= 0 {
		return nil, domain.NewValidationError("units", "debe ser un entero positivo")
	}
	today := entity.Day(now)
	log := zerolog.Ctx(ctx)

	swept, err := entryRepo.ExpireBefore(ctx, repository.ExpiryScope{HospitalID: in.HospitalID, BloodGroup: in.BloodGroup}, today)
	if err != nil {
		return nil, err
	}
	if swept > 0 {
		log.Info().Str("hospital_id", in.HospitalID).Str("blood_group", in.BloodGroup.String()).
			Int("expired", swept).Msg("lotes vencidos marcados antes de asignar")
	}

	candidates, err := entryRepo.ListEligibleForUpdate(ctx, in.HospitalID, in.BloodGroup, today)
	if err != nil {
		return nil, err
	}
	plan, err := dominv.PlanFEFO(in.HospitalID, in.BloodGroup, candidates, in.Units, today)
	if err != nil {
		log.Warn().Err(err).Str("hospital_id", in.HospitalID).Str("blood_group", in.BloodGroup.String()).
			Int("units", in.Units).Msg("asignación rechazada")
		return nil, err
	}

	byID := make(map[string]*entity.InventoryEntry, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
	}
	for _, step := range plan {
		entry := byID[step.EntryID]
		if err := entry.Consume(step.Units, now); err != nil {
			return nil, err
		}
		if err := entryRepo.UpdateUnits(ctx, entry); err != nil {
			return nil, err
		}
	}

	rec := &entity.IssueRecord{
		ID:          uuid.New().String(),
		RequestID:   in.RequestID,
		HospitalID:  in.HospitalID,
		BloodGroup:  in.BloodGroup,
		UnitsIssued: in.Units,
		Consumed:    plan,
		IssuedTo:    in.IssuedTo,
		IssuedBy:    in.IssuedBy,
		IssuedAt:    now,
		Notes:       in.Notes,
	}
	if err := issueRepo.Create(ctx, rec); err != nil {
		return nil, err
	}

	log.Info().Str("request_id", in.RequestID).Str("hospital_id", in.HospitalID).
		Str("blood_group", in.BloodGroup.String()).Int("units", in.Units).
		Strs("entries", rec.ConsumedEntryIDs()).Msg("unidades emitidas")
	return &AllocationResult{Consumed: plan, Issue: rec}, nil
}
