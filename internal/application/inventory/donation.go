package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// RecordDonationInput donación completada que entra al ledger como un lote.
type RecordDonationInput struct {
	HospitalID     string
	BloodGroup     string
	Units          int
	CollectionDate time.Time
	// DonationID referencia opcional a la donación de origen; si se repite devuelve ErrDuplicate.
	DonationID string
}

// DonationUseCase registra donaciones como lotes nuevos (solo inserción, sin candados).
type DonationUseCase struct {
	entryRepo     repository.InventoryEntryRepository
	guard         *auth.Guard
	ShelfLifeDays int
	Now           Clock
}

// NewDonationUseCase construye el caso de uso de ingreso de donaciones.
func NewDonationUseCase(entryRepo repository.InventoryEntryRepository, guard *auth.Guard, shelfLifeDays int) *DonationUseCase {
	if shelfLifeDays <= 0 {
		shelfLifeDays = entity.ShelfLifeDays
	}
	return &DonationUseCase{
		entryRepo:     entryRepo,
		guard:         guard,
		ShelfLifeDays: shelfLifeDays,
		Now:           time.Now,
	}
}

// RecordDonation valida la donación y agrega exactamente un lote Available con
// vencimiento = fecha de colecta + vida útil. Nunca fusiona con lotes existentes.
func (uc *DonationUseCase) RecordDonation(ctx context.Context, actorID string, in RecordDonationInput) (*entity.InventoryEntry, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, in.HospitalID); err != nil {
		return nil, err
	}

	group, ok := entity.ParseBloodGroup(in.BloodGroup)
	if !ok {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	if in.Units <= 0 {
		return nil, domain.NewValidationError("units", "debe ser un entero positivo")
	}
	if in.CollectionDate.IsZero() {
		return nil, domain.NewValidationError("collection_date", "requerida")
	}
	now := uc.Now()
	if entity.Day(in.CollectionDate).After(entity.Day(now)) {
		return nil, domain.NewValidationError("collection_date", "no puede estar en el futuro")
	}

	if _, err := uc.guard.Hospital(ctx, in.HospitalID, true); err != nil {
		return nil, err
	}

	entry := &entity.InventoryEntry{
		ID:             uuid.New().String(),
		HospitalID:     in.HospitalID,
		BloodGroup:     group,
		UnitsAvailable: in.Units,
		UnitsConsumed:  0,
		OriginalUnits:  in.Units,
		CollectionDate: entity.Day(in.CollectionDate),
		ExpiryDate:     entity.ExpiryFor(in.CollectionDate, uc.ShelfLifeDays),
		Status:         entity.EntryStatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if id := strings.TrimSpace(in.DonationID); id != "" {
		entry.SourceDonationID = &id
	}
	if err := uc.entryRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("entry_id", entry.ID).Str("hospital_id", entry.HospitalID).
		Str("blood_group", group.String()).Int("units", entry.OriginalUnits).
		Time("expiry_date", entry.ExpiryDate).Msg("donación registrada")
	return entry, nil
}
