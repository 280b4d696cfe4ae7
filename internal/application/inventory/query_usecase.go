package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// Availability resultado orientativo de isAvailable. No reserva unidades.
type Availability struct {
	HospitalID     string
	BloodGroup     entity.BloodGroup
	UnitsRequested int
	UnitsEligible  int
	Available      bool
}

// QueryUseCase lecturas del ledger. Todas calculan los totales al leer; no hay contadores almacenados.
type QueryUseCase struct {
	entryRepo          repository.InventoryEntryRepository
	guard              *auth.Guard
	ExpiringWindowDays int
	Now                Clock
}

// NewQueryUseCase construye el caso de uso de consultas de inventario.
func NewQueryUseCase(entryRepo repository.InventoryEntryRepository, guard *auth.Guard, expiringWindowDays int) *QueryUseCase {
	if expiringWindowDays <= 0 {
		expiringWindowDays = 7
	}
	return &QueryUseCase{entryRepo: entryRepo, guard: guard, ExpiringWindowDays: expiringWindowDays, Now: time.Now}
}

// IsAvailable suma las unidades elegibles sin bloquear. Un resultado positivo no es garantía:
// la verificación autoritativa ocurre dentro de la transacción de asignación.
func (uc *QueryUseCase) IsAvailable(ctx context.Context, actorID, hospitalID, bloodGroup string, units int) (*Availability, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, hospitalID); err != nil {
		return nil, err
	}
	group, ok := entity.ParseBloodGroup(bloodGroup)
	if !ok {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	if units <= 0 {
		return nil, domain.NewValidationError("units", "debe ser un entero positivo")
	}
	eligible, err := uc.entryRepo.SumEligible(ctx, hospitalID, group, entity.Day(uc.Now()))
	if err != nil {
		return nil, err
	}
	return &Availability{
		HospitalID:     hospitalID,
		BloodGroup:     group,
		UnitsRequested: units,
		UnitsEligible:  eligible,
		Available:      eligible >= units,
	}, nil
}

// ListInventory lista los lotes de un hospital en orden FEFO, con filtros opcionales.
func (uc *QueryUseCase) ListInventory(ctx context.Context, actorID string, filter repository.InventoryFilter) ([]*entity.InventoryEntry, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, filter.HospitalID); err != nil {
		return nil, err
	}
	if filter.BloodGroup != "" && !filter.BloodGroup.Valid() {
		return nil, domain.NewValidationError("blood_group", "grupo sanguíneo desconocido")
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.NewValidationError("status", "estado desconocido")
	}
	return uc.entryRepo.List(ctx, filter)
}

// Summary totales por grupo sanguíneo derivados de los lotes.
func (uc *QueryUseCase) Summary(ctx context.Context, actorID, hospitalID string) ([]repository.BloodGroupSummary, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, hospitalID); err != nil {
		return nil, err
	}
	return uc.entryRepo.Summarize(ctx, hospitalID, entity.Day(uc.Now()))
}

// Expiring lotes disponibles que vencen entre hoy y hoy+days. days <= 0 usa la ventana por defecto.
func (uc *QueryUseCase) Expiring(ctx context.Context, actorID, hospitalID string, days int) ([]*entity.InventoryEntry, error) {
	if _, err := uc.guard.RequireHospitalManager(ctx, actorID, hospitalID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = uc.ExpiringWindowDays
	}
	today := entity.Day(uc.Now())
	return uc.entryRepo.ListExpiring(ctx, hospitalID, today, today.AddDate(0, 0, days))
}
