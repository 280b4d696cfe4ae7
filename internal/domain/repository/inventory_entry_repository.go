package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// InventoryFilter filtros para listar lotes. Campos vacíos no filtran.
type InventoryFilter struct {
	HospitalID string
	BloodGroup entity.BloodGroup
	Status     entity.EntryStatus
	Limit      int
	Offset     int
}

// ExpiryScope acota el barrido de vencidos. Vacío = todos los hospitales y grupos.
type ExpiryScope struct {
	HospitalID string
	BloodGroup entity.BloodGroup
}

// BloodGroupSummary totales derivados (nunca almacenados) por grupo sanguíneo.
type BloodGroupSummary struct {
	BloodGroup       entity.BloodGroup
	AvailableUnits   int // solo lotes elegibles a la fecha
	ConsumedUnits    int
	ExpiredUnits     int
	AvailableEntries int
	DepletedEntries  int
	ExpiredEntries   int
	UtilizationPct   decimal.Decimal // consumidas / unidades originales * 100
}

// InventoryEntryRepository puerto de persistencia del ledger de lotes.
// Las implementaciones aceptan pool o tx; ListEligibleForUpdate solo tiene sentido dentro de una tx.
type InventoryEntryRepository interface {
	Create(ctx context.Context, entry *entity.InventoryEntry) error
	GetByID(ctx context.Context, id string) (*entity.InventoryEntry, error)
	List(ctx context.Context, filter InventoryFilter) ([]*entity.InventoryEntry, error)
	// SumEligible suma unidades de lotes disponibles y no vencidos sin bloquear (consulta orientativa).
	SumEligible(ctx context.Context, hospitalID string, group entity.BloodGroup, today time.Time) (int, error)
	// ListEligibleForUpdate bloquea (SELECT FOR UPDATE) los lotes elegibles en orden de vencimiento ascendente.
	ListEligibleForUpdate(ctx context.Context, hospitalID string, group entity.BloodGroup, today time.Time) ([]*entity.InventoryEntry, error)
	UpdateUnits(ctx context.Context, entry *entity.InventoryEntry) error
	// ExpireBefore marca como vencidos los lotes disponibles con expiry_date < today. Devuelve cuántos cambió.
	ExpireBefore(ctx context.Context, scope ExpiryScope, today time.Time) (int, error)
	Summarize(ctx context.Context, hospitalID string, today time.Time) ([]BloodGroupSummary, error)
	// ListExpiring lotes disponibles con from <= expiry_date <= to, ordenados por vencimiento.
	ListExpiring(ctx context.Context, hospitalID string, from, to time.Time) ([]*entity.InventoryEntry, error)
}
