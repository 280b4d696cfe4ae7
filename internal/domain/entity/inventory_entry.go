package entity

import (
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

// EntryStatus estado de un lote del ledger.
type EntryStatus string

const (
	EntryStatusAvailable EntryStatus = "available"
	EntryStatusExpired   EntryStatus = "expired"
	EntryStatusDepleted  EntryStatus = "depleted"
)

// Valid indica si el estado es uno de los conocidos.
func (s EntryStatus) Valid() bool {
	switch s {
	case EntryStatusAvailable, EntryStatusExpired, EntryStatusDepleted:
		return true
	}
	return false
}

// InventoryEntry representa un lote trazable de unidades de una sola donación en un hospital.
// Invariantes: UnitsAvailable >= 0; UnitsAvailable + UnitsConsumed == OriginalUnits;
// Status == Depleted <=> UnitsAvailable == 0.
type InventoryEntry struct {
	ID               string
	HospitalID       string
	BloodGroup       BloodGroup
	UnitsAvailable   int
	UnitsConsumed    int
	OriginalUnits    int
	CollectionDate   time.Time
	ExpiryDate       time.Time
	Status           EntryStatus
	SourceDonationID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsExpiredOn indica si el lote ya venció para la fecha dada (expiry_date < today).
func (e *InventoryEntry) IsExpiredOn(today time.Time) bool {
	return e.ExpiryDate.Before(Day(today))
}

// EligibleOn indica si el lote puede ser seleccionado por el motor de asignación.
// Un lote vencido que aún no fue barrido también queda fuera.
func (e *InventoryEntry) EligibleOn(today time.Time) bool {
	return e.Status == EntryStatusAvailable && e.UnitsAvailable > 0 && !e.IsExpiredOn(today)
}

// Consume descuenta n unidades del lote. Marca Depleted cuando llega a cero.
func (e *InventoryEntry) Consume(n int, now time.Time) error {
	if n <= 0 {
		return domain.NewValidationError("units", "el consumo debe ser positivo")
	}
	if e.Status != EntryStatusAvailable {
		return domain.NewValidationError("status", "solo se consume de lotes disponibles")
	}
	if n > e.UnitsAvailable {
		return &domain.InsufficientInventoryError{
			HospitalID: e.HospitalID,
			BloodGroup: e.BloodGroup.String(),
			Requested:  n,
			Available:  e.UnitsAvailable,
			Shortfall:  n - e.UnitsAvailable,
		}
	}
	e.UnitsAvailable -= n
	e.UnitsConsumed += n
	if e.UnitsAvailable == 0 {
		e.Status = EntryStatusDepleted
	}
	e.UpdatedAt = now
	return nil
}

// Expire marca el lote como vencido si todavía estaba disponible.
// UnitsAvailable se conserva para auditoría; las consultas excluyen los lotes vencidos.
func (e *InventoryEntry) Expire(today time.Time, now time.Time) bool {
	if e.Status != EntryStatusAvailable || !e.IsExpiredOn(today) {
		return false
	}
	e.Status = EntryStatusExpired
	e.UpdatedAt = now
	return true
}
