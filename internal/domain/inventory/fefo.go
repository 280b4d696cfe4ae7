package inventory

import (
	"sort"
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// SortFEFO ordena los lotes por fecha de vencimiento ascendente (First-Expire-First-Out).
// Empates por ID para que el orden, y por tanto el orden de bloqueo, sea determinista.
func SortFEFO(entries []*entity.InventoryEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.ExpiryDate.Equal(b.ExpiryDate) {
			return a.ExpiryDate.Before(b.ExpiryDate)
		}
		return a.ID < b.ID
	})
}

// EligibleUnits suma las unidades disponibles de los lotes elegibles a la fecha today.
func EligibleUnits(entries []*entity.InventoryEntry, today time.Time) int {
	total := 0
	for _, e := range entries {
		if e.EligibleOn(today) {
			total += e.UnitsAvailable
		}
	}
	return total
}

// PlanFEFO decide cuántas unidades tomar de cada lote (servicio de dominio, sin efectos).
// Consume vorazmente desde el lote que vence primero; los lotes no elegibles se ignoran
// aunque vengan en la lista. Si no alcanza, no devuelve plan parcial sino
// *domain.InsufficientInventoryError con el faltante.
func PlanFEFO(hospitalID string, group entity.BloodGroup, entries []*entity.InventoryEntry, units int, today time.Time) ([]entity.Consumption, error) {
	if units <= 0 {
		return nil, domain.NewValidationError("units", "debe ser un entero positivo")
	}
	sorted := make([]*entity.InventoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.EligibleOn(today) {
			sorted = append(sorted, e)
		}
	}
	SortFEFO(sorted)

	available := EligibleUnits(sorted, today)
	if available < units {
		return nil, &domain.InsufficientInventoryError{
			HospitalID: hospitalID,
			BloodGroup: group.String(),
			Requested:  units,
			Available:  available,
			Shortfall:  units - available,
		}
	}

	plan := make([]entity.Consumption, 0, len(sorted))
	remaining := units
	for _, e := range sorted {
		if remaining == 0 {
			break
		}
		take := e.UnitsAvailable
		if take > remaining {
			take = remaining
		}
		plan = append(plan, entity.Consumption{EntryID: e.ID, Units: take})
		remaining -= take
	}
	return plan, nil
}
