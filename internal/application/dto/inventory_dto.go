package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// RecordDonationRequest body para POST /api/donations.
type RecordDonationRequest struct {
	HospitalID     string `json:"hospital_id"`
	BloodGroup     string `json:"blood_group"`
	Units          int    `json:"units"`
	CollectionDate string `json:"collection_date"` // YYYY-MM-DD
	DonationID     string `json:"donation_id,omitempty"`
}

// InventoryEntryResponse lote del ledger.
type InventoryEntryResponse struct {
	ID               string    `json:"id"`
	HospitalID       string    `json:"hospital_id"`
	BloodGroup       string    `json:"blood_group"`
	UnitsAvailable   int       `json:"units_available"`
	UnitsConsumed    int       `json:"units_consumed"`
	OriginalUnits    int       `json:"original_units"`
	CollectionDate   string    `json:"collection_date"`
	ExpiryDate       string    `json:"expiry_date"`
	Status           string    `json:"status"`
	SourceDonationID *string   `json:"source_donation_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// AvailabilityResponse resultado orientativo de disponibilidad.
type AvailabilityResponse struct {
	HospitalID     string `json:"hospital_id"`
	BloodGroup     string `json:"blood_group"`
	UnitsRequested int    `json:"units_requested"`
	UnitsEligible  int    `json:"units_eligible"`
	Available      bool   `json:"available"`
}

// BloodGroupSummaryResponse totales por grupo.
type BloodGroupSummaryResponse struct {
	BloodGroup       string          `json:"blood_group"`
	AvailableUnits   int             `json:"available_units"`
	ConsumedUnits    int             `json:"consumed_units"`
	ExpiredUnits     int             `json:"expired_units"`
	AvailableEntries int             `json:"available_entries"`
	DepletedEntries  int             `json:"depleted_entries"`
	ExpiredEntries   int             `json:"expired_entries"`
	UtilizationPct   decimal.Decimal `json:"utilization_pct"`
}

// InventorySummaryResponse resumen de inventario de un hospital.
type InventorySummaryResponse struct {
	HospitalID  string                      `json:"hospital_id"`
	TotalUnits  int                         `json:"total_available_units"`
	BloodGroups []BloodGroupSummaryResponse `json:"blood_groups"`
}

// SweepResponse resultado de un barrido manual de vencidos.
type SweepResponse struct {
	Expired int `json:"expired"`
}

// ToInventoryEntryResponse mapea la entidad al DTO.
func ToInventoryEntryResponse(e *entity.InventoryEntry) InventoryEntryResponse {
	return InventoryEntryResponse{
		ID:               e.ID,
		HospitalID:       e.HospitalID,
		BloodGroup:       e.BloodGroup.String(),
		UnitsAvailable:   e.UnitsAvailable,
		UnitsConsumed:    e.UnitsConsumed,
		OriginalUnits:    e.OriginalUnits,
		CollectionDate:   e.CollectionDate.Format(DateLayout),
		ExpiryDate:       e.ExpiryDate.Format(DateLayout),
		Status:           string(e.Status),
		SourceDonationID: e.SourceDonationID,
		CreatedAt:        e.CreatedAt,
	}
}

// ToInventoryEntryList mapea una lista de lotes.
func ToInventoryEntryList(list []*entity.InventoryEntry) []InventoryEntryResponse {
	out := make([]InventoryEntryResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToInventoryEntryResponse(e))
	}
	return out
}

// ToInventorySummaryResponse arma el resumen con el total derivado.
func ToInventorySummaryResponse(hospitalID string, groups []repository.BloodGroupSummary) InventorySummaryResponse {
	resp := InventorySummaryResponse{HospitalID: hospitalID, BloodGroups: make([]BloodGroupSummaryResponse, 0, len(groups))}
	for _, g := range groups {
		resp.TotalUnits += g.AvailableUnits
		resp.BloodGroups = append(resp.BloodGroups, BloodGroupSummaryResponse{
			BloodGroup:       g.BloodGroup.String(),
			AvailableUnits:   g.AvailableUnits,
			ConsumedUnits:    g.ConsumedUnits,
			ExpiredUnits:     g.ExpiredUnits,
			AvailableEntries: g.AvailableEntries,
			DepletedEntries:  g.DepletedEntries,
			ExpiredEntries:   g.ExpiredEntries,
			UtilizationPct:   g.UtilizationPct,
		})
	}
	return resp
}
