package dto

import (
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// ConsumptionResponse unidades tomadas de un lote.
type ConsumptionResponse struct {
	EntryID string `json:"entry_id"`
	Units   int    `json:"units"`
}

// IssueRecordResponse registro de salida.
type IssueRecordResponse struct {
	ID          string                `json:"id"`
	RequestID   string                `json:"request_id,omitempty"`
	HospitalID  string                `json:"hospital_id"`
	BloodGroup  string                `json:"blood_group"`
	UnitsIssued int                   `json:"units_issued"`
	Consumed    []ConsumptionResponse `json:"consumed"`
	IssuedTo    string                `json:"issued_to,omitempty"`
	IssuedBy    string                `json:"issued_by"`
	IssuedAt    time.Time             `json:"issued_at"`
	Notes       string                `json:"notes,omitempty"`
}

// ToIssueRecordResponse mapea la entidad al DTO.
func ToIssueRecordResponse(rec *entity.IssueRecord) IssueRecordResponse {
	consumed := make([]ConsumptionResponse, 0, len(rec.Consumed))
	for _, c := range rec.Consumed {
		consumed = append(consumed, ConsumptionResponse{EntryID: c.EntryID, Units: c.Units})
	}
	return IssueRecordResponse{
		ID:          rec.ID,
		RequestID:   rec.RequestID,
		HospitalID:  rec.HospitalID,
		BloodGroup:  rec.BloodGroup.String(),
		UnitsIssued: rec.UnitsIssued,
		Consumed:    consumed,
		IssuedTo:    rec.IssuedTo,
		IssuedBy:    rec.IssuedBy,
		IssuedAt:    rec.IssuedAt,
		Notes:       rec.Notes,
	}
}

// ToIssueRecordList mapea una lista de salidas.
func ToIssueRecordList(list []*entity.IssueRecord) []IssueRecordResponse {
	out := make([]IssueRecordResponse, 0, len(list))
	for _, rec := range list {
		out = append(out, ToIssueRecordResponse(rec))
	}
	return out
}
