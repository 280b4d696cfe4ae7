package dto

import (
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// SubmitRequestRequest body para POST /api/requests.
type SubmitRequestRequest struct {
	PatientID  string `json:"patient_id"`
	HospitalID string `json:"hospital_id"`
	BloodGroup string `json:"blood_group"`
	Units      int    `json:"units"`
	Urgency    string `json:"urgency"`
	Reason     string `json:"reason"`
	DoctorName string `json:"doctor_name,omitempty"`
	Notes      string `json:"notes,omitempty"`
	RequiredBy string `json:"required_by,omitempty"` // YYYY-MM-DD
}

// DecisionRequest body para POST /api/requests/:id/decision.
type DecisionRequest struct {
	Decision string `json:"decision"` // approved | rejected
	Note     string `json:"note,omitempty"`
}

// FulfillRequest body opcional para POST /api/requests/:id/fulfill.
type FulfillRequest struct {
	IssuedTo string `json:"issued_to,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ApproveAndFulfillRequest body para POST /api/requests/:id/approve-and-fulfill.
type ApproveAndFulfillRequest struct {
	Note     string `json:"note,omitempty"`
	IssuedTo string `json:"issued_to,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// BloodRequestResponse solicitud de sangre.
type BloodRequestResponse struct {
	ID             string     `json:"id"`
	PatientID      string     `json:"patient_id"`
	HospitalID     string     `json:"hospital_id"`
	BloodGroup     string     `json:"blood_group"`
	UnitsRequested int        `json:"units_requested"`
	Urgency        string     `json:"urgency"`
	Reason         string     `json:"reason"`
	DoctorName     string     `json:"doctor_name,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	RequiredBy     string     `json:"required_by,omitempty"`
	Status         string     `json:"status"`
	RequestedAt    time.Time  `json:"requested_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	DecidedBy      string     `json:"decided_by,omitempty"`
	DecisionNote   string     `json:"decision_note,omitempty"`
	FulfilledAt    *time.Time `json:"fulfilled_at,omitempty"`
}

// FulfillResponse solicitud cumplida y su registro de salida.
type FulfillResponse struct {
	Request BloodRequestResponse `json:"request"`
	Issue   *IssueRecordResponse `json:"issue,omitempty"`
}

// ToBloodRequestResponse mapea la entidad al DTO.
func ToBloodRequestResponse(r *entity.BloodRequest) BloodRequestResponse {
	resp := BloodRequestResponse{
		ID:             r.ID,
		PatientID:      r.PatientID,
		HospitalID:     r.HospitalID,
		BloodGroup:     r.BloodGroup.String(),
		UnitsRequested: r.UnitsRequested,
		Urgency:        string(r.Urgency),
		Reason:         r.Reason,
		DoctorName:     r.DoctorName,
		Notes:          r.Notes,
		Status:         string(r.Status),
		RequestedAt:    r.RequestedAt,
		DecidedAt:      r.DecidedAt,
		DecidedBy:      r.DecidedBy,
		DecisionNote:   r.DecisionNote,
		FulfilledAt:    r.FulfilledAt,
	}
	if r.RequiredBy != nil {
		resp.RequiredBy = r.RequiredBy.Format(DateLayout)
	}
	return resp
}

// ToBloodRequestList mapea una lista de solicitudes.
func ToBloodRequestList(list []*entity.BloodRequest) []BloodRequestResponse {
	out := make([]BloodRequestResponse, 0, len(list))
	for _, r := range list {
		out = append(out, ToBloodRequestResponse(r))
	}
	return out
}
