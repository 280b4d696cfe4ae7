package entity

import (
	"time"

	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

// RequestStatus estado del ciclo de vida de una solicitud de sangre.
type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusApproved  RequestStatus = "approved"
	RequestStatusRejected  RequestStatus = "rejected"
	RequestStatusFulfilled RequestStatus = "fulfilled"
)

// Terminal indica si no se admiten más transiciones.
func (s RequestStatus) Terminal() bool {
	return s == RequestStatusRejected || s == RequestStatusFulfilled
}

// Valid indica si el estado es uno de los conocidos.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusFulfilled:
		return true
	}
	return false
}

// Urgency prioridad clínica de la solicitud.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Valid indica si la urgencia es una de las conocidas.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Límites de unidades por solicitud.
const (
	MinUnitsPerRequest = 1
	MaxUnitsPerRequest = 10
)

// BloodRequest necesidad de un paciente de unidades de un grupo en un hospital.
// Transiciones: pending -> approved|rejected; approved -> fulfilled. rejected y fulfilled son terminales.
type BloodRequest struct {
	ID             string
	PatientID      string
	HospitalID     string
	BloodGroup     BloodGroup
	UnitsRequested int
	Urgency        Urgency
	Reason         string
	DoctorName     string
	Notes          string
	RequiredBy     *time.Time
	Status         RequestStatus
	RequestedAt    time.Time
	DecidedAt      *time.Time
	DecidedBy      string
	DecisionNote   string
	FulfilledAt    *time.Time
}

// Decide aplica una decisión (approved o rejected) sobre una solicitud pendiente.
func (r *BloodRequest) Decide(decision RequestStatus, actorID, note string, now time.Time) error {
	if decision != RequestStatusApproved && decision != RequestStatusRejected {
		return domain.NewValidationError("decision", "debe ser approved o rejected")
	}
	if r.Status != RequestStatusPending {
		return &domain.InvalidStateError{RequestID: r.ID, Current: string(r.Status), Operation: "decide"}
	}
	r.Status = decision
	r.DecidedAt = &now
	r.DecidedBy = actorID
	r.DecisionNote = note
	return nil
}

// CanFulfill valida que la solicitud esté aprobada y lista para emitir unidades.
func (r *BloodRequest) CanFulfill() error {
	if r.Status != RequestStatusApproved {
		return &domain.InvalidStateError{RequestID: r.ID, Current: string(r.Status), Operation: "fulfill"}
	}
	return nil
}

// MarkFulfilled cierra la solicitud tras una asignación exitosa.
func (r *BloodRequest) MarkFulfilled(now time.Time) error {
	if err := r.CanFulfill(); err != nil {
		return err
	}
	r.Status = RequestStatusFulfilled
	r.FulfilledAt = &now
	return nil
}
