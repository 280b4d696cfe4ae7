package entity

// Roles válidos para un actor.
const (
	RoleAdmin    = "admin"
	RoleHospital = "hospital"
	RolePatient  = "patient"
	RoleDonor    = "donor"
)

// Actor identidad verificada que ejecuta una operación (la provee el colaborador de autenticación).
type Actor struct {
	ID         string
	Role       string
	HospitalID string // solo para rol hospital
	PatientID  string // solo para rol patient
}

// CanManageHospital indica si el actor puede operar el inventario y las solicitudes del hospital.
func (a Actor) CanManageHospital(hospitalID string) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleHospital:
		return a.HospitalID != "" && a.HospitalID == hospitalID
	}
	return false
}

// CanRequestFor indica si el actor puede registrar una solicitud para el paciente y hospital dados.
func (a Actor) CanRequestFor(patientID, hospitalID string) bool {
	if a.Role == RolePatient {
		return a.PatientID != "" && a.PatientID == patientID
	}
	return a.CanManageHospital(hospitalID)
}

// HospitalRef referencia estática de un hospital resuelta por el colaborador de perfiles.
type HospitalRef struct {
	ID       string
	Name     string
	Exists   bool
	Approved bool
}
