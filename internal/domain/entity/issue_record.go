package entity

import "time"

// Consumption unidades tomadas de un lote concreto.
type Consumption struct {
	EntryID string
	Units   int
}

// IssueRecord registro inmutable que prueba que unidades salieron del ledger.
// Una solicitud tiene como máximo un IssueRecord.
type IssueRecord struct {
	ID          string
	RequestID   string
	HospitalID  string
	BloodGroup  BloodGroup
	UnitsIssued int
	Consumed    []Consumption // orden FEFO en que se consumieron los lotes
	IssuedTo    string
	IssuedBy    string
	IssuedAt    time.Time
	Notes       string
}

// ConsumedEntryIDs devuelve los IDs de lotes en el orden de consumo.
func (r *IssueRecord) ConsumedEntryIDs() []string {
	ids := make([]string, 0, len(r.Consumed))
	for _, c := range r.Consumed {
		ids = append(ids, c.EntryID)
	}
	return ids
}
