package dto

// DateLayout formato de fechas calendario en el API (colecta, vencimiento, required_by).
const DateLayout = "2006-01-02"

// PageRequest paginación para listados.
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage aplica valores por defecto y topes a Limit/Offset.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total,omitempty"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// InsufficientInventoryResponse cuerpo 409 cuando no alcanza el inventario elegible.
type InsufficientInventoryResponse struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HospitalID string `json:"hospital_id"`
	BloodGroup string `json:"blood_group"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
	Shortfall  int    `json:"shortfall"`
}
