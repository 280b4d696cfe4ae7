package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
// Cada tipo de fallo del ledger tiene un sentinel; los errores tipados de abajo
// hacen match con su sentinel vía errors.Is.
var (
	ErrValidation            = errors.New("entrada inválida")
	ErrNotFound              = errors.New("recurso no encontrado")
	ErrInvalidState          = errors.New("operación no permitida en el estado actual")
	ErrInsufficientInventory = errors.New("inventario insuficiente")
	ErrLockTimeout           = errors.New("tiempo de espera de bloqueo agotado")
	ErrForbidden             = errors.New("acceso denegado")
	ErrUnauthorized          = errors.New("no autorizado")
	ErrDuplicate             = errors.New("recurso duplicado")
)

// ValidationError describe qué campo no cumple la regla. Nunca se reintenta automáticamente.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientInventoryError indica cuántas unidades faltaron para cubrir la asignación.
// Es seguro reintentar más tarde o después de una nueva donación.
type InsufficientInventoryError struct {
	HospitalID string
	BloodGroup string
	Requested  int
	Available  int
	Shortfall  int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("%s: hospital %s grupo %s: solicitadas %d, disponibles %d, faltan %d",
		ErrInsufficientInventory.Error(), e.HospitalID, e.BloodGroup, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientInventoryError) Is(target error) bool { return target == ErrInsufficientInventory }

// InvalidStateError se devuelve cuando la solicitud no admite la operación en su estado actual.
type InvalidStateError struct {
	RequestID string
	Current   string
	Operation string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: solicitud %s en estado %s no admite %s",
		ErrInvalidState.Error(), e.RequestID, e.Current, e.Operation)
}

func (e *InvalidStateError) Is(target error) bool { return target == ErrInvalidState }
