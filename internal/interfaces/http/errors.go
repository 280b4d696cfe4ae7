package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/BancoSangre-api/internal/application/dto"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
)

// writeError traduce los errores de dominio a status y cuerpo HTTP.
func writeError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientInventoryError
	var validation *domain.ValidationError

	switch {
	case errors.As(err, &insufficient):
		return c.Status(fiber.StatusConflict).JSON(dto.InsufficientInventoryResponse{
			Code:       "INSUFFICIENT_INVENTORY",
			Message:    "inventario elegible insuficiente",
			HospitalID: insufficient.HospitalID,
			BloodGroup: insufficient.BloodGroup,
			Requested:  insufficient.Requested,
			Available:  insufficient.Available,
			Shortfall:  insufficient.Shortfall,
		})
	case errors.As(err, &validation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: validation.Reason, Field: validation.Field})
	case errors.Is(err, domain.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientInventory):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_INVENTORY", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrLockTimeout):
		// Reintentable: el lote sigue bloqueado por otra asignación.
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "inventario ocupado, reintente"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}

	zerolog.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
