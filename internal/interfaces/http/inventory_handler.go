package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/dto"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/domain"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// InventoryHandler donaciones y consultas del ledger de lotes (protegido).
type InventoryHandler struct {
	donation *inventory.DonationUseCase
	query    *inventory.QueryUseCase
	sweeper  *inventory.ExpirySweeper
	guard    *auth.Guard
	Now      inventory.Clock
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	donation *inventory.DonationUseCase,
	query *inventory.QueryUseCase,
	sweeper *inventory.ExpirySweeper,
	guard *auth.Guard,
) *InventoryHandler {
	return &InventoryHandler{donation: donation, query: query, sweeper: sweeper, guard: guard, Now: time.Now}
}

// hospitalScope toma hospital_id del query o, si falta, el del token.
func hospitalScope(c *fiber.Ctx) string {
	if h := strings.TrimSpace(c.Query("hospital_id")); h != "" {
		return h
	}
	return GetHospitalID(c)
}

// parseDate interpreta YYYY-MM-DD; vacío devuelve el valor cero.
func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dto.DateLayout, value)
	if err != nil {
		return time.Time{}, domain.NewValidationError(field, "formato esperado YYYY-MM-DD")
	}
	return t, nil
}

// RecordDonation godoc
// @Summary      Registrar donación
// @Description  Crea un lote Available con vencimiento = colecta + vida útil.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordDonationRequest  true  "hospital_id, blood_group, units, collection_date"
// @Success      201   {object}  dto.InventoryEntryResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/donations [post]
func (h *InventoryHandler) RecordDonation(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RecordDonationRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	collected, err := parseDate("collection_date", in.CollectionDate)
	if err != nil {
		return writeError(c, err)
	}
	entry, err := h.donation.RecordDonation(c.UserContext(), userID, inventory.RecordDonationInput{
		HospitalID:     strings.TrimSpace(in.HospitalID),
		BloodGroup:     in.BloodGroup,
		Units:          in.Units,
		CollectionDate: collected,
		DonationID:     strings.TrimSpace(in.DonationID),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToInventoryEntryResponse(entry))
}

// List godoc
// @Summary      Listar lotes
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital (por defecto el del token)"
// @Param        blood_group  query  string  false  "A+, A-, B+, B-, AB+, AB-, O+, O-"
// @Param        status       query  string  false  "available | expired | depleted"
// @Param        limit        query  int     false  "Máximo 100"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory [get]
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	list, err := h.query.ListInventory(c.UserContext(), userID, repository.InventoryFilter{
		HospitalID: hospitalScope(c),
		BloodGroup: entity.BloodGroup(strings.ToUpper(strings.TrimSpace(c.Query("blood_group")))),
		Status:     entity.EntryStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": dto.ToInventoryEntryList(list),
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Availability godoc
// @Summary      Consultar disponibilidad (orientativa, sin reserva)
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital (por defecto el del token)"
// @Param        blood_group  query  string  true   "Grupo sanguíneo"
// @Param        units        query  int     true   "Unidades requeridas"
// @Success      200  {object}  dto.AvailabilityResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/availability [get]
func (h *InventoryHandler) Availability(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	res, err := h.query.IsAvailable(c.UserContext(), userID, hospitalScope(c),
		strings.ToUpper(strings.TrimSpace(c.Query("blood_group"))), c.QueryInt("units", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.AvailabilityResponse{
		HospitalID:     res.HospitalID,
		BloodGroup:     res.BloodGroup.String(),
		UnitsRequested: res.UnitsRequested,
		UnitsEligible:  res.UnitsEligible,
		Available:      res.Available,
	})
}

// Summary godoc
// @Summary      Resumen de inventario por grupo sanguíneo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital (por defecto el del token)"
// @Success      200  {object}  dto.InventorySummaryResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	hospitalID := hospitalScope(c)
	groups, err := h.query.Summary(c.UserContext(), userID, hospitalID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToInventorySummaryResponse(hospitalID, groups))
}

// Expiring godoc
// @Summary      Lotes próximos a vencer
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital (por defecto el del token)"
// @Param        days         query  int     false  "Ventana en días (por defecto 7)"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/expiring [get]
func (h *InventoryHandler) Expiring(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	list, err := h.query.Expiring(c.UserContext(), userID, hospitalScope(c), c.QueryInt("days", 0))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total": len(list),
		"items": dto.ToInventoryEntryList(list),
	})
}

// Sweep godoc
// @Summary      Barrido manual de lotes vencidos
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SweepResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/inventory/sweep [post]
func (h *InventoryHandler) Sweep(c *fiber.Ctx) error {
	ctx := c.UserContext()
	if _, err := h.guard.RequireAdmin(ctx, GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	n, err := h.sweeper.Sweep(ctx, h.Now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.SweepResponse{Expired: n})
}
