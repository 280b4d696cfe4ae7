package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/BancoSangre-api/internal/application/dto"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/application/request"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
	"github.com/jhoicas/BancoSangre-api/internal/domain/repository"
)

// RequestHandler ciclo de vida de solicitudes de sangre (protegido).
type RequestHandler struct {
	uc     *request.UseCase
	issues *issue.UseCase
}

// NewRequestHandler construye el handler.
func NewRequestHandler(uc *request.UseCase, issues *issue.UseCase) *RequestHandler {
	return &RequestHandler{uc: uc, issues: issues}
}

func toFulfillResponse(res *request.FulfillResult) dto.FulfillResponse {
	out := dto.FulfillResponse{Request: dto.ToBloodRequestResponse(res.Request)}
	if res.Issue != nil {
		rec := dto.ToIssueRecordResponse(res.Issue)
		out.Issue = &rec
	}
	return out
}

// Submit godoc
// @Summary      Crear solicitud de sangre
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubmitRequestRequest  true  "patient_id, hospital_id, blood_group, units (1-10), urgency, reason"
// @Success      201   {object}  dto.BloodRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/requests [post]
func (h *RequestHandler) Submit(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.SubmitRequestRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	input := request.SubmitInput{
		PatientID:  strings.TrimSpace(in.PatientID),
		HospitalID: strings.TrimSpace(in.HospitalID),
		BloodGroup: in.BloodGroup,
		Units:      in.Units,
		Urgency:    in.Urgency,
		Reason:     in.Reason,
		DoctorName: in.DoctorName,
		Notes:      in.Notes,
	}
	requiredBy, err := parseDate("required_by", in.RequiredBy)
	if err != nil {
		return writeError(c, err)
	}
	if !requiredBy.IsZero() {
		input.RequiredBy = &requiredBy
	}
	req, err := h.uc.Submit(c.UserContext(), userID, input)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ToBloodRequestResponse(req))
}

// List godoc
// @Summary      Listar solicitudes (acotado por rol)
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital"
// @Param        patient_id   query  string  false  "Paciente"
// @Param        status       query  string  false  "pending | approved | rejected | fulfilled"
// @Param        blood_group  query  string  false  "Grupo sanguíneo"
// @Param        limit        query  int     false  "Máximo 100"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	list, err := h.uc.List(c.UserContext(), userID, repository.RequestFilter{
		HospitalID: strings.TrimSpace(c.Query("hospital_id")),
		PatientID:  strings.TrimSpace(c.Query("patient_id")),
		Status:     entity.RequestStatus(strings.ToLower(strings.TrimSpace(c.Query("status")))),
		BloodGroup: entity.BloodGroup(strings.ToUpper(strings.TrimSpace(c.Query("blood_group")))),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": dto.ToBloodRequestList(list),
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Get godoc
// @Summary      Obtener solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.BloodRequestResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	req, err := h.uc.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBloodRequestResponse(req))
}

// Decide godoc
// @Summary      Aprobar o rechazar una solicitud pendiente
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID de la solicitud"
// @Param        body  body  dto.DecisionRequest  true  "decision: approved | rejected"
// @Success      200   {object}  dto.BloodRequestResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/decision [post]
func (h *RequestHandler) Decide(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.DecisionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	req, err := h.uc.Decide(c.UserContext(), userID, c.Params("id"), in.Decision, in.Note)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToBloodRequestResponse(req))
}

// Fulfill godoc
// @Summary      Emitir las unidades de una solicitud aprobada (FEFO)
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string              true   "ID de la solicitud"
// @Param        body  body  dto.FulfillRequest  false  "issued_to, notes"
// @Success      200   {object}  dto.FulfillResponse
// @Failure      409   {object}  dto.InsufficientInventoryResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/fulfill [post]
func (h *RequestHandler) Fulfill(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.FulfillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.uc.Fulfill(c.UserContext(), userID, c.Params("id"), request.FulfillInput{IssuedTo: in.IssuedTo, Notes: in.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toFulfillResponse(res))
}

// ApproveAndFulfill godoc
// @Summary      Aprobar y emitir en un paso
// @Description  Si la emisión falla la solicitud queda aprobada y se devuelve el error de asignación.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                        true   "ID de la solicitud"
// @Param        body  body  dto.ApproveAndFulfillRequest  false  "note, issued_to, notes"
// @Success      200   {object}  dto.FulfillResponse
// @Failure      409   {object}  dto.InsufficientInventoryResponse
// @Router       /api/requests/{id}/approve-and-fulfill [post]
func (h *RequestHandler) ApproveAndFulfill(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.ApproveAndFulfillRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.uc.ApproveAndFulfill(c.UserContext(), userID, c.Params("id"), in.Note,
		request.FulfillInput{IssuedTo: in.IssuedTo, Notes: in.Notes})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toFulfillResponse(res))
}

// Issue godoc
// @Summary      Registro de salida de una solicitud cumplida
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.IssueRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/issue [get]
func (h *RequestHandler) Issue(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	rec, err := h.issues.GetByRequest(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToIssueRecordResponse(rec))
}
