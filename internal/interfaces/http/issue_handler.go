package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/BancoSangre-api/internal/application/dto"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
)

// IssueHandler consultas de registros de salida y su comprobante PDF (protegido).
type IssueHandler struct {
	uc *issue.UseCase
}

// NewIssueHandler construye el handler.
func NewIssueHandler(uc *issue.UseCase) *IssueHandler {
	return &IssueHandler{uc: uc}
}

// List godoc
// @Summary      Listar salidas de un hospital
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        hospital_id  query  string  false  "Hospital (por defecto el del token)"
// @Param        limit        query  int     false  "Máximo 100"
// @Param        offset       query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Router       /api/issues [get]
func (h *IssueHandler) List(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return badBody(c)
	}
	page.DefaultPage()
	list, err := h.uc.List(c.UserContext(), userID, hospitalScope(c), page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": dto.ToIssueRecordList(list),
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Get godoc
// @Summary      Obtener registro de salida
// @Tags         issues
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {object}  dto.IssueRecordResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/issues/{id} [get]
func (h *IssueHandler) Get(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	rec, err := h.uc.Get(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToIssueRecordResponse(rec))
}

// GetPDF godoc
// @Summary      Comprobante de salida en PDF
// @Tags         issues
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID del registro"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/issues/{id}/pdf [get]
func (h *IssueHandler) GetPDF(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	pdf, filename, err := h.uc.Slip(c.UserContext(), userID, c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(pdf)
}
