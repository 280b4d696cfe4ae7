package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/BancoSangre-api/internal/application/auth"
	"github.com/jhoicas/BancoSangre-api/internal/application/inventory"
	"github.com/jhoicas/BancoSangre-api/internal/application/issue"
	"github.com/jhoicas/BancoSangre-api/internal/application/request"
	"github.com/jhoicas/BancoSangre-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Donation  *inventory.DonationUseCase
	Query     *inventory.QueryUseCase
	Sweeper   *inventory.ExpirySweeper
	Requests  *request.UseCase
	Issues    *issue.UseCase
	Guard     *auth.Guard
	JWTSecret string
	Now       inventory.Clock // opcional; por defecto time.Now
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	staff := RequireRole(entity.RoleAdmin, entity.RoleHospital)

	inventoryHandler := NewInventoryHandler(deps.Donation, deps.Query, deps.Sweeper, deps.Guard)
	if deps.Now != nil {
		inventoryHandler.Now = deps.Now
	}
	protected.Post("/donations", staff, inventoryHandler.RecordDonation)

	inv := protected.Group("/inventory", staff)
	inv.Get("/", inventoryHandler.List)
	inv.Get("/availability", inventoryHandler.Availability)
	inv.Get("/summary", inventoryHandler.Summary)
	inv.Get("/expiring", inventoryHandler.Expiring)
	inv.Post("/sweep", RequireRole(entity.RoleAdmin), inventoryHandler.Sweep)

	// Solicitudes: el paciente crea y consulta las suyas; decidir y emitir es del personal.
	requestHandler := NewRequestHandler(deps.Requests, deps.Issues)
	requests := protected.Group("/requests")
	requests.Post("/", RequireRole(entity.RoleAdmin, entity.RoleHospital, entity.RolePatient), requestHandler.Submit)
	requests.Get("/", requestHandler.List)
	requests.Get("/:id", requestHandler.Get)
	requests.Post("/:id/decision", staff, requestHandler.Decide)
	requests.Post("/:id/fulfill", staff, requestHandler.Fulfill)
	requests.Post("/:id/approve-and-fulfill", staff, requestHandler.ApproveAndFulfill)
	requests.Get("/:id/issue", staff, requestHandler.Issue)

	issueHandler := NewIssueHandler(deps.Issues)
	issues := protected.Group("/issues", staff)
	issues.Get("/", issueHandler.List)
	issues.Get("/:id", issueHandler.Get)
	issues.Get("/:id/pdf", issueHandler.GetPDF)
}
