package http

import (
	"github.com/gofiber/fiber/v2"

	appaudit "github.com/jhoicas/AgroDiligencia-api/internal/application/audit"
	appfinance "github.com/jhoicas/AgroDiligencia-api/internal/application/finance"
	"github.com/jhoicas/AgroDiligencia-api/internal/application/usecase"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Audit     *appaudit.Service
	Finance   *appfinance.Service
	Risk      *usecase.RiskUseCase
	Report    *usecase.ReportUseCase
	JWTSecret string // vacío = API sin autenticación
	JWTIssuer string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	if deps.JWTSecret != "" {
		api.Use(AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))
	}

	// Checklist de auditoría
	auditGroup := api.Group("/audit")
	auditHandler := NewAuditHandler(deps.Audit)
	riskHandler := NewRiskHandler(deps.Risk, deps.Report)
	auditGroup.Get("/", auditHandler.State)
	auditGroup.Get("/summary", auditHandler.Summary)
	auditGroup.Put("/notes", auditHandler.UpdateNotes)
	auditGroup.Get("/items", auditHandler.ListItems)
	auditGroup.Patch("/items/:id", auditHandler.UpdateItem)
	auditGroup.Delete("/items/:id", auditHandler.DeleteItem)
	auditGroup.Post("/properties", auditHandler.CreateProperty)
	auditGroup.Patch("/properties/:id", auditHandler.UpdateProperty)
	auditGroup.Delete("/properties/:id", auditHandler.DeleteProperty)
	auditGroup.Post("/properties/:id/items", auditHandler.AddPropertyItem)
	auditGroup.Get("/parties", auditHandler.SearchParties)
	auditGroup.Post("/parties", auditHandler.CreateParty)
	auditGroup.Patch("/parties/:id", auditHandler.UpdateParty)
	auditGroup.Delete("/parties/:id", auditHandler.DeleteParty)
	auditGroup.Post("/parties/:id/items", auditHandler.AddPartyItem)
	auditGroup.Post("/liens", auditHandler.CreateLien)
	auditGroup.Patch("/liens/:id", auditHandler.UpdateLien)
	auditGroup.Delete("/liens/:id", auditHandler.DeleteLien)
	auditGroup.Get("/sync", auditHandler.PendingSync)
	auditGroup.Post("/sync/retry", auditHandler.RetrySync)
	auditGroup.Post("/risk-analysis", riskHandler.Analyze)
	auditGroup.Get("/report.pdf", riskHandler.Report)

	// Contratos AgroFinance
	financeHandler := NewFinanceHandler(deps.Finance)
	contracts := api.Group("/contracts")
	contracts.Get("/", financeHandler.List)
	contracts.Post("/", financeHandler.Create)
	contracts.Get("/:id", financeHandler.Get)
	contracts.Patch("/:id", financeHandler.Update)
	contracts.Delete("/:id", financeHandler.Delete)
	contracts.Post("/:id/payments", financeHandler.AddPayment)
	contracts.Delete("/:id/payments/:paymentId", financeHandler.DeletePayment)
	contracts.Post("/:id/settle", financeHandler.Settle)
	contracts.Post("/:id/revert", financeHandler.Revert)
	contracts.Post("/:id/installments/regenerate", financeHandler.RegenerateInstallments)
	contracts.Patch("/:id/installments/:installmentId", financeHandler.UpdateInstallment)

	financeGroup := api.Group("/finance")
	financeGroup.Get("/summary", financeHandler.Summary)
	financeGroup.Get("/cashflow", financeHandler.CashFlow)
	financeGroup.Get("/sync", financeHandler.PendingSync)
	financeGroup.Post("/sync/retry", financeHandler.RetrySync)
}
