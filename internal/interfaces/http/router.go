package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Planta-api/internal/application/auth"
	"github.com/jhoicas/Planta-api/internal/application/batch"
	appledger "github.com/jhoicas/Planta-api/internal/application/ledger"
	"github.com/jhoicas/Planta-api/internal/application/lot"
	"github.com/jhoicas/Planta-api/internal/application/wastetransfer"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC    *auth.UseCase
	LotUC     *lot.UseCase
	LedgerSvc *appledger.Service
	WasteUC   *wastetransfer.UseCase
	BatchUC   *batch.UseCase
	ReportUC  *batch.ReportUseCase
	JWTSecret string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Lots (protegido)
	lots := protected.Group("/lots")
	lotHandler := NewLotHandler(deps.LotUC, deps.LedgerSvc, deps.BatchUC)
	lots.Post("/", lotHandler.Intake)
	lots.Get("/", lotHandler.List)
	lots.Get("/:id", lotHandler.GetByID)
	lots.Post("/:id/archive", RequireRole(entity.RoleAdmin, entity.RoleSupervisor), lotHandler.Archive)
	lots.Get("/:id/balance", lotHandler.Balance)
	lots.Get("/:id/movements", lotHandler.Movements)
	lots.Get("/:id/trail", lotHandler.Trail)
	lots.Get("/:id/batch-usage", lotHandler.BatchUsage)
	lots.Get("/:id/waste-transfers", lotHandler.WasteTransfers)

	// Waste y transfers (protegido)
	wtHandler := NewWasteTransferHandler(deps.WasteUC)
	protected.Post("/waste", wtHandler.RecordWaste)
	protected.Post("/transfers", wtHandler.Transfer)

	// Batches (protegido)
	batches := protected.Group("/batches")
	batchHandler := NewBatchHandler(deps.BatchUC, deps.ReportUC)
	batches.Post("/", batchHandler.Create)
	batches.Get("/", batchHandler.List)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Delete("/:id", RequireRole(entity.RoleAdmin, entity.RoleSupervisor), batchHandler.Delete)
	batches.Post("/:id/materials", batchHandler.AddMaterial)
	batches.Delete("/:id/materials/:lineId", batchHandler.RemoveMaterial)
	batches.Post("/:id/outputs", batchHandler.DeclareOutput)
	batches.Put("/:id/outputs/:outputId", batchHandler.UpdateOutput)
	batches.Delete("/:id/outputs/:outputId", batchHandler.RemoveOutput)
	batches.Post("/:id/lock", RequireRole(entity.RoleAdmin, entity.RoleSupervisor), batchHandler.Lock)
	batches.Get("/:id/goods", batchHandler.Goods)
	batches.Get("/:id/report", batchHandler.Report)
}
