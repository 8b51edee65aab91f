package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/allocation"
	"github.com/jhoicas/Almacen-api/internal/application/blind"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/application/reservation"
	"github.com/jhoicas/Almacen-api/internal/application/stage"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	MoveUC        *movement.MoveUseCase
	QueryUC       *ledger.QueryUseCase
	AllocationUC  *allocation.Strategy
	ReservationUC *reservation.UseCase
	BlindUC       *blind.UseCase
	StageUC       *stage.UseCase
	JWTSecret     string
	JWTIssuer     string
}

// Router registra las rutas de la API. Todo el dominio va protegido: los
// tokens los emite el servicio de identidad externo y aquí solo se validan.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	// Movimientos de stock (protegido)
	movements := protected.Group("/movements")
	movementHandler := NewMovementHandler(deps.MoveUC)
	movements.Post("/", movementHandler.Move)
	movements.Post("/rebuild", movementHandler.Rebuild)

	// Consultas de inventario (protegido)
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.QueryUC)
	inv.Get("/positions", inventoryHandler.GetPositions)
	inv.Get("/summary", inventoryHandler.GetSummary)
	inv.Get("/locations/:id", inventoryHandler.GetLocationStock)
	inv.Get("/expiring", inventoryHandler.GetExpiring)
	inv.Get("/occupancy", inventoryHandler.GetOccupancy)

	// Asignación de picking (protegido)
	allocations := protected.Group("/allocations")
	allocationHandler := NewAllocationHandler(deps.AllocationUC)
	allocations.Post("/", allocationHandler.Allocate)

	// Reservas blandas (protegido)
	reservations := protected.Group("/reservations")
	reservationHandler := NewReservationHandler(deps.ReservationUC)
	reservations.Post("/", reservationHandler.Reserve)
	reservations.Delete("/order/:id", reservationHandler.ReleaseOrder)
	reservations.Post("/reconcile", reservationHandler.Reconcile)

	// Conferencia ciega de recepción (protegido)
	sessions := protected.Group("/blind-sessions")
	blindHandler := NewBlindHandler(deps.BlindUC)
	sessions.Post("/", blindHandler.Start)
	sessions.Post("/:id/readings", blindHandler.ReadLabel)
	sessions.Post("/:id/associations", blindHandler.AssociateLabel)
	sessions.Post("/:id/undo", blindHandler.Undo)
	sessions.Post("/:id/adjust", blindHandler.Adjust)
	sessions.Get("/:id/summary", blindHandler.Summary)
	sessions.Post("/:id/finish", blindHandler.Finish)

	// Conferencia de stage y expedición (protegido)
	checks := protected.Group("/stage-checks")
	stageHandler := NewStageHandler(deps.StageUC)
	checks.Post("/", stageHandler.Start)
	checks.Get("/", stageHandler.History)
	checks.Get("/active", stageHandler.GetActive)
	checks.Post("/:id/items", stageHandler.RecordItem)
	checks.Post("/:id/complete", stageHandler.Complete)
	checks.Post("/:id/cancel", stageHandler.Cancel)
}
