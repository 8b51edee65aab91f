package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/reservation"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// ReservationHandler reservas blandas sobre posiciones del libro de stock.
type ReservationHandler struct {
	uc *reservation.UseCase
}

// NewReservationHandler construye el handler.
func NewReservationHandler(uc *reservation.UseCase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

// Reserve godoc
// @Summary      Reservar cantidad de una posición
// @Description  Crea una reserva blanda contra una fila del libro. El tope es
// @Description  la cantidad física menos las reservas activas de la misma fila.
// @Tags         reservations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "picking_order_id, ledger_entry_id, product_id, quantity"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/reservations [post]
func (h *ReservationHandler) Reserve(c *fiber.Ctx) error {
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	err := h.uc.Reserve(c.Context(), reservation.ReserveInput{
		PickingOrderID: in.PickingOrderID,
		LedgerEntryID:  in.LedgerEntryID,
		ProductID:      in.ProductID,
		Quantity:       in.Quantity,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "reserved"})
}

// ReleaseOrder godoc
// @Summary      Liberar todas las reservas de una orden de picking
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID de la orden de picking"
// @Success      200  {object}  map[string]int
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/reservations/order/{id} [delete]
func (h *ReservationHandler) ReleaseOrder(c *fiber.Ctx) error {
	orderID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || orderID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de orden inválido"})
	}

	released, err := h.uc.ReleaseOrder(c.Context(), orderID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"released": released})
}

// Reconcile godoc
// @Summary      Reconciliar contadores de reserva huérfanos
// @Description  Vuelve a derivar el contador cacheado de cada posición desde
// @Description  las reservas activas y corrige la deriva. Solo admin.
// @Tags         reservations
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/reservations/reconcile [post]
func (h *ReservationHandler) Reconcile(c *fiber.Ctx) error {
	if GetRole(c) != "admin" {
		return writeDomainError(c, domain.ErrForbidden)
	}

	fixes, err := h.uc.ReconcileOrphans(c.Context())
	if err != nil {
		return writeDomainError(c, err)
	}

	out := make([]dto.OrphanFixDTO, 0, len(fixes))
	for _, f := range fixes {
		out = append(out, dto.OrphanFixDTO{
			LedgerEntryID: f.LedgerEntryID,
			Cached:        f.Cached,
			Derived:       f.Derived,
		})
	}
	return c.JSON(fiber.Map{"fixed": len(out), "fixes": out})
}
