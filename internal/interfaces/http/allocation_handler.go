package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/allocation"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
)

// AllocationHandler sugerencias de asignación de picking (protegido).
type AllocationHandler struct {
	strategy *allocation.Strategy
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(strategy *allocation.Strategy) *AllocationHandler {
	return &AllocationHandler{strategy: strategy}
}

// Allocate godoc
// @Summary      Calcular asignación de stock para picking
// @Description  Recorre las posiciones disponibles según la regla (FIFO, FEFO
// @Description  o Directed) y devuelve las líneas sugeridas. No reserva ni
// @Description  mueve stock.
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AllocationRequest  true  "product_id, quantity, rule"
// @Success      200   {array}   dto.AllocationLineDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/allocations [post]
func (h *AllocationHandler) Allocate(c *fiber.Ctx) error {
	var in dto.AllocationRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tenantID := GetTenantID(c)
	if tenantID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "la asignación requiere un tenant en el token"})
	}

	lines, err := h.strategy.Allocate(c.Context(), allocation.Request{
		TenantID:           *tenantID,
		ProductID:          in.ProductID,
		Requested:          in.Quantity,
		Rule:               in.Rule,
		DirectedLocationID: in.DirectedLocationID,
		ActorID:            GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	out := make([]dto.AllocationLineDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.AllocationLineDTO{
			LedgerEntryID: l.LedgerEntryID,
			LocationID:    l.LocationID,
			LocationCode:  l.LocationCode,
			Batch:         l.Batch,
			Allocated:     l.Allocated,
			Rank:          l.Rank,
		})
	}
	return c.JSON(fiber.Map{"lines": out})
}
