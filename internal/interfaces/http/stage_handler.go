package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/stage"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
)

// StageHandler conferencia de stage y expedición de pedidos.
type StageHandler struct {
	uc *stage.UseCase
}

// NewStageHandler construye el handler.
func NewStageHandler(uc *stage.UseCase) *StageHandler {
	return &StageHandler{uc: uc}
}

// Start godoc
// @Summary      Abrir una conferencia de stage
// @Description  El pedido se identifica por id interno o por número de pedido
// @Description  del cliente y debe estar en estado picked. Si ya hay una
// @Description  conferencia activa para el pedido se retoma.
// @Tags         stage-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartStageRequest  true  "picking_order_id o customer_order_number"
// @Success      201   {object}  dto.StageCheckDTO
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stage-checks [post]
func (h *StageHandler) Start(c *fiber.Ctx) error {
	var in dto.StartStageRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	view, err := h.uc.Start(c.Context(), stage.StartInput{
		TenantID:            GetTenantID(c),
		PickingOrderID:      in.PickingOrderID,
		CustomerOrderNumber: in.CustomerOrderNumber,
		OperatorID:          GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toStageCheckDTO(view.Check, view.Items))
}

// RecordItem godoc
// @Summary      Registrar una cantidad verificada
// @Description  Acumula la cantidad sobre el item (producto, lote). Se acepta
// @Description  una etiqueta activa o product_id y batch explícitos. Un
// @Description  producto no esperado crea un item con esperado cero.
// @Tags         stage-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                         true  "ID de conferencia"
// @Param        body  body  dto.RecordStageItemRequest  true  "item verificado"
// @Success      200   {object}  dto.StageItemDTO
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stage-checks/{id}/items [post]
func (h *StageHandler) RecordItem(c *fiber.Ctx) error {
	checkID, err := pathID(c, warehouse.SessionShipping)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.RecordStageItemRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	item, err := h.uc.RecordItem(c.Context(), stage.RecordInput{
		StageCheckID: checkID,
		LabelCode:    in.LabelCode,
		ProductID:    in.ProductID,
		Batch:        in.Batch,
		Quantity:     in.Quantity,
		OperatorID:   GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toStageItemDTO(item))
}

// Complete godoc
// @Summary      Cerrar la conferencia y expedir el pedido
// @Description  Con divergencias y sin force la conferencia queda en estado
// @Description  divergent y se responde 409 con el detalle; un nuevo complete
// @Description  con force=true expide igual. La expedición consume las reservas
// @Description  del pedido y mueve el stock a la zona de expedición.
// @Tags         stage-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true   "ID de conferencia"
// @Param        body  body  dto.CompleteStageRequest  false  "force, notes"
// @Success      200   {object}  dto.CompleteStageResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stage-checks/{id}/complete [post]
func (h *StageHandler) Complete(c *fiber.Ctx) error {
	checkID, err := pathID(c, warehouse.SessionShipping)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.CompleteStageRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}

	res, err := h.uc.Complete(c.Context(), stage.CompleteInput{
		StageCheckID: checkID,
		Force:        in.Force,
		Notes:        in.Notes,
		OperatorID:   GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.CompleteStageResponse{
		Shipped:     res.Shipped,
		TxID:        res.TxID,
		Divergences: toDivergenceDTOs(res.Divergences),
		Forced:      res.Forced,
	})
}

// Cancel godoc
// @Summary      Cancelar una conferencia activa
// @Tags         stage-checks
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                     true   "ID de conferencia"
// @Param        body  body  dto.CancelStageRequest  false  "reason"
// @Success      200   {object}  map[string]string
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stage-checks/{id}/cancel [post]
func (h *StageHandler) Cancel(c *fiber.Ctx) error {
	checkID, err := pathID(c, warehouse.SessionShipping)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.CancelStageRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}

	if err := h.uc.Cancel(c.Context(), checkID, in.Reason); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "cancelled"})
}

// GetActive godoc
// @Summary      Conferencia activa del operador autenticado
// @Tags         stage-checks
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.StageCheckDTO
// @Success      204  "sin conferencia activa"
// @Router       /api/stage-checks/active [get]
func (h *StageHandler) GetActive(c *fiber.Ctx) error {
	view, err := h.uc.GetActive(c.Context(), GetUserID(c), GetTenantID(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	if view == nil {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(toStageCheckDTO(view.Check, view.Items))
}

// History godoc
// @Summary      Historial de conferencias del tenant
// @Tags         stage-checks
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "máximo de filas (default 50, tope 200)"
// @Param        offset  query  int  false  "desplazamiento"
// @Success      200  {array}  dto.StageCheckDTO
// @Router       /api/stage-checks [get]
func (h *StageHandler) History(c *fiber.Ctx) error {
	checks, err := h.uc.GetHistory(c.Context(), GetTenantID(c), c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return writeDomainError(c, err)
	}

	out := make([]dto.StageCheckDTO, 0, len(checks))
	for _, chk := range checks {
		out = append(out, toStageCheckDTO(chk, nil))
	}
	return c.JSON(out)
}

func toStageCheckDTO(check *entity.StageCheck, items []*entity.StageCheckItem) dto.StageCheckDTO {
	d := dto.StageCheckDTO{
		ID:                  check.ID,
		PickingOrderID:      check.PickingOrderID,
		CustomerOrderNumber: check.CustomerOrderNumber,
		OperatorID:          check.OperatorID,
		Status:              check.Status,
		HasDivergence:       check.HasDivergence,
		Notes:               check.Notes,
	}
	for _, it := range items {
		d.Items = append(d.Items, toStageItemDTO(it))
	}
	return d
}

func toStageItemDTO(it *entity.StageCheckItem) dto.StageItemDTO {
	return dto.StageItemDTO{
		ID:               it.ID,
		ProductID:        it.ProductID,
		ProductSku:       it.ProductSku,
		ProductName:      it.ProductName,
		Batch:            it.Batch,
		ExpectedQuantity: it.ExpectedQuantity,
		CheckedQuantity:  it.CheckedQuantity,
		Divergence:       it.Divergence,
	}
}
