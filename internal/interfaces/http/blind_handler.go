package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/blind"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
)

// BlindHandler sesiones de conferencia ciega de recepción.
type BlindHandler struct {
	uc *blind.UseCase
}

// NewBlindHandler construye el handler.
func NewBlindHandler(uc *blind.UseCase) *BlindHandler {
	return &BlindHandler{uc: uc}
}

// Start godoc
// @Summary      Abrir una sesión de conferencia ciega
// @Description  Abre (o retoma) la sesión de conteo de una orden de recepción.
// @Tags         blind-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.StartBlindSessionRequest  true  "receiving_order_id"
// @Success      201   {object}  dto.StartBlindSessionResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/blind-sessions [post]
func (h *BlindHandler) Start(c *fiber.Ctx) error {
	var in dto.StartBlindSessionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tenantID := GetTenantID(c)
	if tenantID == nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "la recepción requiere un tenant en el token"})
	}

	res, err := h.uc.Start(c.Context(), blind.StartInput{
		TenantID:         *tenantID,
		ReceivingOrderID: in.ReceivingOrderID,
		StartedBy:        GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}

	msg := "sesión iniciada"
	status := fiber.StatusCreated
	if res.Resumed {
		msg = "sesión retomada"
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.StartBlindSessionResponse{
		SessionID: res.SessionID,
		Resumed:   res.Resumed,
		Message:   msg,
	})
}

// ReadLabel godoc
// @Summary      Registrar la lectura de una etiqueta
// @Description  Si la etiqueta es desconocida responde is_new_label=true y el
// @Description  caller debe asociarla antes de volver a leerla.
// @Tags         blind-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                   true  "ID de sesión"
// @Param        body  body  dto.ReadLabelRequest  true  "label_code"
// @Success      200   {object}  dto.LabelReadResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/readings [post]
func (h *BlindHandler) ReadLabel(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.ReadLabelRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	res, err := h.uc.ReadLabel(c.Context(), blind.ReadInput{
		SessionID: sessionID,
		LabelCode: in.LabelCode,
		ReadBy:    GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(toLabelReadDTO(res))
}

// AssociateLabel godoc
// @Summary      Asociar una etiqueta nueva a un producto
// @Description  Registra la asociación y cuenta la primera lectura. El campo
// @Description  total_units_received permite un paquete fraccionado en esa
// @Description  primera lectura.
// @Tags         blind-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                        true  "ID de sesión"
// @Param        body  body  dto.AssociateLabelRequest  true  "asociación"
// @Success      201   {object}  dto.LabelReadResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/associations [post]
func (h *BlindHandler) AssociateLabel(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.AssociateLabelRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	expiry, err := parseDate(in.ExpiryDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry_date inválida, se espera AAAA-MM-DD"})
	}

	res, err := h.uc.AssociateLabel(c.Context(), blind.AssociateInput{
		SessionID:          sessionID,
		LabelCode:          in.LabelCode,
		ProductID:          in.ProductID,
		Batch:              in.Batch,
		ExpiryDate:         expiry,
		UnitsPerPackage:    in.UnitsPerPackage,
		TotalUnitsReceived: in.TotalUnitsReceived,
		AssociatedBy:       GetUserID(c),
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toLabelReadDTO(res))
}

// Undo godoc
// @Summary      Deshacer la última lectura de la sesión
// @Tags         blind-sessions
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID de sesión"
// @Success      200  {object}  dto.UndoResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/undo [post]
func (h *BlindHandler) Undo(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}

	res, err := h.uc.UndoLastReading(c.Context(), sessionID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.UndoResponse{
		LabelCode:          res.LabelCode,
		UnitsRemoved:       res.UnitsRemoved,
		AssociationDeleted: res.AssociationDeleted,
	})
}

// Adjust godoc
// @Summary      Ajustar manualmente los paquetes leídos de una etiqueta
// @Description  Fija los contadores de la etiqueta y deja rastro de auditoría
// @Description  con el motivo obligatorio.
// @Tags         blind-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                        true  "ID de sesión"
// @Param        body  body  dto.AdjustQuantityRequest  true  "label_code, new_packages, reason"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/adjust [post]
func (h *BlindHandler) Adjust(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.AdjustQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	if err := h.uc.AdjustQuantity(c.Context(), blind.AdjustInput{
		SessionID:   sessionID,
		LabelCode:   in.LabelCode,
		NewPackages: in.NewPackages,
		Reason:      in.Reason,
		AdjustedBy:  GetUserID(c),
	}); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"status": "adjusted"})
}

// Summary godoc
// @Summary      Resumen corriente de la sesión
// @Tags         blind-sessions
// @Security     Bearer
// @Produce      json
// @Param        id  path  int  true  "ID de sesión"
// @Success      200  {object}  dto.BlindSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/summary [get]
func (h *BlindHandler) Summary(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}

	summary, err := h.uc.GetSummary(c.Context(), sessionID)
	if err != nil {
		return writeDomainError(c, err)
	}

	items := make([]dto.BlindSummaryItemDTO, 0, len(summary.Items))
	for _, it := range summary.Items {
		d := dto.BlindSummaryItemDTO{
			ProductID:   it.ProductID,
			ProductSku:  it.ProductSku,
			ProductName: it.ProductName,
			Batch:       it.Batch,
			Labels:      it.Labels,
			Packages:    it.Packages,
			TotalUnits:  it.TotalUnits,
		}
		if it.ExpiryDate != nil {
			d.ExpiryDate = it.ExpiryDate.Format("2006-01-02")
		}
		items = append(items, d)
	}
	return c.JSON(dto.BlindSummaryResponse{
		SessionID: summary.SessionID,
		Status:    summary.Status,
		Items:     items,
	})
}

// Finish godoc
// @Summary      Cerrar la sesión y acreditar el stock recibido
// @Description  Compara lo conferido contra lo esperado de la orden. Con
// @Description  divergencias responde 409 con el detalle; force=true cierra
// @Description  igual y acredita lo contado.
// @Tags         blind-sessions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID de sesión"
// @Param        body  body  dto.FinishSessionRequest  false  "force, notes"
// @Success      200   {object}  dto.FinishSessionResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/blind-sessions/{id}/finish [post]
func (h *BlindHandler) Finish(c *fiber.Ctx) error {
	sessionID, err := pathID(c, warehouse.SessionReceiving)
	if err != nil {
		return writeDomainError(c, err)
	}
	var in dto.FinishSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}

	res, err := h.uc.Finish(c.Context(), blind.FinishInput{
		SessionID:   sessionID,
		Force:       in.Force,
		PerformedBy: GetUserID(c),
		Notes:       in.Notes,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.FinishSessionResponse{
		ItemsPosted: res.ItemsPosted,
		TotalUnits:  res.TotalUnits,
		Divergences: toDivergenceDTOs(res.Divergences),
		Forced:      res.Forced,
	})
}

func toLabelReadDTO(r *blind.ReadResult) dto.LabelReadResponse {
	return dto.LabelReadResponse{
		IsNewLabel:   r.IsNewLabel,
		LabelCode:    r.LabelCode,
		ProductID:    r.ProductID,
		ProductSku:   r.ProductSku,
		ProductName:  r.ProductName,
		Batch:        r.Batch,
		PackagesRead: r.PackagesRead,
		TotalUnits:   r.TotalUnits,
	}
}

// pathID acepta el id numérico o la forma legada con prefijo ("R123" en
// recepción, "S123" en stage) que los clientes de scanner siguen enviando.
func pathID(c *fiber.Ctx, kind warehouse.SessionKind) (int64, error) {
	raw := c.Params("id")
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return id, nil
	}
	ref, err := warehouse.ParseSessionRef(raw)
	if err != nil || ref.Kind != kind {
		return 0, domain.ErrInvalidInput
	}
	return ref.ID, nil
}
