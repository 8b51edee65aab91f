package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// MovementHandler maneja las peticiones HTTP del motor de movimientos (protegido).
type MovementHandler struct {
	uc *movement.MoveUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *movement.MoveUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// Move godoc
// @Summary      Ejecutar un movimiento de stock
// @Description  Transferencia atómica entre ubicaciones: valida, bloquea las
// @Description  filas origen, deduce, acredita y registra el movimiento en una
// @Description  sola transacción.
// @Tags         movements
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MoveRequest  true  "product_id, from_location_id, to_location_id (omitir en disposal), quantity, movement_type"
// @Success      201   {object}  dto.MoveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/movements [post]
func (h *MovementHandler) Move(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.MoveRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	expiry, err := parseDate(in.ExpiryDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "expiry_date: formato esperado 2006-01-02"})
	}

	tenantID := in.TenantID
	if tenantID == nil {
		tenantID = GetTenantID(c)
	}

	result, err := h.uc.Move(c.Context(), movement.MoveInput{
		ProductID:              in.ProductID,
		FromLocationID:         in.FromLocationID,
		ToLocationID:           in.ToLocationID,
		Quantity:               in.Quantity,
		Batch:                  in.Batch,
		ExpiryDate:             expiry,
		MovementType:           in.MovementType,
		ReferenceType:          in.ReferenceType,
		ReferenceID:            in.ReferenceID,
		TenantID:               tenantID,
		PerformedBy:            userID,
		AdminReleaseAuthorized: in.AdminReleaseAuthorized && GetRole(c) == "admin",
		Notes:                  in.Notes,
	})
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.MoveResponse{TxID: result.TxID, Message: result.Message})
}

// Rebuild godoc
// @Summary      Reconstruir el ledger por replay de movimientos
// @Description  Borra las posiciones del tenant y las vuelve a derivar del
// @Description  registro de movimientos en orden cronológico. Solo admin.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.RebuildResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/movements/rebuild [post]
func (h *MovementHandler) Rebuild(c *fiber.Ctx) error {
	if GetRole(c) != "admin" {
		return writeDomainError(c, domain.ErrForbidden)
	}
	result, err := h.uc.RebuildFromMovements(c.Context(), GetTenantID(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.RebuildResponse{
		MovementsReplayed: result.MovementsReplayed,
		EntriesRebuilt:    result.EntriesRebuilt,
		Message:           "ledger reconstruido",
	})
}

// parseDate fecha opcional en formato 2006-01-02. "" devuelve nil.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
