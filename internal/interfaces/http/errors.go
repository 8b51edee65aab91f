package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

// writeDomainError traduce errores de dominio a respuestas HTTP. Los errores
// estructurados exponen sus campos en details para que el cliente pueda
// mostrar cantidades y divergencias sin parsear el mensaje.
func writeDomainError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INSUFFICIENT_STOCK",
			Message: insufficient.Error(),
			Details: map[string]any{
				"product_id": insufficient.ProductID,
				"total":      insufficient.Total,
				"reserved":   insufficient.Reserved,
				"available":  insufficient.Available,
				"requested":  insufficient.Requested,
				"shortfall":  insufficient.Shortfall(),
			},
		})
	}

	var restricted *domain.RestrictedStatusError
	if errors.As(err, &restricted) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Code:    "RESTRICTED_STATUS",
			Message: restricted.Error(),
			Details: map[string]any{
				"ledger_entry_id": restricted.LedgerEntryID,
				"status":          restricted.Status,
			},
		})
	}

	var storageRule *domain.IncompatibleStorageRuleError
	if errors.As(err, &storageRule) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INCOMPATIBLE_STORAGE_RULE",
			Message: storageRule.Error(),
			Details: map[string]any{
				"location_id":   storageRule.LocationID,
				"location_code": storageRule.LocationCode,
			},
		})
	}

	var zone *domain.IncompatibleZoneError
	if errors.As(err, &zone) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "INCOMPATIBLE_ZONE",
			Message: zone.Error(),
			Details: map[string]any{
				"location_id": zone.LocationID,
				"product_id":  zone.ProductID,
				"batch":       zone.Batch,
				"reason":      zone.Reason,
			},
		})
	}

	var locNotFound *domain.LocationNotFoundError
	if errors.As(err, &locNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code:    "LOCATION_NOT_FOUND",
			Message: locNotFound.Error(),
			Details: map[string]any{"location_id": locNotFound.LocationID},
		})
	}

	var tenant *domain.TenantResolutionError
	if errors.As(err, &tenant) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code:    "TENANT_UNRESOLVED",
			Message: tenant.Error(),
		})
	}

	var divergence *domain.DivergenceError
	if errors.As(err, &divergence) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "DIVERGENCE",
			Message: divergence.Error(),
			Details: map[string]any{"items": toDivergenceDTOs(divergence.Items)},
		})
	}

	var drift *domain.ReservationDriftError
	if errors.As(err, &drift) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Code:    "RESERVATION_DRIFT",
			Message: drift.Error(),
			Details: map[string]any{
				"picking_order_id": drift.PickingOrderID,
				"product_id":       drift.ProductID,
				"batch":            drift.Batch,
			},
		})
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrDestinationRequired):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SESSION_CLOSED", Message: err.Error()})
	case errors.Is(err, domain.ErrNothingToUndo):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "NOTHING_TO_UNDO", Message: err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}

func toDivergenceDTOs(items []domain.DivergenceItem) []dto.DivergenceDTO {
	out := make([]dto.DivergenceDTO, 0, len(items))
	for _, it := range items {
		out = append(out, dto.DivergenceDTO{
			ProductID:  it.ProductID,
			ProductSku: it.ProductSku,
			Batch:      it.Batch,
			Expected:   it.Expected,
			Checked:    it.Checked,
			Delta:      it.Delta,
		})
	}
	return out
}
