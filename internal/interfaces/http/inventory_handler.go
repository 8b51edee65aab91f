package http

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/application/dto"
	"github.com/jhoicas/Almacen-api/internal/application/ledger"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// InventoryHandler consultas de solo lectura sobre el ledger (protegido).
type InventoryHandler struct {
	uc *ledger.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *ledger.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

func positionFiltersFromQuery(c *fiber.Ctx) repository.PositionFilters {
	filters := repository.PositionFilters{
		TenantID:     GetTenantID(c),
		ProductID:    int64(c.QueryInt("product_id")),
		LocationID:   int64(c.QueryInt("location_id")),
		ZoneID:       int64(c.QueryInt("zone_id")),
		Batch:        c.Query("batch"),
		Status:       c.Query("status"),
		Search:       c.Query("search"),
		LocationCode: c.Query("location_code"),
		IncludeEmpty: c.QueryBool("include_empty"),
		Limit:        c.QueryInt("limit"),
	}
	if raw := c.Query("min_quantity"); raw != "" {
		if min, err := decimal.NewFromString(raw); err == nil {
			filters.MinQuantity = &min
		}
	}
	return filters
}

func toPositionDTO(p *repository.PositionRow) dto.PositionDTO {
	return dto.PositionDTO{
		ID:                 p.ID,
		ProductID:          p.ProductID,
		ProductSku:         p.ProductSku,
		ProductDescription: p.ProductDescription,
		LocationID:         p.LocationID,
		LocationCode:       p.LocationCode,
		LocationStatus:     p.LocationStatus,
		ZoneName:           p.ZoneName,
		Batch:              p.Batch,
		ExpiryDate:         p.ExpiryDate,
		Quantity:           p.Quantity,
		ReservedQuantity:   p.ReservedQuantity,
		AvailableQuantity:  p.Quantity.Sub(p.ReservedQuantity),
		Status:             p.Status,
		TenantID:           p.TenantID,
		TenantName:         p.TenantName,
		UpdatedAt:          p.UpdatedAt,
	}
}

// GetPositions godoc
// @Summary      Posiciones de stock
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        product_id     query  int     false  "Filtrar por producto"
// @Param        location_id    query  int     false  "Filtrar por ubicación"
// @Param        zone_id        query  int     false  "Filtrar por zona"
// @Param        batch          query  string  false  "Substring de lote"
// @Param        status         query  string  false  "Estado de la posición"
// @Param        search         query  string  false  "SKU o descripción"
// @Param        include_empty  query  bool    false  "Incluir ubicaciones vacías"
// @Success      200  {array}   dto.PositionDTO
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/inventory/positions [get]
func (h *InventoryHandler) GetPositions(c *fiber.Ctx) error {
	positions, err := h.uc.GetPositions(c.Context(), positionFiltersFromQuery(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.PositionDTO, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPositionDTO(p))
	}
	return c.JSON(fiber.Map{"total": len(out), "positions": out})
}

// GetSummary godoc
// @Summary      Resumen agregado del inventario
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SummaryResponse
// @Router       /api/inventory/summary [get]
func (h *InventoryHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.uc.GetSummary(c.Context(), positionFiltersFromQuery(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(dto.SummaryResponse{
		TotalPositions:  summary.TotalPositions,
		TotalQuantity:   summary.TotalQuantity,
		UniqueLocations: summary.UniqueLocations,
		UniqueBatches:   summary.UniqueBatches,
	})
}

// GetLocationStock godoc
// @Summary      Saldo de una ubicación
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id          path   int     true   "ID de la ubicación"
// @Param        product_id  query  int     false  "Acotar a un producto"
// @Param        batch       query  string  false  "Acotar a un lote"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/locations/{id}/stock [get]
func (h *InventoryHandler) GetLocationStock(c *fiber.Ctx) error {
	locationID, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id de ubicación inválido"})
	}
	var productID *int64
	if v := c.QueryInt("product_id"); v > 0 {
		id := int64(v)
		productID = &id
	}
	var batch *string
	if v := c.Query("batch"); v != "" {
		batch = &v
	}
	total, err := h.uc.GetLocationStock(c.Context(), locationID, productID, batch)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(fiber.Map{"location_id": locationID, "total_quantity": total})
}

// GetExpiring godoc
// @Summary      Posiciones próximas a vencer
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        days  query  int  false  "Umbral en días (default 30)"
// @Success      200  {array}  dto.PositionDTO
// @Router       /api/inventory/expiring [get]
func (h *InventoryHandler) GetExpiring(c *fiber.Ctx) error {
	positions, err := h.uc.GetExpiring(c.Context(), GetTenantID(c), c.QueryInt("days"))
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.PositionDTO, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPositionDTO(p))
	}
	return c.JSON(fiber.Map{"total": len(out), "positions": out})
}

// GetOccupancy godoc
// @Summary      Ocupación por zona
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ZoneOccupancyDTO
// @Router       /api/inventory/occupancy [get]
func (h *InventoryHandler) GetOccupancy(c *fiber.Ctx) error {
	zones, err := h.uc.GetOccupancy(c.Context(), GetTenantID(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	out := make([]dto.ZoneOccupancyDTO, 0, len(zones))
	for _, z := range zones {
		item := dto.ZoneOccupancyDTO{
			ZoneID:        z.ZoneID,
			ZoneCode:      z.ZoneCode,
			ZoneName:      z.ZoneName,
			TotalSlots:    z.TotalSlots,
			FreeSlots:     z.FreeSlots,
			OccupiedSlots: z.OccupiedSlots,
			BlockedSlots:  z.BlockedSlots,
			OccupancyPct:  decimal.Zero,
			TotalQuantity: z.TotalQuantity,
		}
		if z.TotalSlots > 0 {
			item.OccupancyPct = decimal.NewFromInt(z.OccupiedSlots).
				Div(decimal.NewFromInt(z.TotalSlots)).
				Mul(decimal.NewFromInt(100)).
				Round(1)
		}
		out = append(out, item)
	}
	return c.JSON(fiber.Map{"zones": out})
}
