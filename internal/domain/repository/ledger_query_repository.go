package repository

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionFilters filtros de consulta de posiciones de stock.
type PositionFilters struct {
	TenantID     *int64 // nil = todos los tenants
	ProductID    int64
	LocationID   int64
	ZoneID       int64
	Batch        string // substring
	Status       string
	MinQuantity  *decimal.Decimal
	Search       string // SKU o descripción
	LocationCode string // substring
	IncludeEmpty bool   // incluir ubicaciones sin stock (LEFT JOIN desde ubicaciones)
	Limit        int
}

// PositionRow fila desnormalizada de posición para la capa de consulta.
type PositionRow struct {
	ID                 int64
	ProductID          int64
	ProductSku         string
	ProductDescription string
	LocationID         int64
	LocationCode       string
	LocationStatus     string
	ZoneName           string
	Batch              string
	ExpiryDate         *time.Time
	Quantity           decimal.Decimal
	ReservedQuantity   decimal.Decimal
	Status             string
	TenantID           *int64
	TenantName         string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ZoneOccupancyRow agregado de ocupación por zona.
type ZoneOccupancyRow struct {
	ZoneID        int64
	ZoneCode      string
	ZoneName      string
	TotalSlots    int64
	FreeSlots     int64
	OccupiedSlots int64
	BlockedSlots  int64
	TotalQuantity decimal.Decimal
}

// LedgerQueryRepository puerto de solo lectura sobre el ledger. Puede usar un
// nivel de aislamiento menor: la corrección la garantiza únicamente la
// transacción del motor de movimientos, no los lectores.
type LedgerQueryRepository interface {
	Positions(filters PositionFilters) ([]*PositionRow, error)
	LocationStock(locationID int64, productID *int64, batch *string) (decimal.Decimal, error)
	Expiring(tenantID *int64, daysThreshold int) ([]*PositionRow, error)
	Occupancy(tenantID *int64) ([]*ZoneOccupancyRow, error)
}
