package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveRequest body para POST /api/movements. expiry_date en formato 2006-01-02.
type MoveRequest struct {
	ProductID              int64           `json:"product_id"`
	FromLocationID         int64           `json:"from_location_id"`
	ToLocationID           *int64          `json:"to_location_id,omitempty"`
	Quantity               decimal.Decimal `json:"quantity"`
	Batch                  string          `json:"batch,omitempty"`
	ExpiryDate             string          `json:"expiry_date,omitempty"`
	MovementType           string          `json:"movement_type"`
	ReferenceType          string          `json:"reference_type,omitempty"`
	ReferenceID            *int64          `json:"reference_id,omitempty"`
	TenantID               *int64          `json:"tenant_id,omitempty"`
	AdminReleaseAuthorized bool            `json:"admin_release_authorized,omitempty"`
	Notes                  string          `json:"notes,omitempty"`
}

// MoveResponse respuesta de un movimiento exitoso.
type MoveResponse struct {
	TxID    string `json:"tx_id"`
	Message string `json:"message"`
}

// RebuildResponse respuesta de la reconstrucción del ledger.
type RebuildResponse struct {
	MovementsReplayed int    `json:"movements_replayed"`
	EntriesRebuilt    int    `json:"entries_rebuilt"`
	Message           string `json:"message"`
}

// PositionDTO posición desnormalizada para reporting.
type PositionDTO struct {
	ID                 int64           `json:"id"`
	ProductID          int64           `json:"product_id"`
	ProductSku         string          `json:"product_sku"`
	ProductDescription string          `json:"product_description"`
	LocationID         int64           `json:"location_id"`
	LocationCode       string          `json:"location_code"`
	LocationStatus     string          `json:"location_status"`
	ZoneName           string          `json:"zone_name"`
	Batch              string          `json:"batch,omitempty"`
	ExpiryDate         *time.Time      `json:"expiry_date,omitempty"`
	Quantity           decimal.Decimal `json:"quantity"`
	ReservedQuantity   decimal.Decimal `json:"reserved_quantity"`
	AvailableQuantity  decimal.Decimal `json:"available_quantity"`
	Status             string          `json:"status"`
	TenantID           *int64          `json:"tenant_id,omitempty"`
	TenantName         string          `json:"tenant_name,omitempty"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SummaryResponse tarjetas de métricas del inventario.
type SummaryResponse struct {
	TotalPositions  int             `json:"total_positions"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	UniqueLocations int             `json:"unique_locations"`
	UniqueBatches   int             `json:"unique_batches"`
}

// ZoneOccupancyDTO ocupación agregada de una zona.
type ZoneOccupancyDTO struct {
	ZoneID        int64           `json:"zone_id"`
	ZoneCode      string          `json:"zone_code"`
	ZoneName      string          `json:"zone_name"`
	TotalSlots    int64           `json:"total_slots"`
	FreeSlots     int64           `json:"free_slots"`
	OccupiedSlots int64           `json:"occupied_slots"`
	BlockedSlots  int64           `json:"blocked_slots"`
	OccupancyPct  decimal.Decimal `json:"occupancy_pct"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
}

// AllocationRequest body para POST /api/allocations.
type AllocationRequest struct {
	ProductID          int64           `json:"product_id"`
	Quantity           decimal.Decimal `json:"quantity"`
	Rule               string          `json:"rule"`
	DirectedLocationID *int64          `json:"directed_location_id,omitempty"`
}

// AllocationLineDTO una posición elegida por la estrategia.
type AllocationLineDTO struct {
	LedgerEntryID int64           `json:"ledger_entry_id"`
	LocationID    int64           `json:"location_id"`
	LocationCode  string          `json:"location_code"`
	Batch         string          `json:"batch,omitempty"`
	Allocated     decimal.Decimal `json:"allocated"`
	Rank          int             `json:"rank"`
}

// ReserveRequest body para POST /api/reservations.
type ReserveRequest struct {
	PickingOrderID int64           `json:"picking_order_id"`
	LedgerEntryID  int64           `json:"ledger_entry_id"`
	ProductID      int64           `json:"product_id"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// OrphanFixDTO una corrección aplicada por la reconciliación de reservas.
type OrphanFixDTO struct {
	LedgerEntryID int64           `json:"ledger_entry_id"`
	Cached        decimal.Decimal `json:"cached"`
	Derived       decimal.Decimal `json:"derived"`
}

// DivergenceDTO diferencia esperado/verificado de un (producto, lote).
type DivergenceDTO struct {
	ProductID  int64           `json:"product_id"`
	ProductSku string          `json:"product_sku,omitempty"`
	Batch      string          `json:"batch,omitempty"`
	Expected   decimal.Decimal `json:"expected"`
	Checked    decimal.Decimal `json:"checked"`
	Delta      decimal.Decimal `json:"delta"`
}
