package entity

import "time"

// Reglas de almacenaje de una ubicación.
const (
	StorageRuleSingle = "single" // único item/lote
	StorageRuleMulti  = "multi"  // múltiples items/lotes
)

// Estados de una ubicación. blocked y counting son fijados manualmente y no
// se recalculan a partir del saldo.
const (
	LocationStatusFree      = "free"
	LocationStatusAvailable = "available"
	LocationStatusOccupied  = "occupied"
	LocationStatusBlocked   = "blocked"
	LocationStatusCounting  = "counting"
)

// Location ubicación física del almacén (slot).
type Location struct {
	ID           int64
	TenantID     *int64
	Code         string
	ZoneID       int64
	StorageRule  string
	LocationType string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
