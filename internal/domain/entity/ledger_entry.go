package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una posición de stock.
const (
	StockStatusAvailable  = "available"
	StockStatusQuarantine = "quarantine"
	StockStatusBlocked    = "blocked"
	StockStatusDamaged    = "damaged"
	StockStatusExpired    = "expired"
)

// LedgerEntry posición de stock: un producto+lote en una ubicación.
// Como máximo una fila con cantidad positiva por (tenant, producto, ubicación, lote);
// se elimina al llegar a cero y se fusiona al acreditar. Solo el motor de
// movimientos la muta, dentro de su transacción.
type LedgerEntry struct {
	ID               int64
	TenantID         int64
	ProductID        int64
	LocationID       int64
	Batch            string // vacío = sin lote
	ExpiryDate       *time.Time
	LabelCode        string
	Quantity         decimal.Decimal
	ReservedQuantity decimal.Decimal // contador cacheado; la fuente son las filas de Reservation
	Status           string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// AvailableQuantity saldo neto de reservas.
func (e *LedgerEntry) AvailableQuantity() decimal.Decimal {
	return e.Quantity.Sub(e.ReservedQuantity)
}
