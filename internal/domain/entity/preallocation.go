package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una pre-asignación de picking.
const (
	PreallocationPending   = "pending"
	PreallocationFulfilled = "fulfilled"
)

// Preallocation pre-asignación pendiente de un (producto, lote) hacia una
// ubicación. El motor de movimientos la marca cumplida de forma oportunista
// cuando una transferencia coincidente aterriza en el destino.
type Preallocation struct {
	ID             int64
	PickingOrderID int64
	ProductID      int64
	LocationID     int64
	Batch          string
	Quantity       decimal.Decimal
	Status         string
	CreatedAt      time.Time
}
