package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovementTypeTransfer   = "transfer"
	MovementTypeAdjustment = "adjustment"
	MovementTypeReturn     = "return"
	MovementTypeDisposal   = "disposal"
	MovementTypePutAway    = "put_away"
	MovementTypeReceiving  = "receiving"
	MovementTypeShipping   = "shipping"
)

// MovementRecord registro inmutable de movimiento, solo-agregar. Nunca se
// edita ni elimina: es la única fuente para reconstruir el ledger por replay.
type MovementRecord struct {
	ID             int64
	TxID           string // uuid de la transacción de negocio
	TenantID       *int64
	ProductID      int64
	Batch          string
	FromLocationID *int64 // nil en entradas (recepción)
	ToLocationID   *int64 // nil en bajas (disposal)
	Quantity       decimal.Decimal
	MovementType   string
	ReferenceType  string
	ReferenceID    *int64
	PerformedBy    int64
	Notes          string
	CreatedAt      time.Time
}
