package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reservation reserva blanda sobre una posición del ledger para un pedido de
// salida en curso. No toca la cantidad física: solo afecta el cálculo de
// disponibilidad. Se elimina al expedir, cancelar o editar el pedido.
type Reservation struct {
	ID             int64
	PickingOrderID int64
	LedgerEntryID  int64
	ProductID      int64
	Quantity       decimal.Decimal
	CreatedAt      time.Time
}
