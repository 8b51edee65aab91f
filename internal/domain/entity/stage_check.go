package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una conferencia de stage. divergent es recuperable vía
// finalización forzada.
const (
	StageStatusInProgress = "in_progress"
	StageStatusCompleted  = "completed"
	StageStatusDivergent  = "divergent"
	StageStatusCancelled  = "cancelled"
)

// StageCheck conferencia ciega de salida previa a la expedición de un pedido.
type StageCheck struct {
	ID                  int64
	TenantID            *int64
	PickingOrderID      int64
	CustomerOrderNumber string
	OperatorID          int64
	Status              string
	HasDivergence       bool
	Notes               string
	CreatedAt           time.Time
	CompletedAt         *time.Time
}

// StageCheckItem item esperado de la conferencia, con clave (producto, lote).
// Lotes distintos de un mismo SKU se verifican de forma independiente.
type StageCheckItem struct {
	ID               int64
	StageCheckID     int64
	ProductID        int64
	ProductSku       string
	ProductName      string
	Batch            string
	ExpectedQuantity decimal.Decimal
	CheckedQuantity  decimal.Decimal
	Divergence       decimal.Decimal // checked - expected
}
