package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados relevantes de un pedido de picking para el núcleo de stock.
// El ciclo completo del pedido vive fuera de este servicio.
const (
	OrderStatusPicked = "picked"
	OrderStatusStaged = "staged"
)

// PickingOrder pedido de salida (colaborador externo: solo se consume).
type PickingOrder struct {
	ID                  int64
	TenantID            *int64
	CustomerOrderNumber string
	Status              string
	CreatedAt           time.Time
}

// PickingOrderItem línea del pedido; siembra expectativas de stage y reservas.
type PickingOrderItem struct {
	ID                int64
	PickingOrderID    int64
	ProductID         int64
	Batch             string
	RequestedQuantity decimal.Decimal
	RequestedUM       string
}

// ReceivingOrder orden de recepción (colaborador externo).
type ReceivingOrder struct {
	ID                  int64
	TenantID            int64
	NfeNumber           string
	Status              string
	ReceivingLocationID *int64
	CreatedBy           int64
}

// ReceivingOrderItem línea esperada de la recepción (del documento fiscal).
type ReceivingOrderItem struct {
	ID               int64
	ReceivingOrderID int64
	ProductID        int64
	Batch            string
	ExpiryDate       *time.Time
	ExpectedQuantity decimal.Decimal
	ReceivedQuantity decimal.Decimal
}
