package repository

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// PickingOrderRepository puerto de pedidos de salida (colaborador externo:
// el núcleo solo lee líneas y avanza el estado).
type PickingOrderRepository interface {
	GetByID(id int64) (*entity.PickingOrder, error)
	FindByCustomerOrderNumber(customerOrderNumber string, status string, tenantID *int64) (*entity.PickingOrder, error)
	ListItems(pickingOrderID int64) ([]*entity.PickingOrderItem, error)
	UpdateStatus(id int64, status string) error
}

// ReceivingOrderRepository puerto de órdenes de recepción.
type ReceivingOrderRepository interface {
	GetByID(id int64) (*entity.ReceivingOrder, error)
	ListItems(receivingOrderID int64) ([]*entity.ReceivingOrderItem, error)
	UpdateStatus(id int64, status string) error
	AddReceived(itemID int64, delta decimal.Decimal) error
}

// ProductRepository puerto de lectura de productos (el CRUD vive fuera).
type ProductRepository interface {
	GetByID(id int64) (*entity.Product, error)
}
