package repository

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ReservationRepository puerto de reservas blandas. Sus mutaciones pertenecen
// al mismo dominio de consistencia que el ledger: deben confirmar en la misma
// transacción que cualquier cambio de ledger que disparen.
type ReservationRepository interface {
	Create(r *entity.Reservation) (int64, error)
	Delete(id int64) error
	DeleteByOrder(pickingOrderID int64) (int, error)

	ListByOrder(pickingOrderID int64) ([]*entity.Reservation, error)
	ListByOrderAndProduct(pickingOrderID, productID int64) ([]*entity.Reservation, error)

	// SumByEntry suma de reservas activas sobre una posición. Es la derivación
	// de verdad contra la que se corrige el contador cacheado.
	SumByEntry(ledgerEntryID int64) (decimal.Decimal, error)
}
