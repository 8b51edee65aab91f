package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// LedgerRepository puerto de persistencia de posiciones de stock. Las
// operaciones de escritura se usan siempre dentro de la transacción del motor
// de movimientos.
type LedgerRepository interface {
	GetByID(id int64) (*entity.LedgerEntry, error)

	// ListForUpdate bloquea (SELECT FOR UPDATE) las filas origen que calzan
	// con (ubicación, producto, tenant, lote) en los estados dados, ordenadas
	// por id ascendente para evitar deadlocks entre transferencias concurrentes.
	// batch nil = cualquier lote.
	ListForUpdate(locationID, productID, tenantID int64, batch *string, statuses []string) ([]*entity.LedgerEntry, error)

	// FindMergeTarget busca la fila destino (tenant, producto, ubicación, lote)
	// para fusionar un crédito. nil si no existe.
	FindMergeTarget(tenantID, productID, locationID int64, batch string) (*entity.LedgerEntry, error)

	// HoldsOtherProductOrBatch indica si la ubicación contiene alguna posición
	// de un (producto, lote) distinto al dado. Valida la regla single.
	HoldsOtherProductOrBatch(locationID, productID int64, batch string) (bool, error)

	Insert(e *entity.LedgerEntry) (int64, error)
	UpdateQuantity(id int64, quantity decimal.Decimal, updatedAt time.Time) error
	UpdateReserved(id int64, reserved decimal.Decimal) error
	Delete(id int64) error

	// SumByLocation saldo agregado de la ubicación, para derivar su estado.
	SumByLocation(locationID int64) (decimal.Decimal, error)

	// ListAvailableByProduct posiciones en estado available con cantidad
	// positiva de un producto, para la estrategia de asignación.
	ListAvailableByProduct(tenantID, productID int64) ([]*entity.LedgerEntry, error)

	// ListReserved posiciones con contador de reserva positivo, para la
	// detección de reservas huérfanas.
	ListReserved() ([]*entity.LedgerEntry, error)

	// DeleteAll vacía el ledger (de un tenant, o completo con nil) antes de
	// reconstruirlo por replay de movimientos.
	DeleteAll(tenantID *int64) error

	// ResolveTenant tenant de alguna posición existente que calce con
	// (ubicación, producto, lote). nil si no hay ninguna. Último recurso de
	// la resolución de tenant del motor de movimientos.
	ResolveTenant(locationID, productID int64, batch *string) (*int64, error)
}
