package movement

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad del motor de movimientos:
// cualquier error aborta la transacción completa, sin escrituras compensatorias.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		preallocRepo repository.PreallocationRepository,
	) error) error
}

// ZonePolicy política conectable de compatibilidad de zonas: decide si una
// ubicación acepta un lote de un producto. Devuelve *domain.IncompatibleZoneError
// cuando rechaza.
type ZonePolicy interface {
	CanAccept(ctx context.Context, locationID, productID int64, batch string) error
}

// PermissiveZonePolicy acepta todo. Útil como default y en tests.
type PermissiveZonePolicy struct{}

func (PermissiveZonePolicy) CanAccept(context.Context, int64, int64, string) error { return nil }
