// Package reservation administra reservas blandas sobre el ledger: reclamos
// de pedidos de salida en curso que afectan la disponibilidad sin mover stock.
package reservation

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// TxRunner transacción con los repositorios del dominio de consistencia del
// ledger. Las reservas confirman atómicamente con cualquier cambio de ledger
// que disparen.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		preallocRepo repository.PreallocationRepository,
	) error) error
}

// UseCase casos de uso de reserva/liberación y reconciliación de huérfanas.
type UseCase struct {
	txRunner TxRunner
	log      *logger.Logger
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, log *logger.Logger) *UseCase {
	return &UseCase{txRunner: txRunner, log: log}
}

// ReserveInput reserva solicitada sobre una posición concreta.
type ReserveInput struct {
	PickingOrderID int64
	LedgerEntryID  int64
	ProductID      int64
	Quantity       decimal.Decimal
}

// Reserve inserta una reserva blanda sin tocar la cantidad física. El tope es
// la cantidad de la fila menos la suma de reservas activas; el contador
// cacheado se actualiza en la misma transacción.
func (uc *UseCase) Reserve(ctx context.Context, input ReserveInput) error {
	if input.PickingOrderID <= 0 || input.LedgerEntryID <= 0 || !input.Quantity.IsPositive() {
		return domain.ErrInvalidInput
	}

	return uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		_ repository.MovementRecordRepository,
		_ repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		_ repository.PreallocationRepository,
	) error {
		entry, err := ledgerRepo.GetByID(input.LedgerEntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return domain.ErrNotFound
		}

		active, err := reservationRepo.SumByEntry(entry.ID)
		if err != nil {
			return err
		}
		available := entry.Quantity.Sub(active)
		if available.LessThan(input.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: entry.ProductID,
				Total:     entry.Quantity,
				Reserved:  active,
				Available: available,
				Requested: input.Quantity,
			}
		}

		if _, err := reservationRepo.Create(&entity.Reservation{
			PickingOrderID: input.PickingOrderID,
			LedgerEntryID:  input.LedgerEntryID,
			ProductID:      entry.ProductID,
			Quantity:       input.Quantity,
		}); err != nil {
			return err
		}
		return ledgerRepo.UpdateReserved(entry.ID, active.Add(input.Quantity))
	})
}

// ReleaseOrder elimina todas las reservas de un pedido (cancelación, edición
// o expedición por otra vía) y vuelve a derivar el contador cacheado de cada
// posición afectada a partir de las filas de reserva restantes.
func (uc *UseCase) ReleaseOrder(ctx context.Context, pickingOrderID int64) (int, error) {
	if pickingOrderID <= 0 {
		return 0, domain.ErrInvalidInput
	}

	released := 0
	err := uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		_ repository.MovementRecordRepository,
		_ repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		_ repository.PreallocationRepository,
	) error {
		reservations, err := reservationRepo.ListByOrder(pickingOrderID)
		if err != nil {
			return err
		}

		affected := map[int64]bool{}
		for _, r := range reservations {
			affected[r.LedgerEntryID] = true
		}

		released, err = reservationRepo.DeleteByOrder(pickingOrderID)
		if err != nil {
			return err
		}

		for entryID := range affected {
			derived, err := reservationRepo.SumByEntry(entryID)
			if err != nil {
				return err
			}
			if err := ledgerRepo.UpdateReserved(entryID, derived); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	uc.log.Info().
		Int64("picking_order_id", pickingOrderID).
		Int("released", released).
		Msg("reservas liberadas")
	return released, nil
}

// OrphanFix corrección aplicada a una posición con contador de reserva desviado.
type OrphanFix struct {
	LedgerEntryID int64
	Cached        decimal.Decimal
	Derived       decimal.Decimal
}

// ReconcileOrphans recorre las posiciones con contador positivo, vuelve a
// derivar la suma real de reservas activas y corrige cualquier deriva. Guarda
// contra rutas que mutaron el cache sin mantener las filas de Reservation.
func (uc *UseCase) ReconcileOrphans(ctx context.Context) ([]OrphanFix, error) {
	var fixes []OrphanFix

	err := uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		_ repository.MovementRecordRepository,
		_ repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		_ repository.PreallocationRepository,
	) error {
		entries, err := ledgerRepo.ListReserved()
		if err != nil {
			return err
		}
		for _, e := range entries {
			derived, err := reservationRepo.SumByEntry(e.ID)
			if err != nil {
				return err
			}
			if derived.Equal(e.ReservedQuantity) {
				continue
			}
			if err := ledgerRepo.UpdateReserved(e.ID, derived); err != nil {
				return err
			}
			fixes = append(fixes, OrphanFix{LedgerEntryID: e.ID, Cached: e.ReservedQuantity, Derived: derived})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, f := range fixes {
		uc.log.Warn().
			Int64("ledger_entry_id", f.LedgerEntryID).
			Str("cached", f.Cached.String()).
			Str("derived", f.Derived.String()).
			Msg("reserva huérfana corregida")
	}
	return fixes, nil
}
