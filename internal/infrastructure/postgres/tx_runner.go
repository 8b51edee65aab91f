package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Almacen-api/internal/application/blind"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/application/reservation"
	"github.com/jhoicas/Almacen-api/internal/application/stage"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Ensure TxRunner implements los límites transaccionales de cada caso de uso.
var _ movement.TxRunner = (*TxRunner)(nil)
var _ reservation.TxRunner = (*TxRunner)(nil)
var _ blind.TxRunner = (*TxRunner)(nil)
var _ stage.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con los repos del motor de movimientos
// atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	reservationRepo repository.ReservationRepository,
	preallocRepo repository.PreallocationRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewLedgerRepository(tx),
		NewMovementRecordRepository(tx),
		NewLocationRepository(tx),
		NewReservationRepository(tx),
		NewPreallocationRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunReceiving transacción del cierre de conferencia ciega: ledger, etiquetas,
// sesión y orden de recepción.
func (r *TxRunner) RunReceiving(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	labelRepo repository.LabelRepository,
	sessionRepo repository.BlindSessionRepository,
	receivingRepo repository.ReceivingOrderRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewLedgerRepository(tx),
		NewMovementRecordRepository(tx),
		NewLocationRepository(tx),
		NewLabelRepository(tx),
		NewBlindSessionRepository(tx),
		NewReceivingOrderRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunStage transacción de la finalización de stage: ledger, reservas,
// conferencia y pedido de salida.
func (r *TxRunner) RunStage(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	reservationRepo repository.ReservationRepository,
	checkRepo repository.StageCheckRepository,
	itemRepo repository.StageCheckItemRepository,
	pickingRepo repository.PickingOrderRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewLedgerRepository(tx),
		NewMovementRecordRepository(tx),
		NewLocationRepository(tx),
		NewReservationRepository(tx),
		NewStageCheckRepository(tx),
		NewStageCheckItemRepository(tx),
		NewPickingOrderRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
