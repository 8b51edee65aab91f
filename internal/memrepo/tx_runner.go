package memrepo

import (
	"context"

	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// TxRunner versión en memoria del runner transaccional: toma una instantánea
// del Store antes del callback y la restaura si este falla. Reproduce la
// semántica de commit/rollback que los tests de atomicidad necesitan.
type TxRunner struct {
	S *Store

	// FailWith fuerza el fallo del commit aunque fn haya terminado bien.
	// Sirve para simular un abort de la transacción a mitad de camino.
	FailWith error
}

// NewTxRunner construye el runner sobre el Store dado.
func NewTxRunner(s *Store) *TxRunner {
	return &TxRunner{S: s}
}

func (t *TxRunner) Run(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	reservationRepo repository.ReservationRepository,
	preallocRepo repository.PreallocationRepository,
) error) error {
	snap := t.S.Snapshot()
	err := fn(
		&LedgerRepo{S: t.S},
		&MovementRecordRepo{S: t.S},
		&LocationRepo{S: t.S},
		&ReservationRepo{S: t.S},
		&PreallocationRepo{S: t.S},
	)
	if err == nil && t.FailWith != nil {
		err = t.FailWith
	}
	if err != nil {
		t.S.Restore(snap)
		return err
	}
	return nil
}

func (t *TxRunner) RunReceiving(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	labelRepo repository.LabelRepository,
	sessionRepo repository.BlindSessionRepository,
	receivingRepo repository.ReceivingOrderRepository,
) error) error {
	snap := t.S.Snapshot()
	err := fn(
		&LedgerRepo{S: t.S},
		&MovementRecordRepo{S: t.S},
		&LocationRepo{S: t.S},
		&LabelRepo{S: t.S},
		&BlindSessionRepo{S: t.S},
		&ReceivingOrderRepo{S: t.S},
	)
	if err == nil && t.FailWith != nil {
		err = t.FailWith
	}
	if err != nil {
		t.S.Restore(snap)
		return err
	}
	return nil
}

func (t *TxRunner) RunStage(ctx context.Context, fn func(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	reservationRepo repository.ReservationRepository,
	checkRepo repository.StageCheckRepository,
	itemRepo repository.StageCheckItemRepository,
	pickingRepo repository.PickingOrderRepository,
) error) error {
	snap := t.S.Snapshot()
	err := fn(
		&LedgerRepo{S: t.S},
		&MovementRecordRepo{S: t.S},
		&LocationRepo{S: t.S},
		&ReservationRepo{S: t.S},
		&StageCheckRepo{S: t.S},
		&StageCheckItemRepo{S: t.S},
		&PickingOrderRepo{S: t.S},
	)
	if err == nil && t.FailWith != nil {
		err = t.FailWith
	}
	if err != nil {
		t.S.Restore(snap)
		return err
	}
	return nil
}
