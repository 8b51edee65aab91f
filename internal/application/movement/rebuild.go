package movement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// RebuildResult resumen de una reconstrucción del ledger.
type RebuildResult struct {
	MovementsReplayed int
	EntriesRebuilt    int
}

// RebuildFromMovements reconstruye el ledger completo por replay del registro
// de movimientos en orden cronológico: las entradas acreditan en ToLocationID,
// las salidas deducen en FromLocationID. Es el trabajo de recuperación ante
// deriva; borra las posiciones del tenant y las vuelve a derivar de la única
// fuente durable.
func (uc *MoveUseCase) RebuildFromMovements(ctx context.Context, tenantID *int64) (*RebuildResult, error) {
	var result RebuildResult

	err := uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		_ repository.ReservationRepository,
		_ repository.PreallocationRepository,
	) error {
		if err := ledgerRepo.DeleteAll(tenantID); err != nil {
			return err
		}

		records, err := movementRepo.ListChronological(tenantID)
		if err != nil {
			return err
		}

		touched := map[int64]bool{}
		now := time.Now()

		for _, rec := range records {
			recTenant := int64(0)
			if rec.TenantID != nil {
				recTenant = *rec.TenantID
			}

			if rec.ToLocationID != nil {
				if err := creditReplay(ledgerRepo, rec, recTenant, now); err != nil {
					return err
				}
				touched[*rec.ToLocationID] = true
			}
			if rec.FromLocationID != nil {
				if err := deductReplay(ledgerRepo, rec, recTenant, now); err != nil {
					return err
				}
				touched[*rec.FromLocationID] = true
			}
			result.MovementsReplayed++
		}

		for locID := range touched {
			if err := recomputeLocationStatus(ledgerRepo, locationRepo, locID); err != nil {
				return err
			}
			result.EntriesRebuilt++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int("movements", result.MovementsReplayed).
		Msg("ledger reconstruido por replay de movimientos")

	return &result, nil
}

func creditReplay(ledgerRepo repository.LedgerRepository, rec *entity.MovementRecord, tenantID int64, now time.Time) error {
	target, err := ledgerRepo.FindMergeTarget(tenantID, rec.ProductID, *rec.ToLocationID, rec.Batch)
	if err != nil {
		return err
	}
	if target != nil {
		return ledgerRepo.UpdateQuantity(target.ID, target.Quantity.Add(rec.Quantity), now)
	}
	_, err = ledgerRepo.Insert(&entity.LedgerEntry{
		TenantID:         tenantID,
		ProductID:        rec.ProductID,
		LocationID:       *rec.ToLocationID,
		Batch:            rec.Batch,
		Quantity:         rec.Quantity,
		ReservedQuantity: decimal.Zero,
		Status:           entity.StockStatusAvailable,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	return err
}

func deductReplay(ledgerRepo repository.LedgerRepository, rec *entity.MovementRecord, tenantID int64, now time.Time) error {
	target, err := ledgerRepo.FindMergeTarget(tenantID, rec.ProductID, *rec.FromLocationID, rec.Batch)
	if err != nil {
		return err
	}
	if target == nil {
		// Historia con huecos (movimientos previos al corte de datos): nada
		// que deducir, el replay sigue siendo el mejor estado reconstruible.
		return nil
	}
	newQty := target.Quantity.Sub(rec.Quantity)
	if newQty.IsPositive() {
		return ledgerRepo.UpdateQuantity(target.ID, newQty, now)
	}
	return ledgerRepo.Delete(target.ID)
}
