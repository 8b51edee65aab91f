package movement

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// Primitivas del motor ejecutables dentro de la transacción del caller
// (conferencia ciega, stage). Mismo patrón que Move pero con los repositorios
// ya atados a la tx: el caller decide el límite transaccional, el motor decide
// cómo se muta el ledger.

// CreditInput entrada de stock sin origen físico (recepción) o crédito de
// destino en una expedición parcial.
type CreditInput struct {
	TxID          string
	TenantID      int64
	ProductID     int64
	LocationID    int64
	Batch         string
	ExpiryDate    *time.Time
	LabelCode     string
	Quantity      decimal.Decimal
	MovementType  string
	ReferenceType string
	ReferenceID   *int64
	PerformedBy   int64
	Notes         string
	Now           time.Time
}

// CreditInTx fusiona o crea la posición destino, registra el movimiento
// (entrada: FromLocationID nil) y recalcula el estado de la ubicación.
func CreditInTx(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	in CreditInput,
) error {
	target, err := ledgerRepo.FindMergeTarget(in.TenantID, in.ProductID, in.LocationID, in.Batch)
	if err != nil {
		return err
	}
	if target != nil {
		if err := ledgerRepo.UpdateQuantity(target.ID, target.Quantity.Add(in.Quantity), in.Now); err != nil {
			return err
		}
	} else {
		if _, err := ledgerRepo.Insert(&entity.LedgerEntry{
			TenantID:         in.TenantID,
			ProductID:        in.ProductID,
			LocationID:       in.LocationID,
			Batch:            in.Batch,
			ExpiryDate:       in.ExpiryDate,
			LabelCode:        in.LabelCode,
			Quantity:         in.Quantity,
			ReservedQuantity: decimal.Zero,
			Status:           entity.StockStatusAvailable,
			CreatedAt:        in.Now,
			UpdatedAt:        in.Now,
		}); err != nil {
			return err
		}
	}

	if err := movementRepo.Create(&entity.MovementRecord{
		TxID:          in.TxID,
		TenantID:      &in.TenantID,
		ProductID:     in.ProductID,
		Batch:         in.Batch,
		ToLocationID:  &in.LocationID,
		Quantity:      in.Quantity,
		MovementType:  in.MovementType,
		ReferenceType: in.ReferenceType,
		ReferenceID:   in.ReferenceID,
		PerformedBy:   in.PerformedBy,
		Notes:         in.Notes,
		CreatedAt:     in.Now,
	}); err != nil {
		return err
	}

	return recomputeLocationStatus(ledgerRepo, locationRepo, in.LocationID)
}

// ShipEntryInput expedición de una posición concreta hacia una ubicación de
// despacho, dentro de la transacción del caller.
type ShipEntryInput struct {
	TxID          string
	Entry         *entity.LedgerEntry
	ToLocationID  int64
	Quantity      decimal.Decimal
	ReferenceType string
	ReferenceID   *int64
	PerformedBy   int64
	Notes         string
	Now           time.Time
}

// ShipEntryInTx deduce de la posición dada (eliminar al llegar a cero),
// acredita en la ubicación de despacho, registra el movimiento y recalcula el
// estado de ambas ubicaciones. El caller ya verificó que Entry.Quantity
// alcanza: aquí se vuelve a comprobar y se falla ruidosamente ante deriva.
func ShipEntryInTx(
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	in ShipEntryInput,
) error {
	entry := in.Entry
	if entry.Quantity.LessThan(in.Quantity) {
		return &domain.InsufficientStockError{
			ProductID: entry.ProductID,
			Total:     entry.Quantity,
			Reserved:  entry.ReservedQuantity,
			Available: entry.AvailableQuantity(),
			Requested: in.Quantity,
		}
	}

	newQty := entry.Quantity.Sub(in.Quantity)
	if newQty.IsPositive() {
		if err := ledgerRepo.UpdateQuantity(entry.ID, newQty, in.Now); err != nil {
			return err
		}
	} else {
		if err := ledgerRepo.Delete(entry.ID); err != nil {
			return err
		}
	}

	// Crédito en despacho: el lote y metadatos viajan con la mercadería.
	target, err := ledgerRepo.FindMergeTarget(entry.TenantID, entry.ProductID, in.ToLocationID, entry.Batch)
	if err != nil {
		return err
	}
	if target != nil {
		if err := ledgerRepo.UpdateQuantity(target.ID, target.Quantity.Add(in.Quantity), in.Now); err != nil {
			return err
		}
	} else {
		if _, err := ledgerRepo.Insert(&entity.LedgerEntry{
			TenantID:         entry.TenantID,
			ProductID:        entry.ProductID,
			LocationID:       in.ToLocationID,
			Batch:            entry.Batch,
			ExpiryDate:       entry.ExpiryDate,
			LabelCode:        entry.LabelCode,
			Quantity:         in.Quantity,
			ReservedQuantity: decimal.Zero,
			Status:           entity.StockStatusAvailable,
			CreatedAt:        in.Now,
			UpdatedAt:        in.Now,
		}); err != nil {
			return err
		}
	}

	if err := movementRepo.Create(&entity.MovementRecord{
		TxID:           in.TxID,
		TenantID:       &entry.TenantID,
		ProductID:      entry.ProductID,
		Batch:          entry.Batch,
		FromLocationID: &entry.LocationID,
		ToLocationID:   &in.ToLocationID,
		Quantity:       in.Quantity,
		MovementType:   entity.MovementTypeShipping,
		ReferenceType:  in.ReferenceType,
		ReferenceID:    in.ReferenceID,
		PerformedBy:    in.PerformedBy,
		Notes:          in.Notes,
		CreatedAt:      in.Now,
	}); err != nil {
		return err
	}

	if err := recomputeLocationStatus(ledgerRepo, locationRepo, entry.LocationID); err != nil {
		return err
	}
	return recomputeLocationStatus(ledgerRepo, locationRepo, in.ToLocationID)
}
