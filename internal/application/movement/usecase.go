package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// MoveUseCase motor de movimientos: la primitiva atómica de transferencia.
// Valida, bloquea, muta, registra y recalcula estados, todo dentro de una
// transacción con bloqueo pesimista de filas origen en orden estable de clave.
type MoveUseCase struct {
	txRunner   TxRunner
	zonePolicy ZonePolicy
	log        *logger.Logger
}

// NewMoveUseCase construye el motor. zonePolicy nil equivale a política permisiva.
func NewMoveUseCase(txRunner TxRunner, zonePolicy ZonePolicy, log *logger.Logger) *MoveUseCase {
	if zonePolicy == nil {
		zonePolicy = PermissiveZonePolicy{}
	}
	return &MoveUseCase{txRunner: txRunner, zonePolicy: zonePolicy, log: log}
}

// MoveInput entrada de un movimiento de stock.
// ToLocationID es nil solo en bajas (disposal). Batch vacío = cualquier lote
// en el origen, sin lote en el destino.
type MoveInput struct {
	ProductID              int64
	FromLocationID         int64
	ToLocationID           *int64
	Quantity               decimal.Decimal
	Batch                  string
	ExpiryDate             *time.Time
	MovementType           string
	ReferenceType          string
	ReferenceID            *int64
	TenantID               *int64
	PerformedBy            int64
	AdminReleaseAuthorized bool
	Notes                  string
}

// MoveResult respuesta de un movimiento exitoso.
type MoveResult struct {
	TxID    string
	Message string
}

var validMovementTypes = map[string]bool{
	entity.MovementTypeTransfer:   true,
	entity.MovementTypeAdjustment: true,
	entity.MovementTypeReturn:     true,
	entity.MovementTypeDisposal:   true,
	entity.MovementTypePutAway:    true,
	entity.MovementTypeReceiving:  true,
	entity.MovementTypeShipping:   true,
}

// Move ejecuta la transferencia. Toda validación ocurre antes de cualquier
// mutación; cualquier fallo posterior al bloqueo deja el ledger intacto vía
// abort de la transacción.
func (uc *MoveUseCase) Move(ctx context.Context, input MoveInput) (*MoveResult, error) {
	if input.ProductID <= 0 || input.FromLocationID <= 0 || !input.Quantity.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	if !validMovementTypes[input.MovementType] {
		return nil, domain.ErrInvalidInput
	}
	if input.ToLocationID == nil && input.MovementType != entity.MovementTypeDisposal {
		return nil, domain.ErrDestinationRequired
	}

	txID := uuid.New().String()
	now := time.Now()

	err := uc.txRunner.Run(ctx, func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		preallocRepo repository.PreallocationRepository,
	) error {
		// 1. Resolver tenant: input → ubicación origen → posición existente.
		fromLoc, err := locationRepo.GetByID(input.FromLocationID)
		if err != nil {
			return err
		}
		if fromLoc == nil {
			return &domain.LocationNotFoundError{LocationID: input.FromLocationID}
		}
		tenantID, err := uc.resolveTenant(input, fromLoc, ledgerRepo)
		if err != nil {
			return err
		}

		// 2. Bloquear filas origen en orden ascendente de id (anti-deadlock).
		statuses := []string{entity.StockStatusAvailable}
		if input.AdminReleaseAuthorized {
			statuses = append(statuses, entity.StockStatusBlocked, entity.StockStatusQuarantine)
		}
		rows, err := ledgerRepo.ListForUpdate(input.FromLocationID, input.ProductID, tenantID, batchFilter(input.Batch), statuses)
		if err != nil {
			return err
		}

		// 3. Disponibilidad neta de reservas, calculada DESPUÉS de bloquear:
		// es la guardia contra la carrera de doble despacho.
		total := decimal.Zero
		reserved := decimal.Zero
		for _, r := range rows {
			total = total.Add(r.Quantity)
			sum, err := reservationRepo.SumByEntry(r.ID)
			if err != nil {
				return err
			}
			reserved = reserved.Add(sum)
		}
		available := total.Sub(reserved)

		// 4. Saldo insuficiente.
		if available.LessThan(input.Quantity) {
			return &domain.InsufficientStockError{
				ProductID: input.ProductID,
				Total:     total,
				Reserved:  reserved,
				Available: available,
				Requested: input.Quantity,
			}
		}

		// 5. Estados restringidos sin autorización.
		for _, r := range rows {
			restricted := r.Status == entity.StockStatusBlocked || r.Status == entity.StockStatusQuarantine
			if restricted && !input.AdminReleaseAuthorized {
				return &domain.RestrictedStatusError{LedgerEntryID: r.ID, Status: r.Status}
			}
		}

		// 6. Validar destino completo antes de mutar nada.
		var toLoc *entity.Location
		if input.ToLocationID != nil && input.MovementType != entity.MovementTypeDisposal {
			toLoc, err = locationRepo.GetByID(*input.ToLocationID)
			if err != nil {
				return err
			}
			if toLoc == nil {
				return &domain.LocationNotFoundError{LocationID: *input.ToLocationID}
			}
			if toLoc.StorageRule == entity.StorageRuleSingle {
				other, err := ledgerRepo.HoldsOtherProductOrBatch(toLoc.ID, input.ProductID, input.Batch)
				if err != nil {
					return err
				}
				if other {
					return &domain.IncompatibleStorageRuleError{LocationID: toLoc.ID, LocationCode: toLoc.Code}
				}
			}
			if err := uc.zonePolicy.CanAccept(ctx, toLoc.ID, input.ProductID, input.Batch); err != nil {
				return err
			}
		}

		// 7. Mutación. Deducir del origen (eliminar al llegar a cero).
		remaining := input.Quantity
		var firstSource *entity.LedgerEntry
		for _, r := range rows {
			if !remaining.IsPositive() {
				break
			}
			if firstSource == nil {
				firstSource = r
			}
			take := decimal.Min(r.Quantity, remaining)
			newQty := r.Quantity.Sub(take)
			if newQty.IsPositive() {
				if err := ledgerRepo.UpdateQuantity(r.ID, newQty, now); err != nil {
					return err
				}
			} else {
				if err := ledgerRepo.Delete(r.ID); err != nil {
					return err
				}
			}
			remaining = remaining.Sub(take)
		}

		// Acreditar destino: fusionar en la fila existente o crear una nueva
		// arrastrando validez y etiqueta del origen.
		if toLoc != nil {
			target, err := ledgerRepo.FindMergeTarget(tenantID, input.ProductID, toLoc.ID, input.Batch)
			if err != nil {
				return err
			}
			if target != nil {
				if err := ledgerRepo.UpdateQuantity(target.ID, target.Quantity.Add(input.Quantity), now); err != nil {
					return err
				}
			} else {
				expiry := input.ExpiryDate
				labelCode := ""
				if firstSource != nil {
					if expiry == nil {
						expiry = firstSource.ExpiryDate
					}
					labelCode = firstSource.LabelCode
				}
				entry := &entity.LedgerEntry{
					TenantID:         tenantID,
					ProductID:        input.ProductID,
					LocationID:       toLoc.ID,
					Batch:            input.Batch,
					ExpiryDate:       expiry,
					LabelCode:        labelCode,
					Quantity:         input.Quantity,
					ReservedQuantity: decimal.Zero,
					Status:           entity.StockStatusAvailable,
					CreatedAt:        now,
					UpdatedAt:        now,
				}
				if _, err := ledgerRepo.Insert(entry); err != nil {
					return err
				}
			}
		}

		// Un registro de movimiento por transferencia.
		record := &entity.MovementRecord{
			TxID:           txID,
			TenantID:       &tenantID,
			ProductID:      input.ProductID,
			Batch:          input.Batch,
			FromLocationID: &input.FromLocationID,
			ToLocationID:   input.ToLocationID,
			Quantity:       input.Quantity,
			MovementType:   input.MovementType,
			ReferenceType:  input.ReferenceType,
			ReferenceID:    input.ReferenceID,
			PerformedBy:    input.PerformedBy,
			Notes:          input.Notes,
			CreatedAt:      now,
		}
		if err := movementRepo.Create(record); err != nil {
			return err
		}

		// Recalcular estado derivado de ambas ubicaciones.
		if err := recomputeLocationStatus(ledgerRepo, locationRepo, fromLoc.ID); err != nil {
			return err
		}
		if toLoc != nil {
			if err := recomputeLocationStatus(ledgerRepo, locationRepo, toLoc.ID); err != nil {
				return err
			}
		}

		// Cumplir oportunistamente una pre-asignación pendiente coincidente.
		if toLoc != nil && preallocRepo != nil {
			pending, err := preallocRepo.FindPending(input.ProductID, toLoc.ID, input.Batch)
			if err != nil {
				return err
			}
			if pending != nil {
				if err := preallocRepo.MarkFulfilled(pending.ID); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("tx_id", txID).
		Int64("product_id", input.ProductID).
		Int64("from", input.FromLocationID).
		Str("quantity", input.Quantity.String()).
		Str("type", input.MovementType).
		Msg("movimiento registrado")

	return &MoveResult{TxID: txID, Message: "movimiento registrado con éxito"}, nil
}

// resolveTenant orden de resolución: input → ubicación → posición existente.
func (uc *MoveUseCase) resolveTenant(input MoveInput, fromLoc *entity.Location, ledgerRepo repository.LedgerRepository) (int64, error) {
	if input.TenantID != nil {
		return *input.TenantID, nil
	}
	if fromLoc.TenantID != nil {
		return *fromLoc.TenantID, nil
	}
	t, err := ledgerRepo.ResolveTenant(input.FromLocationID, input.ProductID, batchFilter(input.Batch))
	if err != nil {
		return 0, err
	}
	if t == nil {
		return 0, &domain.TenantResolutionError{ProductID: input.ProductID, LocationID: input.FromLocationID}
	}
	return *t, nil
}

// recomputeLocationStatus aplica la función pura de derivación sobre el saldo
// agregado actual. Los estados fijados (blocked, counting) se respetan.
func recomputeLocationStatus(ledgerRepo repository.LedgerRepository, locationRepo repository.LocationRepository, locationID int64) error {
	loc, err := locationRepo.GetByID(locationID)
	if err != nil {
		return err
	}
	if loc == nil {
		return &domain.LocationNotFoundError{LocationID: locationID}
	}
	sum, err := ledgerRepo.SumByLocation(locationID)
	if err != nil {
		return err
	}
	newStatus := warehouse.DeriveLocationStatus(sum, loc.StorageRule, loc.Status)
	if newStatus == loc.Status {
		return nil
	}
	return locationRepo.UpdateStatus(locationID, newStatus)
}

func batchFilter(batch string) *string {
	if batch == "" {
		return nil
	}
	return &batch
}
