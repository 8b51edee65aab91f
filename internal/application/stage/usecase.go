package stage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// TxRunner límite transaccional de la finalización: conferencia, reservas,
// ledger y pedido avanzan juntos o no avanza nada.
type TxRunner interface {
	RunStage(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		checkRepo repository.StageCheckRepository,
		itemRepo repository.StageCheckItemRepository,
		pickingRepo repository.PickingOrderRepository,
	) error) error
}

// UseCase conferencia ciega de salida (stage) y expedición del pedido.
type UseCase struct {
	checks   repository.StageCheckRepository
	items    repository.StageCheckItemRepository
	picking  repository.PickingOrderRepository
	labels   repository.LabelRepository
	products repository.ProductRepository
	txRunner TxRunner
	log      *logger.Logger
}

func NewUseCase(
	checks repository.StageCheckRepository,
	items repository.StageCheckItemRepository,
	picking repository.PickingOrderRepository,
	labels repository.LabelRepository,
	products repository.ProductRepository,
	txRunner TxRunner,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		checks:   checks,
		items:    items,
		picking:  picking,
		labels:   labels,
		products: products,
		txRunner: txRunner,
		log:      log,
	}
}

// View conferencia con sus items esperados.
type View struct {
	Check *entity.StageCheck
	Items []*entity.StageCheckItem
}

// StartInput se identifica el pedido por id interno o por número de pedido del
// cliente (lo que el operador tiene a mano en el muelle).
type StartInput struct {
	TenantID            *int64
	PickingOrderID      int64
	CustomerOrderNumber string
	OperatorID          int64
}

// Start abre una conferencia de stage sobre un pedido en estado picked. Los
// items esperados se siembran desde las líneas del pedido agrupadas por
// (producto, lote); si ya hay una conferencia activa para el pedido se retoma.
func (uc *UseCase) Start(ctx context.Context, in StartInput) (*View, error) {
	order, err := uc.resolveOrder(in)
	if err != nil {
		return nil, err
	}
	if order.Status != entity.OrderStatusPicked {
		return nil, fmt.Errorf("el pedido %d está en estado %q, no listo para stage: %w",
			order.ID, order.Status, domain.ErrConflict)
	}

	if existing, err := uc.checks.FindActiveByOrder(order.ID); err != nil {
		return nil, err
	} else if existing != nil {
		items, err := uc.items.ListByCheck(existing.ID)
		if err != nil {
			return nil, err
		}
		return &View{Check: existing, Items: items}, nil
	}

	lines, err := uc.picking.ListItems(order.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("el pedido %d no tiene líneas: %w", order.ID, domain.ErrInvalidInput)
	}

	check := &entity.StageCheck{
		TenantID:            order.TenantID,
		PickingOrderID:      order.ID,
		CustomerOrderNumber: order.CustomerOrderNumber,
		OperatorID:          in.OperatorID,
		Status:              entity.StageStatusInProgress,
		CreatedAt:           time.Now(),
	}
	checkID, err := uc.checks.Create(check)
	if err != nil {
		return nil, err
	}
	check.ID = checkID

	grouped := uc.groupLines(lines)
	items := make([]*entity.StageCheckItem, 0, len(grouped))
	for _, g := range grouped {
		item := &entity.StageCheckItem{
			StageCheckID:     checkID,
			ProductID:        g.productID,
			Batch:            g.batch,
			ExpectedQuantity: g.quantity,
			CheckedQuantity:  decimal.Zero,
			Divergence:       g.quantity.Neg(),
		}
		if p, err := uc.products.GetByID(g.productID); err == nil && p != nil {
			item.ProductSku = p.Sku
			item.ProductName = p.Description
		}
		id, err := uc.items.Create(item)
		if err != nil {
			return nil, err
		}
		item.ID = id
		items = append(items, item)
	}

	uc.log.Info().
		Int64("stage_check_id", checkID).
		Int64("picking_order_id", order.ID).
		Str("customer_order", order.CustomerOrderNumber).
		Int("expected_items", len(items)).
		Msg("Conferencia de stage iniciada")
	return &View{Check: check, Items: items}, nil
}

// RecordInput una verificación: por escaneo de etiqueta o por producto y lote
// explícitos.
type RecordInput struct {
	StageCheckID int64
	LabelCode    string
	ProductID    int64
	Batch        string
	Quantity     decimal.Decimal
	OperatorID   int64
}

// RecordItem acumula una cantidad verificada sobre el item (producto, lote) de
// la conferencia. Un producto no esperado crea un item con esperado cero y
// queda como sobrante.
func (uc *UseCase) RecordItem(ctx context.Context, in RecordInput) (*entity.StageCheckItem, error) {
	if !in.Quantity.IsPositive() {
		return nil, fmt.Errorf("la cantidad verificada debe ser mayor a cero: %w", domain.ErrInvalidInput)
	}
	check, err := uc.activeCheck(in.StageCheckID)
	if err != nil {
		return nil, err
	}

	productID, batch := in.ProductID, in.Batch
	if in.LabelCode != "" {
		assoc, err := uc.labels.FindActiveByCode(check.TenantID, in.LabelCode)
		if err != nil {
			return nil, err
		}
		if assoc == nil {
			return nil, fmt.Errorf("etiqueta %s desconocida o no activa: %w", in.LabelCode, domain.ErrNotFound)
		}
		productID, batch = assoc.ProductID, assoc.Batch
	}
	if productID == 0 {
		return nil, fmt.Errorf("producto o etiqueta requeridos: %w", domain.ErrInvalidInput)
	}

	item, err := uc.items.FindByProductBatch(check.ID, productID, batch)
	if err != nil {
		return nil, err
	}
	if item == nil {
		item = &entity.StageCheckItem{
			StageCheckID:     check.ID,
			ProductID:        productID,
			Batch:            batch,
			ExpectedQuantity: decimal.Zero,
			CheckedQuantity:  decimal.Zero,
		}
		if p, err := uc.products.GetByID(productID); err == nil && p != nil {
			item.ProductSku = p.Sku
			item.ProductName = p.Description
		}
		id, err := uc.items.Create(item)
		if err != nil {
			return nil, err
		}
		item.ID = id
	}

	item.CheckedQuantity = item.CheckedQuantity.Add(in.Quantity)
	item.Divergence = item.CheckedQuantity.Sub(item.ExpectedQuantity)
	if err := uc.items.UpdateChecked(item.ID, item.CheckedQuantity, item.Divergence); err != nil {
		return nil, err
	}
	return item, nil
}

// CompleteInput Force expide aun con divergencias registradas.
type CompleteInput struct {
	StageCheckID int64
	Force        bool
	Notes        string
	OperatorID   int64
}

// CompleteResult resumen de la expedición.
type CompleteResult struct {
	Shipped     bool
	TxID        string
	Divergences []domain.DivergenceItem
	Forced      bool
}

// Complete cierra la conferencia. Con divergencias y sin Force, la conferencia
// queda en estado divergent y se devuelve DivergenceError (recuperable con un
// nuevo Complete forzado). Si procede, expide: por cada item consume las
// reservas del pedido sobre ese lote, deduce las posiciones de origen, acredita
// la ubicación de despacho y avanza el pedido a staged, todo en una transacción.
// Cualquier deriva entre reservas y ledger aborta con ReservationDriftError.
func (uc *UseCase) Complete(ctx context.Context, in CompleteInput) (*CompleteResult, error) {
	check, err := uc.checks.GetByID(in.StageCheckID)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, fmt.Errorf("conferencia %d: %w", in.StageCheckID, domain.ErrNotFound)
	}
	if check.Status != entity.StageStatusInProgress && check.Status != entity.StageStatusDivergent {
		return nil, domain.ErrSessionClosed
	}

	items, err := uc.items.ListByCheck(check.ID)
	if err != nil {
		return nil, err
	}

	divergences := make([]domain.DivergenceItem, 0)
	for _, it := range items {
		if it.Divergence.IsZero() {
			continue
		}
		divergences = append(divergences, domain.DivergenceItem{
			ProductID:  it.ProductID,
			ProductSku: it.ProductSku,
			Batch:      it.Batch,
			Expected:   it.ExpectedQuantity,
			Checked:    it.CheckedQuantity,
			Delta:      it.Divergence,
		})
	}
	if len(divergences) > 0 && !in.Force {
		if err := uc.checks.SetStatus(check.ID, entity.StageStatusDivergent, true, in.Notes, nil); err != nil {
			return nil, err
		}
		return nil, &domain.DivergenceError{Items: divergences}
	}

	txID := uuid.New().String()
	now := time.Now()

	err = uc.txRunner.RunStage(ctx, func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		reservationRepo repository.ReservationRepository,
		checkRepo repository.StageCheckRepository,
		itemRepo repository.StageCheckItemRepository,
		pickingRepo repository.PickingOrderRepository,
	) error {
		current, err := checkRepo.GetByID(check.ID)
		if err != nil {
			return err
		}
		if current == nil || (current.Status != entity.StageStatusInProgress && current.Status != entity.StageStatusDivergent) {
			return domain.ErrSessionClosed
		}

		for _, it := range items {
			if !it.CheckedQuantity.IsPositive() {
				continue
			}
			if err := uc.shipItem(ctx, ledgerRepo, movementRepo, locationRepo, reservationRepo,
				check, it, txID, in.OperatorID, in.Notes, now); err != nil {
				return err
			}
		}

		// Reservas sobrantes del pedido (lotes no expedidos) se liberan para
		// que no queden huérfanas tras el avance del pedido.
		leftover, err := reservationRepo.ListByOrder(check.PickingOrderID)
		if err != nil {
			return err
		}
		for _, r := range leftover {
			if err := reservationRepo.Delete(r.ID); err != nil {
				return err
			}
			if err := uc.refreshReserved(ledgerRepo, reservationRepo, r.LedgerEntryID); err != nil {
				return err
			}
		}

		completedAt := now
		if err := checkRepo.SetStatus(check.ID, entity.StageStatusCompleted, len(divergences) > 0, in.Notes, &completedAt); err != nil {
			return err
		}
		return pickingRepo.UpdateStatus(check.PickingOrderID, entity.OrderStatusStaged)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("stage_check_id", check.ID).
		Int64("picking_order_id", check.PickingOrderID).
		Str("tx_id", txID).
		Int("divergences", len(divergences)).
		Bool("forced", len(divergences) > 0 && in.Force).
		Msg("Conferencia de stage completada y pedido expedido")

	return &CompleteResult{
		Shipped:     true,
		TxID:        txID,
		Divergences: divergences,
		Forced:      len(divergences) > 0 && in.Force,
	}, nil
}

// Cancel aborta una conferencia en curso sin tocar el ledger ni las reservas.
func (uc *UseCase) Cancel(ctx context.Context, stageCheckID int64, reason string) error {
	check, err := uc.activeCheck(stageCheckID)
	if err != nil {
		return err
	}
	if err := uc.checks.SetStatus(check.ID, entity.StageStatusCancelled, check.HasDivergence, reason, nil); err != nil {
		return err
	}
	uc.log.Info().
		Int64("stage_check_id", stageCheckID).
		Str("reason", reason).
		Msg("Conferencia de stage cancelada")
	return nil
}

// GetActive conferencia en curso del operador, si existe.
func (uc *UseCase) GetActive(ctx context.Context, operatorID int64, tenantID *int64) (*View, error) {
	check, err := uc.checks.FindActiveByOperator(operatorID, tenantID)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, nil
	}
	items, err := uc.items.ListByCheck(check.ID)
	if err != nil {
		return nil, err
	}
	return &View{Check: check, Items: items}, nil
}

// GetHistory conferencias recientes del tenant.
func (uc *UseCase) GetHistory(ctx context.Context, tenantID *int64, limit, offset int) ([]*entity.StageCheck, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return uc.checks.List(tenantID, limit, offset)
}

// shipItem expide la cantidad verificada de un (producto, lote) consumiendo
// las reservas del pedido sobre ese lote. La verificación contra el saldo real
// ocurre fila por fila: cualquier inconsistencia aborta la transacción.
func (uc *UseCase) shipItem(
	ctx context.Context,
	ledgerRepo repository.LedgerRepository,
	movementRepo repository.MovementRecordRepository,
	locationRepo repository.LocationRepository,
	reservationRepo repository.ReservationRepository,
	check *entity.StageCheck,
	item *entity.StageCheckItem,
	txID string,
	operatorID int64,
	notes string,
	now time.Time,
) error {
	reservations, err := reservationRepo.ListByOrderAndProduct(check.PickingOrderID, item.ProductID)
	if err != nil {
		return err
	}

	remaining := item.CheckedQuantity
	orderRef := check.PickingOrderID
	for _, r := range reservations {
		if !remaining.IsPositive() {
			break
		}
		entry, err := ledgerRepo.GetByID(r.LedgerEntryID)
		if err != nil {
			return err
		}
		if entry == nil {
			return &domain.ReservationDriftError{
				PickingOrderID: check.PickingOrderID,
				ProductID:      item.ProductID,
				Batch:          item.Batch,
				Detail:         fmt.Sprintf("la reserva %d apunta a la posición %d que ya no existe", r.ID, r.LedgerEntryID),
			}
		}
		if entry.Batch != item.Batch {
			continue
		}

		take := decimal.Min(remaining, r.Quantity)
		if entry.Quantity.LessThan(take) {
			return &domain.ReservationDriftError{
				PickingOrderID: check.PickingOrderID,
				ProductID:      item.ProductID,
				Batch:          item.Batch,
				Detail: fmt.Sprintf("la posición %d tiene %s pero la reserva %d exige %s",
					entry.ID, entry.Quantity, r.ID, take),
			}
		}

		shipLoc, err := locationRepo.FindByZoneCode(entry.TenantID, entity.ZoneCodeShipping)
		if err != nil {
			return err
		}
		if shipLoc == nil {
			return fmt.Errorf("el tenant %d no tiene ubicación en la zona de despacho: %w", entry.TenantID, domain.ErrNotFound)
		}

		if err := movement.ShipEntryInTx(ledgerRepo, movementRepo, locationRepo, movement.ShipEntryInput{
			TxID:          txID,
			Entry:         entry,
			ToLocationID:  shipLoc.ID,
			Quantity:      take,
			ReferenceType: "picking_order",
			ReferenceID:   &orderRef,
			PerformedBy:   operatorID,
			Notes:         notes,
			Now:           now,
		}); err != nil {
			return err
		}

		if err := reservationRepo.Delete(r.ID); err != nil {
			return err
		}
		if err := uc.refreshReserved(ledgerRepo, reservationRepo, entry.ID); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return &domain.ReservationDriftError{
			PickingOrderID: check.PickingOrderID,
			ProductID:      item.ProductID,
			Batch:          item.Batch,
			Detail:         fmt.Sprintf("quedan %s unidades verificadas sin reserva que las respalde", remaining),
		}
	}
	return nil
}

// refreshReserved re-deriva el contador cacheado de una posición desde sus
// reservas activas. La posición puede haber sido eliminada al llegar a cero.
func (uc *UseCase) refreshReserved(ledgerRepo repository.LedgerRepository, reservationRepo repository.ReservationRepository, entryID int64) error {
	entry, err := ledgerRepo.GetByID(entryID)
	if err != nil {
		return err
	}
	if entry == nil {
		return nil
	}
	reserved, err := reservationRepo.SumByEntry(entryID)
	if err != nil {
		return err
	}
	return ledgerRepo.UpdateReserved(entryID, reserved)
}

func (uc *UseCase) activeCheck(id int64) (*entity.StageCheck, error) {
	check, err := uc.checks.GetByID(id)
	if err != nil {
		return nil, err
	}
	if check == nil {
		return nil, fmt.Errorf("conferencia %d: %w", id, domain.ErrNotFound)
	}
	if check.Status != entity.StageStatusInProgress {
		return nil, domain.ErrSessionClosed
	}
	return check, nil
}

func (uc *UseCase) resolveOrder(in StartInput) (*entity.PickingOrder, error) {
	if in.CustomerOrderNumber != "" {
		order, err := uc.picking.FindByCustomerOrderNumber(in.CustomerOrderNumber, entity.OrderStatusPicked, in.TenantID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, fmt.Errorf("pedido %s en estado picked: %w", in.CustomerOrderNumber, domain.ErrNotFound)
		}
		return order, nil
	}
	if in.PickingOrderID == 0 {
		return nil, fmt.Errorf("id de pedido o número de cliente requeridos: %w", domain.ErrInvalidInput)
	}
	order, err := uc.picking.GetByID(in.PickingOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("pedido %d: %w", in.PickingOrderID, domain.ErrNotFound)
	}
	return order, nil
}

type lineGroup struct {
	productID int64
	batch     string
	quantity  decimal.Decimal
}

// groupLines agrupa líneas del pedido por (producto, lote) preservando el orden
// de aparición.
func (uc *UseCase) groupLines(lines []*entity.PickingOrderItem) []lineGroup {
	type key struct {
		productID int64
		batch     string
	}
	idx := make(map[key]int)
	var groups []lineGroup
	for _, l := range lines {
		k := key{l.ProductID, l.Batch}
		if i, ok := idx[k]; ok {
			groups[i].quantity = groups[i].quantity.Add(l.RequestedQuantity)
			continue
		}
		idx[k] = len(groups)
		groups = append(groups, lineGroup{productID: l.ProductID, batch: l.Batch, quantity: l.RequestedQuantity})
	}
	return groups
}
