package blind

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
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// TxRunner límite transaccional del cierre de conferencia: sesión, etiquetas,
// ledger y orden de recepción se actualizan en una sola transacción.
type TxRunner interface {
	RunReceiving(ctx context.Context, fn func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		labelRepo repository.LabelRepository,
		sessionRepo repository.BlindSessionRepository,
		receivingRepo repository.ReceivingOrderRepository,
	) error) error
}

// UseCase conferencia ciega de recepción. Las lecturas son operaciones de una
// sola fila (no necesitan tx); el cierre es transaccional vía TxRunner.
type UseCase struct {
	sessions    repository.BlindSessionRepository
	labels      repository.LabelRepository
	readings    repository.LabelReadingRepository
	adjustments repository.AdjustmentRepository
	receiving   repository.ReceivingOrderRepository
	products    repository.ProductRepository
	txRunner    TxRunner
	zonePolicy  movement.ZonePolicy
	log         *logger.Logger
}

func NewUseCase(
	sessions repository.BlindSessionRepository,
	labels repository.LabelRepository,
	readings repository.LabelReadingRepository,
	adjustments repository.AdjustmentRepository,
	receiving repository.ReceivingOrderRepository,
	products repository.ProductRepository,
	txRunner TxRunner,
	zonePolicy movement.ZonePolicy,
	log *logger.Logger,
) *UseCase {
	return &UseCase{
		sessions:    sessions,
		labels:      labels,
		readings:    readings,
		adjustments: adjustments,
		receiving:   receiving,
		products:    products,
		txRunner:    txRunner,
		zonePolicy:  zonePolicy,
		log:         log,
	}
}

// StartInput datos para abrir (o retomar) una sesión sobre una orden de recepción.
type StartInput struct {
	TenantID         int64
	ReceivingOrderID int64
	StartedBy        int64
}

// StartResult Resumed indica que ya existía una sesión activa y se retoma.
type StartResult struct {
	SessionID int64
	Resumed   bool
}

// Start abre una sesión de conferencia ciega. Si la orden ya tiene una sesión
// activa se retoma en lugar de duplicarla.
func (uc *UseCase) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	order, err := uc.receiving.GetByID(in.ReceivingOrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("orden de recepción %d: %w", in.ReceivingOrderID, domain.ErrNotFound)
	}

	existing, err := uc.sessions.FindActiveByOrder(in.ReceivingOrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		uc.log.Info().
			Int64("session_id", existing.ID).
			Int64("receiving_order_id", in.ReceivingOrderID).
			Msg("Sesión de conferencia retomada")
		return &StartResult{SessionID: existing.ID, Resumed: true}, nil
	}

	id, err := uc.sessions.Create(&entity.BlindSession{
		TenantID:         in.TenantID,
		ReceivingOrderID: in.ReceivingOrderID,
		StartedBy:        in.StartedBy,
		Status:           entity.SessionStatusActive,
		StartedAt:        time.Now(),
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("session_id", id).
		Int64("receiving_order_id", in.ReceivingOrderID).
		Int64("started_by", in.StartedBy).
		Msg("Sesión de conferencia iniciada")
	return &StartResult{SessionID: id}, nil
}

// ReadInput lectura de una etiqueta durante la sesión.
type ReadInput struct {
	SessionID int64
	LabelCode string
	ReadBy    int64
}

// ReadResult IsNewLabel=true pide al caller que asocie la etiqueta antes de
// volver a leerla; en ese caso el resto de los campos viene vacío.
type ReadResult struct {
	IsNewLabel   bool
	LabelCode    string
	ProductID    int64
	ProductSku   string
	ProductName  string
	Batch        string
	PackagesRead int
	TotalUnits   decimal.Decimal
}

// ReadLabel procesa el escaneo de una etiqueta: si es desconocida responde
// isNewLabel; si ya está asociada incrementa paquetes y unidades y apila el
// evento de lectura para poder deshacer.
func (uc *UseCase) ReadLabel(ctx context.Context, in ReadInput) (*ReadResult, error) {
	if in.LabelCode == "" {
		return nil, fmt.Errorf("código de etiqueta requerido: %w", domain.ErrInvalidInput)
	}
	session, err := uc.activeSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	assoc, err := uc.labels.FindBySessionAndCode(in.SessionID, in.LabelCode)
	if err != nil {
		return nil, err
	}
	if assoc == nil {
		return &ReadResult{IsNewLabel: true, LabelCode: in.LabelCode}, nil
	}

	if err := uc.labels.AddUnits(assoc.ID, 1, assoc.UnitsPerPackage); err != nil {
		return nil, err
	}
	if _, err := uc.readings.Append(&entity.LabelReading{
		SessionID:     in.SessionID,
		AssociationID: assoc.ID,
		LabelCode:     in.LabelCode,
		UnitsAdded:    assoc.UnitsPerPackage,
		ReadBy:        in.ReadBy,
		CreatedAt:     time.Now(),
	}); err != nil {
		return nil, err
	}
	if err := uc.syncReceived(session.ReceivingOrderID, assoc.ProductID, assoc.Batch, assoc.UnitsPerPackage); err != nil {
		return nil, err
	}

	assoc.PackagesRead++
	assoc.TotalUnits = assoc.TotalUnits.Add(assoc.UnitsPerPackage)

	result := &ReadResult{
		LabelCode:    assoc.LabelCode,
		ProductID:    assoc.ProductID,
		Batch:        assoc.Batch,
		PackagesRead: assoc.PackagesRead,
		TotalUnits:   assoc.TotalUnits,
	}
	if p, err := uc.products.GetByID(assoc.ProductID); err == nil && p != nil {
		result.ProductSku = p.Sku
		result.ProductName = p.Description
	}
	return result, nil
}

// AssociateInput primera lectura de una etiqueta: el operador declara producto,
// lote y unidades por paquete. TotalUnitsReceived permite registrar un paquete
// fraccionado (menos unidades que el paquete completo) en esta primera lectura;
// las lecturas siguientes vuelven a sumar el paquete completo.
type AssociateInput struct {
	SessionID          int64
	LabelCode          string
	ProductID          int64
	Batch              string
	ExpiryDate         *time.Time
	UnitsPerPackage    decimal.Decimal
	TotalUnitsReceived *decimal.Decimal
	AssociatedBy       int64
}

// AssociateLabel asocia una etiqueta desconocida y registra su primera lectura.
func (uc *UseCase) AssociateLabel(ctx context.Context, in AssociateInput) (*ReadResult, error) {
	if in.LabelCode == "" {
		return nil, fmt.Errorf("código de etiqueta requerido: %w", domain.ErrInvalidInput)
	}
	if !in.UnitsPerPackage.IsPositive() {
		return nil, fmt.Errorf("unidades por paquete debe ser mayor a cero: %w", domain.ErrInvalidInput)
	}
	session, err := uc.activeSession(in.SessionID)
	if err != nil {
		return nil, err
	}
	product, err := uc.products.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %d: %w", in.ProductID, domain.ErrNotFound)
	}
	existing, err := uc.labels.FindBySessionAndCode(in.SessionID, in.LabelCode)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("etiqueta %s ya asociada en la sesión: %w", in.LabelCode, domain.ErrDuplicate)
	}

	actual := in.UnitsPerPackage
	if in.TotalUnitsReceived != nil {
		if !in.TotalUnitsReceived.IsPositive() || in.TotalUnitsReceived.GreaterThan(in.UnitsPerPackage) {
			return nil, fmt.Errorf("unidades recibidas debe estar entre cero y el paquete completo: %w", domain.ErrInvalidInput)
		}
		actual = *in.TotalUnitsReceived
	}

	now := time.Now()
	assocID, err := uc.labels.Create(&entity.LabelAssociation{
		SessionID:       in.SessionID,
		TenantID:        session.TenantID,
		LabelCode:       in.LabelCode,
		ProductID:       in.ProductID,
		Batch:           in.Batch,
		ExpiryDate:      in.ExpiryDate,
		UnitsPerPackage: in.UnitsPerPackage,
		PackagesRead:    1,
		TotalUnits:      actual,
		Status:          entity.LabelStatusReceiving,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}
	if _, err := uc.readings.Append(&entity.LabelReading{
		SessionID:     in.SessionID,
		AssociationID: assocID,
		LabelCode:     in.LabelCode,
		UnitsAdded:    actual,
		ReadBy:        in.AssociatedBy,
		CreatedAt:     now,
	}); err != nil {
		return nil, err
	}
	if err := uc.syncReceived(session.ReceivingOrderID, in.ProductID, in.Batch, actual); err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("session_ref", warehouse.SessionRef{Kind: warehouse.SessionReceiving, ID: in.SessionID}.String()).
		Str("label_code", in.LabelCode).
		Int64("product_id", in.ProductID).
		Str("batch", in.Batch).
		Str("units", actual.String()).
		Msg("Etiqueta asociada")

	return &ReadResult{
		LabelCode:    in.LabelCode,
		ProductID:    in.ProductID,
		ProductSku:   product.Sku,
		ProductName:  product.Description,
		Batch:        in.Batch,
		PackagesRead: 1,
		TotalUnits:   actual,
	}, nil
}

// UndoResult resultado de deshacer la lectura más reciente.
type UndoResult struct {
	LabelCode          string
	UnitsRemoved       decimal.Decimal
	AssociationDeleted bool
}

// UndoLastReading revierte la lectura más reciente de la sesión (pila LIFO).
// Si era la única lectura de la etiqueta, la asociación se elimina.
func (uc *UseCase) UndoLastReading(ctx context.Context, sessionID int64) (*UndoResult, error) {
	session, err := uc.activeSession(sessionID)
	if err != nil {
		return nil, err
	}

	last, err := uc.readings.Last(sessionID)
	if err != nil {
		return nil, err
	}
	if last == nil {
		return nil, domain.ErrNothingToUndo
	}

	assoc, err := uc.labels.GetByID(last.AssociationID)
	if err != nil {
		return nil, err
	}
	if assoc == nil {
		return nil, fmt.Errorf("asociación %d de la lectura: %w", last.AssociationID, domain.ErrNotFound)
	}

	deleted := false
	if assoc.PackagesRead <= 1 {
		if err := uc.labels.Delete(assoc.ID); err != nil {
			return nil, err
		}
		deleted = true
	} else {
		if err := uc.labels.AddUnits(assoc.ID, -1, last.UnitsAdded.Neg()); err != nil {
			return nil, err
		}
	}
	if err := uc.readings.Delete(last.ID); err != nil {
		return nil, err
	}
	if err := uc.syncReceived(session.ReceivingOrderID, assoc.ProductID, assoc.Batch, last.UnitsAdded.Neg()); err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("session_id", sessionID).
		Str("label_code", last.LabelCode).
		Str("units_removed", last.UnitsAdded.String()).
		Bool("association_deleted", deleted).
		Msg("Lectura deshecha")
	return &UndoResult{
		LabelCode:          last.LabelCode,
		UnitsRemoved:       last.UnitsAdded,
		AssociationDeleted: deleted,
	}, nil
}

// AdjustInput corrección manual del contador de paquetes de una etiqueta.
type AdjustInput struct {
	SessionID   int64
	LabelCode   string
	NewPackages int
	Reason      string
	AdjustedBy  int64
}

// AdjustQuantity fija los contadores de una etiqueta y deja rastro de auditoría.
func (uc *UseCase) AdjustQuantity(ctx context.Context, in AdjustInput) error {
	if in.NewPackages < 1 {
		return fmt.Errorf("la cantidad de paquetes debe ser al menos 1: %w", domain.ErrInvalidInput)
	}
	if in.Reason == "" {
		return fmt.Errorf("el motivo del ajuste es obligatorio: %w", domain.ErrInvalidInput)
	}
	session, err := uc.activeSession(in.SessionID)
	if err != nil {
		return err
	}

	assoc, err := uc.labels.FindBySessionAndCode(in.SessionID, in.LabelCode)
	if err != nil {
		return err
	}
	if assoc == nil {
		return fmt.Errorf("etiqueta %s en sesión %d: %w", in.LabelCode, in.SessionID, domain.ErrNotFound)
	}

	newUnits := assoc.UnitsPerPackage.Mul(decimal.NewFromInt(int64(in.NewPackages)))
	if err := uc.labels.SetCounts(assoc.ID, in.NewPackages, newUnits); err != nil {
		return err
	}
	if err := uc.adjustments.Create(&entity.QuantityAdjustment{
		SessionID:   in.SessionID,
		ProductID:   assoc.ProductID,
		Batch:       assoc.Batch,
		OldPackages: assoc.PackagesRead,
		NewPackages: in.NewPackages,
		OldUnits:    assoc.TotalUnits,
		NewUnits:    newUnits,
		Reason:      in.Reason,
		AdjustedBy:  in.AdjustedBy,
		CreatedAt:   time.Now(),
	}); err != nil {
		return err
	}
	if err := uc.syncReceived(session.ReceivingOrderID, assoc.ProductID, assoc.Batch, newUnits.Sub(assoc.TotalUnits)); err != nil {
		return err
	}

	uc.log.Info().
		Int64("session_id", in.SessionID).
		Str("label_code", in.LabelCode).
		Int("old_packages", assoc.PackagesRead).
		Int("new_packages", in.NewPackages).
		Str("reason", in.Reason).
		Int64("adjusted_by", in.AdjustedBy).
		Msg("Cantidad ajustada manualmente")
	return nil
}

// SummaryItem acumulado por (producto, lote) de la sesión. No expone la
// cantidad esperada: la conferencia es ciega.
type SummaryItem struct {
	ProductID   int64
	ProductSku  string
	ProductName string
	Batch       string
	ExpiryDate  *time.Time
	Labels      int
	Packages    int
	TotalUnits  decimal.Decimal
}

// Summary estado corriente de la sesión.
type Summary struct {
	SessionID int64
	Status    string
	Items     []SummaryItem
}

// GetSummary agrupa las lecturas de la sesión por (producto, lote).
func (uc *UseCase) GetSummary(ctx context.Context, sessionID int64) (*Summary, error) {
	session, err := uc.sessions.GetByID(sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("sesión %d: %w", sessionID, domain.ErrNotFound)
	}

	assocs, err := uc.labels.ListBySession(sessionID)
	if err != nil {
		return nil, err
	}

	type key struct {
		productID int64
		batch     string
	}
	grouped := make(map[key]*SummaryItem)
	var order []key
	for _, a := range assocs {
		k := key{a.ProductID, a.Batch}
		item, ok := grouped[k]
		if !ok {
			item = &SummaryItem{
				ProductID:  a.ProductID,
				Batch:      a.Batch,
				ExpiryDate: a.ExpiryDate,
				TotalUnits: decimal.Zero,
			}
			if p, err := uc.products.GetByID(a.ProductID); err == nil && p != nil {
				item.ProductSku = p.Sku
				item.ProductName = p.Description
			}
			grouped[k] = item
			order = append(order, k)
		}
		item.Labels++
		item.Packages += a.PackagesRead
		item.TotalUnits = item.TotalUnits.Add(a.TotalUnits)
	}

	items := make([]SummaryItem, 0, len(order))
	for _, k := range order {
		items = append(items, *grouped[k])
	}
	return &Summary{SessionID: sessionID, Status: session.Status, Items: items}, nil
}

// FinishInput cierre de sesión. Force permite cerrar con divergencias.
type FinishInput struct {
	SessionID   int64
	Force       bool
	PerformedBy int64
	Notes       string
}

// FinishResult resumen del cierre.
type FinishResult struct {
	ItemsPosted int
	TotalUnits  decimal.Decimal
	Divergences []domain.DivergenceItem
	Forced      bool
}

// Finish cierra la sesión: compara lo conferido contra lo esperado de la orden
// (DivergenceError salvo Force), acredita el stock en la ubicación de recepción,
// activa las etiquetas y completa la orden. Todo en una transacción.
func (uc *UseCase) Finish(ctx context.Context, in FinishInput) (*FinishResult, error) {
	session, err := uc.activeSession(in.SessionID)
	if err != nil {
		return nil, err
	}

	assocs, err := uc.labels.ListBySession(in.SessionID)
	if err != nil {
		return nil, err
	}
	if len(assocs) == 0 {
		return nil, fmt.Errorf("la sesión no tiene lecturas: %w", domain.ErrInvalidInput)
	}

	expected, err := uc.receiving.ListItems(session.ReceivingOrderID)
	if err != nil {
		return nil, err
	}
	divergences := uc.computeDivergences(assocs, expected)
	if len(divergences) > 0 && !in.Force {
		return nil, &domain.DivergenceError{Items: divergences}
	}

	result := &FinishResult{
		Divergences: divergences,
		Forced:      len(divergences) > 0 && in.Force,
		TotalUnits:  decimal.Zero,
	}
	txID := uuid.New().String()

	err = uc.txRunner.RunReceiving(ctx, func(
		ledgerRepo repository.LedgerRepository,
		movementRepo repository.MovementRecordRepository,
		locationRepo repository.LocationRepository,
		labelRepo repository.LabelRepository,
		sessionRepo repository.BlindSessionRepository,
		receivingRepo repository.ReceivingOrderRepository,
	) error {
		// Revalidación dentro de la tx: otro operador pudo cerrar la sesión.
		current, err := sessionRepo.GetByID(in.SessionID)
		if err != nil {
			return err
		}
		if current == nil || current.Status != entity.SessionStatusActive {
			return domain.ErrSessionClosed
		}

		order, err := receivingRepo.GetByID(session.ReceivingOrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("orden de recepción %d: %w", session.ReceivingOrderID, domain.ErrNotFound)
		}

		locationID, err := uc.resolveReceivingLocation(locationRepo, order, session.TenantID)
		if err != nil {
			return err
		}

		now := time.Now()
		for _, a := range assocs {
			if !a.TotalUnits.IsPositive() {
				continue
			}
			if err := uc.zonePolicy.CanAccept(ctx, locationID, a.ProductID, a.Batch); err != nil {
				return err
			}
			if err := movement.CreditInTx(ledgerRepo, movementRepo, locationRepo, movement.CreditInput{
				TxID:          txID,
				TenantID:      session.TenantID,
				ProductID:     a.ProductID,
				LocationID:    locationID,
				Batch:         a.Batch,
				ExpiryDate:    a.ExpiryDate,
				LabelCode:     a.LabelCode,
				Quantity:      a.TotalUnits,
				MovementType:  entity.MovementTypeReceiving,
				ReferenceType: "receiving_order",
				ReferenceID:   &order.ID,
				PerformedBy:   in.PerformedBy,
				Notes:         in.Notes,
				Now:           now,
			}); err != nil {
				return err
			}
			result.ItemsPosted++
			result.TotalUnits = result.TotalUnits.Add(a.TotalUnits)
		}

		if err := labelRepo.ActivateBySession(in.SessionID); err != nil {
			return err
		}
		if err := sessionRepo.Complete(in.SessionID, now); err != nil {
			return err
		}
		return receivingRepo.UpdateStatus(order.ID, "completed")
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Int64("session_id", in.SessionID).
		Str("tx_id", txID).
		Int("items_posted", result.ItemsPosted).
		Str("total_units", result.TotalUnits.String()).
		Int("divergences", len(result.Divergences)).
		Bool("forced", result.Forced).
		Msg("Conferencia cerrada")
	return result, nil
}

// activeSession carga la sesión y verifica que siga activa.
func (uc *UseCase) activeSession(id int64) (*entity.BlindSession, error) {
	session, err := uc.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("sesión %d: %w", id, domain.ErrNotFound)
	}
	if session.Status != entity.SessionStatusActive {
		return nil, domain.ErrSessionClosed
	}
	return session, nil
}

// syncReceived mantiene el acumulado recibido de la línea esperada de la orden.
// Productos fuera del documento no tienen línea: quedan solo como divergencia.
func (uc *UseCase) syncReceived(receivingOrderID, productID int64, batch string, delta decimal.Decimal) error {
	items, err := uc.receiving.ListItems(receivingOrderID)
	if err != nil {
		return err
	}
	for _, it := range items {
		if it.ProductID == productID && it.Batch == batch {
			return uc.receiving.AddReceived(it.ID, delta)
		}
	}
	return nil
}

// computeDivergences compara lo conferido contra lo esperado en ambos sentidos:
// faltantes, sobrantes y productos no declarados en el documento.
func (uc *UseCase) computeDivergences(assocs []*entity.LabelAssociation, expected []*entity.ReceivingOrderItem) []domain.DivergenceItem {
	type key struct {
		productID int64
		batch     string
	}
	counted := make(map[key]decimal.Decimal)
	var order []key
	for _, a := range assocs {
		k := key{a.ProductID, a.Batch}
		if _, ok := counted[k]; !ok {
			order = append(order, k)
		}
		counted[k] = counted[k].Add(a.TotalUnits)
	}

	expectedBy := make(map[key]decimal.Decimal)
	for _, it := range expected {
		k := key{it.ProductID, it.Batch}
		if _, seen := counted[k]; !seen {
			if _, ok := expectedBy[k]; !ok {
				order = append(order, k)
			}
		}
		expectedBy[k] = expectedBy[k].Add(it.ExpectedQuantity)
	}

	var items []domain.DivergenceItem
	for _, k := range order {
		got := counted[k]
		want := expectedBy[k]
		if got.Equal(want) {
			continue
		}
		item := domain.DivergenceItem{
			ProductID: k.productID,
			Batch:     k.batch,
			Expected:  want,
			Checked:   got,
			Delta:     got.Sub(want),
		}
		if p, err := uc.products.GetByID(k.productID); err == nil && p != nil {
			item.ProductSku = p.Sku
		}
		items = append(items, item)
	}
	return items
}

// resolveReceivingLocation ubicación destino del stock conferido: la ubicación
// fija de la orden si la tiene, o la primera ubicación de la zona de recepción.
func (uc *UseCase) resolveReceivingLocation(locationRepo repository.LocationRepository, order *entity.ReceivingOrder, tenantID int64) (int64, error) {
	if order.ReceivingLocationID != nil {
		return *order.ReceivingLocationID, nil
	}
	loc, err := locationRepo.FindByZoneCode(tenantID, entity.ZoneCodeReceiving)
	if err != nil {
		return 0, err
	}
	if loc == nil {
		return 0, fmt.Errorf("el tenant %d no tiene ubicación en la zona de recepción: %w", tenantID, domain.ErrNotFound)
	}
	return loc.ID, nil
}
