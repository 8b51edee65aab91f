package stage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/stage"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/memrepo"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	uc       *stage.UseCase
	store    *memrepo.Store
	order    *entity.PickingOrder
	cafe     *entity.Product
	azucar   *entity.Product
	expLoc   *entity.Location
	entryA1  *entity.LedgerEntry // café L001 en A-01-01, 20 uds reservadas
	entryA2  *entity.LedgerEntry // café L001 en A-01-02, 10 uds reservadas
	entryB   *entity.LedgerEntry // azúcar L002, 10 uds reservadas
	operator int64
}

// newFixture pedido picked PED-778 con tres líneas (dos del café en el mismo
// lote, una del azúcar), stock reservado en tres posiciones y zona de despacho
// EXP con una ubicación.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.NewStore()
	tenant := int64(1)

	cafe := store.AddProduct(&entity.Product{Sku: "SKU-10", Description: "Café molido 1kg", UnitsPerBox: dec("10")})
	azucar := store.AddProduct(&entity.Product{Sku: "SKU-20", Description: "Azúcar refinada 5kg", UnitsPerBox: dec("6")})

	almacen := store.AddZone(&entity.Zone{Code: "ALM", Name: "Almacenaje"})
	expedicion := store.AddZone(&entity.Zone{Code: entity.ZoneCodeShipping, Name: "Despacho"})
	locA1 := store.AddLocation(&entity.Location{Code: "A-01-01", ZoneID: almacen.ID})
	locA2 := store.AddLocation(&entity.Location{Code: "A-01-02", ZoneID: almacen.ID})
	expLoc := store.AddLocation(&entity.Location{Code: "EXP-01", ZoneID: expedicion.ID})

	order := &entity.PickingOrder{
		ID: store.NextID(), TenantID: &tenant, CustomerOrderNumber: "PED-778",
		Status: entity.OrderStatusPicked, CreatedAt: time.Now(),
	}
	store.PickingOrders[order.ID] = order
	addLine := func(productID int64, batch, qty string) {
		it := &entity.PickingOrderItem{
			ID: store.NextID(), PickingOrderID: order.ID, ProductID: productID,
			Batch: batch, RequestedQuantity: dec(qty), RequestedUM: "UN",
		}
		store.PickingItems[it.ID] = it
	}
	addLine(cafe.ID, "L001", "15")
	addLine(cafe.ID, "L001", "15")
	addLine(azucar.ID, "L002", "10")

	entryA1 := store.AddLedger(&entity.LedgerEntry{
		TenantID: tenant, ProductID: cafe.ID, LocationID: locA1.ID, Batch: "L001",
		Quantity: dec("20"), ReservedQuantity: dec("20"),
	})
	entryA2 := store.AddLedger(&entity.LedgerEntry{
		TenantID: tenant, ProductID: cafe.ID, LocationID: locA2.ID, Batch: "L001",
		Quantity: dec("10"), ReservedQuantity: dec("10"),
	})
	entryB := store.AddLedger(&entity.LedgerEntry{
		TenantID: tenant, ProductID: azucar.ID, LocationID: locA2.ID, Batch: "L002",
		Quantity: dec("10"), ReservedQuantity: dec("10"),
	})
	addReservation := func(entry *entity.LedgerEntry, qty string) {
		r := &entity.Reservation{
			ID: store.NextID(), PickingOrderID: order.ID, LedgerEntryID: entry.ID,
			ProductID: entry.ProductID, Quantity: dec(qty), CreatedAt: time.Now(),
		}
		store.Reservations[r.ID] = r
	}
	addReservation(entryA1, "20")
	addReservation(entryA2, "10")
	addReservation(entryB, "10")

	uc := stage.NewUseCase(
		&memrepo.StageCheckRepo{S: store},
		&memrepo.StageCheckItemRepo{S: store},
		&memrepo.PickingOrderRepo{S: store},
		&memrepo.LabelRepo{S: store},
		&memrepo.ProductRepo{S: store},
		memrepo.NewTxRunner(store),
		logger.New(logger.Config{Env: "production", Level: "error"}),
	)
	return &fixture{
		uc: uc, store: store, order: order, cafe: cafe, azucar: azucar,
		expLoc: expLoc, entryA1: entryA1, entryA2: entryA2, entryB: entryB, operator: 7,
	}
}

func (f *fixture) start(t *testing.T) *stage.View {
	t.Helper()
	view, err := f.uc.Start(context.Background(), stage.StartInput{
		PickingOrderID: f.order.ID, OperatorID: f.operator,
	})
	require.NoError(t, err)
	return view
}

func (f *fixture) record(t *testing.T, checkID, productID int64, batch, qty string) *entity.StageCheckItem {
	t.Helper()
	item, err := f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: checkID, ProductID: productID, Batch: batch,
		Quantity: dec(qty), OperatorID: f.operator,
	})
	require.NoError(t, err)
	return item
}

func itemFor(t *testing.T, items []*entity.StageCheckItem, productID int64) *entity.StageCheckItem {
	t.Helper()
	for _, it := range items {
		if it.ProductID == productID {
			return it
		}
	}
	t.Fatalf("no hay item para el producto %d", productID)
	return nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Inicio de conferencia
// ──────────────────────────────────────────────────────────────────────────────

func TestStart_SiembraItemsAgrupadosPorProductoYLote(t *testing.T) {
	f := newFixture(t)

	view := f.start(t)

	assert.Equal(t, entity.StageStatusInProgress, view.Check.Status)
	assert.Equal(t, "PED-778", view.Check.CustomerOrderNumber)
	require.Len(t, view.Items, 2, "las dos líneas del café deben agruparse en un item")

	cafe := itemFor(t, view.Items, f.cafe.ID)
	assert.True(t, cafe.ExpectedQuantity.Equal(dec("30")))
	assert.True(t, cafe.CheckedQuantity.IsZero())
	assert.True(t, cafe.Divergence.Equal(dec("-30")), "sin verificar, la divergencia es el esperado en negativo")
	assert.Equal(t, "SKU-10", cafe.ProductSku)
	assert.Equal(t, "Café molido 1kg", cafe.ProductName)

	azucar := itemFor(t, view.Items, f.azucar.ID)
	assert.True(t, azucar.ExpectedQuantity.Equal(dec("10")))
	assert.Equal(t, "L002", azucar.Batch)
}

func TestStart_PorNumeroDePedidoDelCliente(t *testing.T) {
	f := newFixture(t)

	view, err := f.uc.Start(context.Background(), stage.StartInput{
		CustomerOrderNumber: "PED-778", OperatorID: f.operator,
	})
	require.NoError(t, err)
	assert.Equal(t, f.order.ID, view.Check.PickingOrderID)

	_, err = f.uc.Start(context.Background(), stage.StartInput{
		CustomerOrderNumber: "PED-999", OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStart_PedidoNoPicked_Conflicto(t *testing.T) {
	f := newFixture(t)
	f.store.PickingOrders[f.order.ID].Status = "in_picking"

	_, err := f.uc.Start(context.Background(), stage.StartInput{
		PickingOrderID: f.order.ID, OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStart_RetomaConferenciaActiva(t *testing.T) {
	f := newFixture(t)
	first := f.start(t)
	f.record(t, first.Check.ID, f.cafe.ID, "L001", "5")

	again := f.start(t)

	assert.Equal(t, first.Check.ID, again.Check.ID)
	cafe := itemFor(t, again.Items, f.cafe.ID)
	assert.True(t, cafe.CheckedQuantity.Equal(dec("5")), "la retoma conserva lo ya verificado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de verificaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordItem_AcumulaYRecalculaDivergencia(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)

	item := f.record(t, view.Check.ID, f.cafe.ID, "L001", "12")
	assert.True(t, item.CheckedQuantity.Equal(dec("12")))
	assert.True(t, item.Divergence.Equal(dec("-18")))

	item = f.record(t, view.Check.ID, f.cafe.ID, "L001", "18")
	assert.True(t, item.CheckedQuantity.Equal(dec("30")))
	assert.True(t, item.Divergence.IsZero())
}

func TestRecordItem_PorEscaneoDeEtiqueta(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)

	assoc := &entity.LabelAssociation{
		ID: f.store.NextID(), TenantID: 1, LabelCode: "ETQ-0001",
		ProductID: f.cafe.ID, Batch: "L001", UnitsPerPackage: dec("10"),
		Status: entity.LabelStatusAvailable, UpdatedAt: time.Now(),
	}
	f.store.Labels[assoc.ID] = assoc

	item, err := f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: view.Check.ID, LabelCode: "ETQ-0001",
		Quantity: dec("10"), OperatorID: f.operator,
	})
	require.NoError(t, err)
	assert.Equal(t, f.cafe.ID, item.ProductID)
	assert.Equal(t, "L001", item.Batch)
	assert.True(t, item.CheckedQuantity.Equal(dec("10")))

	_, err = f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: view.Check.ID, LabelCode: "ETQ-NADIE",
		Quantity: dec("1"), OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordItem_ProductoInesperadoQuedaComoSobrante(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	harina := f.store.AddProduct(&entity.Product{Sku: "SKU-30", Description: "Harina de trigo"})

	item := f.record(t, view.Check.ID, harina.ID, "L009", "4")

	assert.True(t, item.ExpectedQuantity.IsZero())
	assert.True(t, item.Divergence.Equal(dec("4")))
	assert.Equal(t, "SKU-30", item.ProductSku)

	items, err := (&memrepo.StageCheckItemRepo{S: f.store}).ListByCheck(view.Check.ID)
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestRecordItem_EntradasInvalidas(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)

	_, err := f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: view.Check.ID, ProductID: f.cafe.ID, Batch: "L001",
		Quantity: decimal.Zero, OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero")

	_, err = f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: view.Check.ID, Quantity: dec("5"), OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin producto ni etiqueta")

	_, err = f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: 9999, ProductID: f.cafe.ID, Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Finalización y expedición
// ──────────────────────────────────────────────────────────────────────────────

func TestComplete_DivergenciaSinForzar_NoExpide(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "25")
	f.record(t, view.Check.ID, f.azucar.ID, "L002", "10")

	_, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})

	var divErr *domain.DivergenceError
	require.ErrorAs(t, err, &divErr)
	require.Len(t, divErr.Items, 1)
	assert.Equal(t, f.cafe.ID, divErr.Items[0].ProductID)
	assert.True(t, divErr.Items[0].Expected.Equal(dec("30")))
	assert.True(t, divErr.Items[0].Checked.Equal(dec("25")))
	assert.True(t, divErr.Items[0].Delta.Equal(dec("-5")))

	// La conferencia queda divergente pero el mundo físico no se tocó.
	assert.Equal(t, entity.StageStatusDivergent, f.store.StageChecks[view.Check.ID].Status)
	assert.True(t, f.store.StageChecks[view.Check.ID].HasDivergence)
	assert.True(t, f.store.Ledger[f.entryA1.ID].Quantity.Equal(dec("20")))
	assert.Equal(t, entity.OrderStatusPicked, f.store.PickingOrders[f.order.ID].Status)
	assert.Len(t, f.store.Reservations, 3)
	assert.Empty(t, f.store.Movements)
}

func TestComplete_ExactoExpideYAvanzaElPedido(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "30")
	f.record(t, view.Check.ID, f.azucar.ID, "L002", "10")

	res, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})
	require.NoError(t, err)
	assert.True(t, res.Shipped)
	assert.False(t, res.Forced)
	assert.Empty(t, res.Divergences)
	assert.NotEmpty(t, res.TxID)

	// Las posiciones de origen se agotaron y desaparecieron del ledger.
	assert.Nil(t, f.store.Ledger[f.entryA1.ID])
	assert.Nil(t, f.store.Ledger[f.entryA2.ID])
	assert.Nil(t, f.store.Ledger[f.entryB.ID])

	// Todo lo expedido quedó acreditado en despacho, lote a lote.
	var enDespacho []*entity.LedgerEntry
	for _, e := range f.store.Ledger {
		if e.LocationID == f.expLoc.ID {
			enDespacho = append(enDespacho, e)
		}
	}
	require.Len(t, enDespacho, 2)
	total := decimal.Zero
	for _, e := range enDespacho {
		total = total.Add(e.Quantity)
	}
	assert.True(t, total.Equal(dec("40")))

	// Un movimiento de expedición por posición consumida, todos bajo el mismo tx.
	require.Len(t, f.store.Movements, 3)
	for _, m := range f.store.Movements {
		assert.Equal(t, res.TxID, m.TxID)
		assert.Equal(t, entity.MovementTypeShipping, m.MovementType)
		assert.Equal(t, "picking_order", m.ReferenceType)
		require.NotNil(t, m.ReferenceID)
		assert.Equal(t, f.order.ID, *m.ReferenceID)
		require.NotNil(t, m.ToLocationID)
		assert.Equal(t, f.expLoc.ID, *m.ToLocationID)
	}

	assert.Empty(t, f.store.Reservations, "las reservas se consumen al expedir")
	assert.Equal(t, entity.OrderStatusStaged, f.store.PickingOrders[f.order.ID].Status)
	check := f.store.StageChecks[view.Check.ID]
	assert.Equal(t, entity.StageStatusCompleted, check.Status)
	assert.False(t, check.HasDivergence)
	assert.NotNil(t, check.CompletedAt)
}

func TestComplete_ForzadoExpideLoVerificadoYLiberaSobrantes(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	// Solo se verifica café parcial; el azúcar no aparece en el muelle.
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "20")

	res, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, Force: true, Notes: "faltante confirmado por supervisor",
		OperatorID: f.operator,
	})
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.Len(t, res.Divergences, 2)

	// Se expidió exactamente lo verificado, consumiendo la primera reserva.
	assert.Nil(t, f.store.Ledger[f.entryA1.ID])

	// Las reservas no expedidas se liberaron y los contadores cacheados se
	// re-derivaron: nada queda huérfano tras avanzar el pedido.
	assert.Empty(t, f.store.Reservations)
	assert.True(t, f.store.Ledger[f.entryA2.ID].ReservedQuantity.IsZero())
	assert.True(t, f.store.Ledger[f.entryA2.ID].Quantity.Equal(dec("10")), "el stock no verificado no se mueve")
	assert.True(t, f.store.Ledger[f.entryB.ID].ReservedQuantity.IsZero())

	assert.Equal(t, entity.OrderStatusStaged, f.store.PickingOrders[f.order.ID].Status)
	check := f.store.StageChecks[view.Check.ID]
	assert.Equal(t, entity.StageStatusCompleted, check.Status)
	assert.True(t, check.HasDivergence)
}

func TestComplete_DerivaEntreReservaYLedger_AbortaTodo(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "30")
	f.record(t, view.Check.ID, f.azucar.ID, "L002", "10")

	// Alguien movió stock por fuera: la posición ya no respalda su reserva.
	f.store.Ledger[f.entryA1.ID].Quantity = dec("8")

	_, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})

	var drift *domain.ReservationDriftError
	require.ErrorAs(t, err, &drift)
	assert.Equal(t, f.order.ID, drift.PickingOrderID)
	assert.Equal(t, f.cafe.ID, drift.ProductID)

	// La transacción se revirtió completa: nada se expidió ni se liberó.
	assert.Len(t, f.store.Reservations, 3)
	assert.Empty(t, f.store.Movements)
	assert.Equal(t, entity.OrderStatusPicked, f.store.PickingOrders[f.order.ID].Status)
	assert.Equal(t, entity.StageStatusInProgress, f.store.StageChecks[view.Check.ID].Status)
}

func TestComplete_ConferenciaCerrada(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "30")
	f.record(t, view.Check.ID, f.azucar.ID, "L002", "10")

	_, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})
	require.NoError(t, err)

	_, err = f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación y consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestCancel_NoTocaLedgerNiReservas(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "12")

	err := f.uc.Cancel(context.Background(), view.Check.ID, "pedido retenido por facturación")
	require.NoError(t, err)

	assert.Equal(t, entity.StageStatusCancelled, f.store.StageChecks[view.Check.ID].Status)
	assert.True(t, f.store.Ledger[f.entryA1.ID].Quantity.Equal(dec("20")))
	assert.Len(t, f.store.Reservations, 3)

	// Cancelada, deja de aceptar verificaciones y puede abrirse una nueva.
	_, err = f.uc.RecordItem(context.Background(), stage.RecordInput{
		StageCheckID: view.Check.ID, ProductID: f.cafe.ID, Batch: "L001",
		Quantity: dec("1"), OperatorID: f.operator,
	})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	fresh := f.start(t)
	assert.NotEqual(t, view.Check.ID, fresh.Check.ID)
}

func TestGetActive_DevuelveLaConferenciaDelOperador(t *testing.T) {
	f := newFixture(t)

	view, err := f.uc.GetActive(context.Background(), f.operator, nil)
	require.NoError(t, err)
	assert.Nil(t, view, "sin conferencia activa no hay vista")

	started := f.start(t)
	view, err = f.uc.GetActive(context.Background(), f.operator, nil)
	require.NoError(t, err)
	require.NotNil(t, view)
	assert.Equal(t, started.Check.ID, view.Check.ID)
	assert.Len(t, view.Items, 2)
}

func TestGetHistory_PaginaLasConferenciasDelTenant(t *testing.T) {
	f := newFixture(t)
	view := f.start(t)
	f.record(t, view.Check.ID, f.cafe.ID, "L001", "30")
	f.record(t, view.Check.ID, f.azucar.ID, "L002", "10")
	_, err := f.uc.Complete(context.Background(), stage.CompleteInput{
		StageCheckID: view.Check.ID, OperatorID: f.operator,
	})
	require.NoError(t, err)

	tenant := int64(1)
	list, err := f.uc.GetHistory(context.Background(), &tenant, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.StageStatusCompleted, list[0].Status)

	otro := int64(99)
	list, err = f.uc.GetHistory(context.Background(), &otro, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}
