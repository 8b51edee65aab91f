package blind_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/blind"
	"github.com/jhoicas/Almacen-api/internal/application/movement"
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
	uc       *blind.UseCase
	store    *memrepo.Store
	order    *entity.ReceivingOrder
	item     *entity.ReceivingOrderItem
	recLoc   *entity.Location
	product  *entity.Product
	operator int64
}

// newFixture orden de recepción con una línea esperada de 20 unidades del
// producto 10 lote L001, zona REC con una ubicación de recepción.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.NewStore()

	product := store.AddProduct(&entity.Product{Sku: "SKU-10", Description: "Café molido 1kg", UnitsPerBox: dec("10")})
	zone := store.AddZone(&entity.Zone{Code: entity.ZoneCodeReceiving, Name: "Recepción"})
	recLoc := store.AddLocation(&entity.Location{Code: "REC-01", ZoneID: zone.ID, StorageRule: entity.StorageRuleMulti})

	order := &entity.ReceivingOrder{ID: store.NextID(), TenantID: 1, NfeNumber: "NF-123", Status: "pending", CreatedBy: 7}
	store.ReceivingOrders[order.ID] = order
	item := &entity.ReceivingOrderItem{
		ID: store.NextID(), ReceivingOrderID: order.ID, ProductID: product.ID,
		Batch: "L001", ExpectedQuantity: dec("20"),
	}
	store.ReceivingItems[item.ID] = item

	uc := blind.NewUseCase(
		&memrepo.BlindSessionRepo{S: store},
		&memrepo.LabelRepo{S: store},
		&memrepo.LabelReadingRepo{S: store},
		&memrepo.AdjustmentRepo{S: store},
		&memrepo.ReceivingOrderRepo{S: store},
		&memrepo.ProductRepo{S: store},
		memrepo.NewTxRunner(store),
		movement.PermissiveZonePolicy{},
		logger.New(logger.Config{Env: "production", Level: "error"}),
	)
	return &fixture{uc: uc, store: store, order: order, item: item, recLoc: recLoc, product: product, operator: 7}
}

func (f *fixture) startSession(t *testing.T) int64 {
	t.Helper()
	res, err := f.uc.Start(context.Background(), blind.StartInput{
		TenantID: 1, ReceivingOrderID: f.order.ID, StartedBy: f.operator,
	})
	require.NoError(t, err)
	return res.SessionID
}

func (f *fixture) associate(t *testing.T, sessionID int64, code string, totalUnits *decimal.Decimal) *blind.ReadResult {
	t.Helper()
	res, err := f.uc.AssociateLabel(context.Background(), blind.AssociateInput{
		SessionID: sessionID, LabelCode: code, ProductID: f.product.ID, Batch: "L001",
		UnitsPerPackage: dec("10"), TotalUnitsReceived: totalUnits, AssociatedBy: f.operator,
	})
	require.NoError(t, err)
	return res
}

// ──────────────────────────────────────────────────────────────────────────────
// Sesión y lecturas
// ──────────────────────────────────────────────────────────────────────────────

// Abrir dos veces la misma orden retoma la sesión activa en vez de duplicarla.
func TestStart_RetomaSesionActiva(t *testing.T) {
	f := newFixture(t)

	first, err := f.uc.Start(context.Background(), blind.StartInput{TenantID: 1, ReceivingOrderID: f.order.ID, StartedBy: 7})
	require.NoError(t, err)
	assert.False(t, first.Resumed)

	second, err := f.uc.Start(context.Background(), blind.StartInput{TenantID: 1, ReceivingOrderID: f.order.ID, StartedBy: 8})
	require.NoError(t, err)
	assert.True(t, second.Resumed)
	assert.Equal(t, first.SessionID, second.SessionID)
}

// Una etiqueta nunca vista responde isNewLabel sin contar nada.
func TestReadLabel_EtiquetaDesconocida(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)

	res, err := f.uc.ReadLabel(context.Background(), blind.ReadInput{SessionID: sessionID, LabelCode: "ETQ-001", ReadBy: 7})
	require.NoError(t, err)
	assert.True(t, res.IsNewLabel)
	assert.Empty(t, f.store.Readings, "una etiqueta desconocida no apila lectura")
}

// Primera lectura fraccionada: la asociación declara 10 por paquete pero el
// paquete real trae 7. Las lecturas siguientes vuelven al paquete completo.
func TestAssociate_PaqueteFraccionado(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)

	fraction := dec("7")
	res := f.associate(t, sessionID, "ETQ-001", &fraction)
	assert.Equal(t, 1, res.PackagesRead)
	assert.True(t, res.TotalUnits.Equal(dec("7")), "la primera lectura cuenta las unidades reales")

	res2, err := f.uc.ReadLabel(context.Background(), blind.ReadInput{SessionID: sessionID, LabelCode: "ETQ-001", ReadBy: 7})
	require.NoError(t, err)
	assert.Equal(t, 2, res2.PackagesRead)
	assert.True(t, res2.TotalUnits.Equal(dec("17")), "7 + un paquete completo de 10")

	assert.True(t, f.store.ReceivingItems[f.item.ID].ReceivedQuantity.Equal(dec("17")),
		"el acumulado de la línea esperada sigue las lecturas")
}

// La fracción no puede exceder las unidades por paquete declaradas.
func TestAssociate_FraccionInvalida(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)

	tooMany := dec("12")
	_, err := f.uc.AssociateLabel(context.Background(), blind.AssociateInput{
		SessionID: sessionID, LabelCode: "ETQ-001", ProductID: f.product.ID, Batch: "L001",
		UnitsPerPackage: dec("10"), TotalUnitsReceived: &tooMany, AssociatedBy: 7,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// Asociar dos veces el mismo código en la sesión es un duplicado.
func TestAssociate_CodigoDuplicado(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)

	_, err := f.uc.AssociateLabel(context.Background(), blind.AssociateInput{
		SessionID: sessionID, LabelCode: "ETQ-001", ProductID: f.product.ID, Batch: "L001",
		UnitsPerPackage: dec("10"), AssociatedBy: 7,
	})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

// ──────────────────────────────────────────────────────────────────────────────
// Deshacer y ajustar
// ──────────────────────────────────────────────────────────────────────────────

// Deshacer revierte la lectura más reciente; si era la única de la etiqueta,
// la asociación desaparece. Sin lecturas pendientes, no hay nada que deshacer.
func TestUndo_PilaLIFO(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)
	_, err := f.uc.ReadLabel(context.Background(), blind.ReadInput{SessionID: sessionID, LabelCode: "ETQ-001", ReadBy: 7})
	require.NoError(t, err)

	undo, err := f.uc.UndoLastReading(context.Background(), sessionID)
	require.NoError(t, err)
	assert.False(t, undo.AssociationDeleted)
	assert.True(t, undo.UnitsRemoved.Equal(dec("10")))

	assoc, err := (&memrepo.LabelRepo{S: f.store}).FindBySessionAndCode(sessionID, "ETQ-001")
	require.NoError(t, err)
	require.NotNil(t, assoc)
	assert.Equal(t, 1, assoc.PackagesRead)

	undo2, err := f.uc.UndoLastReading(context.Background(), sessionID)
	require.NoError(t, err)
	assert.True(t, undo2.AssociationDeleted, "deshacer la única lectura elimina la asociación")

	_, err = f.uc.UndoLastReading(context.Background(), sessionID)
	assert.ErrorIs(t, err, domain.ErrNothingToUndo)
}

// El ajuste manual exige motivo, fija los contadores y deja auditoría.
func TestAdjust_FijaContadoresConAuditoria(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)

	err := f.uc.AdjustQuantity(context.Background(), blind.AdjustInput{
		SessionID: sessionID, LabelCode: "ETQ-001", NewPackages: 3, AdjustedBy: 7,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "sin motivo no hay ajuste")

	err = f.uc.AdjustQuantity(context.Background(), blind.AdjustInput{
		SessionID: sessionID, LabelCode: "ETQ-001", NewPackages: 3,
		Reason: "pallet con tres paquetes visibles", AdjustedBy: 7,
	})
	require.NoError(t, err)

	assoc, _ := (&memrepo.LabelRepo{S: f.store}).FindBySessionAndCode(sessionID, "ETQ-001")
	assert.Equal(t, 3, assoc.PackagesRead)
	assert.True(t, assoc.TotalUnits.Equal(dec("30")))

	require.Len(t, f.store.Adjustments, 1)
	assert.Equal(t, "pallet con tres paquetes visibles", f.store.Adjustments[0].Reason)
	assert.Equal(t, 1, f.store.Adjustments[0].OldPackages)
	assert.Equal(t, 3, f.store.Adjustments[0].NewPackages)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resumen y cierre
// ──────────────────────────────────────────────────────────────────────────────

// El resumen agrupa etiquetas del mismo (producto, lote).
func TestGetSummary_AgrupaPorProductoYLote(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)
	f.associate(t, sessionID, "ETQ-002", nil)

	summary, err := f.uc.GetSummary(context.Background(), sessionID)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, 2, summary.Items[0].Labels)
	assert.Equal(t, 2, summary.Items[0].Packages)
	assert.True(t, summary.Items[0].TotalUnits.Equal(dec("20")))
	assert.Equal(t, "SKU-10", summary.Items[0].ProductSku)
}

// Cerrar con lo contado distinto a lo esperado falla con el detalle de
// divergencias y no toca el ledger; la sesión sigue activa.
func TestFinish_DivergenciaSinForce(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil) // 10 contra 20 esperadas

	_, err := f.uc.Finish(context.Background(), blind.FinishInput{SessionID: sessionID, PerformedBy: 7})

	var divergence *domain.DivergenceError
	require.ErrorAs(t, err, &divergence)
	require.Len(t, divergence.Items, 1)
	assert.True(t, divergence.Items[0].Expected.Equal(dec("20")))
	assert.True(t, divergence.Items[0].Checked.Equal(dec("10")))
	assert.True(t, divergence.Items[0].Delta.Equal(dec("-10")))

	assert.Empty(t, f.store.Ledger, "el cierre rechazado no acredita stock")
	assert.Equal(t, entity.SessionStatusActive, f.store.Sessions[sessionID].Status)
}

// Cierre forzado con divergencias: acredita lo contado tal cual, activa las
// etiquetas y completa sesión y orden.
func TestFinish_ForzadoAcreditaLoContado(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)

	res, err := f.uc.Finish(context.Background(), blind.FinishInput{SessionID: sessionID, Force: true, PerformedBy: 7})
	require.NoError(t, err)
	assert.True(t, res.Forced)
	assert.Equal(t, 1, res.ItemsPosted)
	assert.True(t, res.TotalUnits.Equal(dec("10")))

	var entry *entity.LedgerEntry
	for _, e := range f.store.Ledger {
		entry = e
	}
	require.NotNil(t, entry, "debe existir la posición acreditada")
	assert.Equal(t, f.recLoc.ID, entry.LocationID, "el crédito aterriza en la ubicación de la zona REC")
	assert.True(t, entry.Quantity.Equal(dec("10")))
	assert.Equal(t, "ETQ-001", entry.LabelCode)

	require.Len(t, f.store.Movements, 1)
	assert.Equal(t, entity.MovementTypeReceiving, f.store.Movements[0].MovementType)
	assert.Equal(t, "receiving_order", f.store.Movements[0].ReferenceType)
	assert.Nil(t, f.store.Movements[0].FromLocationID, "una entrada no tiene origen")

	assoc, _ := (&memrepo.LabelRepo{S: f.store}).FindBySessionAndCode(sessionID, "ETQ-001")
	assert.Equal(t, entity.LabelStatusAvailable, assoc.Status, "las etiquetas quedan activas tras el cierre")
	assert.Equal(t, entity.SessionStatusCompleted, f.store.Sessions[sessionID].Status)
	assert.Equal(t, "completed", f.store.ReceivingOrders[f.order.ID].Status)
}

// Cierre exacto: dos lecturas completan las 20 esperadas, sin divergencias.
func TestFinish_ExactoSinDivergencias(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)
	_, err := f.uc.ReadLabel(context.Background(), blind.ReadInput{SessionID: sessionID, LabelCode: "ETQ-001", ReadBy: 7})
	require.NoError(t, err)

	res, err := f.uc.Finish(context.Background(), blind.FinishInput{SessionID: sessionID, PerformedBy: 7})
	require.NoError(t, err)
	assert.False(t, res.Forced)
	assert.Empty(t, res.Divergences)
	assert.True(t, res.TotalUnits.Equal(dec("20")))
}

// Operar sobre una sesión cerrada falla de forma consistente.
func TestOperacionesSobreSesionCerrada(t *testing.T) {
	f := newFixture(t)
	sessionID := f.startSession(t)
	f.associate(t, sessionID, "ETQ-001", nil)
	_, err := f.uc.Finish(context.Background(), blind.FinishInput{SessionID: sessionID, Force: true, PerformedBy: 7})
	require.NoError(t, err)

	_, err = f.uc.ReadLabel(context.Background(), blind.ReadInput{SessionID: sessionID, LabelCode: "ETQ-001", ReadBy: 7})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)

	_, err = f.uc.Finish(context.Background(), blind.FinishInput{SessionID: sessionID, Force: true, PerformedBy: 7})
	assert.ErrorIs(t, err, domain.ErrSessionClosed)
}
