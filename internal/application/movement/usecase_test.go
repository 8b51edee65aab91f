package movement_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/memrepo"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var tenantA int64 = 1

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

// newEngine motor sobre repos en memoria con política de zonas permisiva.
func newEngine(t *testing.T) (*movement.MoveUseCase, *memrepo.Store, *memrepo.TxRunner) {
	t.Helper()
	store := memrepo.NewStore()
	runner := memrepo.NewTxRunner(store)
	uc := movement.NewMoveUseCase(runner, nil, testLogger())
	return uc, store, runner
}

// seedTransfer ubicación origen con 100 unidades y un destino vacío.
func seedTransfer(store *memrepo.Store, destRule string) (from, to *entity.Location, entry *entity.LedgerEntry) {
	from = store.AddLocation(&entity.Location{Code: "A-01-01", Status: entity.LocationStatusOccupied, StorageRule: entity.StorageRuleSingle})
	to = store.AddLocation(&entity.Location{Code: "A-01-02", StorageRule: destRule})
	entry = store.AddLedger(&entity.LedgerEntry{
		TenantID:   tenantA,
		ProductID:  10,
		LocationID: from.ID,
		Batch:      "L001",
		Quantity:   dec("100"),
	})
	return from, to, entry
}

func transferInput(productID int64, fromID int64, toID *int64, qty string) movement.MoveInput {
	return movement.MoveInput{
		ProductID:      productID,
		FromLocationID: fromID,
		ToLocationID:   toID,
		Quantity:       dec(qty),
		Batch:          "L001",
		MovementType:   entity.MovementTypeTransfer,
		TenantID:       &tenantA,
		PerformedBy:    7,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Transferencia feliz
// ──────────────────────────────────────────────────────────────────────────────

// Mover 70 de una posición de 100 deja 30 en origen y 70 en destino, con un
// único registro de movimiento y los estados de ubicación recalculados.
func TestMove_TransferenciaParcial(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleSingle)

	res, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.TxID)

	origin := store.Ledger[entry.ID]
	require.NotNil(t, origin, "la posición de origen debe seguir existiendo")
	assert.True(t, origin.Quantity.Equal(dec("30")), "origen debe quedar en 30, quedó %s", origin.Quantity)

	var dest *entity.LedgerEntry
	for _, e := range store.Ledger {
		if e.LocationID == to.ID {
			dest = e
		}
	}
	require.NotNil(t, dest, "debe existir una posición nueva en el destino")
	assert.True(t, dest.Quantity.Equal(dec("70")))
	assert.Equal(t, "L001", dest.Batch)

	require.Len(t, store.Movements, 1, "una transferencia produce exactamente un registro")
	assert.Equal(t, res.TxID, store.Movements[0].TxID)

	// Ambas ubicaciones single con saldo positivo quedan occupied.
	assert.Equal(t, entity.LocationStatusOccupied, store.Locations[from.ID].Status)
	assert.Equal(t, entity.LocationStatusOccupied, store.Locations[to.ID].Status)
}

// Mover la cantidad completa elimina la fila origen y libera la ubicación.
func TestMove_CantidadCompleta_EliminaOrigen(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleMulti)

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "100"))
	require.NoError(t, err)

	assert.Nil(t, store.Ledger[entry.ID], "la fila en cero debe eliminarse, no quedar con cantidad 0")
	assert.Equal(t, entity.LocationStatusFree, store.Locations[from.ID].Status)
	assert.Equal(t, entity.LocationStatusAvailable, store.Locations[to.ID].Status,
		"una ubicación multi con saldo sigue disponible para más lotes")
}

// La deducción recorre varias filas origen en orden de id y elimina las agotadas.
func TestMove_DeduccionMultiFila(t *testing.T) {
	uc, store, _ := newEngine(t)
	from := store.AddLocation(&entity.Location{Code: "B-01-01", StorageRule: entity.StorageRuleMulti})
	to := store.AddLocation(&entity.Location{Code: "B-01-02", StorageRule: entity.StorageRuleMulti})
	e1 := store.AddLedger(&entity.LedgerEntry{TenantID: tenantA, ProductID: 10, LocationID: from.ID, Batch: "L001", Quantity: dec("60")})
	e2 := store.AddLedger(&entity.LedgerEntry{TenantID: tenantA, ProductID: 10, LocationID: from.ID, Batch: "L001", Quantity: dec("50")})

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "80"))
	require.NoError(t, err)

	assert.Nil(t, store.Ledger[e1.ID], "la primera fila se agota y se elimina")
	require.NotNil(t, store.Ledger[e2.ID])
	assert.True(t, store.Ledger[e2.ID].Quantity.Equal(dec("30")))
}

// El crédito se fusiona con la fila existente del mismo (producto, lote) en destino.
func TestMove_FusionaEnDestino(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, _ := seedTransfer(store, entity.StorageRuleMulti)
	existing := store.AddLedger(&entity.LedgerEntry{TenantID: tenantA, ProductID: 10, LocationID: to.ID, Batch: "L001", Quantity: dec("25")})

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))
	require.NoError(t, err)

	assert.True(t, store.Ledger[existing.ID].Quantity.Equal(dec("95")), "70 debe fusionarse en la fila existente")

	count := 0
	for _, e := range store.Ledger {
		if e.LocationID == to.ID {
			count++
		}
	}
	assert.Equal(t, 1, count, "no debe crearse una segunda fila para el mismo lote")
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos sin mutación
// ──────────────────────────────────────────────────────────────────────────────

// Pedir 150 con saldo 100 falla con InsufficientStockError y no toca nada.
func TestMove_SaldoInsuficiente_NoMutaNada(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleMulti)

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "150"))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("100")))
	assert.True(t, insufficient.Requested.Equal(dec("150")))

	assert.True(t, store.Ledger[entry.ID].Quantity.Equal(dec("100")), "el origen no debe deducirse parcialmente")
	assert.Empty(t, store.Movements, "un movimiento rechazado no deja registro")
}

// Las reservas activas restan disponibilidad aunque la cantidad física alcance.
func TestMove_ReservasRestanDisponibilidad(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleMulti)
	store.Reservations[store.NextID()] = &entity.Reservation{
		PickingOrderID: 500, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("40"),
	}

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "80"))

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("60")), "disponible = 100 físicas - 40 reservadas")
	assert.True(t, insufficient.Reserved.Equal(dec("40")))
}

// Un destino single que ya contiene otro (producto, lote) rechaza el crédito.
func TestMove_ReglaSingle_RechazaMezcla(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleSingle)
	store.AddLedger(&entity.LedgerEntry{TenantID: tenantA, ProductID: 99, LocationID: to.ID, Batch: "OTRO", Quantity: dec("5")})

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))

	var incompatible *domain.IncompatibleStorageRuleError
	require.ErrorAs(t, err, &incompatible)
	assert.Equal(t, to.ID, incompatible.LocationID)
	assert.True(t, store.Ledger[entry.ID].Quantity.Equal(dec("100")), "la validación de destino ocurre antes de deducir")
	assert.Empty(t, store.Movements)
}

// Transfer sin destino es inválido; disposal sin destino es la baja legítima.
func TestMove_DestinoRequeridoSalvoDisposal(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, _, entry := seedTransfer(store, entity.StorageRuleMulti)

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, nil, "10"))
	assert.ErrorIs(t, err, domain.ErrDestinationRequired)

	in := transferInput(10, from.ID, nil, "100")
	in.MovementType = entity.MovementTypeDisposal
	_, err = uc.Move(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, store.Ledger[entry.ID], "la baja consume la posición completa")
	require.Len(t, store.Movements, 1)
	assert.Nil(t, store.Movements[0].ToLocationID)
}

// Ubicación origen inexistente.
func TestMove_UbicacionInexistente(t *testing.T) {
	uc, _, _ := newEngine(t)

	toID := int64(9999)
	_, err := uc.Move(context.Background(), transferInput(10, 8888, &toID, "10"))

	var notFound *domain.LocationNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(8888), notFound.LocationID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad
// ──────────────────────────────────────────────────────────────────────────────

// Un fallo del commit tras todas las mutaciones revierte el estado completo:
// ni deducción parcial, ni crédito, ni registro de movimiento.
func TestMove_AbortDeTransaccion_RevierteTodo(t *testing.T) {
	uc, store, runner := newEngine(t)
	from, to, entry := seedTransfer(store, entity.StorageRuleMulti)
	runner.FailWith = errors.New("conexión perdida")

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))
	require.Error(t, err)

	assert.True(t, store.Ledger[entry.ID].Quantity.Equal(dec("100")), "el origen debe quedar intacto tras el abort")
	for _, e := range store.Ledger {
		assert.NotEqual(t, to.ID, e.LocationID, "no debe quedar crédito en destino")
	}
	assert.Empty(t, store.Movements)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados restringidos
// ──────────────────────────────────────────────────────────────────────────────

// Stock bloqueado es invisible sin autorización y movible con ella.
func TestMove_StockBloqueado_RequiereAutorizacion(t *testing.T) {
	uc, store, _ := newEngine(t)
	from := store.AddLocation(&entity.Location{Code: "Q-01-01", StorageRule: entity.StorageRuleMulti})
	to := store.AddLocation(&entity.Location{Code: "Q-01-02", StorageRule: entity.StorageRuleMulti})
	store.AddLedger(&entity.LedgerEntry{
		TenantID: tenantA, ProductID: 10, LocationID: from.ID, Batch: "L001",
		Quantity: dec("50"), Status: entity.StockStatusBlocked,
	})

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "50"))
	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient, "sin autorización el stock bloqueado no cuenta como disponible")

	in := transferInput(10, from.ID, &to.ID, "50")
	in.AdminReleaseAuthorized = true
	_, err = uc.Move(context.Background(), in)
	require.NoError(t, err, "con autorización de liberación el movimiento procede")
}

// ──────────────────────────────────────────────────────────────────────────────
// Resolución de tenant y pre-asignaciones
// ──────────────────────────────────────────────────────────────────────────────

// Sin tenant en el input ni en la ubicación, se resuelve desde la posición existente.
func TestMove_ResuelveTenantDesdeElLedger(t *testing.T) {
	uc, store, _ := newEngine(t)
	from := store.AddLocation(&entity.Location{Code: "C-01-01", StorageRule: entity.StorageRuleMulti})
	to := store.AddLocation(&entity.Location{Code: "C-01-02", StorageRule: entity.StorageRuleMulti})
	store.AddLedger(&entity.LedgerEntry{TenantID: 42, ProductID: 10, LocationID: from.ID, Batch: "L001", Quantity: dec("20")})

	in := transferInput(10, from.ID, &to.ID, "20")
	in.TenantID = nil
	_, err := uc.Move(context.Background(), in)
	require.NoError(t, err)

	for _, e := range store.Ledger {
		if e.LocationID == to.ID {
			assert.Equal(t, int64(42), e.TenantID, "el crédito hereda el tenant resuelto")
		}
	}
}

// Sin posición existente la resolución falla en vez de adivinar.
func TestMove_TenantIrresoluble(t *testing.T) {
	uc, store, _ := newEngine(t)
	from := store.AddLocation(&entity.Location{Code: "D-01-01", StorageRule: entity.StorageRuleMulti})
	to := store.AddLocation(&entity.Location{Code: "D-01-02", StorageRule: entity.StorageRuleMulti})
	store.AddLedger(&entity.LedgerEntry{TenantID: 42, ProductID: 10, LocationID: from.ID, Batch: "L001", Quantity: dec("20")})

	in := transferInput(77, from.ID, &to.ID, "20") // producto sin posición
	in.TenantID = nil
	_, err := uc.Move(context.Background(), in)

	var unresolved *domain.TenantResolutionError
	require.ErrorAs(t, err, &unresolved)
}

// Una pre-asignación pendiente coincidente con el destino se marca cumplida.
func TestMove_CumplePreasignacionPendiente(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, _ := seedTransfer(store, entity.StorageRuleMulti)
	pre := &entity.Preallocation{
		ID: store.NextID(), PickingOrderID: 300, ProductID: 10, LocationID: to.ID,
		Batch: "L001", Quantity: dec("70"), Status: entity.PreallocationPending,
	}
	store.Preallocations[pre.ID] = pre

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))
	require.NoError(t, err)
	assert.Equal(t, entity.PreallocationFulfilled, store.Preallocations[pre.ID].Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconstrucción por replay
// ──────────────────────────────────────────────────────────────────────────────

// Tras varios movimientos, borrar el ledger y reconstruirlo por replay debe
// reproducir exactamente las mismas posiciones.
func TestRebuild_ReplayReproduceElLedger(t *testing.T) {
	uc, store, _ := newEngine(t)
	from, to, _ := seedTransfer(store, entity.StorageRuleMulti)

	// Entrada inicial registrada también como movimiento, para que el replay
	// parta de la misma historia.
	fromID := from.ID
	store.Movements = append(store.Movements, &entity.MovementRecord{
		ID: store.NextID(), TxID: "seed", TenantID: &tenantA, ProductID: 10,
		Batch: "L001", ToLocationID: &fromID, Quantity: dec("100"),
		MovementType: entity.MovementTypeReceiving, PerformedBy: 7,
	})

	_, err := uc.Move(context.Background(), transferInput(10, from.ID, &to.ID, "70"))
	require.NoError(t, err)
	_, err = uc.Move(context.Background(), transferInput(10, to.ID, &from.ID, "20"))
	require.NoError(t, err)

	// Corromper el ledger simulando deriva.
	for id := range store.Ledger {
		store.Ledger[id].Quantity = dec("999")
	}

	res, err := uc.RebuildFromMovements(context.Background(), &tenantA)
	require.NoError(t, err)
	assert.Equal(t, 3, res.MovementsReplayed)

	byLocation := map[int64]decimal.Decimal{}
	for _, e := range store.Ledger {
		byLocation[e.LocationID] = e.Quantity
	}
	assert.True(t, byLocation[from.ID].Equal(dec("50")), "origen: 100 - 70 + 20")
	assert.True(t, byLocation[to.ID].Equal(dec("50")), "destino: 70 - 20")
}
