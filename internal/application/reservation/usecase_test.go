package reservation_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/application/reservation"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/memrepo"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newUseCase() (*reservation.UseCase, *memrepo.Store) {
	store := memrepo.NewStore()
	uc := reservation.NewUseCase(memrepo.NewTxRunner(store), logger.New(logger.Config{Env: "production", Level: "error"}))
	return uc, store
}

func seedEntry(store *memrepo.Store, qty string) *entity.LedgerEntry {
	loc := store.AddLocation(&entity.Location{Code: "A-01-01"})
	return store.AddLedger(&entity.LedgerEntry{
		TenantID: 1, ProductID: 10, LocationID: loc.ID, Batch: "L001", Quantity: dec(qty),
	})
}

// Reservar dentro del tope crea la fila y actualiza el contador cacheado.
func TestReserve_ActualizaContadorCacheado(t *testing.T) {
	uc, store := newUseCase()
	entry := seedEntry(store, "100")

	err := uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("60"),
	})
	require.NoError(t, err)

	assert.True(t, store.Ledger[entry.ID].ReservedQuantity.Equal(dec("60")))
	require.Len(t, store.Reservations, 1)
}

// El tope es cantidad física menos reservas activas: la segunda reserva que
// excede el remanente se rechaza sin crear nada.
func TestReserve_TopePorReservasActivas(t *testing.T) {
	uc, store := newUseCase()
	entry := seedEntry(store, "100")

	require.NoError(t, uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("70"),
	}))

	err := uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 301, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("40"),
	})

	var insufficient *domain.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Available.Equal(dec("30")))
	require.Len(t, store.Reservations, 1, "la reserva rechazada no deja fila")
	assert.True(t, store.Ledger[entry.ID].ReservedQuantity.Equal(dec("70")))
}

// Liberar un pedido elimina sus reservas y vuelve a derivar los contadores,
// dejando intactas las reservas de otros pedidos sobre la misma posición.
func TestReleaseOrder_RederivaContadores(t *testing.T) {
	uc, store := newUseCase()
	entry := seedEntry(store, "100")

	require.NoError(t, uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("50"),
	}))
	require.NoError(t, uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 301, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("30"),
	}))

	released, err := uc.ReleaseOrder(context.Background(), 300)
	require.NoError(t, err)
	assert.Equal(t, 1, released)

	assert.True(t, store.Ledger[entry.ID].ReservedQuantity.Equal(dec("30")),
		"el contador queda en la suma de las reservas restantes")
	require.Len(t, store.Reservations, 1)
}

// La reconciliación corrige contadores desviados de la suma real de reservas.
func TestReconcileOrphans_CorrigeDeriva(t *testing.T) {
	uc, store := newUseCase()
	entry := seedEntry(store, "100")

	require.NoError(t, uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("20"),
	}))

	// Deriva simulada: alguien mutó el cache sin mantener las filas.
	store.Ledger[entry.ID].ReservedQuantity = dec("55")
	huerfana := seedEntry(store, "10")
	huerfana.ReservedQuantity = dec("10") // sin ninguna fila de reserva

	fixes, err := uc.ReconcileOrphans(context.Background())
	require.NoError(t, err)
	require.Len(t, fixes, 2)

	assert.True(t, store.Ledger[entry.ID].ReservedQuantity.Equal(dec("20")))
	assert.True(t, store.Ledger[huerfana.ID].ReservedQuantity.Equal(decimal.Zero))

	for _, f := range fixes {
		switch f.LedgerEntryID {
		case entry.ID:
			assert.True(t, f.Cached.Equal(dec("55")))
			assert.True(t, f.Derived.Equal(dec("20")))
		case huerfana.ID:
			assert.True(t, f.Cached.Equal(dec("10")))
			assert.True(t, f.Derived.Equal(decimal.Zero))
		default:
			t.Fatalf("corrección inesperada sobre la posición %d", f.LedgerEntryID)
		}
	}
}

// Sin deriva no hay correcciones.
func TestReconcileOrphans_SinDeriva(t *testing.T) {
	uc, store := newUseCase()
	entry := seedEntry(store, "100")
	require.NoError(t, uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: entry.ID, ProductID: 10, Quantity: dec("20"),
	}))

	fixes, err := uc.ReconcileOrphans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fixes)
}

// Entradas inválidas.
func TestReserve_EntradasInvalidas(t *testing.T) {
	uc, _ := newUseCase()

	err := uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: 1, ProductID: 10, Quantity: dec("-5"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = uc.Reserve(context.Background(), reservation.ReserveInput{
		PickingOrderID: 300, LedgerEntryID: 999, ProductID: 10, Quantity: dec("5"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
