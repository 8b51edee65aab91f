// Package ledger expone el lado de consulta del libro de stock: posiciones
// filtradas, resúmenes y ocupación. Solo lectura; la corrección la garantiza
// el motor de movimientos, no los lectores.
package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

// QueryUseCase consultas sobre el ledger materializado.
type QueryUseCase struct {
	queryRepo repository.LedgerQueryRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(queryRepo repository.LedgerQueryRepository) *QueryUseCase {
	return &QueryUseCase{queryRepo: queryRepo}
}

// GetPositions posiciones de stock con filtros avanzados.
func (uc *QueryUseCase) GetPositions(_ context.Context, filters repository.PositionFilters) ([]*repository.PositionRow, error) {
	if filters.Limit <= 0 || filters.Limit > 1000 {
		filters.Limit = 1000
	}
	return uc.queryRepo.Positions(filters)
}

// Summary resumen agregado para las tarjetas de métricas.
type Summary struct {
	TotalPositions  int
	TotalQuantity   decimal.Decimal
	UniqueLocations int
	UniqueBatches   int
}

// GetSummary agrega sobre el mismo conjunto filtrado que GetPositions.
func (uc *QueryUseCase) GetSummary(ctx context.Context, filters repository.PositionFilters) (*Summary, error) {
	positions, err := uc.GetPositions(ctx, filters)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	locations := map[int64]bool{}
	batches := map[string]bool{}
	for _, p := range positions {
		total = total.Add(p.Quantity)
		locations[p.LocationID] = true
		if p.Batch != "" {
			batches[p.Batch] = true
		}
	}
	return &Summary{
		TotalPositions:  len(positions),
		TotalQuantity:   total,
		UniqueLocations: len(locations),
		UniqueBatches:   len(batches),
	}, nil
}

// GetLocationStock saldo puntual de una ubicación, opcionalmente acotado a
// producto y lote.
func (uc *QueryUseCase) GetLocationStock(_ context.Context, locationID int64, productID *int64, batch *string) (decimal.Decimal, error) {
	if locationID <= 0 {
		return decimal.Zero, domain.ErrInvalidInput
	}
	return uc.queryRepo.LocationStock(locationID, productID, batch)
}

// GetExpiring posiciones con validez dentro del umbral de días.
func (uc *QueryUseCase) GetExpiring(_ context.Context, tenantID *int64, daysThreshold int) ([]*repository.PositionRow, error) {
	if daysThreshold <= 0 {
		daysThreshold = 30
	}
	return uc.queryRepo.Expiring(tenantID, daysThreshold)
}

// GetOccupancy agregación de ocupación por zona (consumidor de reportes).
func (uc *QueryUseCase) GetOccupancy(_ context.Context, tenantID *int64) ([]*repository.ZoneOccupancyRow, error) {
	return uc.queryRepo.Occupancy(tenantID)
}
