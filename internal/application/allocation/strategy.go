// Package allocation implementa la estrategia de selección de posiciones para
// satisfacer una cantidad solicitada de picking: FIFO, FEFO o Direccionado.
package allocation

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
	"github.com/jhoicas/Almacen-api/pkg/logger"
)

// Reglas de asignación.
const (
	RuleFIFO     = "FIFO"
	RuleFEFO     = "FEFO"
	RuleDirected = "Directed"
)

// Request asignación solicitada.
type Request struct {
	TenantID  int64
	ProductID int64
	Requested decimal.Decimal
	Rule      string
	// DirectedLocationID ubicación elegida por el caller (regla Directed).
	DirectedLocationID *int64
	ActorID            int64
}

// Line posición elegida con la cantidad asignada y su orden de recorrido.
type Line struct {
	LedgerEntryID int64
	LocationID    int64
	LocationCode  string
	Batch         string
	Allocated     decimal.Decimal
	Rank          int
}

// Strategy selecciona posiciones available con disponibilidad positiva y las
// consume en orden según la regla. Cada decisión se registra en el log de
// auditoría; la auditoría nunca se lee de vuelta para control de flujo.
type Strategy struct {
	ledgerRepo   repository.LedgerRepository
	locationRepo repository.LocationRepository
	log          *logger.Logger
}

// NewStrategy construye la estrategia sobre el lado de lectura del ledger.
func NewStrategy(ledgerRepo repository.LedgerRepository, locationRepo repository.LocationRepository, log *logger.Logger) *Strategy {
	return &Strategy{ledgerRepo: ledgerRepo, locationRepo: locationRepo, log: log}
}

// Allocate resuelve la solicitud. Si la disponibilidad total es menor a lo
// pedido, falla con InsufficientStockError reportando el faltante.
func (s *Strategy) Allocate(ctx context.Context, req Request) ([]Line, error) {
	if req.ProductID <= 0 || !req.Requested.IsPositive() {
		return nil, domain.ErrInvalidInput
	}
	switch req.Rule {
	case RuleFIFO, RuleFEFO:
	case RuleDirected:
		if req.DirectedLocationID == nil {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	rows, err := s.ledgerRepo.ListAvailableByProduct(req.TenantID, req.ProductID)
	if err != nil {
		return nil, err
	}

	// Solo posiciones con disponibilidad neta positiva.
	candidates := rows[:0:0]
	for _, r := range rows {
		if req.Rule == RuleDirected && r.LocationID != *req.DirectedLocationID {
			continue
		}
		if r.AvailableQuantity().IsPositive() {
			candidates = append(candidates, r)
		}
	}

	orderCandidates(candidates, req.Rule)

	lines := make([]Line, 0, len(candidates))
	remaining := req.Requested
	totalAvailable := decimal.Zero
	for _, r := range candidates {
		totalAvailable = totalAvailable.Add(r.AvailableQuantity())
	}
	if totalAvailable.LessThan(req.Requested) {
		return nil, &domain.InsufficientStockError{
			ProductID: req.ProductID,
			Total:     totalAvailable,
			Reserved:  decimal.Zero,
			Available: totalAvailable,
			Requested: req.Requested,
		}
	}

	for _, r := range candidates {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(r.AvailableQuantity(), remaining)
		code := ""
		if loc, err := s.locationRepo.GetByID(r.LocationID); err == nil && loc != nil {
			code = loc.Code
		}
		lines = append(lines, Line{
			LedgerEntryID: r.ID,
			LocationID:    r.LocationID,
			LocationCode:  code,
			Batch:         r.Batch,
			Allocated:     take,
		})
		remaining = remaining.Sub(take)
	}

	// Recorrido en orden de código de ubicación; el rank se reasigna después.
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].LocationCode < lines[j].LocationCode })
	for i := range lines {
		lines[i].Rank = i + 1
	}

	s.audit(ctx, req, lines)
	return lines, nil
}

func orderCandidates(rows []*entity.LedgerEntry, rule string) {
	switch rule {
	case RuleFEFO:
		// Validez más próxima primero; sin validez al final.
		sort.SliceStable(rows, func(i, j int) bool {
			ei, ej := rows[i].ExpiryDate, rows[j].ExpiryDate
			if ei == nil {
				return false
			}
			if ej == nil {
				return true
			}
			return ei.Before(*ej)
		})
	case RuleFIFO:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].CreatedAt.Before(rows[j].CreatedAt)
		})
	}
}

func (s *Strategy) audit(_ context.Context, req Request, lines []Line) {
	evt := s.log.Info().
		Str("rule", req.Rule).
		Int64("actor_id", req.ActorID).
		Int64("product_id", req.ProductID).
		Str("requested", req.Requested.String()).
		Int("lines", len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.LedgerEntryID)
	}
	evt.Ints64("ledger_entry_ids", ids).Msg("asignación de picking decidida")
}
