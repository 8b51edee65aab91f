package memrepo

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ── Ledger ────────────────────────────────────────────────────────────────────

type LedgerRepo struct{ S *Store }

func (r *LedgerRepo) GetByID(id int64) (*entity.LedgerEntry, error) {
	return clone(r.S.Ledger[id]), nil
}

func (r *LedgerRepo) ListForUpdate(locationID, productID, tenantID int64, batch *string, statuses []string) ([]*entity.LedgerEntry, error) {
	allowed := map[string]bool{}
	for _, st := range statuses {
		allowed[st] = true
	}
	var out []*entity.LedgerEntry
	for _, id := range r.S.sortedLedgerIDs() {
		e := r.S.Ledger[id]
		if e.LocationID == locationID && e.ProductID == productID && e.TenantID == tenantID &&
			matchBatch(batch, e.Batch) && allowed[e.Status] && e.Quantity.IsPositive() {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (r *LedgerRepo) FindMergeTarget(tenantID, productID, locationID int64, batch string) (*entity.LedgerEntry, error) {
	for _, id := range r.S.sortedLedgerIDs() {
		e := r.S.Ledger[id]
		if e.TenantID == tenantID && e.ProductID == productID && e.LocationID == locationID &&
			e.Batch == batch && e.Status == entity.StockStatusAvailable {
			return clone(e), nil
		}
	}
	return nil, nil
}

func (r *LedgerRepo) HoldsOtherProductOrBatch(locationID, productID int64, batch string) (bool, error) {
	for _, e := range r.S.Ledger {
		if e.LocationID == locationID && e.Quantity.IsPositive() &&
			(e.ProductID != productID || e.Batch != batch) {
			return true, nil
		}
	}
	return false, nil
}

func (r *LedgerRepo) Insert(e *entity.LedgerEntry) (int64, error) {
	r.S.AddLedger(e)
	return e.ID, nil
}

func (r *LedgerRepo) UpdateQuantity(id int64, quantity decimal.Decimal, updatedAt time.Time) error {
	e, ok := r.S.Ledger[id]
	if !ok {
		return fmt.Errorf("posición %d: %w", id, domain.ErrNotFound)
	}
	e.Quantity = quantity
	e.UpdatedAt = updatedAt
	return nil
}

func (r *LedgerRepo) UpdateReserved(id int64, reserved decimal.Decimal) error {
	e, ok := r.S.Ledger[id]
	if !ok {
		return fmt.Errorf("posición %d: %w", id, domain.ErrNotFound)
	}
	e.ReservedQuantity = reserved
	return nil
}

func (r *LedgerRepo) Delete(id int64) error {
	delete(r.S.Ledger, id)
	return nil
}

func (r *LedgerRepo) SumByLocation(locationID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.S.Ledger {
		if e.LocationID == locationID {
			sum = sum.Add(e.Quantity)
		}
	}
	return sum, nil
}

func (r *LedgerRepo) ListAvailableByProduct(tenantID, productID int64) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, id := range r.S.sortedLedgerIDs() {
		e := r.S.Ledger[id]
		if e.TenantID == tenantID && e.ProductID == productID &&
			e.Status == entity.StockStatusAvailable && e.Quantity.IsPositive() {
			out = append(out, clone(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *LedgerRepo) ListReserved() ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, id := range r.S.sortedLedgerIDs() {
		e := r.S.Ledger[id]
		if e.ReservedQuantity.IsPositive() {
			out = append(out, clone(e))
		}
	}
	return out, nil
}

func (r *LedgerRepo) DeleteAll(tenantID *int64) error {
	for id, e := range r.S.Ledger {
		if tenantID == nil || e.TenantID == *tenantID {
			delete(r.S.Ledger, id)
		}
	}
	return nil
}

func (r *LedgerRepo) ResolveTenant(locationID, productID int64, batch *string) (*int64, error) {
	for _, id := range r.S.sortedLedgerIDs() {
		e := r.S.Ledger[id]
		if e.LocationID == locationID && e.ProductID == productID && matchBatch(batch, e.Batch) {
			t := e.TenantID
			return &t, nil
		}
	}
	return nil, nil
}

// ── Locations y zonas ─────────────────────────────────────────────────────────

type LocationRepo struct{ S *Store }

func (r *LocationRepo) GetByID(id int64) (*entity.Location, error) {
	return clone(r.S.Locations[id]), nil
}

func (r *LocationRepo) UpdateStatus(id int64, status string) error {
	l, ok := r.S.Locations[id]
	if !ok {
		return fmt.Errorf("ubicación %d: %w", id, domain.ErrNotFound)
	}
	l.Status = status
	return nil
}

func (r *LocationRepo) FindByZoneCode(tenantID int64, zoneCode string) (*entity.Location, error) {
	var zoneID int64
	for _, z := range r.S.Zones {
		if z.Code == zoneCode {
			zoneID = z.ID
			break
		}
	}
	if zoneID == 0 {
		return nil, nil
	}
	var ids []int64
	for id := range r.S.Locations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		l := r.S.Locations[id]
		if l.ZoneID != zoneID || l.Status == entity.LocationStatusBlocked {
			continue
		}
		if l.TenantID == nil || *l.TenantID == tenantID {
			return clone(l), nil
		}
	}
	return nil, nil
}

type ZoneRepo struct{ S *Store }

func (r *ZoneRepo) GetByID(id int64) (*entity.Zone, error) {
	return clone(r.S.Zones[id]), nil
}

// ── Movimientos ───────────────────────────────────────────────────────────────

type MovementRecordRepo struct{ S *Store }

func (r *MovementRecordRepo) Create(m *entity.MovementRecord) error {
	m.ID = r.S.NextID()
	r.S.Movements = append(r.S.Movements, m)
	return nil
}

func (r *MovementRecordRepo) ListChronological(tenantID *int64) ([]*entity.MovementRecord, error) {
	var out []*entity.MovementRecord
	for _, m := range r.S.Movements {
		if tenantID == nil || (m.TenantID != nil && *m.TenantID == *tenantID) {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

func (r *MovementRecordRepo) ListByReference(referenceType string, referenceID int64) ([]*entity.MovementRecord, error) {
	var out []*entity.MovementRecord
	for _, m := range r.S.Movements {
		if m.ReferenceType == referenceType && m.ReferenceID != nil && *m.ReferenceID == referenceID {
			out = append(out, clone(m))
		}
	}
	return out, nil
}

// ── Reservas ──────────────────────────────────────────────────────────────────

type ReservationRepo struct{ S *Store }

func (r *ReservationRepo) Create(res *entity.Reservation) (int64, error) {
	res.ID = r.S.NextID()
	r.S.Reservations[res.ID] = res
	return res.ID, nil
}

func (r *ReservationRepo) Delete(id int64) error {
	delete(r.S.Reservations, id)
	return nil
}

func (r *ReservationRepo) DeleteByOrder(pickingOrderID int64) (int, error) {
	n := 0
	for id, res := range r.S.Reservations {
		if res.PickingOrderID == pickingOrderID {
			delete(r.S.Reservations, id)
			n++
		}
	}
	return n, nil
}

func (r *ReservationRepo) ListByOrder(pickingOrderID int64) ([]*entity.Reservation, error) {
	return r.listWhere(func(res *entity.Reservation) bool {
		return res.PickingOrderID == pickingOrderID
	}), nil
}

func (r *ReservationRepo) ListByOrderAndProduct(pickingOrderID, productID int64) ([]*entity.Reservation, error) {
	return r.listWhere(func(res *entity.Reservation) bool {
		return res.PickingOrderID == pickingOrderID && res.ProductID == productID
	}), nil
}

func (r *ReservationRepo) SumByEntry(ledgerEntryID int64) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, res := range r.S.Reservations {
		if res.LedgerEntryID == ledgerEntryID {
			sum = sum.Add(res.Quantity)
		}
	}
	return sum, nil
}

func (r *ReservationRepo) listWhere(keep func(*entity.Reservation) bool) []*entity.Reservation {
	var ids []int64
	for id := range r.S.Reservations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	var out []*entity.Reservation
	for _, id := range ids {
		if res := r.S.Reservations[id]; keep(res) {
			out = append(out, clone(res))
		}
	}
	return out
}

// ── Pre-asignaciones ──────────────────────────────────────────────────────────

type PreallocationRepo struct{ S *Store }

func (r *PreallocationRepo) FindPending(productID, locationID int64, batch string) (*entity.Preallocation, error) {
	var ids []int64
	for id := range r.S.Preallocations {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		p := r.S.Preallocations[id]
		if p.Status == entity.PreallocationPending && p.ProductID == productID &&
			p.LocationID == locationID && p.Batch == batch {
			return clone(p), nil
		}
	}
	return nil, nil
}

func (r *PreallocationRepo) MarkFulfilled(id int64) error {
	p, ok := r.S.Preallocations[id]
	if !ok {
		return fmt.Errorf("pre-asignación %d: %w", id, domain.ErrNotFound)
	}
	p.Status = entity.PreallocationFulfilled
	return nil
}
