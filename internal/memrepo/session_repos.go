package memrepo

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// ── Sesiones de conferencia ciega ─────────────────────────────────────────────

type BlindSessionRepo struct{ S *Store }

func (r *BlindSessionRepo) Create(s *entity.BlindSession) (int64, error) {
	s.ID = r.S.NextID()
	r.S.Sessions[s.ID] = s
	return s.ID, nil
}

func (r *BlindSessionRepo) GetByID(id int64) (*entity.BlindSession, error) {
	return clone(r.S.Sessions[id]), nil
}

func (r *BlindSessionRepo) FindActiveByOrder(receivingOrderID int64) (*entity.BlindSession, error) {
	for _, s := range r.S.Sessions {
		if s.ReceivingOrderID == receivingOrderID && s.Status == entity.SessionStatusActive {
			return clone(s), nil
		}
	}
	return nil, nil
}

func (r *BlindSessionRepo) Complete(id int64, finishedAt time.Time) error {
	s, ok := r.S.Sessions[id]
	if !ok {
		return fmt.Errorf("sesión %d: %w", id, domain.ErrNotFound)
	}
	s.Status = entity.SessionStatusCompleted
	s.FinishedAt = &finishedAt
	return nil
}

// ── Etiquetas ─────────────────────────────────────────────────────────────────

type LabelRepo struct{ S *Store }

func (r *LabelRepo) Create(a *entity.LabelAssociation) (int64, error) {
	for _, existing := range r.S.Labels {
		if existing.SessionID == a.SessionID && existing.LabelCode == a.LabelCode {
			return 0, fmt.Errorf("etiqueta %s ya asociada en la sesión: %w", a.LabelCode, domain.ErrDuplicate)
		}
	}
	a.ID = r.S.NextID()
	r.S.Labels[a.ID] = a
	return a.ID, nil
}

func (r *LabelRepo) GetByID(id int64) (*entity.LabelAssociation, error) {
	return clone(r.S.Labels[id]), nil
}

func (r *LabelRepo) FindBySessionAndCode(sessionID int64, labelCode string) (*entity.LabelAssociation, error) {
	for _, a := range r.S.Labels {
		if a.SessionID == sessionID && a.LabelCode == labelCode {
			return clone(a), nil
		}
	}
	return nil, nil
}

func (r *LabelRepo) ListBySession(sessionID int64) ([]*entity.LabelAssociation, error) {
	var ids []int64
	for id, a := range r.S.Labels {
		if a.SessionID == sessionID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*entity.LabelAssociation, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.S.Labels[id]))
	}
	return out, nil
}

func (r *LabelRepo) FindActiveByCode(tenantID *int64, labelCode string) (*entity.LabelAssociation, error) {
	var best *entity.LabelAssociation
	for _, a := range r.S.Labels {
		if a.LabelCode != labelCode || a.Status != entity.LabelStatusAvailable {
			continue
		}
		if tenantID != nil && a.TenantID != *tenantID {
			continue
		}
		if best == nil || a.UpdatedAt.After(best.UpdatedAt) {
			best = a
		}
	}
	return clone(best), nil
}

func (r *LabelRepo) AddUnits(id int64, packagesDelta int, unitsDelta decimal.Decimal) error {
	a, ok := r.S.Labels[id]
	if !ok {
		return fmt.Errorf("etiqueta %d: %w", id, domain.ErrNotFound)
	}
	a.PackagesRead += packagesDelta
	a.TotalUnits = a.TotalUnits.Add(unitsDelta)
	a.UpdatedAt = time.Now()
	return nil
}

func (r *LabelRepo) SetCounts(id int64, packages int, totalUnits decimal.Decimal) error {
	a, ok := r.S.Labels[id]
	if !ok {
		return fmt.Errorf("etiqueta %d: %w", id, domain.ErrNotFound)
	}
	a.PackagesRead = packages
	a.TotalUnits = totalUnits
	a.UpdatedAt = time.Now()
	return nil
}

func (r *LabelRepo) Delete(id int64) error {
	delete(r.S.Labels, id)
	return nil
}

func (r *LabelRepo) ActivateBySession(sessionID int64) error {
	for _, a := range r.S.Labels {
		if a.SessionID == sessionID && a.Status == entity.LabelStatusReceiving {
			a.Status = entity.LabelStatusAvailable
		}
	}
	return nil
}

// ── Lecturas de etiqueta (pila de deshacer) ───────────────────────────────────

type LabelReadingRepo struct{ S *Store }

func (r *LabelReadingRepo) Append(reading *entity.LabelReading) (int64, error) {
	reading.ID = r.S.NextID()
	r.S.Readings = append(r.S.Readings, reading)
	return reading.ID, nil
}

func (r *LabelReadingRepo) Last(sessionID int64) (*entity.LabelReading, error) {
	for i := len(r.S.Readings) - 1; i >= 0; i-- {
		if r.S.Readings[i].SessionID == sessionID {
			return clone(r.S.Readings[i]), nil
		}
	}
	return nil, nil
}

func (r *LabelReadingRepo) Delete(id int64) error {
	for i, reading := range r.S.Readings {
		if reading.ID == id {
			r.S.Readings = append(r.S.Readings[:i], r.S.Readings[i+1:]...)
			return nil
		}
	}
	return nil
}

// ── Ajustes manuales ──────────────────────────────────────────────────────────

type AdjustmentRepo struct{ S *Store }

func (r *AdjustmentRepo) Create(a *entity.QuantityAdjustment) error {
	a.ID = r.S.NextID()
	r.S.Adjustments = append(r.S.Adjustments, a)
	return nil
}

// ── Órdenes de recepción ──────────────────────────────────────────────────────

type ReceivingOrderRepo struct{ S *Store }

func (r *ReceivingOrderRepo) GetByID(id int64) (*entity.ReceivingOrder, error) {
	return clone(r.S.ReceivingOrders[id]), nil
}

func (r *ReceivingOrderRepo) ListItems(receivingOrderID int64) ([]*entity.ReceivingOrderItem, error) {
	var ids []int64
	for id, it := range r.S.ReceivingItems {
		if it.ReceivingOrderID == receivingOrderID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*entity.ReceivingOrderItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.S.ReceivingItems[id]))
	}
	return out, nil
}

func (r *ReceivingOrderRepo) UpdateStatus(id int64, status string) error {
	o, ok := r.S.ReceivingOrders[id]
	if !ok {
		return fmt.Errorf("orden de recepción %d: %w", id, domain.ErrNotFound)
	}
	o.Status = status
	return nil
}

func (r *ReceivingOrderRepo) AddReceived(itemID int64, delta decimal.Decimal) error {
	it, ok := r.S.ReceivingItems[itemID]
	if !ok {
		return fmt.Errorf("línea de recepción %d: %w", itemID, domain.ErrNotFound)
	}
	it.ReceivedQuantity = it.ReceivedQuantity.Add(delta)
	return nil
}

// ── Pedidos de picking ────────────────────────────────────────────────────────

type PickingOrderRepo struct{ S *Store }

func (r *PickingOrderRepo) GetByID(id int64) (*entity.PickingOrder, error) {
	return clone(r.S.PickingOrders[id]), nil
}

func (r *PickingOrderRepo) FindByCustomerOrderNumber(customerOrderNumber string, status string, tenantID *int64) (*entity.PickingOrder, error) {
	for _, o := range r.S.PickingOrders {
		if o.CustomerOrderNumber != customerOrderNumber || o.Status != status {
			continue
		}
		if tenantID != nil && (o.TenantID == nil || *o.TenantID != *tenantID) {
			continue
		}
		return clone(o), nil
	}
	return nil, nil
}

func (r *PickingOrderRepo) ListItems(pickingOrderID int64) ([]*entity.PickingOrderItem, error) {
	var ids []int64
	for id, it := range r.S.PickingItems {
		if it.PickingOrderID == pickingOrderID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*entity.PickingOrderItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.S.PickingItems[id]))
	}
	return out, nil
}

func (r *PickingOrderRepo) UpdateStatus(id int64, status string) error {
	o, ok := r.S.PickingOrders[id]
	if !ok {
		return fmt.Errorf("pedido %d: %w", id, domain.ErrNotFound)
	}
	o.Status = status
	return nil
}

// ── Productos ─────────────────────────────────────────────────────────────────

type ProductRepo struct{ S *Store }

func (r *ProductRepo) GetByID(id int64) (*entity.Product, error) {
	return clone(r.S.Products[id]), nil
}

// ── Conferencias de stage ─────────────────────────────────────────────────────

type StageCheckRepo struct{ S *Store }

func (r *StageCheckRepo) Create(c *entity.StageCheck) (int64, error) {
	c.ID = r.S.NextID()
	r.S.StageChecks[c.ID] = c
	return c.ID, nil
}

func (r *StageCheckRepo) GetByID(id int64) (*entity.StageCheck, error) {
	return clone(r.S.StageChecks[id]), nil
}

func (r *StageCheckRepo) FindActiveByOrder(pickingOrderID int64) (*entity.StageCheck, error) {
	for _, c := range r.S.StageChecks {
		if c.PickingOrderID == pickingOrderID && stageActive(c.Status) {
			return clone(c), nil
		}
	}
	return nil, nil
}

func (r *StageCheckRepo) FindActiveByOperator(operatorID int64, tenantID *int64) (*entity.StageCheck, error) {
	for _, c := range r.S.StageChecks {
		if c.OperatorID != operatorID || !stageActive(c.Status) {
			continue
		}
		if tenantID != nil && (c.TenantID == nil || *c.TenantID != *tenantID) {
			continue
		}
		return clone(c), nil
	}
	return nil, nil
}

func (r *StageCheckRepo) SetStatus(id int64, status string, hasDivergence bool, notes string, completedAt *time.Time) error {
	c, ok := r.S.StageChecks[id]
	if !ok {
		return fmt.Errorf("conferencia %d: %w", id, domain.ErrNotFound)
	}
	c.Status = status
	c.HasDivergence = hasDivergence
	if notes != "" {
		c.Notes = notes
	}
	c.CompletedAt = completedAt
	return nil
}

func (r *StageCheckRepo) List(tenantID *int64, limit, offset int) ([]*entity.StageCheck, error) {
	var ids []int64
	for id, c := range r.S.StageChecks {
		if tenantID != nil && (c.TenantID == nil || *c.TenantID != *tenantID) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	var out []*entity.StageCheck
	for i, id := range ids {
		if i < offset {
			continue
		}
		if len(out) >= limit {
			break
		}
		out = append(out, clone(r.S.StageChecks[id]))
	}
	return out, nil
}

func stageActive(status string) bool {
	return status == entity.StageStatusInProgress || status == entity.StageStatusDivergent
}

type StageCheckItemRepo struct{ S *Store }

func (r *StageCheckItemRepo) Create(item *entity.StageCheckItem) (int64, error) {
	item.ID = r.S.NextID()
	r.S.StageItems[item.ID] = item
	return item.ID, nil
}

func (r *StageCheckItemRepo) ListByCheck(stageCheckID int64) ([]*entity.StageCheckItem, error) {
	var ids []int64
	for id, it := range r.S.StageItems {
		if it.StageCheckID == stageCheckID {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*entity.StageCheckItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, clone(r.S.StageItems[id]))
	}
	return out, nil
}

func (r *StageCheckItemRepo) FindByProductBatch(stageCheckID, productID int64, batch string) (*entity.StageCheckItem, error) {
	for _, it := range r.S.StageItems {
		if it.StageCheckID == stageCheckID && it.ProductID == productID && it.Batch == batch {
			return clone(it), nil
		}
	}
	return nil, nil
}

func (r *StageCheckItemRepo) UpdateChecked(id int64, checked, divergence decimal.Decimal) error {
	it, ok := r.S.StageItems[id]
	if !ok {
		return fmt.Errorf("item de conferencia %d: %w", id, domain.ErrNotFound)
	}
	it.CheckedQuantity = checked
	it.Divergence = divergence
	return nil
}
