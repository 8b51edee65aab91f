// Package memrepo implementa los puertos de repositorio sobre mapas en
// memoria. Se usa en los tests de la capa de aplicación: mismo contrato que
// los adaptadores de postgres, sin base de datos.
package memrepo

import (
	"sort"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// Store estado compartido por todos los repos falsos de un test.
type Store struct {
	nextID int64

	Ledger          map[int64]*entity.LedgerEntry
	Locations       map[int64]*entity.Location
	Zones           map[int64]*entity.Zone
	Movements       []*entity.MovementRecord
	Reservations    map[int64]*entity.Reservation
	Preallocations  map[int64]*entity.Preallocation
	Sessions        map[int64]*entity.BlindSession
	Labels          map[int64]*entity.LabelAssociation
	Readings        []*entity.LabelReading
	Adjustments     []*entity.QuantityAdjustment
	ReceivingOrders map[int64]*entity.ReceivingOrder
	ReceivingItems  map[int64]*entity.ReceivingOrderItem
	PickingOrders   map[int64]*entity.PickingOrder
	PickingItems    map[int64]*entity.PickingOrderItem
	Products        map[int64]*entity.Product
	StageChecks     map[int64]*entity.StageCheck
	StageItems      map[int64]*entity.StageCheckItem
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		Ledger:          map[int64]*entity.LedgerEntry{},
		Locations:       map[int64]*entity.Location{},
		Zones:           map[int64]*entity.Zone{},
		Reservations:    map[int64]*entity.Reservation{},
		Preallocations:  map[int64]*entity.Preallocation{},
		Sessions:        map[int64]*entity.BlindSession{},
		Labels:          map[int64]*entity.LabelAssociation{},
		ReceivingOrders: map[int64]*entity.ReceivingOrder{},
		ReceivingItems:  map[int64]*entity.ReceivingOrderItem{},
		PickingOrders:   map[int64]*entity.PickingOrder{},
		PickingItems:    map[int64]*entity.PickingOrderItem{},
		Products:        map[int64]*entity.Product{},
		StageChecks:     map[int64]*entity.StageCheck{},
		StageItems:      map[int64]*entity.StageCheckItem{},
	}
}

// NextID asigna un id secuencial.
func (s *Store) NextID() int64 {
	s.nextID++
	return s.nextID
}

// AddLedger inserta una posición asignándole id si no lo trae.
func (s *Store) AddLedger(e *entity.LedgerEntry) *entity.LedgerEntry {
	if e.ID == 0 {
		e.ID = s.NextID()
	}
	if e.Status == "" {
		e.Status = entity.StockStatusAvailable
	}
	s.Ledger[e.ID] = e
	return e
}

// AddLocation inserta una ubicación asignándole id si no lo trae.
func (s *Store) AddLocation(l *entity.Location) *entity.Location {
	if l.ID == 0 {
		l.ID = s.NextID()
	}
	if l.StorageRule == "" {
		l.StorageRule = entity.StorageRuleMulti
	}
	if l.Status == "" {
		l.Status = entity.LocationStatusFree
	}
	s.Locations[l.ID] = l
	return l
}

// AddZone inserta una zona asignándole id si no lo trae.
func (s *Store) AddZone(z *entity.Zone) *entity.Zone {
	if z.ID == 0 {
		z.ID = s.NextID()
	}
	s.Zones[z.ID] = z
	return z
}

// AddProduct inserta un producto asignándole id si no lo trae.
func (s *Store) AddProduct(p *entity.Product) *entity.Product {
	if p.ID == 0 {
		p.ID = s.NextID()
	}
	s.Products[p.ID] = p
	return p
}

// Snapshot copia profunda del estado, para simular el rollback transaccional.
type Snapshot struct {
	state *Store
}

// Snapshot captura el estado actual.
func (s *Store) Snapshot() Snapshot {
	c := NewStore()
	c.nextID = s.nextID
	for k, v := range s.Ledger {
		cp := *v
		c.Ledger[k] = &cp
	}
	for k, v := range s.Locations {
		cp := *v
		c.Locations[k] = &cp
	}
	for k, v := range s.Zones {
		cp := *v
		c.Zones[k] = &cp
	}
	for _, v := range s.Movements {
		cp := *v
		c.Movements = append(c.Movements, &cp)
	}
	for k, v := range s.Reservations {
		cp := *v
		c.Reservations[k] = &cp
	}
	for k, v := range s.Preallocations {
		cp := *v
		c.Preallocations[k] = &cp
	}
	for k, v := range s.Sessions {
		cp := *v
		c.Sessions[k] = &cp
	}
	for k, v := range s.Labels {
		cp := *v
		c.Labels[k] = &cp
	}
	for _, v := range s.Readings {
		cp := *v
		c.Readings = append(c.Readings, &cp)
	}
	for _, v := range s.Adjustments {
		cp := *v
		c.Adjustments = append(c.Adjustments, &cp)
	}
	for k, v := range s.ReceivingOrders {
		cp := *v
		c.ReceivingOrders[k] = &cp
	}
	for k, v := range s.ReceivingItems {
		cp := *v
		c.ReceivingItems[k] = &cp
	}
	for k, v := range s.PickingOrders {
		cp := *v
		c.PickingOrders[k] = &cp
	}
	for k, v := range s.PickingItems {
		cp := *v
		c.PickingItems[k] = &cp
	}
	for k, v := range s.Products {
		cp := *v
		c.Products[k] = &cp
	}
	for k, v := range s.StageChecks {
		cp := *v
		c.StageChecks[k] = &cp
	}
	for k, v := range s.StageItems {
		cp := *v
		c.StageItems[k] = &cp
	}
	return Snapshot{state: c}
}

// Restore vuelve al estado capturado.
func (s *Store) Restore(snap Snapshot) {
	*s = *snap.state
}

// sortedLedgerIDs ids del ledger en orden ascendente, para recorridos estables.
func (s *Store) sortedLedgerIDs() []int64 {
	ids := make([]int64, 0, len(s.Ledger))
	for id := range s.Ledger {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func matchBatch(filter *string, batch string) bool {
	return filter == nil || *filter == batch
}
