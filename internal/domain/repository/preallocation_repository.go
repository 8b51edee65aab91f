package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// PreallocationRepository puerto de pre-asignaciones de picking.
type PreallocationRepository interface {
	FindPending(productID, locationID int64, batch string) (*entity.Preallocation, error)
	MarkFulfilled(id int64) error
}
