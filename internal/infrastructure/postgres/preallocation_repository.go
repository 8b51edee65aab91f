package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.PreallocationRepository = (*PreallocationRepo)(nil)

// PreallocationRepo pre-asignaciones de picking sobre PostgreSQL (usable con pool o tx).
type PreallocationRepo struct {
	q Querier
}

func NewPreallocationRepository(q Querier) *PreallocationRepo {
	return &PreallocationRepo{q: q}
}

// FindPending pre-asignación pendiente más antigua que calce con el destino
// de una transferencia. nil si no hay.
func (r *PreallocationRepo) FindPending(productID, locationID int64, batch string) (*entity.Preallocation, error) {
	query := `
		SELECT id, picking_order_id, product_id, location_id, batch, quantity, status, created_at
		FROM preallocations
		WHERE product_id = $1 AND location_id = $2 AND batch = $3 AND status = 'pending'
		ORDER BY created_at ASC
		LIMIT 1`
	var p entity.Preallocation
	err := r.q.QueryRow(context.Background(), query, productID, locationID, batch).Scan(
		&p.ID, &p.PickingOrderID, &p.ProductID, &p.LocationID, &p.Batch, &p.Quantity, &p.Status, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find pending preallocation: %w", err)
	}
	return &p, nil
}

func (r *PreallocationRepo) MarkFulfilled(id int64) error {
	query := `UPDATE preallocations SET status = 'fulfilled' WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("mark preallocation fulfilled: %w", err)
	}
	return nil
}
