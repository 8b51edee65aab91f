package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.ReservationRepository = (*ReservationRepo)(nil)

// ReservationRepo implementación de ReservationRepository sobre PostgreSQL (usable con pool o tx).
type ReservationRepo struct {
	q Querier
}

// NewReservationRepository construye el adaptador de reservas. Pasar pool o tx (Querier).
func NewReservationRepository(q Querier) *ReservationRepo {
	return &ReservationRepo{q: q}
}

const reservationColumns = `id, picking_order_id, ledger_entry_id, product_id, quantity, created_at`

func collectReservations(rows pgx.Rows) ([]*entity.Reservation, error) {
	defer rows.Close()
	var out []*entity.Reservation
	for rows.Next() {
		var res entity.Reservation
		if err := rows.Scan(&res.ID, &res.PickingOrderID, &res.LedgerEntryID, &res.ProductID, &res.Quantity, &res.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &res)
	}
	return out, rows.Err()
}

// Create persiste una reserva y devuelve su id.
func (r *ReservationRepo) Create(res *entity.Reservation) (int64, error) {
	query := `
		INSERT INTO reservations (picking_order_id, ledger_entry_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		res.PickingOrderID, res.LedgerEntryID, res.ProductID, res.Quantity, res.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create reservation: %w", err)
	}
	return id, nil
}

func (r *ReservationRepo) Delete(id int64) error {
	query := `DELETE FROM reservations WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}

// DeleteByOrder elimina todas las reservas del pedido y devuelve cuántas eran.
func (r *ReservationRepo) DeleteByOrder(pickingOrderID int64) (int, error) {
	query := `DELETE FROM reservations WHERE picking_order_id = $1`
	tag, err := r.q.Exec(context.Background(), query, pickingOrderID)
	if err != nil {
		return 0, fmt.Errorf("delete reservations by order: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (r *ReservationRepo) ListByOrder(pickingOrderID int64) ([]*entity.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE picking_order_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, pickingOrderID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by order: %w", err)
	}
	return collectReservations(rows)
}

func (r *ReservationRepo) ListByOrderAndProduct(pickingOrderID, productID int64) ([]*entity.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE picking_order_id = $1 AND product_id = $2
		ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, pickingOrderID, productID)
	if err != nil {
		return nil, fmt.Errorf("list reservations by order and product: %w", err)
	}
	return collectReservations(rows)
}

// SumByEntry suma de reservas activas sobre una posición. Derivación de verdad
// del contador cacheado reserved_quantity.
func (r *ReservationRepo) SumByEntry(ledgerEntryID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM reservations WHERE ledger_entry_id = $1`
	var total decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, ledgerEntryID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("sum reservations by entry: %w", err)
	}
	return total, nil
}
