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

var _ repository.PickingOrderRepository = (*PickingOrderRepo)(nil)
var _ repository.ReceivingOrderRepository = (*ReceivingOrderRepo)(nil)
var _ repository.ProductRepository = (*ProductRepo)(nil)

// PickingOrderRepo lectura de pedidos de salida sobre PostgreSQL. El ciclo de
// vida completo del pedido vive en otro servicio: aquí solo se consultan
// líneas y se avanza el estado.
type PickingOrderRepo struct {
	q Querier
}

func NewPickingOrderRepository(q Querier) *PickingOrderRepo {
	return &PickingOrderRepo{q: q}
}

const pickingOrderColumns = `id, tenant_id, customer_order_number, status, created_at`

func scanPickingOrder(row pgx.Row) (*entity.PickingOrder, error) {
	var o entity.PickingOrder
	err := row.Scan(&o.ID, &o.TenantID, &o.CustomerOrderNumber, &o.Status, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PickingOrderRepo) GetByID(id int64) (*entity.PickingOrder, error) {
	query := `SELECT ` + pickingOrderColumns + ` FROM picking_orders WHERE id = $1`
	o, err := scanPickingOrder(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get picking order: %w", err)
	}
	return o, nil
}

func (r *PickingOrderRepo) FindByCustomerOrderNumber(customerOrderNumber string, status string, tenantID *int64) (*entity.PickingOrder, error) {
	query := `
		SELECT ` + pickingOrderColumns + `
		FROM picking_orders
		WHERE customer_order_number = $1 AND status = $2
		  AND ($3::bigint IS NULL OR tenant_id = $3)
		ORDER BY created_at DESC
		LIMIT 1`
	o, err := scanPickingOrder(r.q.QueryRow(context.Background(), query, customerOrderNumber, status, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find picking order by customer number: %w", err)
	}
	return o, nil
}

func (r *PickingOrderRepo) ListItems(pickingOrderID int64) ([]*entity.PickingOrderItem, error) {
	query := `
		SELECT id, picking_order_id, product_id, batch, requested_quantity, requested_um
		FROM picking_order_items
		WHERE picking_order_id = $1
		ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, pickingOrderID)
	if err != nil {
		return nil, fmt.Errorf("list picking order items: %w", err)
	}
	defer rows.Close()
	var out []*entity.PickingOrderItem
	for rows.Next() {
		var it entity.PickingOrderItem
		var um *string
		if err := rows.Scan(&it.ID, &it.PickingOrderID, &it.ProductID, &it.Batch, &it.RequestedQuantity, &um); err != nil {
			return nil, err
		}
		it.RequestedUM = emptyIfNull(um)
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *PickingOrderRepo) UpdateStatus(id int64, status string) error {
	query := `UPDATE picking_orders SET status = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, status); err != nil {
		return fmt.Errorf("update picking order status: %w", err)
	}
	return nil
}

// ReceivingOrderRepo órdenes de recepción sobre PostgreSQL.
type ReceivingOrderRepo struct {
	q Querier
}

func NewReceivingOrderRepository(q Querier) *ReceivingOrderRepo {
	return &ReceivingOrderRepo{q: q}
}

func (r *ReceivingOrderRepo) GetByID(id int64) (*entity.ReceivingOrder, error) {
	query := `
		SELECT id, tenant_id, nfe_number, status, receiving_location_id, created_by
		FROM receiving_orders WHERE id = $1`
	var o entity.ReceivingOrder
	var nfe *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(
		&o.ID, &o.TenantID, &nfe, &o.Status, &o.ReceivingLocationID, &o.CreatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receiving order: %w", err)
	}
	o.NfeNumber = emptyIfNull(nfe)
	return &o, nil
}

func (r *ReceivingOrderRepo) ListItems(receivingOrderID int64) ([]*entity.ReceivingOrderItem, error) {
	query := `
		SELECT id, receiving_order_id, product_id, batch, expiry_date, expected_quantity, received_quantity
		FROM receiving_order_items
		WHERE receiving_order_id = $1
		ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, receivingOrderID)
	if err != nil {
		return nil, fmt.Errorf("list receiving order items: %w", err)
	}
	defer rows.Close()
	var out []*entity.ReceivingOrderItem
	for rows.Next() {
		var it entity.ReceivingOrderItem
		if err := rows.Scan(&it.ID, &it.ReceivingOrderID, &it.ProductID, &it.Batch, &it.ExpiryDate, &it.ExpectedQuantity, &it.ReceivedQuantity); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

func (r *ReceivingOrderRepo) UpdateStatus(id int64, status string) error {
	query := `UPDATE receiving_orders SET status = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, status); err != nil {
		return fmt.Errorf("update receiving order status: %w", err)
	}
	return nil
}

func (r *ReceivingOrderRepo) AddReceived(itemID int64, delta decimal.Decimal) error {
	query := `UPDATE receiving_order_items SET received_quantity = received_quantity + $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, itemID, delta); err != nil {
		return fmt.Errorf("add received quantity: %w", err)
	}
	return nil
}

// ProductRepo lectura de productos sobre PostgreSQL (el CRUD vive fuera).
type ProductRepo struct {
	q Querier
}

func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

func (r *ProductRepo) GetByID(id int64) (*entity.Product, error) {
	query := `SELECT id, tenant_id, sku, description, units_per_box FROM products WHERE id = $1`
	var p entity.Product
	var unitsPerBox *decimal.Decimal
	err := r.q.QueryRow(context.Background(), query, id).Scan(&p.ID, &p.TenantID, &p.Sku, &p.Description, &unitsPerBox)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	if unitsPerBox != nil {
		p.UnitsPerBox = *unitsPerBox
	} else {
		p.UnitsPerBox = decimal.Zero
	}
	return &p, nil
}
