package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.StageCheckRepository = (*StageCheckRepo)(nil)
var _ repository.StageCheckItemRepository = (*StageCheckItemRepo)(nil)

// StageCheckRepo conferencias de stage sobre PostgreSQL (usable con pool o tx).
type StageCheckRepo struct {
	q Querier
}

func NewStageCheckRepository(q Querier) *StageCheckRepo {
	return &StageCheckRepo{q: q}
}

const stageCheckColumns = `id, tenant_id, picking_order_id, customer_order_number, operator_id, status, has_divergence, notes, created_at, completed_at`

func scanStageCheck(row pgx.Row) (*entity.StageCheck, error) {
	var c entity.StageCheck
	var notes *string
	err := row.Scan(
		&c.ID, &c.TenantID, &c.PickingOrderID, &c.CustomerOrderNumber, &c.OperatorID,
		&c.Status, &c.HasDivergence, &notes, &c.CreatedAt, &c.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	c.Notes = emptyIfNull(notes)
	return &c, nil
}

func (r *StageCheckRepo) Create(c *entity.StageCheck) (int64, error) {
	query := `
		INSERT INTO stage_checks
			(tenant_id, picking_order_id, customer_order_number, operator_id, status, has_divergence, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		c.TenantID, c.PickingOrderID, c.CustomerOrderNumber, c.OperatorID,
		c.Status, c.HasDivergence, nullIfEmpty(c.Notes), c.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create stage check: %w", err)
	}
	return id, nil
}

func (r *StageCheckRepo) GetByID(id int64) (*entity.StageCheck, error) {
	query := `SELECT ` + stageCheckColumns + ` FROM stage_checks WHERE id = $1`
	c, err := scanStageCheck(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stage check: %w", err)
	}
	return c, nil
}

func (r *StageCheckRepo) FindActiveByOrder(pickingOrderID int64) (*entity.StageCheck, error) {
	query := `
		SELECT ` + stageCheckColumns + `
		FROM stage_checks
		WHERE picking_order_id = $1 AND status = 'in_progress'
		ORDER BY created_at DESC
		LIMIT 1`
	c, err := scanStageCheck(r.q.QueryRow(context.Background(), query, pickingOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active stage check by order: %w", err)
	}
	return c, nil
}

func (r *StageCheckRepo) FindActiveByOperator(operatorID int64, tenantID *int64) (*entity.StageCheck, error) {
	query := `
		SELECT ` + stageCheckColumns + `
		FROM stage_checks
		WHERE operator_id = $1 AND status = 'in_progress'
		  AND ($2::bigint IS NULL OR tenant_id = $2)
		ORDER BY created_at DESC
		LIMIT 1`
	c, err := scanStageCheck(r.q.QueryRow(context.Background(), query, operatorID, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active stage check by operator: %w", err)
	}
	return c, nil
}

func (r *StageCheckRepo) SetStatus(id int64, status string, hasDivergence bool, notes string, completedAt *time.Time) error {
	query := `
		UPDATE stage_checks
		SET status = $2, has_divergence = $3, notes = COALESCE($4, notes), completed_at = $5
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, status, hasDivergence, nullIfEmpty(notes), completedAt); err != nil {
		return fmt.Errorf("set stage check status: %w", err)
	}
	return nil
}

func (r *StageCheckRepo) List(tenantID *int64, limit, offset int) ([]*entity.StageCheck, error) {
	query := `
		SELECT ` + stageCheckColumns + `
		FROM stage_checks
		WHERE $1::bigint IS NULL OR tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(context.Background(), query, tenantID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stage checks: %w", err)
	}
	defer rows.Close()
	var out []*entity.StageCheck
	for rows.Next() {
		c, err := scanStageCheck(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// StageCheckItemRepo items de conferencia sobre PostgreSQL, clave (producto, lote).
type StageCheckItemRepo struct {
	q Querier
}

func NewStageCheckItemRepository(q Querier) *StageCheckItemRepo {
	return &StageCheckItemRepo{q: q}
}

const stageItemColumns = `id, stage_check_id, product_id, product_sku, product_name, batch, expected_quantity, checked_quantity, divergence`

func scanStageItem(row pgx.Row) (*entity.StageCheckItem, error) {
	var it entity.StageCheckItem
	var sku, name *string
	err := row.Scan(
		&it.ID, &it.StageCheckID, &it.ProductID, &sku, &name, &it.Batch,
		&it.ExpectedQuantity, &it.CheckedQuantity, &it.Divergence,
	)
	if err != nil {
		return nil, err
	}
	it.ProductSku = emptyIfNull(sku)
	it.ProductName = emptyIfNull(name)
	return &it, nil
}

func (r *StageCheckItemRepo) Create(item *entity.StageCheckItem) (int64, error) {
	query := `
		INSERT INTO stage_check_items
			(stage_check_id, product_id, product_sku, product_name, batch, expected_quantity, checked_quantity, divergence)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		item.StageCheckID, item.ProductID, nullIfEmpty(item.ProductSku), nullIfEmpty(item.ProductName),
		item.Batch, item.ExpectedQuantity, item.CheckedQuantity, item.Divergence,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create stage check item: %w", err)
	}
	return id, nil
}

func (r *StageCheckItemRepo) ListByCheck(stageCheckID int64) ([]*entity.StageCheckItem, error) {
	query := `SELECT ` + stageItemColumns + ` FROM stage_check_items WHERE stage_check_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, stageCheckID)
	if err != nil {
		return nil, fmt.Errorf("list stage check items: %w", err)
	}
	defer rows.Close()
	var out []*entity.StageCheckItem
	for rows.Next() {
		it, err := scanStageItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *StageCheckItemRepo) FindByProductBatch(stageCheckID, productID int64, batch string) (*entity.StageCheckItem, error) {
	query := `
		SELECT ` + stageItemColumns + `
		FROM stage_check_items
		WHERE stage_check_id = $1 AND product_id = $2 AND batch = $3`
	it, err := scanStageItem(r.q.QueryRow(context.Background(), query, stageCheckID, productID, batch))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find stage check item: %w", err)
	}
	return it, nil
}

func (r *StageCheckItemRepo) UpdateChecked(id int64, checked, divergence decimal.Decimal) error {
	query := `UPDATE stage_check_items SET checked_quantity = $2, divergence = $3 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, checked, divergence); err != nil {
		return fmt.Errorf("update stage check item: %w", err)
	}
	return nil
}
