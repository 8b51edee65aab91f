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

var _ repository.LedgerRepository = (*LedgerRepo)(nil)

// LedgerRepo implementación de LedgerRepository sobre PostgreSQL (usable con pool o tx).
// El lote se persiste como texto no nulo: '' significa sin lote, lo que permite
// igualdad directa en la búsqueda de fusión.
type LedgerRepo struct {
	q Querier
}

// NewLedgerRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewLedgerRepository(q Querier) *LedgerRepo {
	return &LedgerRepo{q: q}
}

const ledgerColumns = `id, tenant_id, product_id, location_id, batch, expiry_date, label_code, quantity, reserved_quantity, status, created_at, updated_at`

func scanLedgerEntry(row pgx.Row) (*entity.LedgerEntry, error) {
	var e entity.LedgerEntry
	var labelCode *string
	err := row.Scan(
		&e.ID, &e.TenantID, &e.ProductID, &e.LocationID, &e.Batch, &e.ExpiryDate,
		&labelCode, &e.Quantity, &e.ReservedQuantity, &e.Status, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.LabelCode = emptyIfNull(labelCode)
	return &e, nil
}

func collectLedgerEntries(rows pgx.Rows) ([]*entity.LedgerEntry, error) {
	defer rows.Close()
	var out []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetByID obtiene una posición por id. nil si no existe.
func (r *LedgerRepo) GetByID(id int64) (*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE id = $1`
	e, err := scanLedgerEntry(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// ListForUpdate bloquea las filas origen candidatas (SELECT FOR UPDATE) en
// orden de id ascendente: transferencias concurrentes sobre el mismo stock
// adquieren los locks en el mismo orden y no se bloquean entre sí en círculo.
func (r *LedgerRepo) ListForUpdate(locationID, productID, tenantID int64, batch *string, statuses []string) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger
		WHERE location_id = $1 AND product_id = $2 AND tenant_id = $3
		  AND ($4::text IS NULL OR batch = $4)
		  AND status = ANY($5)
		  AND quantity > 0
		ORDER BY id ASC
		FOR UPDATE`
	rows, err := r.q.Query(context.Background(), query, locationID, productID, tenantID, batch, statuses)
	if err != nil {
		return nil, fmt.Errorf("list ledger for update: %w", err)
	}
	return collectLedgerEntries(rows)
}

// FindMergeTarget fila destino para fusionar un crédito, bloqueada. nil si no existe.
func (r *LedgerRepo) FindMergeTarget(tenantID, productID, locationID int64, batch string) (*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger
		WHERE tenant_id = $1 AND product_id = $2 AND location_id = $3 AND batch = $4
		LIMIT 1
		FOR UPDATE`
	e, err := scanLedgerEntry(r.q.QueryRow(context.Background(), query, tenantID, productID, locationID, batch))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find merge target: %w", err)
	}
	return e, nil
}

// HoldsOtherProductOrBatch true si la ubicación tiene stock de otro (producto, lote).
func (r *LedgerRepo) HoldsOtherProductOrBatch(locationID, productID int64, batch string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM stock_ledger
			WHERE location_id = $1 AND quantity > 0
			  AND (product_id <> $2 OR batch <> $3)
		)`
	var exists bool
	if err := r.q.QueryRow(context.Background(), query, locationID, productID, batch).Scan(&exists); err != nil {
		return false, fmt.Errorf("check location exclusivity: %w", err)
	}
	return exists, nil
}

// Insert crea una posición y devuelve su id.
func (r *LedgerRepo) Insert(e *entity.LedgerEntry) (int64, error) {
	query := `
		INSERT INTO stock_ledger
			(tenant_id, product_id, location_id, batch, expiry_date, label_code, quantity, reserved_quantity, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		e.TenantID, e.ProductID, e.LocationID, e.Batch, e.ExpiryDate, nullIfEmpty(e.LabelCode),
		e.Quantity, e.ReservedQuantity, e.Status, e.CreatedAt, e.UpdatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert ledger entry: %w", err)
	}
	return id, nil
}

func (r *LedgerRepo) UpdateQuantity(id int64, quantity decimal.Decimal, updatedAt time.Time) error {
	query := `UPDATE stock_ledger SET quantity = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, quantity, updatedAt); err != nil {
		return fmt.Errorf("update ledger quantity: %w", err)
	}
	return nil
}

func (r *LedgerRepo) UpdateReserved(id int64, reserved decimal.Decimal) error {
	query := `UPDATE stock_ledger SET reserved_quantity = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, reserved); err != nil {
		return fmt.Errorf("update ledger reserved: %w", err)
	}
	return nil
}

func (r *LedgerRepo) Delete(id int64) error {
	query := `DELETE FROM stock_ledger WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("delete ledger entry: %w", err)
	}
	return nil
}

// SumByLocation saldo agregado de una ubicación.
func (r *LedgerRepo) SumByLocation(locationID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(quantity), 0) FROM stock_ledger WHERE location_id = $1`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, locationID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum ledger by location: %w", err)
	}
	return total, nil
}

// ListAvailableByProduct posiciones disponibles de un producto en orden de
// antigüedad, insumo de la estrategia de asignación.
func (r *LedgerRepo) ListAvailableByProduct(tenantID, productID int64) ([]*entity.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM stock_ledger
		WHERE tenant_id = $1 AND product_id = $2 AND status = 'available' AND quantity > 0
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, tenantID, productID)
	if err != nil {
		return nil, fmt.Errorf("list available by product: %w", err)
	}
	return collectLedgerEntries(rows)
}

// ListReserved posiciones con contador de reserva positivo.
func (r *LedgerRepo) ListReserved() ([]*entity.LedgerEntry, error) {
	query := `SELECT ` + ledgerColumns + ` FROM stock_ledger WHERE reserved_quantity > 0 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("list reserved entries: %w", err)
	}
	return collectLedgerEntries(rows)
}

// DeleteAll vacía el ledger del tenant (o completo con nil) previo al replay.
func (r *LedgerRepo) DeleteAll(tenantID *int64) error {
	query := `DELETE FROM stock_ledger WHERE $1::bigint IS NULL OR tenant_id = $1`
	if _, err := r.q.Exec(context.Background(), query, tenantID); err != nil {
		return fmt.Errorf("delete all ledger entries: %w", err)
	}
	return nil
}

// ResolveTenant tenant de alguna posición que calce. nil si no hay ninguna.
func (r *LedgerRepo) ResolveTenant(locationID, productID int64, batch *string) (*int64, error) {
	query := `
		SELECT tenant_id FROM stock_ledger
		WHERE location_id = $1 AND product_id = $2
		  AND ($3::text IS NULL OR batch = $3)
		  AND quantity > 0
		LIMIT 1`
	var tenantID int64
	err := r.q.QueryRow(context.Background(), query, locationID, productID, batch).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolve tenant: %w", err)
	}
	return &tenantID, nil
}
