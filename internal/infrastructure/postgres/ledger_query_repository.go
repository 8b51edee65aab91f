package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LedgerQueryRepository = (*LedgerQueryRepo)(nil)

// LedgerQueryRepo capa de solo lectura sobre el ledger: vistas desnormalizadas
// para reporting. No participa en transacciones de escritura.
type LedgerQueryRepo struct {
	q Querier
}

func NewLedgerQueryRepository(q Querier) *LedgerQueryRepo {
	return &LedgerQueryRepo{q: q}
}

const positionSelect = `
	SELECT COALESCE(sl.id, 0), COALESCE(sl.product_id, 0), COALESCE(p.sku, ''), COALESCE(p.description, ''),
	       l.id, l.code, l.status, z.name, COALESCE(sl.batch, ''), sl.expiry_date,
	       COALESCE(sl.quantity, 0), COALESCE(sl.reserved_quantity, 0), COALESCE(sl.status, ''),
	       sl.tenant_id, COALESCE(t.name, ''), COALESCE(sl.created_at, l.created_at), COALESCE(sl.updated_at, l.updated_at)`

func collectPositions(rows pgx.Rows) ([]*repository.PositionRow, error) {
	defer rows.Close()
	var out []*repository.PositionRow
	for rows.Next() {
		var p repository.PositionRow
		err := rows.Scan(
			&p.ID, &p.ProductID, &p.ProductSku, &p.ProductDescription,
			&p.LocationID, &p.LocationCode, &p.LocationStatus, &p.ZoneName, &p.Batch, &p.ExpiryDate,
			&p.Quantity, &p.ReservedQuantity, &p.Status,
			&p.TenantID, &p.TenantName, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Positions consulta filtrada de posiciones. Con IncludeEmpty la consulta
// parte de las ubicaciones (LEFT JOIN) para incluir las vacías.
func (r *LedgerQueryRepo) Positions(filters repository.PositionFilters) ([]*repository.PositionRow, error) {
	var b strings.Builder
	b.WriteString(positionSelect)
	if filters.IncludeEmpty {
		b.WriteString(`
	FROM locations l
	LEFT JOIN stock_ledger sl ON sl.location_id = l.id
	LEFT JOIN products p ON p.id = sl.product_id
	JOIN zones z ON z.id = l.zone_id
	LEFT JOIN tenants t ON t.id = sl.tenant_id
	WHERE 1=1`)
	} else {
		b.WriteString(`
	FROM stock_ledger sl
	JOIN products p ON p.id = sl.product_id
	JOIN locations l ON l.id = sl.location_id
	JOIN zones z ON z.id = l.zone_id
	LEFT JOIN tenants t ON t.id = sl.tenant_id
	WHERE 1=1`)
	}

	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filters.TenantID != nil {
		fmt.Fprintf(&b, " AND sl.tenant_id = %s", arg(*filters.TenantID))
	}
	if filters.ProductID != 0 {
		fmt.Fprintf(&b, " AND sl.product_id = %s", arg(filters.ProductID))
	}
	if filters.LocationID != 0 {
		fmt.Fprintf(&b, " AND l.id = %s", arg(filters.LocationID))
	}
	if filters.ZoneID != 0 {
		fmt.Fprintf(&b, " AND l.zone_id = %s", arg(filters.ZoneID))
	}
	if filters.Batch != "" {
		fmt.Fprintf(&b, " AND sl.batch ILIKE '%%' || %s || '%%'", arg(filters.Batch))
	}
	if filters.Status != "" {
		fmt.Fprintf(&b, " AND sl.status = %s", arg(filters.Status))
	}
	if filters.MinQuantity != nil {
		fmt.Fprintf(&b, " AND sl.quantity >= %s", arg(*filters.MinQuantity))
	}
	if filters.Search != "" {
		p := arg(filters.Search)
		fmt.Fprintf(&b, " AND (p.sku ILIKE '%%' || %s || '%%' OR p.description ILIKE '%%' || %s || '%%')", p, p)
	}
	if filters.LocationCode != "" {
		fmt.Fprintf(&b, " AND l.code ILIKE '%%' || %s || '%%'", arg(filters.LocationCode))
	}

	b.WriteString(" ORDER BY l.code ASC, sl.id ASC")
	limit := filters.Limit
	if limit <= 0 || limit > 1000 {
		limit = 1000
	}
	fmt.Fprintf(&b, " LIMIT %s", arg(limit))

	rows, err := r.q.Query(context.Background(), b.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	return collectPositions(rows)
}

// LocationStock saldo de una ubicación, opcionalmente acotado a producto y lote.
func (r *LedgerQueryRepo) LocationStock(locationID int64, productID *int64, batch *string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM stock_ledger
		WHERE location_id = $1
		  AND ($2::bigint IS NULL OR product_id = $2)
		  AND ($3::text IS NULL OR batch = $3)`
	var total decimal.Decimal
	if err := r.q.QueryRow(context.Background(), query, locationID, productID, batch).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("query location stock: %w", err)
	}
	return total, nil
}

// Expiring posiciones cuyo vencimiento cae dentro del umbral de días, las más
// próximas primero.
func (r *LedgerQueryRepo) Expiring(tenantID *int64, daysThreshold int) ([]*repository.PositionRow, error) {
	query := positionSelect + `
	FROM stock_ledger sl
	JOIN products p ON p.id = sl.product_id
	JOIN locations l ON l.id = sl.location_id
	JOIN zones z ON z.id = l.zone_id
	LEFT JOIN tenants t ON t.id = sl.tenant_id
	WHERE sl.expiry_date IS NOT NULL
	  AND sl.expiry_date <= now() + make_interval(days => $2)
	  AND sl.quantity > 0
	  AND ($1::bigint IS NULL OR sl.tenant_id = $1)
	ORDER BY sl.expiry_date ASC, sl.id ASC`
	rows, err := r.q.Query(context.Background(), query, tenantID, daysThreshold)
	if err != nil {
		return nil, fmt.Errorf("query expiring positions: %w", err)
	}
	return collectPositions(rows)
}

// Occupancy agregados de ocupación por zona: slots libres, ocupados y
// bloqueados según el saldo real de cada ubicación.
func (r *LedgerQueryRepo) Occupancy(tenantID *int64) ([]*repository.ZoneOccupancyRow, error) {
	query := `
		SELECT z.id, z.code, z.name,
		       COUNT(l.id),
		       COUNT(*) FILTER (WHERE l.status <> 'blocked' AND COALESCE(s.qty, 0) <= 0),
		       COUNT(*) FILTER (WHERE l.status <> 'blocked' AND COALESCE(s.qty, 0) > 0),
		       COUNT(*) FILTER (WHERE l.status = 'blocked'),
		       COALESCE(SUM(s.qty), 0)
		FROM zones z
		JOIN locations l ON l.zone_id = z.id
		LEFT JOIN (
			SELECT location_id, SUM(quantity) AS qty
			FROM stock_ledger
			GROUP BY location_id
		) s ON s.location_id = l.id
		WHERE $1::bigint IS NULL OR l.tenant_id IS NULL OR l.tenant_id = $1
		GROUP BY z.id, z.code, z.name
		ORDER BY z.code ASC`
	rows, err := r.q.Query(context.Background(), query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("query occupancy: %w", err)
	}
	defer rows.Close()
	var out []*repository.ZoneOccupancyRow
	for rows.Next() {
		var z repository.ZoneOccupancyRow
		if err := rows.Scan(&z.ZoneID, &z.ZoneCode, &z.ZoneName, &z.TotalSlots, &z.FreeSlots, &z.OccupiedSlots, &z.BlockedSlots, &z.TotalQuantity); err != nil {
			return nil, err
		}
		out = append(out, &z)
	}
	return out, rows.Err()
}
