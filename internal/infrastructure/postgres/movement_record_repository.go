package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.MovementRecordRepository = (*MovementRecordRepo)(nil)

// MovementRecordRepo registro de movimientos sobre PostgreSQL. La tabla es
// solo-agregar: el adaptador no expone update ni delete.
type MovementRecordRepo struct {
	q Querier
}

// NewMovementRecordRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRecordRepository(q Querier) *MovementRecordRepo {
	return &MovementRecordRepo{q: q}
}

const movementColumns = `id, tx_id, tenant_id, product_id, batch, from_location_id, to_location_id, quantity, movement_type, reference_type, reference_id, performed_by, notes, created_at`

// Create persiste un movimiento.
func (r *MovementRecordRepo) Create(m *entity.MovementRecord) error {
	query := `
		INSERT INTO movement_records
			(tx_id, tenant_id, product_id, batch, from_location_id, to_location_id, quantity, movement_type, reference_type, reference_id, performed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(context.Background(), query,
		m.TxID, m.TenantID, m.ProductID, m.Batch, m.FromLocationID, m.ToLocationID,
		m.Quantity, m.MovementType, nullIfEmpty(m.ReferenceType), m.ReferenceID,
		m.PerformedBy, nullIfEmpty(m.Notes), m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("create movement record: %w", err)
	}
	return nil
}

func scanMovementRecord(rows pgx.Rows) (*entity.MovementRecord, error) {
	var m entity.MovementRecord
	var refType, notes *string
	err := rows.Scan(
		&m.ID, &m.TxID, &m.TenantID, &m.ProductID, &m.Batch, &m.FromLocationID, &m.ToLocationID,
		&m.Quantity, &m.MovementType, &refType, &m.ReferenceID, &m.PerformedBy, &notes, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.ReferenceType = emptyIfNull(refType)
	m.Notes = emptyIfNull(notes)
	return &m, nil
}

func collectMovementRecords(rows pgx.Rows) ([]*entity.MovementRecord, error) {
	defer rows.Close()
	var out []*entity.MovementRecord
	for rows.Next() {
		m, err := scanMovementRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListChronological movimientos en orden de creación, para el replay de
// reconstrucción. El desempate por id cubre movimientos con el mismo timestamp.
func (r *MovementRecordRepo) ListChronological(tenantID *int64) ([]*entity.MovementRecord, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movement_records
		WHERE $1::bigint IS NULL OR tenant_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list movements chronological: %w", err)
	}
	return collectMovementRecords(rows)
}

// ListByReference movimientos asociados a un documento (orden, pedido).
func (r *MovementRecordRepo) ListByReference(referenceType string, referenceID int64) ([]*entity.MovementRecord, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM movement_records
		WHERE reference_type = $1 AND reference_id = $2
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(context.Background(), query, referenceType, referenceID)
	if err != nil {
		return nil, fmt.Errorf("list movements by reference: %w", err)
	}
	return collectMovementRecords(rows)
}
