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

var _ repository.BlindSessionRepository = (*BlindSessionRepo)(nil)
var _ repository.LabelRepository = (*LabelRepo)(nil)
var _ repository.LabelReadingRepository = (*LabelReadingRepo)(nil)
var _ repository.AdjustmentRepository = (*AdjustmentRepo)(nil)

// BlindSessionRepo sesiones de conferencia ciega sobre PostgreSQL (usable con pool o tx).
type BlindSessionRepo struct {
	q Querier
}

func NewBlindSessionRepository(q Querier) *BlindSessionRepo {
	return &BlindSessionRepo{q: q}
}

const sessionColumns = `id, tenant_id, receiving_order_id, started_by, status, started_at, finished_at`

func scanSession(row pgx.Row) (*entity.BlindSession, error) {
	var s entity.BlindSession
	err := row.Scan(&s.ID, &s.TenantID, &s.ReceivingOrderID, &s.StartedBy, &s.Status, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *BlindSessionRepo) Create(s *entity.BlindSession) (int64, error) {
	query := `
		INSERT INTO blind_sessions (tenant_id, receiving_order_id, started_by, status, started_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		s.TenantID, s.ReceivingOrderID, s.StartedBy, s.Status, s.StartedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create blind session: %w", err)
	}
	return id, nil
}

func (r *BlindSessionRepo) GetByID(id int64) (*entity.BlindSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM blind_sessions WHERE id = $1`
	s, err := scanSession(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get blind session: %w", err)
	}
	return s, nil
}

func (r *BlindSessionRepo) FindActiveByOrder(receivingOrderID int64) (*entity.BlindSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM blind_sessions
		WHERE receiving_order_id = $1 AND status = 'active'
		ORDER BY started_at DESC
		LIMIT 1`
	s, err := scanSession(r.q.QueryRow(context.Background(), query, receivingOrderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active blind session: %w", err)
	}
	return s, nil
}

func (r *BlindSessionRepo) Complete(id int64, finishedAt time.Time) error {
	query := `UPDATE blind_sessions SET status = 'completed', finished_at = $2 WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, finishedAt); err != nil {
		return fmt.Errorf("complete blind session: %w", err)
	}
	return nil
}

// LabelRepo asociaciones etiqueta -> (producto, lote) sobre PostgreSQL.
type LabelRepo struct {
	q Querier
}

func NewLabelRepository(q Querier) *LabelRepo {
	return &LabelRepo{q: q}
}

const labelColumns = `id, session_id, tenant_id, label_code, product_id, batch, expiry_date, units_per_package, packages_read, total_units, status, created_at, updated_at`

func scanLabel(row pgx.Row) (*entity.LabelAssociation, error) {
	var a entity.LabelAssociation
	err := row.Scan(
		&a.ID, &a.SessionID, &a.TenantID, &a.LabelCode, &a.ProductID, &a.Batch, &a.ExpiryDate,
		&a.UnitsPerPackage, &a.PackagesRead, &a.TotalUnits, &a.Status, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *LabelRepo) Create(a *entity.LabelAssociation) (int64, error) {
	query := `
		INSERT INTO label_associations
			(session_id, tenant_id, label_code, product_id, batch, expiry_date, units_per_package, packages_read, total_units, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		a.SessionID, a.TenantID, a.LabelCode, a.ProductID, a.Batch, a.ExpiryDate,
		a.UnitsPerPackage, a.PackagesRead, a.TotalUnits, a.Status, a.CreatedAt, a.UpdatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("etiqueta %s duplicada en la sesión %d: %w", a.LabelCode, a.SessionID, err)
		}
		return 0, fmt.Errorf("create label association: %w", err)
	}
	return id, nil
}

func (r *LabelRepo) GetByID(id int64) (*entity.LabelAssociation, error) {
	query := `SELECT ` + labelColumns + ` FROM label_associations WHERE id = $1`
	a, err := scanLabel(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get label association: %w", err)
	}
	return a, nil
}

func (r *LabelRepo) FindBySessionAndCode(sessionID int64, labelCode string) (*entity.LabelAssociation, error) {
	query := `SELECT ` + labelColumns + ` FROM label_associations WHERE session_id = $1 AND label_code = $2`
	a, err := scanLabel(r.q.QueryRow(context.Background(), query, sessionID, labelCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find label by session and code: %w", err)
	}
	return a, nil
}

func (r *LabelRepo) ListBySession(sessionID int64) ([]*entity.LabelAssociation, error) {
	query := `SELECT ` + labelColumns + ` FROM label_associations WHERE session_id = $1 ORDER BY id ASC`
	rows, err := r.q.Query(context.Background(), query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list labels by session: %w", err)
	}
	defer rows.Close()
	var out []*entity.LabelAssociation
	for rows.Next() {
		a, err := scanLabel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// FindActiveByCode etiqueta ya activada, la más reciente si el código se
// reutilizó en varias recepciones.
func (r *LabelRepo) FindActiveByCode(tenantID *int64, labelCode string) (*entity.LabelAssociation, error) {
	query := `
		SELECT ` + labelColumns + `
		FROM label_associations
		WHERE label_code = $1 AND status = 'available'
		  AND ($2::bigint IS NULL OR tenant_id = $2)
		ORDER BY updated_at DESC
		LIMIT 1`
	a, err := scanLabel(r.q.QueryRow(context.Background(), query, labelCode, tenantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active label by code: %w", err)
	}
	return a, nil
}

func (r *LabelRepo) AddUnits(id int64, packagesDelta int, unitsDelta decimal.Decimal) error {
	query := `
		UPDATE label_associations
		SET packages_read = packages_read + $2, total_units = total_units + $3, updated_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, packagesDelta, unitsDelta); err != nil {
		return fmt.Errorf("add label units: %w", err)
	}
	return nil
}

func (r *LabelRepo) SetCounts(id int64, packages int, totalUnits decimal.Decimal) error {
	query := `
		UPDATE label_associations
		SET packages_read = $2, total_units = $3, updated_at = now()
		WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, packages, totalUnits); err != nil {
		return fmt.Errorf("set label counts: %w", err)
	}
	return nil
}

func (r *LabelRepo) Delete(id int64) error {
	query := `DELETE FROM label_associations WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("delete label association: %w", err)
	}
	return nil
}

func (r *LabelRepo) ActivateBySession(sessionID int64) error {
	query := `UPDATE label_associations SET status = 'available', updated_at = now() WHERE session_id = $1`
	if _, err := r.q.Exec(context.Background(), query, sessionID); err != nil {
		return fmt.Errorf("activate labels by session: %w", err)
	}
	return nil
}

// LabelReadingRepo eventos de lectura sobre PostgreSQL: la pila de deshacer.
type LabelReadingRepo struct {
	q Querier
}

func NewLabelReadingRepository(q Querier) *LabelReadingRepo {
	return &LabelReadingRepo{q: q}
}

func (r *LabelReadingRepo) Append(reading *entity.LabelReading) (int64, error) {
	query := `
		INSERT INTO label_readings (session_id, association_id, label_code, units_added, read_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	var id int64
	err := r.q.QueryRow(context.Background(), query,
		reading.SessionID, reading.AssociationID, reading.LabelCode, reading.UnitsAdded, reading.ReadBy, reading.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("append label reading: %w", err)
	}
	return id, nil
}

// Last lectura más reciente de la sesión; el desempate por id cubre lecturas
// en el mismo instante.
func (r *LabelReadingRepo) Last(sessionID int64) (*entity.LabelReading, error) {
	query := `
		SELECT id, session_id, association_id, label_code, units_added, read_by, created_at
		FROM label_readings
		WHERE session_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`
	var reading entity.LabelReading
	err := r.q.QueryRow(context.Background(), query, sessionID).Scan(
		&reading.ID, &reading.SessionID, &reading.AssociationID, &reading.LabelCode,
		&reading.UnitsAdded, &reading.ReadBy, &reading.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last label reading: %w", err)
	}
	return &reading, nil
}

func (r *LabelReadingRepo) Delete(id int64) error {
	query := `DELETE FROM label_readings WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id); err != nil {
		return fmt.Errorf("delete label reading: %w", err)
	}
	return nil
}

// AdjustmentRepo auditoría de ajustes manuales sobre PostgreSQL.
type AdjustmentRepo struct {
	q Querier
}

func NewAdjustmentRepository(q Querier) *AdjustmentRepo {
	return &AdjustmentRepo{q: q}
}

func (r *AdjustmentRepo) Create(a *entity.QuantityAdjustment) error {
	query := `
		INSERT INTO quantity_adjustments
			(session_id, product_id, batch, old_packages, new_packages, old_units, new_units, reason, adjusted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		a.SessionID, a.ProductID, a.Batch, a.OldPackages, a.NewPackages,
		a.OldUnits, a.NewUnits, a.Reason, a.AdjustedBy, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create quantity adjustment: %w", err)
	}
	return nil
}
