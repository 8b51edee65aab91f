package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/repository"
)

var _ repository.LocationRepository = (*LocationRepo)(nil)
var _ repository.ZoneRepository = (*ZoneRepo)(nil)

// LocationRepo implementación de LocationRepository sobre PostgreSQL (usable con pool o tx).
type LocationRepo struct {
	q Querier
}

// NewLocationRepository construye el adaptador de ubicaciones. Pasar pool o tx (Querier).
func NewLocationRepository(q Querier) *LocationRepo {
	return &LocationRepo{q: q}
}

const locationColumns = `id, tenant_id, code, zone_id, storage_rule, location_type, status, created_at, updated_at`

func scanLocation(row pgx.Row) (*entity.Location, error) {
	var l entity.Location
	var locationType *string
	err := row.Scan(&l.ID, &l.TenantID, &l.Code, &l.ZoneID, &l.StorageRule, &locationType, &l.Status, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.LocationType = emptyIfNull(locationType)
	return &l, nil
}

// GetByID obtiene una ubicación por id. nil si no existe.
func (r *LocationRepo) GetByID(id int64) (*entity.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	l, err := scanLocation(r.q.QueryRow(context.Background(), query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (r *LocationRepo) UpdateStatus(id int64, status string) error {
	query := `UPDATE locations SET status = $2, updated_at = now() WHERE id = $1`
	if _, err := r.q.Exec(context.Background(), query, id, status); err != nil {
		return fmt.Errorf("update location status: %w", err)
	}
	return nil
}

// FindByZoneCode primera ubicación utilizable del tenant en la zona dada.
// Las ubicaciones sin tenant asignado sirven a cualquier tenant.
func (r *LocationRepo) FindByZoneCode(tenantID int64, zoneCode string) (*entity.Location, error) {
	query := `
		SELECT ` + locationColumnsPrefixed("l") + `
		FROM locations l
		JOIN zones z ON z.id = l.zone_id
		WHERE z.code = $2
		  AND (l.tenant_id IS NULL OR l.tenant_id = $1)
		  AND l.status <> 'blocked'
		ORDER BY l.tenant_id NULLS LAST, l.id ASC
		LIMIT 1`
	l, err := scanLocation(r.q.QueryRow(context.Background(), query, tenantID, zoneCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find location by zone code: %w", err)
	}
	return l, nil
}

func locationColumnsPrefixed(alias string) string {
	return alias + `.id, ` + alias + `.tenant_id, ` + alias + `.code, ` + alias + `.zone_id, ` +
		alias + `.storage_rule, ` + alias + `.location_type, ` + alias + `.status, ` +
		alias + `.created_at, ` + alias + `.updated_at`
}

// ZoneRepo implementación de ZoneRepository sobre PostgreSQL.
type ZoneRepo struct {
	q Querier
}

func NewZoneRepository(q Querier) *ZoneRepo {
	return &ZoneRepo{q: q}
}

// GetByID obtiene una zona por id. nil si no existe.
func (r *ZoneRepo) GetByID(id int64) (*entity.Zone, error) {
	query := `SELECT id, code, name, restricted_to_tenant_id, allowed_location_type FROM zones WHERE id = $1`
	var z entity.Zone
	var allowedType *string
	err := r.q.QueryRow(context.Background(), query, id).Scan(&z.ID, &z.Code, &z.Name, &z.RestrictedToTenant, &allowedType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get zone: %w", err)
	}
	z.AllowedLocationType = emptyIfNull(allowedType)
	return &z, nil
}
