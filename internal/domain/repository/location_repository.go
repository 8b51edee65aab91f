package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// LocationRepository puerto de ubicaciones físicas.
type LocationRepository interface {
	GetByID(id int64) (*entity.Location, error)
	UpdateStatus(id int64, status string) error

	// FindByZoneCode primera ubicación del tenant en la zona dada (REC, EXP).
	FindByZoneCode(tenantID int64, zoneCode string) (*entity.Location, error)
}

// ZoneRepository puerto de zonas; alimenta la política de compatibilidad.
type ZoneRepository interface {
	GetByID(id int64) (*entity.Zone, error)
}
