package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Almacen-api/internal/application/movement"
	"github.com/jhoicas/Almacen-api/internal/domain"
)

var _ movement.ZonePolicy = (*ZonePolicy)(nil)

// ZonePolicy política de compatibilidad basada en los atributos de la zona:
// una zona restringida a un tenant rechaza productos de otros tenants y una
// zona con tipo de ubicación exigido rechaza ubicaciones de otro tipo. Las
// zonas sin restricción aceptan todo.
type ZonePolicy struct {
	locations *LocationRepo
	zones     *ZoneRepo
	products  *ProductRepo
}

func NewZonePolicy(q Querier) *ZonePolicy {
	return &ZonePolicy{
		locations: NewLocationRepository(q),
		zones:     NewZoneRepository(q),
		products:  NewProductRepository(q),
	}
}

func (p *ZonePolicy) CanAccept(ctx context.Context, locationID, productID int64, batch string) error {
	location, err := p.locations.GetByID(locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return &domain.LocationNotFoundError{LocationID: locationID}
	}
	zone, err := p.zones.GetByID(location.ZoneID)
	if err != nil {
		return err
	}
	if zone == nil {
		return nil
	}

	if zone.AllowedLocationType != "" && location.LocationType != zone.AllowedLocationType {
		return &domain.IncompatibleZoneError{
			LocationID: locationID,
			ProductID:  productID,
			Batch:      batch,
			Reason:     fmt.Sprintf("la zona %s solo admite ubicaciones de tipo %s", zone.Code, zone.AllowedLocationType),
		}
	}

	if zone.RestrictedToTenant != nil {
		product, err := p.products.GetByID(productID)
		if err != nil {
			return err
		}
		if product != nil && product.TenantID != nil && *product.TenantID != *zone.RestrictedToTenant {
			return &domain.IncompatibleZoneError{
				LocationID: locationID,
				ProductID:  productID,
				Batch:      batch,
				Reason:     fmt.Sprintf("la zona %s está reservada al tenant %d", zone.Code, *zone.RestrictedToTenant),
			}
		}
	}
	return nil
}
