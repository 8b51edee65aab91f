package entity

import "github.com/shopspring/decimal"

// Product datos mínimos de producto que el núcleo necesita (el CRUD vive fuera).
type Product struct {
	ID          int64
	TenantID    *int64
	Sku         string
	Description string
	UnitsPerBox decimal.Decimal // cero = no definido
}

// Zone zona del almacén. RestrictedToTenantID y AllowedLocationType alimentan
// la política de compatibilidad de zonas.
type Zone struct {
	ID                  int64
	Code                string
	Name                string
	RestrictedToTenant  *int64
	AllowedLocationType string // vacío = cualquiera
}

// Códigos de zona con significado operativo.
const (
	ZoneCodeReceiving = "REC"
	ZoneCodeShipping  = "EXP"
)
