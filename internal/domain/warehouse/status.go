// Package warehouse contiene lógica pura de dominio del almacén: derivación
// de estados de ubicación e identificadores de sesión etiquetados.
package warehouse

import (
	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// DeriveLocationStatus calcula el estado de una ubicación como función pura
// del saldo agregado y la regla de almacenaje. Es invocada sincrónicamente
// después de cada mutación que toque la ubicación.
//
// blocked y counting son estados fijados manualmente: se respetan tal cual.
// Con saldo cero la ubicación queda free. Con saldo positivo, una ubicación
// multi sigue pudiendo recibir más lotes (available) mientras que una single
// queda ocupada en exclusiva (occupied).
func DeriveLocationStatus(totalQuantity decimal.Decimal, storageRule, currentStatus string) string {
	if currentStatus == entity.LocationStatusBlocked || currentStatus == entity.LocationStatusCounting {
		return currentStatus
	}
	if totalQuantity.Sign() <= 0 {
		return entity.LocationStatusFree
	}
	if storageRule == entity.StorageRuleMulti {
		return entity.LocationStatusAvailable
	}
	return entity.LocationStatusOccupied
}
