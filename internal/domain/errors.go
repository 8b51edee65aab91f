package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrDuplicate           = errors.New("recurso duplicado")
	ErrForbidden           = errors.New("acceso denegado")
	ErrConflict            = errors.New("conflicto con el estado actual")
	ErrDestinationRequired = errors.New("ubicación destino requerida para este tipo de movimiento")
	ErrSessionClosed       = errors.New("la sesión ya fue finalizada")
	ErrNothingToUndo       = errors.New("no hay lecturas para deshacer")
)

// InsufficientStockError falta de saldo disponible. Lleva los montos para que
// el cliente pueda remediar sin parsear texto.
type InsufficientStockError struct {
	ProductID int64
	Total     decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("saldo insuficiente: disponible %s (total %s, reservado %s), solicitado %s",
		e.Available, e.Total, e.Reserved, e.Requested)
}

// Shortfall cantidad faltante para satisfacer la solicitud.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// RestrictedStatusError la posición está en un estado que exige liberación explícita.
type RestrictedStatusError struct {
	LedgerEntryID int64
	Status        string
}

func (e *RestrictedStatusError) Error() string {
	return fmt.Sprintf("posición %d en estado restringido %q: requiere liberación de administrador", e.LedgerEntryID, e.Status)
}

// IncompatibleStorageRuleError el destino es de único item/lote y ya contiene otro producto/lote.
type IncompatibleStorageRuleError struct {
	LocationID   int64
	LocationCode string
}

func (e *IncompatibleStorageRuleError) Error() string {
	return fmt.Sprintf("ubicación %s es de único item/lote y ya contiene otro producto/lote", e.LocationCode)
}

// IncompatibleZoneError la política de zonas rechaza el lote en el destino.
type IncompatibleZoneError struct {
	LocationID int64
	ProductID  int64
	Batch      string
	Reason     string
}

func (e *IncompatibleZoneError) Error() string {
	return fmt.Sprintf("zona incompatible para producto %d lote %q en ubicación %d: %s",
		e.ProductID, e.Batch, e.LocationID, e.Reason)
}

// LocationNotFoundError la ubicación no existe.
type LocationNotFoundError struct {
	LocationID int64
}

func (e *LocationNotFoundError) Error() string {
	return fmt.Sprintf("ubicación %d no encontrada", e.LocationID)
}

// TenantResolutionError no fue posible determinar el tenant del movimiento.
type TenantResolutionError struct {
	ProductID  int64
	LocationID int64
}

func (e *TenantResolutionError) Error() string {
	return fmt.Sprintf("no fue posible resolver el tenant para producto %d en ubicación %d", e.ProductID, e.LocationID)
}

// DivergenceItem diferencia entre lo esperado y lo verificado para un (producto, lote).
type DivergenceItem struct {
	ProductID  int64
	ProductSku string
	Batch      string
	Expected   decimal.Decimal
	Checked    decimal.Decimal
	Delta      decimal.Decimal
}

// DivergenceError la verificación encontró diferencias; lista cada (producto, lote) divergente.
type DivergenceError struct {
	Items []DivergenceItem
}

func (e *DivergenceError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, it := range e.Items {
		parts = append(parts, fmt.Sprintf("%s/%s: esperado %s, verificado %s (delta %s)",
			it.ProductSku, it.Batch, it.Expected, it.Checked, it.Delta))
	}
	return fmt.Sprintf("divergencias en %d item(s): %s", len(e.Items), strings.Join(parts, "; "))
}

// ReservationDriftError las reservas no coinciden con el saldo real del ledger.
// Se falla ruidosamente: nunca se parchea en silencio.
type ReservationDriftError struct {
	PickingOrderID int64
	ProductID      int64
	Batch          string
	Detail         string
}

func (e *ReservationDriftError) Error() string {
	return fmt.Sprintf("reservas inconsistentes con el ledger para pedido %d, producto %d lote %q: %s",
		e.PickingOrderID, e.ProductID, e.Batch, e.Detail)
}
