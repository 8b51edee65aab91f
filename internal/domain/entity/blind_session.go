package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una sesión de conferencia ciega.
const (
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"
)

// BlindSession sesión de conferencia ciega de recepción: acumula lecturas de
// etiquetas sin mostrar cantidades esperadas al operador.
type BlindSession struct {
	ID               int64
	TenantID         int64
	ReceivingOrderID int64
	StartedBy        int64
	Status           string
	StartedAt        time.Time
	FinishedAt       *time.Time
}

// Estados de una etiqueta.
const (
	LabelStatusReceiving = "receiving" // creada durante conferencia, bloqueada hasta el cierre
	LabelStatusAvailable = "available"
)

// LabelAssociation asociación etiqueta → (producto, lote) dentro de una sesión.
// labelCode es único por sesión. Se crea en la primera lectura y se incrementa
// en las repetidas; deshacer puede eliminarla si el contador llega a cero.
type LabelAssociation struct {
	ID              int64
	SessionID       int64
	TenantID        int64
	LabelCode       string
	ProductID       int64
	Batch           string
	ExpiryDate      *time.Time
	UnitsPerPackage decimal.Decimal
	PackagesRead    int
	TotalUnits      decimal.Decimal
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LabelReading evento de lectura, solo-agregar: la pila para deshacer.
type LabelReading struct {
	ID            int64
	SessionID     int64
	AssociationID int64
	LabelCode     string
	UnitsAdded    decimal.Decimal
	ReadBy        int64
	CreatedAt     time.Time
}

// QuantityAdjustment ajuste manual de cantidad durante la conferencia (auditoría).
type QuantityAdjustment struct {
	ID           int64
	SessionID    int64
	ProductID    int64
	Batch        string
	OldPackages  int
	NewPackages  int
	OldUnits     decimal.Decimal
	NewUnits     decimal.Decimal
	Reason       string
	AdjustedBy   int64
	CreatedAt    time.Time
}
