package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// BlindSessionRepository puerto de sesiones de conferencia ciega.
type BlindSessionRepository interface {
	Create(s *entity.BlindSession) (int64, error)
	GetByID(id int64) (*entity.BlindSession, error)
	FindActiveByOrder(receivingOrderID int64) (*entity.BlindSession, error)
	Complete(id int64, finishedAt time.Time) error
}

// LabelRepository puerto de asociaciones etiqueta → (producto, lote).
type LabelRepository interface {
	Create(a *entity.LabelAssociation) (int64, error)
	GetByID(id int64) (*entity.LabelAssociation, error)
	FindBySessionAndCode(sessionID int64, labelCode string) (*entity.LabelAssociation, error)
	ListBySession(sessionID int64) ([]*entity.LabelAssociation, error)

	// FindActiveByCode resuelve una etiqueta ya activada (fuera de sesión) a su
	// producto y lote. Lo usa la conferencia de stage al escanear.
	FindActiveByCode(tenantID *int64, labelCode string) (*entity.LabelAssociation, error)

	// AddUnits incrementa contadores de lectura (paquetes y unidades).
	// Admite deltas negativos para deshacer.
	AddUnits(id int64, packagesDelta int, unitsDelta decimal.Decimal) error

	// SetCounts fija contadores tras un ajuste manual.
	SetCounts(id int64, packages int, totalUnits decimal.Decimal) error

	Delete(id int64) error

	// ActivateBySession promueve las etiquetas de la sesión de receiving a
	// available al cerrar la conferencia.
	ActivateBySession(sessionID int64) error
}

// LabelReadingRepository puerto de eventos de lectura (pila de deshacer).
type LabelReadingRepository interface {
	Append(r *entity.LabelReading) (int64, error)
	Last(sessionID int64) (*entity.LabelReading, error)
	Delete(id int64) error
}

// AdjustmentRepository puerto de auditoría de ajustes manuales de cantidad.
type AdjustmentRepository interface {
	Create(a *entity.QuantityAdjustment) error
}
