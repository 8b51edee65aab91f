package repository

import "github.com/jhoicas/Almacen-api/internal/domain/entity"

// MovementRecordRepository puerto del registro de movimientos. Solo-agregar:
// no expone update ni delete, por diseño del esquema.
type MovementRecordRepository interface {
	Create(m *entity.MovementRecord) error

	// ListChronological movimientos en orden de creación ascendente, para el
	// replay de reconstrucción del ledger. tenantID nil = todos.
	ListChronological(tenantID *int64) ([]*entity.MovementRecord, error)

	ListByReference(referenceType string, referenceID int64) ([]*entity.MovementRecord, error)
}
