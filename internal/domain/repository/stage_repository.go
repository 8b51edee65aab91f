package repository

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/jhoicas/Almacen-api/internal/domain/entity"
)

// StageCheckRepository puerto de conferencias de stage.
type StageCheckRepository interface {
	Create(c *entity.StageCheck) (int64, error)
	GetByID(id int64) (*entity.StageCheck, error)
	FindActiveByOrder(pickingOrderID int64) (*entity.StageCheck, error)
	FindActiveByOperator(operatorID int64, tenantID *int64) (*entity.StageCheck, error)
	SetStatus(id int64, status string, hasDivergence bool, notes string, completedAt *time.Time) error
	List(tenantID *int64, limit, offset int) ([]*entity.StageCheck, error)
}

// StageCheckItemRepository puerto de items de conferencia, clave (producto, lote).
type StageCheckItemRepository interface {
	Create(item *entity.StageCheckItem) (int64, error)
	ListByCheck(stageCheckID int64) ([]*entity.StageCheckItem, error)
	FindByProductBatch(stageCheckID, productID int64, batch string) (*entity.StageCheckItem, error)
	UpdateChecked(id int64, checked, divergence decimal.Decimal) error
}
