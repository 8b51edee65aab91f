package memrepo

import "github.com/jhoicas/Almacen-api/internal/domain/repository"

// Los repos falsos deben calzar con los mismos puertos que los de postgres.
var (
	_ repository.LedgerRepository         = (*LedgerRepo)(nil)
	_ repository.LocationRepository       = (*LocationRepo)(nil)
	_ repository.ZoneRepository           = (*ZoneRepo)(nil)
	_ repository.MovementRecordRepository = (*MovementRecordRepo)(nil)
	_ repository.ReservationRepository    = (*ReservationRepo)(nil)
	_ repository.PreallocationRepository  = (*PreallocationRepo)(nil)
	_ repository.BlindSessionRepository   = (*BlindSessionRepo)(nil)
	_ repository.LabelRepository          = (*LabelRepo)(nil)
	_ repository.LabelReadingRepository   = (*LabelReadingRepo)(nil)
	_ repository.AdjustmentRepository     = (*AdjustmentRepo)(nil)
	_ repository.ReceivingOrderRepository = (*ReceivingOrderRepo)(nil)
	_ repository.PickingOrderRepository   = (*PickingOrderRepo)(nil)
	_ repository.ProductRepository        = (*ProductRepo)(nil)
	_ repository.StageCheckRepository     = (*StageCheckRepo)(nil)
	_ repository.StageCheckItemRepository = (*StageCheckItemRepo)(nil)
)
