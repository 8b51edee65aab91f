package dto

import "github.com/shopspring/decimal"

// StartBlindSessionRequest body para POST /api/blind-sessions.
type StartBlindSessionRequest struct {
	ReceivingOrderID int64 `json:"receiving_order_id"`
}

// StartBlindSessionResponse respuesta de apertura de sesión.
type StartBlindSessionResponse struct {
	SessionID int64  `json:"session_id"`
	Resumed   bool   `json:"resumed"`
	Message   string `json:"message"`
}

// ReadLabelRequest body para POST /api/blind-sessions/:id/readings.
type ReadLabelRequest struct {
	LabelCode string `json:"label_code"`
}

// LabelReadResponse respuesta de una lectura o asociación de etiqueta.
type LabelReadResponse struct {
	IsNewLabel   bool            `json:"is_new_label"`
	LabelCode    string          `json:"label_code"`
	ProductID    int64           `json:"product_id,omitempty"`
	ProductSku   string          `json:"product_sku,omitempty"`
	ProductName  string          `json:"product_name,omitempty"`
	Batch        string          `json:"batch,omitempty"`
	PackagesRead int             `json:"packages_read,omitempty"`
	TotalUnits   decimal.Decimal `json:"total_units"`
}

// AssociateLabelRequest body para POST /api/blind-sessions/:id/associations.
// total_units_received permite un paquete fraccionado en la primera lectura.
type AssociateLabelRequest struct {
	LabelCode          string           `json:"label_code"`
	ProductID          int64            `json:"product_id"`
	Batch              string           `json:"batch,omitempty"`
	ExpiryDate         string           `json:"expiry_date,omitempty"`
	UnitsPerPackage    decimal.Decimal  `json:"units_per_package"`
	TotalUnitsReceived *decimal.Decimal `json:"total_units_received,omitempty"`
}

// UndoResponse respuesta de deshacer la última lectura.
type UndoResponse struct {
	LabelCode          string          `json:"label_code"`
	UnitsRemoved       decimal.Decimal `json:"units_removed"`
	AssociationDeleted bool            `json:"association_deleted"`
}

// AdjustQuantityRequest body para POST /api/blind-sessions/:id/adjust.
type AdjustQuantityRequest struct {
	LabelCode   string `json:"label_code"`
	NewPackages int    `json:"new_packages"`
	Reason      string `json:"reason"`
}

// BlindSummaryItemDTO acumulado por (producto, lote) de la sesión.
type BlindSummaryItemDTO struct {
	ProductID   int64           `json:"product_id"`
	ProductSku  string          `json:"product_sku"`
	ProductName string          `json:"product_name"`
	Batch       string          `json:"batch,omitempty"`
	ExpiryDate  string          `json:"expiry_date,omitempty"`
	Labels      int             `json:"labels"`
	Packages    int             `json:"packages"`
	TotalUnits  decimal.Decimal `json:"total_units"`
}

// BlindSummaryResponse estado corriente de la sesión.
type BlindSummaryResponse struct {
	SessionID int64                 `json:"session_id"`
	Status    string                `json:"status"`
	Items     []BlindSummaryItemDTO `json:"items"`
}

// FinishSessionRequest body para POST /api/blind-sessions/:id/finish.
type FinishSessionRequest struct {
	Force bool   `json:"force,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// FinishSessionResponse resumen del cierre de conferencia.
type FinishSessionResponse struct {
	ItemsPosted int             `json:"items_posted"`
	TotalUnits  decimal.Decimal `json:"total_units"`
	Divergences []DivergenceDTO `json:"divergences,omitempty"`
	Forced      bool            `json:"forced"`
}

// StartStageRequest body para POST /api/stage-checks. Se acepta id interno o
// número de pedido del cliente.
type StartStageRequest struct {
	PickingOrderID      int64  `json:"picking_order_id,omitempty"`
	CustomerOrderNumber string `json:"customer_order_number,omitempty"`
}

// StageItemDTO item esperado/verificado de una conferencia de stage.
type StageItemDTO struct {
	ID               int64           `json:"id"`
	ProductID        int64           `json:"product_id"`
	ProductSku       string          `json:"product_sku,omitempty"`
	ProductName      string          `json:"product_name,omitempty"`
	Batch            string          `json:"batch,omitempty"`
	ExpectedQuantity decimal.Decimal `json:"expected_quantity"`
	CheckedQuantity  decimal.Decimal `json:"checked_quantity"`
	Divergence       decimal.Decimal `json:"divergence"`
}

// StageCheckDTO conferencia con sus items.
type StageCheckDTO struct {
	ID                  int64          `json:"id"`
	PickingOrderID      int64          `json:"picking_order_id"`
	CustomerOrderNumber string         `json:"customer_order_number"`
	OperatorID          int64          `json:"operator_id"`
	Status              string         `json:"status"`
	HasDivergence       bool           `json:"has_divergence"`
	Notes               string         `json:"notes,omitempty"`
	Items               []StageItemDTO `json:"items,omitempty"`
}

// RecordStageItemRequest body para POST /api/stage-checks/:id/items.
type RecordStageItemRequest struct {
	LabelCode string          `json:"label_code,omitempty"`
	ProductID int64           `json:"product_id,omitempty"`
	Batch     string          `json:"batch,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// CompleteStageRequest body para POST /api/stage-checks/:id/complete.
type CompleteStageRequest struct {
	Force bool   `json:"force,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// CancelStageRequest body para POST /api/stage-checks/:id/cancel.
type CancelStageRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CompleteStageResponse resumen de la expedición.
type CompleteStageResponse struct {
	Shipped     bool            `json:"shipped"`
	TxID        string          `json:"tx_id"`
	Divergences []DivergenceDTO `json:"divergences,omitempty"`
	Forced      bool            `json:"forced"`
}
