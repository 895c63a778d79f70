package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordWasteRequest body para POST /api/waste.
type RecordWasteRequest struct {
	LotID         string          `json:"lot_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reason        string          `json:"reason" validate:"required,max=500"`
	EffectiveDate *time.Time      `json:"effective_date,omitempty"`
}

// WasteRecordResponse salida de un registro de merma.
type WasteRecordResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	LotID         string          `json:"lot_id"`
	LotCode       string          `json:"lot_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	Reason        string          `json:"reason"`
	EffectiveDate time.Time       `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferRequest body para POST /api/transfers.
type TransferRequest struct {
	FromLotID     string          `json:"from_lot_id" validate:"required"`
	ToLotID       string          `json:"to_lot_id" validate:"required"`
	Quantity      decimal.Decimal `json:"quantity"`
	Reason        string          `json:"reason" validate:"omitempty,max=500"`
	EffectiveDate *time.Time      `json:"effective_date,omitempty"`
}

// TransferRecordResponse salida de un traslado entre lotes.
type TransferRecordResponse struct {
	ID            string          `json:"id"`
	Code          string          `json:"code"`
	FromLotID     string          `json:"from_lot_id"`
	FromLotCode   string          `json:"from_lot_code"`
	ToLotID       string          `json:"to_lot_id"`
	ToLotCode     string          `json:"to_lot_code"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	Reason        string          `json:"reason,omitempty"`
	EffectiveDate time.Time       `json:"effective_date"`
	CreatedAt     time.Time       `json:"created_at"`
}

// WasteTransferHistoryResponse mermas y traslados de un lote.
type WasteTransferHistoryResponse struct {
	Waste     []WasteRecordResponse    `json:"waste"`
	Transfers []TransferRecordResponse `json:"transfers"`
}
