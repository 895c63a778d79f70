package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementResponse una fila del libro de movimientos.
type MovementResponse struct {
	ID            string          `json:"id"`
	ItemType      string          `json:"item_type"`
	ItemID        string          `json:"item_id"`
	LotCode       string          `json:"lot_code"`
	Type          string          `json:"type"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	EffectiveDate time.Time       `json:"effective_date"`
	RecordedAt    time.Time       `json:"recorded_at"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	ReferenceType string          `json:"reference_type,omitempty"`
}

// TrailEntryResponse fila del historial con saldo acumulado.
type TrailEntryResponse struct {
	Movement MovementResponse `json:"movement"`
	Balance  decimal.Decimal  `json:"balance"`
}

// BalanceResponse saldo de un lote a una fecha de corte.
type BalanceResponse struct {
	ItemID  string          `json:"item_id"`
	AsOf    time.Time       `json:"as_of"`
	Balance decimal.Decimal `json:"balance"`
}
