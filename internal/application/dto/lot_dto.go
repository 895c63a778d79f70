package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// IntakeLotRequest body para POST /api/lots: alta de un lote con su
// movimiento IN inicial. IntakeDate vacío usa la fecha actual.
type IntakeLotRequest struct {
	ItemType    string          `json:"item_type" validate:"required,oneof=raw_material recurring_product"`
	Name        string          `json:"name" validate:"required,max=200"`
	Unit        string          `json:"unit" validate:"required,max=20"`
	Quantity    decimal.Decimal `json:"quantity"`
	IntakeDate  *time.Time      `json:"intake_date,omitempty"`
	SupplierRef string          `json:"supplier_ref,omitempty"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	ItemType          string          `json:"item_type"`
	Name              string          `json:"name"`
	Unit              string          `json:"unit"`
	QuantityReceived  decimal.Decimal `json:"quantity_received"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	IntakeDate        time.Time       `json:"intake_date"`
	SupplierRef       string          `json:"supplier_ref,omitempty"`
	Archived          bool            `json:"archived"`
	CreatedAt         time.Time       `json:"created_at"`
}
