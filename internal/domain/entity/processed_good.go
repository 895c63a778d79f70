package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedGood es inventario de producto procesado, creado únicamente al
// bloquear un batch con QA approved: una fila por BatchOutput declarado.
// QuantityCreated es inmutable; QuantityAvailable lo consume la venta u
// otros flujos aguas abajo.
type ProcessedGood struct {
	ID                string
	BatchID           string
	OutputID          string
	Name              string
	CategoryTag       string
	QuantityCreated   decimal.Decimal
	QuantityAvailable decimal.Decimal
	Unit              string
	SizeLabel         string
	CreatedAt         time.Time
}
