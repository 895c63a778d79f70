package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// WasteRecord es el registro de auditoría de una merma, uno a uno con su
// movimiento WASTE en el libro. Inmutable una vez creado.
type WasteRecord struct {
	ID            string
	Code          string // emitido por el asignador (ej. WST-0003)
	LotType       string
	LotID         string
	LotCode       string
	Quantity      decimal.Decimal
	Unit          string
	Reason        string
	EffectiveDate time.Time
	CreatedAt     time.Time
	CreatedBy     string
}
