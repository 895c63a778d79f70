package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferRecord es el registro de auditoría de un traslado entre lotes del
// mismo tipo y unidad. Sus dos movimientos (TRANSFER_OUT del origen y
// TRANSFER_IN del destino) comparten este registro como reference_id; el
// TRANSFER_IN se registra un tick lógico después del TRANSFER_OUT para que
// la reconstrucción cronológica conserve el orden.
type TransferRecord struct {
	ID            string
	Code          string // emitido por el asignador (ej. TRF-0001)
	LotType       string
	FromLotID     string
	FromLotCode   string
	ToLotID       string
	ToLotCode     string
	Quantity      decimal.Decimal
	Unit          string
	Reason        string
	EffectiveDate time.Time
	CreatedAt     time.Time
	CreatedBy     string
}
