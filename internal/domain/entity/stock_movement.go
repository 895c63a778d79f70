package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de ítem de inventario rastreados por el libro de movimientos.
const (
	ItemTypeRawMaterial      = "raw_material"      // materia prima
	ItemTypeRecurringProduct = "recurring_product" // producto recurrente (comprado)
)

// Tipos de movimiento de stock. IN y TRANSFER_IN suman al saldo;
// CONSUMPTION, WASTE y TRANSFER_OUT restan. Ningún tipo aporta cero.
const (
	MovementIN          = "IN"
	MovementConsumption = "CONSUMPTION"
	MovementWaste       = "WASTE"
	MovementTransferOut = "TRANSFER_OUT"
	MovementTransferIn  = "TRANSFER_IN"
)

// Tipos de entidad causante de un movimiento (reference_type).
const (
	ReferenceProductionBatch = "production_batch"
	ReferenceWasteRecord     = "waste_record"
	ReferenceTransferRecord  = "transfer_record"
	ReferenceInitialIntake   = "initial_intake"
)

// StockMovement es una fila inmutable del libro de movimientos (append-only).
// Nunca se actualiza ni se borra: las correcciones se registran como
// movimientos de reversa que referencian la misma entidad causante.
//
// EffectiveDate es la fecha de negocio atribuida (puede ser retroactiva);
// RecordedAt es la hora de inserción y solo desempata el orden dentro de un
// mismo día de negocio. Quien registra movimientos lógicamente secuenciales
// en la misma fecha debe escalonar RecordedAt para preservar el orden.
type StockMovement struct {
	ID            string
	ItemType      string // raw_material | recurring_product
	ItemID        string // ID del lote
	LotCode       string // código legible del lote, desnormalizado para auditoría
	Type          string // IN, CONSUMPTION, WASTE, TRANSFER_OUT, TRANSFER_IN
	Quantity      decimal.Decimal // magnitud > 0, sin signo
	Unit          string
	EffectiveDate time.Time
	RecordedAt    time.Time
	ReferenceID   string
	ReferenceType string // production_batch, waste_record, transfer_record, initial_intake
	CreatedBy     string // UserID
}
