package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Lot representa una recepción única de materia prima o producto recurrente.
// QuantityReceived es un hecho histórico inmutable; QuantityAvailable es un
// caché derivado del libro de movimientos y se sobreescribe con
// balance(lote, hoy) después de cada mutación; nunca se incrementa o
// decrementa en sitio una vez que existen movimientos.
type Lot struct {
	ID                string
	Code              string // único, emitido por el asignador (ej. LOT-RM-007)
	ItemType          string // raw_material | recurring_product
	Name              string
	Unit              string
	QuantityReceived  decimal.Decimal
	QuantityAvailable decimal.Decimal
	IntakeDate        time.Time
	SupplierRef       string // referencia externa al directorio de proveedores
	Archived          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
