package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados QA de un batch de producción. El bloqueo exige approved o rejected;
// hold es un estado intermedio válido pero no bloqueable, igual que pending.
const (
	QAPending  = "pending"
	QAApproved = "approved"
	QARejected = "rejected"
	QAHold     = "hold"
)

// ProductionBatch es una corrida de producción: consume lotes mientras está
// en borrador y declara salidas. IsLocked es de una sola vía (false→true);
// una vez bloqueado, sus líneas de consumo, salidas e identidad son
// inmutables y el batch nunca puede borrarse.
type ProductionBatch struct {
	ID              string
	Code            string // emitido por el asignador (ej. BATCH-0001)
	IsLocked        bool
	QAStatus        string // pending, approved, rejected, hold
	BusinessDate    time.Time // fecha de negocio a la que se atribuyen los consumos
	ProductionStart *time.Time
	ProductionEnd   *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BatchMaterial es una línea de consumo de un lote dentro de un batch.
// Cada línea tiene su movimiento CONSUMPTION en el libro; al eliminarla se
// registra un IN de reversa, nunca se toca el movimiento original.
type BatchMaterial struct {
	ID        string
	BatchID   string
	LotType   string // raw_material | recurring_product
	LotID     string
	LotCode   string
	Quantity  decimal.Decimal
	Unit      string
	CreatedAt time.Time
}

// BatchOutput es una salida declarada dentro de un batch antes del bloqueo.
// No tiene efecto en el libro: solo al bloquear con QA approved se
// materializa en ProcessedGood. Debe estar completa (nombre, cantidad,
// unidad, categoría) para que el batch pueda bloquearse.
type BatchOutput struct {
	ID          string
	BatchID     string
	Name        string
	CategoryTag string
	Quantity    decimal.Decimal
	Unit        string
	SizeLabel   string // metadato físico opcional (ej. "bolsa 5 kg")
	CreatedAt   time.Time
}
