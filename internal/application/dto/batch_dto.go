package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBatchRequest body para POST /api/batches. BusinessDate vacío usa la
// fecha actual; es la fecha de negocio a la que se atribuyen los consumos.
type CreateBatchRequest struct {
	BusinessDate *time.Time `json:"business_date,omitempty"`
	Notes        string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// AddMaterialRequest body para POST /api/batches/:id/materials.
type AddMaterialRequest struct {
	LotID    string          `json:"lot_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// OutputRequest body para declarar o actualizar una salida de batch.
type OutputRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	CategoryTag string          `json:"category_tag" validate:"required,max=100"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit" validate:"required,max=20"`
	SizeLabel   string          `json:"size_label,omitempty" validate:"omitempty,max=100"`
}

// LockBatchRequest body para POST /api/batches/:id/lock.
type LockBatchRequest struct {
	QAStatus        string     `json:"qa_status" validate:"required,oneof=approved rejected"`
	ProductionStart *time.Time `json:"production_start,omitempty"`
	ProductionEnd   *time.Time `json:"production_end,omitempty"`
	Notes           string     `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// BatchMaterialResponse línea de consumo de un batch.
type BatchMaterialResponse struct {
	ID        string          `json:"id"`
	BatchID   string          `json:"batch_id"`
	LotID     string          `json:"lot_id"`
	LotCode   string          `json:"lot_code"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	CreatedAt time.Time       `json:"created_at"`
}

// BatchOutputResponse salida declarada de un batch.
type BatchOutputResponse struct {
	ID          string          `json:"id"`
	BatchID     string          `json:"batch_id"`
	Name        string          `json:"name"`
	CategoryTag string          `json:"category_tag"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	SizeLabel   string          `json:"size_label,omitempty"`
}

// BatchResponse salida de un batch con sus hijos.
type BatchResponse struct {
	ID              string                  `json:"id"`
	Code            string                  `json:"code"`
	IsLocked        bool                    `json:"is_locked"`
	QAStatus        string                  `json:"qa_status"`
	BusinessDate    time.Time               `json:"business_date"`
	ProductionStart *time.Time              `json:"production_start,omitempty"`
	ProductionEnd   *time.Time              `json:"production_end,omitempty"`
	Notes           string                  `json:"notes,omitempty"`
	Materials       []BatchMaterialResponse `json:"materials"`
	Outputs         []BatchOutputResponse   `json:"outputs"`
	CreatedAt       time.Time               `json:"created_at"`
}

// ProcessedGoodResponse producto procesado materializado por el bloqueo.
type ProcessedGoodResponse struct {
	ID                string          `json:"id"`
	BatchID           string          `json:"batch_id"`
	OutputID          string          `json:"output_id"`
	Name              string          `json:"name"`
	CategoryTag       string          `json:"category_tag"`
	QuantityCreated   decimal.Decimal `json:"quantity_created"`
	QuantityAvailable decimal.Decimal `json:"quantity_available"`
	Unit              string          `json:"unit"`
	SizeLabel         string          `json:"size_label,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// BatchUsageResponse uso de un lote por batches: el batch, la línea de
// consumo y las salidas declaradas de ese batch.
type BatchUsageResponse struct {
	BatchID   string                `json:"batch_id"`
	BatchCode string                `json:"batch_code"`
	IsLocked  bool                  `json:"is_locked"`
	QAStatus  string                `json:"qa_status"`
	Material  BatchMaterialResponse `json:"material"`
	Outputs   []BatchOutputResponse `json:"outputs"`
}
