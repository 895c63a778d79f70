package batch

import (
	"context"

	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// TxRunner ejecuta un comando del ciclo de vida de un batch (líneas,
// movimientos, materialización de productos, caché) dentro de una sola
// transacción de BD.
type TxRunner interface {
	RunBatch(ctx context.Context, fn func(
		batchRepo repository.ProductionBatchRepository,
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		goodRepo repository.ProcessedGoodRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}

// ReportGenerator genera la ficha de producción de un batch en PDF.
type ReportGenerator interface {
	GenerateBatchReportPDF(
		ctx context.Context,
		batch *entity.ProductionBatch,
		materials []*entity.BatchMaterial,
		outputs []*entity.BatchOutput,
		goods []*entity.ProcessedGood,
	) ([]byte, error)
}
