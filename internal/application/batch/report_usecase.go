package batch

import (
	"context"
	"fmt"

	"github.com/jhoicas/Planta-api/internal/domain"
)

// ReportUseCase genera la ficha de producción de un batch en PDF: datos del
// batch, materiales consumidos, salidas declaradas y, si está aprobado, los
// productos materializados.
type ReportUseCase struct {
	batches   *UseCase
	generator ReportGenerator
}

// NewReportUseCase construye el caso de uso de reportes.
func NewReportUseCase(batches *UseCase, generator ReportGenerator) *ReportUseCase {
	return &ReportUseCase{batches: batches, generator: generator}
}

// Generate arma y devuelve los bytes del PDF de la ficha de producción.
func (uc *ReportUseCase) Generate(ctx context.Context, batchID string) ([]byte, error) {
	b, materials, outputs, err := uc.batches.Get(batchID)
	if err != nil {
		return nil, err
	}
	goods, err := uc.batches.goodRepo.ListByBatch(b.ID)
	if err != nil {
		return nil, err
	}
	pdfBytes, err := uc.generator.GenerateBatchReportPDF(ctx, b, materials, outputs, goods)
	if err != nil {
		return nil, fmt.Errorf("ficha de batch %s: %w", b.Code, err)
	}
	if len(pdfBytes) == 0 {
		return nil, fmt.Errorf("%w: el generador devolvió un PDF vacío", domain.ErrValidation)
	}
	return pdfBytes, nil
}
