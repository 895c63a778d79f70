package repository

import "github.com/jhoicas/Planta-api/internal/domain/entity"

// ProcessedGoodRepository define el puerto de persistencia de productos
// procesados materializados por el bloqueo de un batch.
type ProcessedGoodRepository interface {
	Create(good *entity.ProcessedGood) error
	ListByBatch(batchID string) ([]*entity.ProcessedGood, error)
}
