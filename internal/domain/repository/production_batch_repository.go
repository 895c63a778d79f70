package repository

import "github.com/jhoicas/Planta-api/internal/domain/entity"

// ProductionBatchRepository define el puerto de persistencia de batches de
// producción y sus hijos (líneas de consumo y salidas declaradas).
type ProductionBatchRepository interface {
	Create(batch *entity.ProductionBatch) error
	GetByID(id string) (*entity.ProductionBatch, error)
	// GetByIDForUpdate bloquea la fila del batch para la duración de la
	// transacción (mutaciones y bloqueo del batch).
	GetByIDForUpdate(id string) (*entity.ProductionBatch, error)
	List(locked *bool, limit, offset int) ([]*entity.ProductionBatch, error)
	// Lock persiste is_locked, qa_status y fechas de producción.
	Lock(batch *entity.ProductionBatch) error
	Delete(id string) error

	AddMaterial(line *entity.BatchMaterial) error
	GetMaterial(id string) (*entity.BatchMaterial, error)
	DeleteMaterial(id string) error
	ListMaterials(batchID string) ([]*entity.BatchMaterial, error)
	// ListMaterialsByLot devuelve las líneas de consumo de un lote en
	// cualquier batch.
	ListMaterialsByLot(lotID string) ([]*entity.BatchMaterial, error)

	AddOutput(output *entity.BatchOutput) error
	GetOutput(id string) (*entity.BatchOutput, error)
	UpdateOutput(output *entity.BatchOutput) error
	DeleteOutput(id string) error
	ListOutputs(batchID string) ([]*entity.BatchOutput, error)
}
