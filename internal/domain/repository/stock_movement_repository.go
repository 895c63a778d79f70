package repository

import (
	"time"

	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia del libro de
// movimientos. El libro es append-only: no hay Update ni Delete.
type StockMovementRepository interface {
	Create(movement *entity.StockMovement) error
	// ListByItem devuelve los movimientos de un ítem ordenados por
	// (effective_date asc, recorded_at asc), opcionalmente acotados por fechas.
	ListByItem(itemType, itemID string, from, to *time.Time) ([]*entity.StockMovement, error)
	// ListByReference devuelve los movimientos causados por una entidad
	// (batch, merma, traslado), en orden canónico.
	ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error)
}
