package repository

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// LotRepository define el puerto de persistencia de lotes.
type LotRepository interface {
	Create(lot *entity.Lot) error
	GetByID(id string) (*entity.Lot, error)
	// GetByIDForUpdate bloquea la fila del lote (SELECT FOR UPDATE) para
	// serializar escritores por lote dentro de una transacción.
	GetByIDForUpdate(id string) (*entity.Lot, error)
	GetByCode(code string) (*entity.Lot, error)
	List(itemType string, includeArchived bool, limit, offset int) ([]*entity.Lot, error)
	// UpdateAvailable sobreescribe el caché quantity_available con el saldo
	// recalculado desde el libro. Única vía de mutación del caché.
	UpdateAvailable(id string, available decimal.Decimal) error
	SetArchived(id string, archived bool) error
}
