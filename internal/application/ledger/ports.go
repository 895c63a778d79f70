package ledger

import (
	"context"

	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza que el movimiento y el recálculo
// del caché del lote se apliquen atómicamente.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		lotRepo repository.LotRepository,
	) error) error
}
