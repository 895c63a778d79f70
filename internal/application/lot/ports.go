package lot

import (
	"context"

	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// TxRunner ejecuta la alta de un lote (fila + código + movimiento IN inicial
// + caché) dentro de una sola transacción de BD.
type TxRunner interface {
	RunLot(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}
