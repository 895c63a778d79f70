package wastetransfer

import (
	"context"

	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// TxRunner ejecuta un comando de merma o traslado (registro de auditoría +
// movimientos + caché) dentro de una sola transacción de BD.
type TxRunner interface {
	RunWasteTransfer(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		wtRepo repository.WasteTransferRepository,
		seqRepo repository.SequenceRepository,
	) error) error
}
