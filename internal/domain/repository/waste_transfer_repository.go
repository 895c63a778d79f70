package repository

import "github.com/jhoicas/Planta-api/internal/domain/entity"

// WasteTransferRepository define el puerto de persistencia de registros de
// merma y traslado (filas de auditoría inmutables).
type WasteTransferRepository interface {
	CreateWaste(record *entity.WasteRecord) error
	CreateTransfer(record *entity.TransferRecord) error
	ListWasteByLot(lotID string) ([]*entity.WasteRecord, error)
	// ListTransfersByLot devuelve los traslados donde el lote participa como
	// origen o destino.
	ListTransfersByLot(lotID string) ([]*entity.TransferRecord, error)
}
