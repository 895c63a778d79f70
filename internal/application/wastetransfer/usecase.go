// Package wastetransfer implementa el registro de mermas y traslados entre
// lotes contra el libro de movimientos. Opera sobre el lote directamente,
// sin importar el estado de bloqueo de los batches que lo consumieron: las
// correcciones por accountability deben ser posibles incluso después del
// bloqueo.
package wastetransfer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/application/dto"
	"github.com/jhoicas/Planta-api/internal/application/identifier"
	appledger "github.com/jhoicas/Planta-api/internal/application/ledger"
	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// tick separación mínima de RecordedAt entre movimientos lógicamente
// secuenciales del mismo día de negocio, para que la reconstrucción
// cronológica conserve el orden.
const tick = time.Millisecond

// UseCase registra mermas y traslados.
type UseCase struct {
	txRunner  TxRunner
	allocator *identifier.Allocator
}

// NewUseCase construye el caso de uso.
func NewUseCase(txRunner TxRunner, allocator *identifier.Allocator) *UseCase {
	return &UseCase{txRunner: txRunner, allocator: allocator}
}

// RecordWaste valida y registra una merma: crea el WasteRecord, postea el
// movimiento WASTE y recalcula el caché, todo en una transacción.
// Rechaza con ErrInsufficientQuantity si la cantidad excede el saldo a la
// fecha efectiva.
func (uc *UseCase) RecordWaste(ctx context.Context, in dto.RecordWasteRequest, userID string) (*entity.WasteRecord, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad de merma debe ser positiva", domain.ErrValidation)
	}
	if in.Reason == "" {
		return nil, fmt.Errorf("%w: la razón de la merma es obligatoria", domain.ErrValidation)
	}
	effectiveDate := time.Now()
	if in.EffectiveDate != nil {
		effectiveDate = *in.EffectiveDate
	}

	var record *entity.WasteRecord
	err := uc.txRunner.RunWasteTransfer(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		wtRepo repository.WasteTransferRepository,
		seqRepo repository.SequenceRepository,
	) error {
		// Bloquea la fila del lote para serializar la validación de saldo
		lot, err := lotRepo.GetByIDForUpdate(in.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, in.LotID)
		}
		balance, err := appledger.BalanceInTx(movRepo, lot.ItemType, lot.ID, effectiveDate)
		if err != nil {
			return err
		}
		if balance.LessThan(in.Quantity) {
			return fmt.Errorf("%w: lote %s tiene %s %s al %s, se pidió %s",
				domain.ErrInsufficientQuantity, lot.Code, balance, lot.Unit,
				effectiveDate.Format("2006-01-02"), in.Quantity)
		}
		code, err := uc.allocator.Allocate(seqRepo, identifier.CategoryWaste)
		if err != nil {
			return err
		}
		now := time.Now()
		record = &entity.WasteRecord{
			ID:            uuid.New().String(),
			Code:          code,
			LotType:       lot.ItemType,
			LotID:         lot.ID,
			LotCode:       lot.Code,
			Quantity:      in.Quantity,
			Unit:          lot.Unit,
			Reason:        in.Reason,
			EffectiveDate: effectiveDate,
			CreatedAt:     now,
			CreatedBy:     userID,
		}
		if err := wtRepo.CreateWaste(record); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ItemType:      lot.ItemType,
			ItemID:        lot.ID,
			LotCode:       lot.Code,
			Type:          entity.MovementWaste,
			Quantity:      in.Quantity,
			Unit:          lot.Unit,
			EffectiveDate: effectiveDate,
			RecordedAt:    now,
			ReferenceID:   record.ID,
			ReferenceType: entity.ReferenceWasteRecord,
			CreatedBy:     userID,
		}
		if err := appledger.PostInTx(movRepo, mov); err != nil {
			return err
		}
		return appledger.RecomputeInTx(movRepo, lotRepo, lot.ItemType, lot.ID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// TransferBetweenLots mueve cantidad del lote origen al destino: un
// TransferRecord y el par TRANSFER_OUT/TRANSFER_IN compartiendo su
// reference_id, con el TRANSFER_IN registrado un tick después del OUT.
// Rechaza traslados al mismo lote, entre unidades distintas o que excedan
// el saldo del origen a la fecha efectiva.
func (uc *UseCase) TransferBetweenLots(ctx context.Context, in dto.TransferRequest, userID string) (*entity.TransferRecord, error) {
	if in.FromLotID == in.ToLotID {
		return nil, fmt.Errorf("%w: traslado al mismo lote %s", domain.ErrIntegrityViolation, in.FromLotID)
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad a trasladar debe ser positiva", domain.ErrValidation)
	}
	effectiveDate := time.Now()
	if in.EffectiveDate != nil {
		effectiveDate = *in.EffectiveDate
	}

	var record *entity.TransferRecord
	err := uc.txRunner.RunWasteTransfer(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		wtRepo repository.WasteTransferRepository,
		seqRepo repository.SequenceRepository,
	) error {
		// Bloquea ambos lotes en orden determinista de ID: el caché del
		// destino también se sobreescribe aquí, así que su fila debe quedar
		// serializada frente a otros escritores, y los traslados en
		// direcciones opuestas adquieren los locks en la misma secuencia.
		var from, to *entity.Lot
		var err error
		if in.FromLotID < in.ToLotID {
			if from, err = lockLot(lotRepo, in.FromLotID, "origen"); err != nil {
				return err
			}
			if to, err = lockLot(lotRepo, in.ToLotID, "destino"); err != nil {
				return err
			}
		} else {
			if to, err = lockLot(lotRepo, in.ToLotID, "destino"); err != nil {
				return err
			}
			if from, err = lockLot(lotRepo, in.FromLotID, "origen"); err != nil {
				return err
			}
		}
		if from.Unit != to.Unit {
			return fmt.Errorf("%w: unidades distintas (%s en %s, %s en %s)",
				domain.ErrValidation, from.Unit, from.Code, to.Unit, to.Code)
		}
		balance, err := appledger.BalanceInTx(movRepo, from.ItemType, from.ID, effectiveDate)
		if err != nil {
			return err
		}
		if balance.LessThan(in.Quantity) {
			return fmt.Errorf("%w: lote %s tiene %s %s al %s, se pidió %s",
				domain.ErrInsufficientQuantity, from.Code, balance, from.Unit,
				effectiveDate.Format("2006-01-02"), in.Quantity)
		}
		code, err := uc.allocator.Allocate(seqRepo, identifier.CategoryTransfer)
		if err != nil {
			return err
		}
		now := time.Now()
		record = &entity.TransferRecord{
			ID:            uuid.New().String(),
			Code:          code,
			LotType:       from.ItemType,
			FromLotID:     from.ID,
			FromLotCode:   from.Code,
			ToLotID:       to.ID,
			ToLotCode:     to.Code,
			Quantity:      in.Quantity,
			Unit:          from.Unit,
			Reason:        in.Reason,
			EffectiveDate: effectiveDate,
			CreatedAt:     now,
			CreatedBy:     userID,
		}
		if err := wtRepo.CreateTransfer(record); err != nil {
			return err
		}
		out := &entity.StockMovement{
			ItemType:      from.ItemType,
			ItemID:        from.ID,
			LotCode:       from.Code,
			Type:          entity.MovementTransferOut,
			Quantity:      in.Quantity,
			Unit:          from.Unit,
			EffectiveDate: effectiveDate,
			RecordedAt:    now,
			ReferenceID:   record.ID,
			ReferenceType: entity.ReferenceTransferRecord,
			CreatedBy:     userID,
		}
		if err := appledger.PostInTx(movRepo, out); err != nil {
			return err
		}
		// El IN del destino se registra estrictamente después del OUT para
		// que el replay cronológico del mismo día conserve la secuencia.
		inMov := &entity.StockMovement{
			ItemType:      to.ItemType,
			ItemID:        to.ID,
			LotCode:       to.Code,
			Type:          entity.MovementTransferIn,
			Quantity:      in.Quantity,
			Unit:          to.Unit,
			EffectiveDate: effectiveDate,
			RecordedAt:    now.Add(tick),
			ReferenceID:   record.ID,
			ReferenceType: entity.ReferenceTransferRecord,
			CreatedBy:     userID,
		}
		if err := appledger.PostInTx(movRepo, inMov); err != nil {
			return err
		}
		if err := appledger.RecomputeInTx(movRepo, lotRepo, from.ItemType, from.ID); err != nil {
			return err
		}
		return appledger.RecomputeInTx(movRepo, lotRepo, to.ItemType, to.ID)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// lockLot toma la fila del lote con FOR UPDATE y verifica que exista.
func lockLot(lotRepo repository.LotRepository, id, label string) (*entity.Lot, error) {
	lot, err := lotRepo.GetByIDForUpdate(id)
	if err != nil {
		return nil, err
	}
	if lot == nil {
		return nil, fmt.Errorf("%w: lote %s %s", domain.ErrNotFound, label, id)
	}
	return lot, nil
}
