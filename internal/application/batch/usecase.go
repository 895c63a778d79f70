// Package batch implementa la máquina de estados del batch de producción:
// DRAFT --(lock, qa approved|rejected)--> LOCKED. Mientras está en borrador
// acumula consumos de lotes (movimientos CONSUMPTION) y salidas declaradas
// (sin efecto en el libro); al bloquear con QA approved materializa una fila
// de ProcessedGood por salida. Un batch bloqueado es inmutable y nunca se
// borra; deshacer un consumo o borrar un borrador postea movimientos IN de
// reversa, jamás toca las filas originales del libro.
package batch

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

// tick separación mínima de RecordedAt entre un movimiento y su corrección
// del mismo día de negocio.
const tick = time.Millisecond

// UseCase ciclo de vida del batch de producción.
type UseCase struct {
	txRunner  TxRunner
	batchRepo repository.ProductionBatchRepository
	goodRepo  repository.ProcessedGoodRepository
	allocator *identifier.Allocator
}

// NewUseCase construye el caso de uso.
func NewUseCase(
	txRunner TxRunner,
	batchRepo repository.ProductionBatchRepository,
	goodRepo repository.ProcessedGoodRepository,
	allocator *identifier.Allocator,
) *UseCase {
	return &UseCase{txRunner: txRunner, batchRepo: batchRepo, goodRepo: goodRepo, allocator: allocator}
}

// Create abre un batch en borrador con QA pending y su código asignado.
func (uc *UseCase) Create(ctx context.Context, in dto.CreateBatchRequest) (*entity.ProductionBatch, error) {
	businessDate := time.Now()
	if in.BusinessDate != nil {
		businessDate = *in.BusinessDate
	}
	now := time.Now()
	created := &entity.ProductionBatch{
		ID:           uuid.New().String(),
		QAStatus:     entity.QAPending,
		BusinessDate: businessDate,
		Notes:        in.Notes,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		_ repository.LotRepository,
		_ repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		seqRepo repository.SequenceRepository,
	) error {
		code, err := uc.allocator.Allocate(seqRepo, identifier.CategoryBatch)
		if err != nil {
			return err
		}
		created.Code = code
		return batchRepo.Create(created)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// AddConsumedMaterial registra una línea de consumo contra un lote: valida
// el saldo a la fecha de negocio del batch, inserta la línea y postea el
// movimiento CONSUMPTION, recalculando el caché del lote en la misma
// transacción.
func (uc *UseCase) AddConsumedMaterial(ctx context.Context, batchID string, in dto.AddMaterialRequest, userID string) (*entity.BatchMaterial, error) {
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad consumida debe ser positiva", domain.ErrValidation)
	}
	var line *entity.BatchMaterial
	err := uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		lot, err := lotRepo.GetByIDForUpdate(in.LotID)
		if err != nil {
			return err
		}
		if lot == nil {
			return fmt.Errorf("%w: lote %s", domain.ErrNotFound, in.LotID)
		}
		balance, err := appledger.BalanceInTx(movRepo, lot.ItemType, lot.ID, b.BusinessDate)
		if err != nil {
			return err
		}
		if balance.LessThan(in.Quantity) {
			return fmt.Errorf("%w: lote %s tiene %s %s al %s, el batch %s pidió %s",
				domain.ErrInsufficientQuantity, lot.Code, balance, lot.Unit,
				b.BusinessDate.Format("2006-01-02"), b.Code, in.Quantity)
		}
		line = &entity.BatchMaterial{
			ID:        uuid.New().String(),
			BatchID:   b.ID,
			LotType:   lot.ItemType,
			LotID:     lot.ID,
			LotCode:   lot.Code,
			Quantity:  in.Quantity,
			Unit:      lot.Unit,
			CreatedAt: time.Now(),
		}
		if err := batchRepo.AddMaterial(line); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ItemType:      lot.ItemType,
			ItemID:        lot.ID,
			LotCode:       lot.Code,
			Type:          entity.MovementConsumption,
			Quantity:      in.Quantity,
			Unit:          lot.Unit,
			EffectiveDate: b.BusinessDate,
			ReferenceID:   b.ID,
			ReferenceType: entity.ReferenceProductionBatch,
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
	return line, nil
}

// RemoveConsumedMaterial deshace una línea de consumo: elimina la línea y
// postea un IN de reversa por la misma cantidad, fechado a la fecha de
// negocio del batch y registrado estrictamente después del CONSUMPTION
// original. El movimiento original no se toca.
func (uc *UseCase) RemoveConsumedMaterial(ctx context.Context, batchID, lineID, userID string) error {
	return uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		line, err := batchRepo.GetMaterial(lineID)
		if err != nil {
			return err
		}
		if line == nil || line.BatchID != b.ID {
			return fmt.Errorf("%w: línea de consumo %s en batch %s", domain.ErrNotFound, lineID, b.Code)
		}
		if err := batchRepo.DeleteMaterial(lineID); err != nil {
			return err
		}
		return reverseConsumption(movRepo, lotRepo, b, line, userID)
	})
}

// DeclareOutput declara una salida del batch. Sin efecto en el libro: las
// salidas no son inventario hasta que el batch se bloquea aprobado.
func (uc *UseCase) DeclareOutput(ctx context.Context, batchID string, in dto.OutputRequest) (*entity.BatchOutput, error) {
	if err := validateOutput(in); err != nil {
		return nil, err
	}
	var out *entity.BatchOutput
	err := uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		_ repository.LotRepository,
		_ repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		out = &entity.BatchOutput{
			ID:          uuid.New().String(),
			BatchID:     b.ID,
			Name:        in.Name,
			CategoryTag: in.CategoryTag,
			Quantity:    in.Quantity,
			Unit:        in.Unit,
			SizeLabel:   in.SizeLabel,
			CreatedAt:   time.Now(),
		}
		return batchRepo.AddOutput(out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOutput reemplaza los campos de una salida declarada (batch en borrador).
func (uc *UseCase) UpdateOutput(ctx context.Context, batchID, outputID string, in dto.OutputRequest) (*entity.BatchOutput, error) {
	if err := validateOutput(in); err != nil {
		return nil, err
	}
	var out *entity.BatchOutput
	err := uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		_ repository.LotRepository,
		_ repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		out, err = batchRepo.GetOutput(outputID)
		if err != nil {
			return err
		}
		if out == nil || out.BatchID != b.ID {
			return fmt.Errorf("%w: salida %s en batch %s", domain.ErrNotFound, outputID, b.Code)
		}
		out.Name = in.Name
		out.CategoryTag = in.CategoryTag
		out.Quantity = in.Quantity
		out.Unit = in.Unit
		out.SizeLabel = in.SizeLabel
		return batchRepo.UpdateOutput(out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RemoveOutput elimina una salida declarada (batch en borrador).
func (uc *UseCase) RemoveOutput(ctx context.Context, batchID, outputID string) error {
	return uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		_ repository.LotRepository,
		_ repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		out, err := batchRepo.GetOutput(outputID)
		if err != nil {
			return err
		}
		if out == nil || out.BatchID != b.ID {
			return fmt.Errorf("%w: salida %s en batch %s", domain.ErrNotFound, outputID, b.Code)
		}
		return batchRepo.DeleteOutput(outputID)
	})
}

// Lock bloquea el batch con su veredicto QA. Rechaza si ya está bloqueado,
// si el QA es pending/hold, o si no hay salidas completas. Con approved
// materializa un ProcessedGood por salida declarada; con rejected no crea
// nada. El bloqueo es de una sola vía.
func (uc *UseCase) Lock(ctx context.Context, batchID string, in dto.LockBatchRequest) ([]*entity.ProcessedGood, error) {
	if in.QAStatus != entity.QAApproved && in.QAStatus != entity.QARejected {
		return nil, fmt.Errorf("%w: no se puede bloquear con qa_status %q", domain.ErrInvalidState, in.QAStatus)
	}
	var goods []*entity.ProcessedGood
	err := uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		_ repository.LotRepository,
		_ repository.StockMovementRepository,
		goodRepo repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		outputs, err := batchRepo.ListOutputs(b.ID)
		if err != nil {
			return err
		}
		if len(outputs) == 0 {
			return fmt.Errorf("%w: el batch %s no declara salidas", domain.ErrInvalidState, b.Code)
		}
		for _, out := range outputs {
			if out.Name == "" || out.Unit == "" || out.CategoryTag == "" || !out.Quantity.GreaterThan(decimal.Zero) {
				return fmt.Errorf("%w: salida incompleta %q en batch %s", domain.ErrInvalidState, out.Name, b.Code)
			}
		}
		b.IsLocked = true
		b.QAStatus = in.QAStatus
		b.ProductionStart = in.ProductionStart
		b.ProductionEnd = in.ProductionEnd
		if in.Notes != "" {
			b.Notes = in.Notes
		}
		b.UpdatedAt = time.Now()
		if err := batchRepo.Lock(b); err != nil {
			return err
		}
		if in.QAStatus != entity.QAApproved {
			return nil
		}
		now := time.Now()
		for _, out := range outputs {
			good := &entity.ProcessedGood{
				ID:                uuid.New().String(),
				BatchID:           b.ID,
				OutputID:          out.ID,
				Name:              out.Name,
				CategoryTag:       out.CategoryTag,
				QuantityCreated:   out.Quantity,
				QuantityAvailable: out.Quantity,
				Unit:              out.Unit,
				SizeLabel:         out.SizeLabel,
				CreatedAt:         now,
			}
			if err := goodRepo.Create(good); err != nil {
				return err
			}
			goods = append(goods, good)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return goods, nil
}

// Delete borra un batch en borrador: postea un IN de reversa por cada línea
// de consumo (recalculando cada lote) y elimina líneas, salidas y el batch.
// Un batch bloqueado nunca es borrable.
func (uc *UseCase) Delete(ctx context.Context, batchID, userID string) error {
	return uc.txRunner.RunBatch(ctx, func(
		batchRepo repository.ProductionBatchRepository,
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		_ repository.ProcessedGoodRepository,
		_ repository.SequenceRepository,
	) error {
		b, err := lockedDraft(batchRepo, batchID)
		if err != nil {
			return err
		}
		lines, err := batchRepo.ListMaterials(b.ID)
		if err != nil {
			return err
		}
		for _, line := range lines {
			if err := batchRepo.DeleteMaterial(line.ID); err != nil {
				return err
			}
			// Cada reversa se registra después de la anterior, así el
			// replay del día conserva el orden de las líneas.
			if err := reverseConsumption(movRepo, lotRepo, b, line, userID); err != nil {
				return err
			}
		}
		outputs, err := batchRepo.ListOutputs(b.ID)
		if err != nil {
			return err
		}
		for _, out := range outputs {
			if err := batchRepo.DeleteOutput(out.ID); err != nil {
				return err
			}
		}
		return batchRepo.Delete(b.ID)
	})
}

// Get devuelve un batch con sus líneas y salidas.
func (uc *UseCase) Get(batchID string) (*entity.ProductionBatch, []*entity.BatchMaterial, []*entity.BatchOutput, error) {
	b, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, nil, nil, err
	}
	if b == nil {
		return nil, nil, nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, batchID)
	}
	materials, err := uc.batchRepo.ListMaterials(b.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	outputs, err := uc.batchRepo.ListOutputs(b.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	return b, materials, outputs, nil
}

// List devuelve batches, opcionalmente filtrados por estado de bloqueo.
func (uc *UseCase) List(locked *bool, limit, offset int) ([]*entity.ProductionBatch, error) {
	return uc.batchRepo.List(locked, limit, offset)
}

// ProcessedGoods devuelve los productos materializados por un batch.
func (uc *UseCase) ProcessedGoods(batchID string) ([]*entity.ProcessedGood, error) {
	b, err := uc.batchRepo.GetByID(batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, batchID)
	}
	return uc.goodRepo.ListByBatch(batchID)
}

// BatchUsage devuelve los batches que consumieron un lote, con su línea de
// consumo y sus salidas declaradas.
func (uc *UseCase) BatchUsage(lotID string) ([]dto.BatchUsageResponse, error) {
	lines, err := uc.batchRepo.ListMaterialsByLot(lotID)
	if err != nil {
		return nil, err
	}
	usage := make([]dto.BatchUsageResponse, 0, len(lines))
	for _, line := range lines {
		b, err := uc.batchRepo.GetByID(line.BatchID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			continue
		}
		outputs, err := uc.batchRepo.ListOutputs(b.ID)
		if err != nil {
			return nil, err
		}
		outDTOs := make([]dto.BatchOutputResponse, 0, len(outputs))
		for _, out := range outputs {
			outDTOs = append(outDTOs, dto.BatchOutputResponse{
				ID: out.ID, BatchID: out.BatchID, Name: out.Name,
				CategoryTag: out.CategoryTag, Quantity: out.Quantity,
				Unit: out.Unit, SizeLabel: out.SizeLabel,
			})
		}
		usage = append(usage, dto.BatchUsageResponse{
			BatchID:   b.ID,
			BatchCode: b.Code,
			IsLocked:  b.IsLocked,
			QAStatus:  b.QAStatus,
			Material: dto.BatchMaterialResponse{
				ID: line.ID, BatchID: line.BatchID, LotID: line.LotID,
				LotCode: line.LotCode, Quantity: line.Quantity, Unit: line.Unit,
				CreatedAt: line.CreatedAt,
			},
			Outputs: outDTOs,
		})
	}
	return usage, nil
}

// lockedDraft carga el batch con bloqueo de fila y verifica que siga en
// borrador. Toda mutación pasa por aquí.
func lockedDraft(batchRepo repository.ProductionBatchRepository, batchID string) (*entity.ProductionBatch, error) {
	b, err := batchRepo.GetByIDForUpdate(batchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrNotFound, batchID)
	}
	if b.IsLocked {
		return nil, fmt.Errorf("%w: batch %s", domain.ErrBatchLocked, b.Code)
	}
	return b, nil
}

// reverseConsumption postea el IN de reversa de una línea de consumo,
// fechado a la fecha de negocio del batch, y recalcula el caché del lote.
// El RecordedAt queda estrictamente después de todo movimiento previo del
// batch, aunque el reloj no haya avanzado desde el CONSUMPTION original;
// así el replay cronológico del día conserva la secuencia consumo-reversa.
func reverseConsumption(
	movRepo repository.StockMovementRepository,
	lotRepo repository.LotRepository,
	b *entity.ProductionBatch,
	line *entity.BatchMaterial,
	userID string,
) error {
	prior, err := movRepo.ListByReference(entity.ReferenceProductionBatch, b.ID)
	if err != nil {
		return err
	}
	recordedAt := time.Now()
	for _, m := range prior {
		if !m.RecordedAt.Before(recordedAt) {
			recordedAt = m.RecordedAt.Add(tick)
		}
	}
	mov := &entity.StockMovement{
		ItemType:      line.LotType,
		ItemID:        line.LotID,
		LotCode:       line.LotCode,
		Type:          entity.MovementIN,
		Quantity:      line.Quantity,
		Unit:          line.Unit,
		EffectiveDate: b.BusinessDate,
		RecordedAt:    recordedAt,
		ReferenceID:   b.ID,
		ReferenceType: entity.ReferenceProductionBatch,
		CreatedBy:     userID,
	}
	if err := appledger.PostInTx(movRepo, mov); err != nil {
		return err
	}
	return appledger.RecomputeInTx(movRepo, lotRepo, line.LotType, line.LotID)
}

// validateOutput las salidas son de forma libre mientras el batch está en
// borrador (la completitud se exige al bloquear); solo se rechaza una
// cantidad negativa, que no tiene lectura posible.
func validateOutput(in dto.OutputRequest) error {
	if in.Quantity.IsNegative() {
		return fmt.Errorf("%w: la cantidad producida no puede ser negativa", domain.ErrValidation)
	}
	return nil
}
