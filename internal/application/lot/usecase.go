// Package lot implementa los casos de uso de lotes: alta (intake) con su
// movimiento IN inicial, consultas y archivado bajo umbral.
package lot

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

// UseCase casos de uso de lotes.
type UseCase struct {
	txRunner         TxRunner
	lotRepo          repository.LotRepository
	wtRepo           repository.WasteTransferRepository
	allocator        *identifier.Allocator
	archiveThreshold decimal.Decimal
}

// NewUseCase construye el caso de uso. archiveThreshold es la disponibilidad
// máxima por debajo de la cual un lote puede archivarse.
func NewUseCase(
	txRunner TxRunner,
	lotRepo repository.LotRepository,
	wtRepo repository.WasteTransferRepository,
	allocator *identifier.Allocator,
	archiveThreshold decimal.Decimal,
) *UseCase {
	return &UseCase{
		txRunner:         txRunner,
		lotRepo:          lotRepo,
		wtRepo:           wtRepo,
		allocator:        allocator,
		archiveThreshold: archiveThreshold,
	}
}

// Intake da de alta un lote: asigna el código, crea la fila, postea el IN
// inicial y deja el caché consistente, todo en una transacción.
func (uc *UseCase) Intake(ctx context.Context, in dto.IntakeLotRequest, userID string) (*entity.Lot, error) {
	if in.ItemType != entity.ItemTypeRawMaterial && in.ItemType != entity.ItemTypeRecurringProduct {
		return nil, fmt.Errorf("%w: item_type desconocido %q", domain.ErrValidation, in.ItemType)
	}
	if in.Name == "" || in.Unit == "" {
		return nil, fmt.Errorf("%w: nombre y unidad son obligatorios", domain.ErrValidation)
	}
	if !in.Quantity.GreaterThan(decimal.Zero) {
		return nil, fmt.Errorf("%w: la cantidad recibida debe ser positiva", domain.ErrValidation)
	}
	intakeDate := time.Now()
	if in.IntakeDate != nil {
		intakeDate = *in.IntakeDate
	}

	now := time.Now()
	created := &entity.Lot{
		ID:                uuid.New().String(),
		ItemType:          in.ItemType,
		Name:              in.Name,
		Unit:              in.Unit,
		QuantityReceived:  in.Quantity,
		QuantityAvailable: in.Quantity,
		IntakeDate:        intakeDate,
		SupplierRef:       in.SupplierRef,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	err := uc.txRunner.RunLot(ctx, func(
		lotRepo repository.LotRepository,
		movRepo repository.StockMovementRepository,
		seqRepo repository.SequenceRepository,
	) error {
		code, err := uc.allocator.Allocate(seqRepo, identifier.LotCategory(in.ItemType))
		if err != nil {
			return err
		}
		created.Code = code
		if err := lotRepo.Create(created); err != nil {
			return err
		}
		mov := &entity.StockMovement{
			ItemType:      created.ItemType,
			ItemID:        created.ID,
			LotCode:       created.Code,
			Type:          entity.MovementIN,
			Quantity:      in.Quantity,
			Unit:          created.Unit,
			EffectiveDate: intakeDate,
			ReferenceID:   created.ID,
			ReferenceType: entity.ReferenceInitialIntake,
			CreatedBy:     userID,
		}
		if err := appledger.PostInTx(movRepo, mov); err != nil {
			return err
		}
		return appledger.RecomputeInTx(movRepo, lotRepo, created.ItemType, created.ID)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Get devuelve un lote por ID.
func (uc *UseCase) Get(id string) (*entity.Lot, error) {
	l, err := uc.lotRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return l, nil
}

// List devuelve lotes, opcionalmente filtrados por tipo y estado de archivo.
func (uc *UseCase) List(itemType string, includeArchived bool, limit, offset int) ([]*entity.Lot, error) {
	return uc.lotRepo.List(itemType, includeArchived, limit, offset)
}

// Archive archiva un lote. Solo se permite cuando la disponibilidad está por
// debajo del umbral configurado; un lote con saldo relevante sigue vivo.
func (uc *UseCase) Archive(id string) (*entity.Lot, error) {
	l, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	if l.Archived {
		return l, nil
	}
	if l.QuantityAvailable.GreaterThanOrEqual(uc.archiveThreshold) {
		return nil, fmt.Errorf("%w: el lote %s aún tiene %s %s disponibles (umbral %s)",
			domain.ErrInvalidState, l.Code, l.QuantityAvailable, l.Unit, uc.archiveThreshold)
	}
	if err := uc.lotRepo.SetArchived(id, true); err != nil {
		return nil, err
	}
	l.Archived = true
	return l, nil
}

// WasteTransferHistory devuelve las mermas y traslados de un lote.
func (uc *UseCase) WasteTransferHistory(lotID string) ([]*entity.WasteRecord, []*entity.TransferRecord, error) {
	if _, err := uc.Get(lotID); err != nil {
		return nil, nil, err
	}
	waste, err := uc.wtRepo.ListWasteByLot(lotID)
	if err != nil {
		return nil, nil, err
	}
	transfers, err := uc.wtRepo.ListTransfersByLot(lotID)
	if err != nil {
		return nil, nil, err
	}
	return waste, transfers, nil
}
