// Package ledger implementa el caso de uso del libro de movimientos
// (StockLedger): registro de movimientos, saldos a fecha de corte,
// historial canónico y recálculo del caché de disponibilidad.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	domainledger "github.com/jhoicas/Planta-api/internal/domain/ledger"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
	"github.com/jhoicas/Planta-api/pkg/logger"
)

// Service expone las consultas del libro sobre repositorios atados al pool
// y el comando Post en su propia transacción. Los demás casos de uso
// (batches, mermas, traslados) usan los helpers *InTx dentro de sus
// transacciones.
type Service struct {
	movRepo  repository.StockMovementRepository
	lotRepo  repository.LotRepository
	txRunner TxRunner
	log      *logger.Logger
}

// NewService construye el servicio del libro.
func NewService(movRepo repository.StockMovementRepository, lotRepo repository.LotRepository, txRunner TxRunner, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{movRepo: movRepo, lotRepo: lotRepo, txRunner: txRunner, log: log}
}

// Balance devuelve el saldo del ítem a la fecha de corte: suma con signo de
// todos los movimientos con effective_date <= asOf.
func (s *Service) Balance(itemType, itemID string, asOf time.Time) (decimal.Decimal, error) {
	movs, err := s.movRepo.ListByItem(itemType, itemID, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return domainledger.BalanceAsOf(movs, asOf)
}

// History devuelve los movimientos del ítem ordenados por
// (effective_date asc, recorded_at asc), opcionalmente acotados por fechas.
func (s *Service) History(itemType, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	return s.movRepo.ListByItem(itemType, itemID, from, to)
}

// RunningBalanceTrail devuelve el historial completo con el saldo acumulado
// fila a fila (reconstrucción cronológica para auditoría).
func (s *Service) RunningBalanceTrail(itemType, itemID string) ([]domainledger.TrailEntry, error) {
	movs, err := s.movRepo.ListByItem(itemType, itemID, nil, nil)
	if err != nil {
		return nil, err
	}
	return domainledger.RunningTrail(movs)
}

// Post registra un movimiento y recalcula el caché del lote en una sola
// transacción. Superficie para colaboradores externos; los comandos del
// propio núcleo postean con PostInTx dentro de sus transacciones.
func (s *Service) Post(ctx context.Context, m *entity.StockMovement) error {
	return s.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		lotRepo repository.LotRepository,
	) error {
		if err := PostInTx(movRepo, m); err != nil {
			return err
		}
		return RecomputeInTx(movRepo, lotRepo, m.ItemType, m.ItemID)
	})
}

// RecomputeAvailable recalcula y sobreescribe el caché de disponibilidad de
// un lote desde el libro, fuera de cualquier transacción de comando.
// Es best-effort para reparación: los comandos ya recalculan dentro de su tx.
func (s *Service) RecomputeAvailable(ctx context.Context, itemType, itemID string) error {
	err := s.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		lotRepo repository.LotRepository,
	) error {
		return RecomputeInTx(movRepo, lotRepo, itemType, itemID)
	})
	if err != nil {
		s.log.Warn().Err(err).Str("item_id", itemID).Msg("recálculo de disponibilidad falló")
	}
	return err
}

// PostInTx valida y persiste un movimiento usando el repositorio provisto
// (misma transacción del caller). Estampa RecordedAt con la hora actual si
// el caller no lo escalonó explícitamente.
func PostInTx(movRepo repository.StockMovementRepository, m *entity.StockMovement) error {
	if !m.Quantity.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: la cantidad del movimiento debe ser positiva (%s)", domain.ErrValidation, m.Quantity)
	}
	if _, err := domainledger.Direction(m.Type); err != nil {
		return err
	}
	if m.ItemID == "" || m.ItemType == "" {
		return fmt.Errorf("%w: movimiento sin ítem", domain.ErrValidation)
	}
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.RecordedAt.IsZero() {
		m.RecordedAt = time.Now()
	}
	m.EffectiveDate = domainledger.Day(m.EffectiveDate)
	return movRepo.Create(m)
}

// BalanceInTx calcula el saldo a fecha de corte con el repositorio de la
// transacción del caller (lee movimientos ya posteados en esa tx).
func BalanceInTx(movRepo repository.StockMovementRepository, itemType, itemID string, asOf time.Time) (decimal.Decimal, error) {
	movs, err := movRepo.ListByItem(itemType, itemID, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}
	return domainledger.BalanceAsOf(movs, asOf)
}

// RecomputeInTx sobreescribe el caché quantity_available del lote con
// balance(lote, hoy). Se invoca después de cada posteo, dentro de la misma
// transacción, para mantener el invariante caché == saldo del libro.
func RecomputeInTx(movRepo repository.StockMovementRepository, lotRepo repository.LotRepository, itemType, itemID string) error {
	available, err := BalanceInTx(movRepo, itemType, itemID, time.Now())
	if err != nil {
		return err
	}
	return lotRepo.UpdateAvailable(itemID, available)
}
