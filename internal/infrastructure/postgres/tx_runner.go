package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Planta-api/internal/application/batch"
	"github.com/jhoicas/Planta-api/internal/application/ledger"
	"github.com/jhoicas/Planta-api/internal/application/lot"
	"github.com/jhoicas/Planta-api/internal/application/wastetransfer"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// Ensure TxRunner implementa los runners de cada familia de comandos.
var _ ledger.TxRunner = (*TxRunner)(nil)
var _ lot.TxRunner = (*TxRunner)(nil)
var _ wastetransfer.TxRunner = (*TxRunner)(nil)
var _ batch.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción con los repos del libro (movimientos + lotes)
// y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	lotRepo repository.LotRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewStockMovementRepository(tx), NewLotRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunLot inicia una transacción para el alta de lotes (lote + movimiento IN
// inicial + código del asignador).
func (r *TxRunner) RunLot(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewLotRepository(tx), NewStockMovementRepository(tx), NewSequenceRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunWasteTransfer inicia una transacción para mermas y traslados.
func (r *TxRunner) RunWasteTransfer(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	wtRepo repository.WasteTransferRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewLotRepository(tx),
		NewStockMovementRepository(tx),
		NewWasteTransferRepository(tx),
		NewSequenceRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// RunBatch inicia una transacción para comandos del ciclo de vida de batches.
func (r *TxRunner) RunBatch(ctx context.Context, fn func(
	batchRepo repository.ProductionBatchRepository,
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	goodRepo repository.ProcessedGoodRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(
		NewProductionBatchRepository(tx),
		NewLotRepository(tx),
		NewStockMovementRepository(tx),
		NewProcessedGoodRepository(tx),
		NewSequenceRepository(tx),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
