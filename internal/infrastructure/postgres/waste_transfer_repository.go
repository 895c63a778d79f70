package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.WasteTransferRepository = (*WasteTransferRepo)(nil)

// WasteTransferRepo implementación de registros de merma y traslado sobre
// PostgreSQL. Las filas son inmutables: solo INSERT y SELECT.
type WasteTransferRepo struct {
	q Querier
}

func NewWasteTransferRepository(q Querier) *WasteTransferRepo {
	return &WasteTransferRepo{q: q}
}

const wasteColumns = `id, code, lot_type, lot_id, lot_code, quantity, unit,
	reason, effective_date, created_at, created_by`

// CreateWaste persiste un registro de merma.
func (r *WasteTransferRepo) CreateWaste(w *entity.WasteRecord) error {
	query := `
		INSERT INTO waste_records (` + wasteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(context.Background(), query,
		w.ID, w.Code, w.LotType, w.LotID, w.LotCode, w.Quantity, w.Unit,
		w.Reason, w.EffectiveDate, w.CreatedAt, nullIfEmpty(w.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de merma %s ya existe", domain.ErrIntegrityViolation, w.Code)
		}
		return fmt.Errorf("create waste record: %w", err)
	}
	return nil
}

const transferColumns = `id, code, lot_type, from_lot_id, from_lot_code,
	to_lot_id, to_lot_code, quantity, unit, reason, effective_date, created_at, created_by`

// CreateTransfer persiste un registro de traslado.
func (r *WasteTransferRepo) CreateTransfer(t *entity.TransferRecord) error {
	query := `
		INSERT INTO transfer_records (` + transferColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(context.Background(), query,
		t.ID, t.Code, t.LotType, t.FromLotID, t.FromLotCode,
		t.ToLotID, t.ToLotCode, t.Quantity, t.Unit, t.Reason,
		t.EffectiveDate, t.CreatedAt, nullIfEmpty(t.CreatedBy),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de traslado %s ya existe", domain.ErrIntegrityViolation, t.Code)
		}
		return fmt.Errorf("create transfer record: %w", err)
	}
	return nil
}

// ListWasteByLot lista las mermas de un lote, en orden cronológico.
func (r *WasteTransferRepo) ListWasteByLot(lotID string) ([]*entity.WasteRecord, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+wasteColumns+` FROM waste_records WHERE lot_id = $1 ORDER BY effective_date ASC, created_at ASC`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list waste records: %w", err)
	}
	defer rows.Close()
	var list []*entity.WasteRecord
	for rows.Next() {
		var w entity.WasteRecord
		var createdBy *string
		if err := rows.Scan(&w.ID, &w.Code, &w.LotType, &w.LotID, &w.LotCode,
			&w.Quantity, &w.Unit, &w.Reason, &w.EffectiveDate, &w.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan waste record: %w", err)
		}
		if createdBy != nil {
			w.CreatedBy = *createdBy
		}
		list = append(list, &w)
	}
	return list, rows.Err()
}

// ListTransfersByLot lista los traslados donde el lote es origen o destino.
func (r *WasteTransferRepo) ListTransfersByLot(lotID string) ([]*entity.TransferRecord, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+transferColumns+` FROM transfer_records
		 WHERE from_lot_id = $1 OR to_lot_id = $1
		 ORDER BY effective_date ASC, created_at ASC`, lotID)
	if err != nil {
		return nil, fmt.Errorf("list transfer records: %w", err)
	}
	defer rows.Close()
	var list []*entity.TransferRecord
	for rows.Next() {
		var t entity.TransferRecord
		var createdBy *string
		if err := rows.Scan(&t.ID, &t.Code, &t.LotType, &t.FromLotID, &t.FromLotCode,
			&t.ToLotID, &t.ToLotCode, &t.Quantity, &t.Unit, &t.Reason,
			&t.EffectiveDate, &t.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan transfer record: %w", err)
		}
		if createdBy != nil {
			t.CreatedBy = *createdBy
		}
		list = append(list, &t)
	}
	return list, rows.Err()
}
