package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.ProductionBatchRepository = (*ProductionBatchRepo)(nil)

// ProductionBatchRepo implementación de batches y sus hijos sobre PostgreSQL
// (usable con pool o tx).
type ProductionBatchRepo struct {
	q Querier
}

// NewProductionBatchRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductionBatchRepository(q Querier) *ProductionBatchRepo {
	return &ProductionBatchRepo{q: q}
}

const batchColumns = `id, code, is_locked, qa_status, business_date,
	production_start, production_end, notes, created_at, updated_at`

// Create persiste un batch en borrador.
func (r *ProductionBatchRepo) Create(b *entity.ProductionBatch) error {
	query := `
		INSERT INTO production_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		b.ID, b.Code, b.IsLocked, b.QAStatus, b.BusinessDate,
		b.ProductionStart, b.ProductionEnd, nullIfEmpty(b.Notes), b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de batch %s ya existe", domain.ErrIntegrityViolation, b.Code)
		}
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// GetByID obtiene un batch por ID (nil si no existe).
func (r *ProductionBatchRepo) GetByID(id string) (*entity.ProductionBatch, error) {
	return r.get(`SELECT `+batchColumns+` FROM production_batches WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el batch y bloquea la fila para la transacción.
func (r *ProductionBatchRepo) GetByIDForUpdate(id string) (*entity.ProductionBatch, error) {
	return r.get(`SELECT `+batchColumns+` FROM production_batches WHERE id = $1 FOR UPDATE`, id)
}

func (r *ProductionBatchRepo) get(query string, arg any) (*entity.ProductionBatch, error) {
	var b entity.ProductionBatch
	var notes *string
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&b.ID, &b.Code, &b.IsLocked, &b.QAStatus, &b.BusinessDate,
		&b.ProductionStart, &b.ProductionEnd, &notes, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	if notes != nil {
		b.Notes = *notes
	}
	return &b, nil
}

// List lista batches, opcionalmente filtrados por estado de bloqueo.
func (r *ProductionBatchRepo) List(locked *bool, limit, offset int) ([]*entity.ProductionBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM production_batches`
	args := []any{}
	pos := 1
	if locked != nil {
		query += fmt.Sprintf(" WHERE is_locked = $%d", pos)
		args = append(args, *locked)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY code ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProductionBatch
	for rows.Next() {
		var b entity.ProductionBatch
		var notes *string
		if err := rows.Scan(&b.ID, &b.Code, &b.IsLocked, &b.QAStatus, &b.BusinessDate,
			&b.ProductionStart, &b.ProductionEnd, &notes, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		if notes != nil {
			b.Notes = *notes
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}

// Lock persiste el bloqueo de una sola vía: is_locked, veredicto QA y fechas
// de producción. Solo aplica sobre un batch aún desbloqueado.
func (r *ProductionBatchRepo) Lock(b *entity.ProductionBatch) error {
	query := `
		UPDATE production_batches
		SET is_locked = true, qa_status = $2, production_start = $3,
			production_end = $4, notes = $5, updated_at = now()
		WHERE id = $1 AND is_locked = false`
	tag, err := r.q.Exec(context.Background(), query,
		b.ID, b.QAStatus, b.ProductionStart, b.ProductionEnd, nullIfEmpty(b.Notes),
	)
	if err != nil {
		return fmt.Errorf("lock batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %s", domain.ErrBatchLocked, b.Code)
	}
	return nil
}

// Delete elimina la fila del batch (los hijos se eliminan antes, en la misma tx).
func (r *ProductionBatchRepo) Delete(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM production_batches WHERE id = $1 AND is_locked = false`, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %s", domain.ErrNotFound, id)
	}
	return nil
}

// ── Líneas de consumo ─────────────────────────────────────────────────────────

const materialColumns = `id, batch_id, lot_type, lot_id, lot_code, quantity, unit, created_at`

// AddMaterial persiste una línea de consumo.
func (r *ProductionBatchRepo) AddMaterial(m *entity.BatchMaterial) error {
	query := `
		INSERT INTO batch_materials (` + materialColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.BatchID, m.LotType, m.LotID, m.LotCode, m.Quantity, m.Unit, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add batch material: %w", err)
	}
	return nil
}

// GetMaterial obtiene una línea de consumo por ID (nil si no existe).
func (r *ProductionBatchRepo) GetMaterial(id string) (*entity.BatchMaterial, error) {
	var m entity.BatchMaterial
	err := r.q.QueryRow(context.Background(),
		`SELECT `+materialColumns+` FROM batch_materials WHERE id = $1`, id).Scan(
		&m.ID, &m.BatchID, &m.LotType, &m.LotID, &m.LotCode, &m.Quantity, &m.Unit, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch material: %w", err)
	}
	return &m, nil
}

// DeleteMaterial elimina una línea de consumo (el IN de reversa lo postea el caso de uso).
func (r *ProductionBatchRepo) DeleteMaterial(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM batch_materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: línea %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListMaterials lista las líneas de consumo de un batch.
func (r *ProductionBatchRepo) ListMaterials(batchID string) ([]*entity.BatchMaterial, error) {
	return r.listMaterials(`SELECT `+materialColumns+` FROM batch_materials WHERE batch_id = $1 ORDER BY created_at ASC`, batchID)
}

// ListMaterialsByLot lista las líneas de consumo de un lote en cualquier batch.
func (r *ProductionBatchRepo) ListMaterialsByLot(lotID string) ([]*entity.BatchMaterial, error) {
	return r.listMaterials(`SELECT `+materialColumns+` FROM batch_materials WHERE lot_id = $1 ORDER BY created_at ASC`, lotID)
}

func (r *ProductionBatchRepo) listMaterials(query string, arg any) ([]*entity.BatchMaterial, error) {
	rows, err := r.q.Query(context.Background(), query, arg)
	if err != nil {
		return nil, fmt.Errorf("list batch materials: %w", err)
	}
	defer rows.Close()
	var list []*entity.BatchMaterial
	for rows.Next() {
		var m entity.BatchMaterial
		if err := rows.Scan(&m.ID, &m.BatchID, &m.LotType, &m.LotID, &m.LotCode,
			&m.Quantity, &m.Unit, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch material: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ── Salidas declaradas ────────────────────────────────────────────────────────

const outputColumns = `id, batch_id, name, category_tag, quantity, unit, size_label, created_at`

// AddOutput persiste una salida declarada.
func (r *ProductionBatchRepo) AddOutput(o *entity.BatchOutput) error {
	query := `
		INSERT INTO batch_outputs (` + outputColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(context.Background(), query,
		o.ID, o.BatchID, o.Name, o.CategoryTag, o.Quantity, o.Unit,
		nullIfEmpty(o.SizeLabel), o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("add batch output: %w", err)
	}
	return nil
}

// GetOutput obtiene una salida por ID (nil si no existe).
func (r *ProductionBatchRepo) GetOutput(id string) (*entity.BatchOutput, error) {
	var o entity.BatchOutput
	var sizeLabel *string
	err := r.q.QueryRow(context.Background(),
		`SELECT `+outputColumns+` FROM batch_outputs WHERE id = $1`, id).Scan(
		&o.ID, &o.BatchID, &o.Name, &o.CategoryTag, &o.Quantity, &o.Unit, &sizeLabel, &o.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get batch output: %w", err)
	}
	if sizeLabel != nil {
		o.SizeLabel = *sizeLabel
	}
	return &o, nil
}

// UpdateOutput reemplaza los campos de una salida declarada.
func (r *ProductionBatchRepo) UpdateOutput(o *entity.BatchOutput) error {
	query := `
		UPDATE batch_outputs
		SET name = $2, category_tag = $3, quantity = $4, unit = $5, size_label = $6
		WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query,
		o.ID, o.Name, o.CategoryTag, o.Quantity, o.Unit, nullIfEmpty(o.SizeLabel),
	)
	if err != nil {
		return fmt.Errorf("update batch output: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: salida %s", domain.ErrNotFound, o.ID)
	}
	return nil
}

// DeleteOutput elimina una salida declarada.
func (r *ProductionBatchRepo) DeleteOutput(id string) error {
	tag, err := r.q.Exec(context.Background(), `DELETE FROM batch_outputs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch output: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: salida %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListOutputs lista las salidas declaradas de un batch.
func (r *ProductionBatchRepo) ListOutputs(batchID string) ([]*entity.BatchOutput, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+outputColumns+` FROM batch_outputs WHERE batch_id = $1 ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list batch outputs: %w", err)
	}
	defer rows.Close()
	var list []*entity.BatchOutput
	for rows.Next() {
		var o entity.BatchOutput
		var sizeLabel *string
		if err := rows.Scan(&o.ID, &o.BatchID, &o.Name, &o.CategoryTag,
			&o.Quantity, &o.Unit, &sizeLabel, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan batch output: %w", err)
		}
		if sizeLabel != nil {
			o.SizeLabel = *sizeLabel
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}
