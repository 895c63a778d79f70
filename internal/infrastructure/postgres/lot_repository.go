package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación de LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const lotColumns = `id, code, item_type, name, unit, quantity_received,
	quantity_available, intake_date, supplier_ref, archived, created_at, updated_at`

// Create persiste un lote nuevo. El código lleva índice único; una colisión
// (carrera perdida del asignador) se reporta como violación de integridad.
func (r *LotRepo) Create(l *entity.Lot) error {
	query := `
		INSERT INTO lots (` + lotColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(context.Background(), query,
		l.ID, l.Code, l.ItemType, l.Name, l.Unit, l.QuantityReceived,
		l.QuantityAvailable, l.IntakeDate, nullIfEmpty(l.SupplierRef),
		l.Archived, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: código de lote %s ya existe", domain.ErrIntegrityViolation, l.Code)
		}
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetByID obtiene un lote por ID (nil si no existe).
func (r *LotRepo) GetByID(id string) (*entity.Lot, error) {
	return r.get(`SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetByIDForUpdate obtiene el lote y bloquea la fila (SELECT FOR UPDATE)
// para serializar escritores por lote dentro de la transacción.
func (r *LotRepo) GetByIDForUpdate(id string) (*entity.Lot, error) {
	return r.get(`SELECT `+lotColumns+` FROM lots WHERE id = $1 FOR UPDATE`, id)
}

// GetByCode obtiene un lote por su código legible.
func (r *LotRepo) GetByCode(code string) (*entity.Lot, error) {
	return r.get(`SELECT `+lotColumns+` FROM lots WHERE code = $1`, code)
}

func (r *LotRepo) get(query string, arg any) (*entity.Lot, error) {
	var l entity.Lot
	var supplierRef *string
	err := r.q.QueryRow(context.Background(), query, arg).Scan(
		&l.ID, &l.Code, &l.ItemType, &l.Name, &l.Unit, &l.QuantityReceived,
		&l.QuantityAvailable, &l.IntakeDate, &supplierRef, &l.Archived,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	if supplierRef != nil {
		l.SupplierRef = *supplierRef
	}
	return &l, nil
}

// List lista lotes, opcionalmente filtrados por tipo; excluye archivados
// salvo que se pidan.
func (r *LotRepo) List(itemType string, includeArchived bool, limit, offset int) ([]*entity.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE 1=1`
	args := []any{}
	pos := 1
	if itemType != "" {
		query += fmt.Sprintf(" AND item_type = $%d", pos)
		args = append(args, itemType)
		pos++
	}
	if !includeArchived {
		query += " AND archived = false"
	}
	query += fmt.Sprintf(" ORDER BY code ASC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		var l entity.Lot
		var supplierRef *string
		if err := rows.Scan(&l.ID, &l.Code, &l.ItemType, &l.Name, &l.Unit,
			&l.QuantityReceived, &l.QuantityAvailable, &l.IntakeDate,
			&supplierRef, &l.Archived, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		if supplierRef != nil {
			l.SupplierRef = *supplierRef
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

// UpdateAvailable sobreescribe el caché quantity_available con el saldo
// recalculado desde el libro.
func (r *LotRepo) UpdateAvailable(id string, available decimal.Decimal) error {
	query := `UPDATE lots SET quantity_available = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, available)
	if err != nil {
		return fmt.Errorf("update lot available: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return nil
}

// SetArchived marca o desmarca el lote como archivado.
func (r *LotRepo) SetArchived(id string, archived bool) error {
	query := `UPDATE lots SET archived = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(context.Background(), query, id, archived)
	if err != nil {
		return fmt.Errorf("set lot archived: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: lote %s", domain.ErrNotFound, id)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
