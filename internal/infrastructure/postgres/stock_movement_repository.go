package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del libro de movimientos sobre PostgreSQL
// (usable con pool o tx). La tabla es append-only: este adaptador no expone
// UPDATE ni DELETE.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, item_type, item_id, lot_code, type, quantity, unit,
	effective_date, recorded_at, reference_id, reference_type, created_by`

// Create persiste un movimiento de stock.
func (r *StockMovementRepo) Create(m *entity.StockMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	createdBy := (*string)(nil)
	if m.CreatedBy != "" {
		createdBy = &m.CreatedBy
	}
	_, err := r.q.Exec(context.Background(), query,
		m.ID, m.ItemType, m.ItemID, m.LotCode, m.Type, m.Quantity, m.Unit,
		m.EffectiveDate, m.RecordedAt, m.ReferenceID, m.ReferenceType, createdBy,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// ListByItem lista los movimientos de un ítem en orden canónico
// (effective_date asc, recorded_at asc), acotados por fechas si se pasan.
func (r *StockMovementRepo) ListByItem(itemType, itemID string, from, to *time.Time) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE item_type = $1 AND item_id = $2`
	args := []any{itemType, itemID}
	pos := 3
	if from != nil {
		query += fmt.Sprintf(" AND effective_date >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND effective_date <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += " ORDER BY effective_date ASC, recorded_at ASC"
	return r.list(query, args...)
}

// ListByReference lista los movimientos causados por una entidad, en orden canónico.
func (r *StockMovementRepo) ListByReference(referenceType, referenceID string) ([]*entity.StockMovement, error) {
	query := `
		SELECT ` + movementColumns + `
		FROM stock_movements WHERE reference_type = $1 AND reference_id = $2
		ORDER BY effective_date ASC, recorded_at ASC`
	return r.list(query, referenceType, referenceID)
}

func (r *StockMovementRepo) list(query string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		var createdBy *string
		if err := rows.Scan(&m.ID, &m.ItemType, &m.ItemID, &m.LotCode, &m.Type,
			&m.Quantity, &m.Unit, &m.EffectiveDate, &m.RecordedAt,
			&m.ReferenceID, &m.ReferenceType, &createdBy); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		if createdBy != nil {
			m.CreatedBy = *createdBy
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
