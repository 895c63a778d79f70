package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.ProcessedGoodRepository = (*ProcessedGoodRepo)(nil)

// ProcessedGoodRepo implementación de productos procesados sobre PostgreSQL.
type ProcessedGoodRepo struct {
	q Querier
}

func NewProcessedGoodRepository(q Querier) *ProcessedGoodRepo {
	return &ProcessedGoodRepo{q: q}
}

const goodColumns = `id, batch_id, output_id, name, category_tag,
	quantity_created, quantity_available, unit, size_label, created_at`

// Create persiste un producto procesado materializado por el bloqueo.
func (r *ProcessedGoodRepo) Create(g *entity.ProcessedGood) error {
	query := `
		INSERT INTO processed_goods (` + goodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(context.Background(), query,
		g.ID, g.BatchID, g.OutputID, g.Name, g.CategoryTag,
		g.QuantityCreated, g.QuantityAvailable, g.Unit, nullIfEmpty(g.SizeLabel), g.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create processed good: %w", err)
	}
	return nil
}

// ListByBatch lista los productos procesados creados por un batch.
func (r *ProcessedGoodRepo) ListByBatch(batchID string) ([]*entity.ProcessedGood, error) {
	rows, err := r.q.Query(context.Background(),
		`SELECT `+goodColumns+` FROM processed_goods WHERE batch_id = $1 ORDER BY created_at ASC`, batchID)
	if err != nil {
		return nil, fmt.Errorf("list processed goods: %w", err)
	}
	defer rows.Close()
	var list []*entity.ProcessedGood
	for rows.Next() {
		var g entity.ProcessedGood
		var sizeLabel *string
		if err := rows.Scan(&g.ID, &g.BatchID, &g.OutputID, &g.Name, &g.CategoryTag,
			&g.QuantityCreated, &g.QuantityAvailable, &g.Unit, &sizeLabel, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan processed good: %w", err)
		}
		if sizeLabel != nil {
			g.SizeLabel = *sizeLabel
		}
		list = append(list, &g)
	}
	return list, rows.Err()
}
