package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

var _ repository.SequenceRepository = (*SequenceRepo)(nil)

// SequenceRepo implementación del puerto de reserva de códigos sobre la tabla
// allocated_codes. Cada código reservado es una fila con clave primaria code;
// el UNIQUE de la tabla es lo que arbitra las carreras entre transacciones.
type SequenceRepo struct {
	q Querier
}

func NewSequenceRepository(q Querier) *SequenceRepo {
	return &SequenceRepo{q: q}
}

// MaxSuffix devuelve el mayor sufijo numérico reservado bajo un prefijo.
// El sufijo es todo lo que sigue al prefijo; los códigos van siempre
// cero-rellenados así que el CAST nunca falla sobre filas propias.
func (r *SequenceRepo) MaxSuffix(prefix string) (int, error) {
	var max int
	query := `
		SELECT COALESCE(MAX(CAST(SUBSTRING(code FROM char_length($1) + 1) AS INTEGER)), 0)
		FROM allocated_codes
		WHERE code LIKE $1 || '%'`
	if err := r.q.QueryRow(context.Background(), query, prefix).Scan(&max); err != nil {
		return 0, fmt.Errorf("max suffix for %s: %w", prefix, err)
	}
	return max, nil
}

// Reserve intenta reservar un código. Devuelve false sin error cuando otra
// transacción ya lo reservó (ON CONFLICT DO NOTHING no afecta filas).
func (r *SequenceRepo) Reserve(code string) (bool, error) {
	tag, err := r.q.Exec(context.Background(),
		`INSERT INTO allocated_codes (code, reserved_at) VALUES ($1, now()) ON CONFLICT (code) DO NOTHING`, code)
	if err != nil {
		return false, fmt.Errorf("reserve code %s: %w", code, err)
	}
	return tag.RowsAffected() > 0, nil
}
