// Package ledger contiene la aritmética pura del libro de movimientos
// (servicio de dominio): contribución con signo por tipo de movimiento,
// saldo a una fecha de corte y saldo acumulado fila a fila.
package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// Direction devuelve el signo de la contribución de un tipo de movimiento:
// +1 para IN y TRANSFER_IN, -1 para CONSUMPTION, WASTE y TRANSFER_OUT.
// Un tipo desconocido es un defecto, no un cero silencioso.
func Direction(movementType string) (int, error) {
	switch movementType {
	case entity.MovementIN, entity.MovementTransferIn:
		return 1, nil
	case entity.MovementConsumption, entity.MovementWaste, entity.MovementTransferOut:
		return -1, nil
	default:
		return 0, fmt.Errorf("%w: tipo de movimiento desconocido %q", domain.ErrValidation, movementType)
	}
}

// SignedQuantity devuelve la cantidad del movimiento con su signo aplicado.
func SignedQuantity(m *entity.StockMovement) (decimal.Decimal, error) {
	dir, err := Direction(m.Type)
	if err != nil {
		return decimal.Zero, err
	}
	if dir < 0 {
		return m.Quantity.Neg(), nil
	}
	return m.Quantity, nil
}

// Day trunca un instante a su fecha de negocio (medianoche UTC). Todas las
// comparaciones de EffectiveDate del libro pasan por aquí.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// BalanceAsOf suma las contribuciones con signo de los movimientos cuya
// fecha efectiva es menor o igual a la fecha de corte.
func BalanceAsOf(movements []*entity.StockMovement, asOf time.Time) (decimal.Decimal, error) {
	cutoff := Day(asOf)
	total := decimal.Zero
	for _, m := range movements {
		if Day(m.EffectiveDate).After(cutoff) {
			continue
		}
		signed, err := SignedQuantity(m)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(signed)
	}
	return total, nil
}

// TrailEntry es una fila del historial con el saldo acumulado hasta ella.
type TrailEntry struct {
	Movement *entity.StockMovement
	Balance  decimal.Decimal
}

// RunningTrail pliega el historial en orden canónico acumulando el saldo
// fila a fila. Los movimientos deben venir ya ordenados (ver SortChronological).
func RunningTrail(movements []*entity.StockMovement) ([]TrailEntry, error) {
	trail := make([]TrailEntry, 0, len(movements))
	balance := decimal.Zero
	for _, m := range movements {
		signed, err := SignedQuantity(m)
		if err != nil {
			return nil, err
		}
		balance = balance.Add(signed)
		trail = append(trail, TrailEntry{Movement: m, Balance: balance})
	}
	return trail, nil
}

// SortChronological ordena en sitio por (EffectiveDate asc, RecordedAt asc),
// el orden canónico para reconstrucción de saldos y auditoría. RecordedAt
// solo desempata dentro de un mismo día de negocio.
func SortChronological(movements []*entity.StockMovement) {
	sort.SliceStable(movements, func(i, j int) bool {
		di, dj := Day(movements[i].EffectiveDate), Day(movements[j].EffectiveDate)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return movements[i].RecordedAt.Before(movements[j].RecordedAt)
	})
}
