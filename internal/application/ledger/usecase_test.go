package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appledger "github.com/jhoicas/Planta-api/internal/application/ledger"
	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/infrastructure/memory"
)

func newService(store *memory.Store) *appledger.Service {
	return appledger.NewService(store.Movements(), store.Lots(), memory.NewTxRunner(store), nil)
}

func seedLot(t *testing.T, store *memory.Store, id string) *entity.Lot {
	t.Helper()
	l := &entity.Lot{
		ID:       id,
		Code:     "LOT-RM-001",
		ItemType: entity.ItemTypeRawMaterial,
		Name:     "Harina de trigo",
		Unit:     "kg",
	}
	require.NoError(t, store.Lots().Create(l))
	return l
}

func movement(lot *entity.Lot, typ string, qty float64, effective time.Time) *entity.StockMovement {
	return &entity.StockMovement{
		ItemType:      lot.ItemType,
		ItemID:        lot.ID,
		LotCode:       lot.Code,
		Type:          typ,
		Quantity:      decimal.NewFromFloat(qty),
		Unit:          lot.Unit,
		EffectiveDate: effective,
	}
}

func TestPost_RegistraYRecalculaCache(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")

	err := svc.Post(context.Background(), movement(lot, entity.MovementIN, 100, time.Now()))
	require.NoError(t, err)

	got, err := store.Lots().GetByID(lot.ID)
	require.NoError(t, err)
	assert.True(t, got.QuantityAvailable.Equal(decimal.NewFromInt(100)),
		"el caché debe quedar igual al saldo del libro")

	err = svc.Post(context.Background(), movement(lot, entity.MovementWaste, 30, time.Now()))
	require.NoError(t, err)

	got, _ = store.Lots().GetByID(lot.ID)
	assert.True(t, got.QuantityAvailable.Equal(decimal.NewFromInt(70)))
}

func TestPost_RechazaCantidadNoPositiva(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")

	err := svc.Post(context.Background(), movement(lot, entity.MovementIN, 0, time.Now()))
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = svc.Post(context.Background(), movement(lot, entity.MovementIN, -5, time.Now()))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPost_RechazaTipoDesconocido(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")

	m := movement(lot, "OUT", 5, time.Now())
	err := svc.Post(context.Background(), m)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPost_EstampaIDYRecordedAt(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")

	m := movement(lot, entity.MovementIN, 10, time.Now())
	require.NoError(t, svc.Post(context.Background(), m))

	assert.NotEmpty(t, m.ID)
	assert.False(t, m.RecordedAt.IsZero())
	assert.Equal(t, 0, m.EffectiveDate.Hour(), "la fecha efectiva se trunca al día de negocio")
}

func TestBalance_FechaDeCorte(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")
	ctx := context.Background()

	jan10 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	jan20 := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, svc.Post(ctx, movement(lot, entity.MovementIN, 100, jan10)))
	require.NoError(t, svc.Post(ctx, movement(lot, entity.MovementConsumption, 25, jan20)))

	balance, err := svc.Balance(lot.ItemType, lot.ID, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))

	balance, err = svc.Balance(lot.ItemType, lot.ID, jan20)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(75)))
}

func TestRunningBalanceTrail_OrdenCanonico(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")
	ctx := context.Background()

	jan10 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	jan12 := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	// Se postea primero el movimiento más reciente: el trail debe reordenar.
	require.NoError(t, svc.Post(ctx, movement(lot, entity.MovementConsumption, 40, jan12)))
	require.NoError(t, svc.Post(ctx, movement(lot, entity.MovementIN, 100, jan10)))

	trail, err := svc.RunningBalanceTrail(lot.ItemType, lot.ID)
	require.NoError(t, err)
	require.Len(t, trail, 2)
	assert.Equal(t, entity.MovementIN, trail[0].Movement.Type)
	assert.True(t, trail[0].Balance.Equal(decimal.NewFromInt(100)))
	assert.True(t, trail[1].Balance.Equal(decimal.NewFromInt(60)))
}

func TestRecomputeAvailable_ReparaElCache(t *testing.T) {
	store := memory.NewStore()
	svc := newService(store)
	lot := seedLot(t, store, "lot-1")
	ctx := context.Background()

	require.NoError(t, svc.Post(ctx, movement(lot, entity.MovementIN, 50, time.Now())))
	// Corromper el caché a mano y verificar que el recálculo lo restaura.
	require.NoError(t, store.Lots().UpdateAvailable(lot.ID, decimal.NewFromInt(999)))

	require.NoError(t, svc.RecomputeAvailable(ctx, lot.ItemType, lot.ID))
	got, _ := store.Lots().GetByID(lot.ID)
	assert.True(t, got.QuantityAvailable.Equal(decimal.NewFromInt(50)))
}
