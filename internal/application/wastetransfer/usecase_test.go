package wastetransfer_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Planta-api/internal/application/dto"
	"github.com/jhoicas/Planta-api/internal/application/identifier"
	"github.com/jhoicas/Planta-api/internal/application/lot"
	"github.com/jhoicas/Planta-api/internal/application/wastetransfer"
	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/ledger"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
	"github.com/jhoicas/Planta-api/internal/infrastructure/memory"
)

type fixture struct {
	store *memory.Store
	uc    *wastetransfer.UseCase
	lots  *lot.UseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	alloc := identifier.NewAllocator(0)
	return &fixture{
		store: store,
		uc:    wastetransfer.NewUseCase(memory.NewTxRunner(store), alloc),
		lots:  lot.NewUseCase(memory.NewTxRunner(store), store.Lots(), store.WasteTransfers(), alloc, decimal.NewFromInt(1)),
	}
}

func (f *fixture) intake(t *testing.T, qty float64, unit string) *entity.Lot {
	t.Helper()
	l, err := f.lots.Intake(context.Background(), dto.IntakeLotRequest{
		ItemType: entity.ItemTypeRawMaterial,
		Name:     "Azúcar refinada",
		Unit:     unit,
		Quantity: decimal.NewFromFloat(qty),
	}, "user-1")
	require.NoError(t, err)
	return l
}

func (f *fixture) available(t *testing.T, lotID string) decimal.Decimal {
	t.Helper()
	l, err := f.store.Lots().GetByID(lotID)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l.QuantityAvailable
}

// ──────────────────────────────────────────────────────────────────────────────
// RecordWaste
// ──────────────────────────────────────────────────────────────────────────────

func TestRecordWaste_DescuentaYDejaAuditoria(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100, "kg")

	record, err := f.uc.RecordWaste(context.Background(), dto.RecordWasteRequest{
		LotID:    l.ID,
		Quantity: decimal.NewFromInt(12),
		Reason:   "derrame en línea 2",
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "WST-0001", record.Code)
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(88)))

	// Movimiento WASTE uno a uno con el registro.
	movs, err := f.store.Movements().ListByReference(entity.ReferenceWasteRecord, record.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementWaste, movs[0].Type)
	assert.True(t, movs[0].Quantity.Equal(decimal.NewFromInt(12)))

	wastes, err := f.store.WasteTransfers().ListWasteByLot(l.ID)
	require.NoError(t, err)
	require.Len(t, wastes, 1)
	assert.Equal(t, "derrame en línea 2", wastes[0].Reason)
}

func TestRecordWaste_ExcedeSaldoNoPersisteNada(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 10, "kg")

	_, err := f.uc.RecordWaste(context.Background(), dto.RecordWasteRequest{
		LotID:    l.ID,
		Quantity: decimal.NewFromInt(11),
		Reason:   "conteo físico",
	}, "user-1")
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	// El saldo valida antes de escribir: ni registro ni movimiento.
	wastes, _ := f.store.WasteTransfers().ListWasteByLot(l.ID)
	assert.Empty(t, wastes)
	movs, _ := f.store.Movements().ListByItem(l.ItemType, l.ID, nil, nil)
	assert.Len(t, movs, 1, "solo el IN inicial")
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(10)))
}

func TestRecordWaste_Validaciones(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 10, "kg")
	ctx := context.Background()

	_, err := f.uc.RecordWaste(ctx, dto.RecordWasteRequest{LotID: l.ID, Quantity: decimal.Zero, Reason: "x"}, "user-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.uc.RecordWaste(ctx, dto.RecordWasteRequest{LotID: l.ID, Quantity: decimal.NewFromInt(1)}, "user-1")
	assert.ErrorIs(t, err, domain.ErrValidation, "la razón es obligatoria")

	_, err = f.uc.RecordWaste(ctx, dto.RecordWasteRequest{LotID: "no-such", Quantity: decimal.NewFromInt(1), Reason: "x"}, "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRecordWaste_FechaEfectivaRetroactiva(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100, "kg")

	// La merma se descubre hoy pero pertenece a un día anterior al intake:
	// a esa fecha no había saldo.
	before := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := f.uc.RecordWaste(context.Background(), dto.RecordWasteRequest{
		LotID:         l.ID,
		Quantity:      decimal.NewFromInt(5),
		Reason:        "ajuste histórico",
		EffectiveDate: &before,
	}, "user-1")
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity,
		"el saldo se valida a la fecha efectiva, no a hoy")
}

// ──────────────────────────────────────────────────────────────────────────────
// TransferBetweenLots
// ──────────────────────────────────────────────────────────────────────────────

func TestTransfer_MueveSaldoYParMovimientos(t *testing.T) {
	f := newFixture()
	from := f.intake(t, 100, "kg")
	to := f.intake(t, 20, "kg")

	record, err := f.uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: from.ID,
		ToLotID:   to.ID,
		Quantity:  decimal.NewFromInt(30),
		Reason:    "reempaque",
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, "TRF-0001", record.Code)
	assert.True(t, f.available(t, from.ID).Equal(decimal.NewFromInt(70)))
	assert.True(t, f.available(t, to.ID).Equal(decimal.NewFromInt(50)))

	// Ambos movimientos comparten el registro como referencia.
	movs, err := f.store.Movements().ListByReference(entity.ReferenceTransferRecord, record.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementTransferOut, movs[0].Type)
	assert.Equal(t, entity.MovementTransferIn, movs[1].Type)
	assert.True(t, movs[0].RecordedAt.Before(movs[1].RecordedAt),
		"el OUT se registra estrictamente antes que el IN")
}

func TestTransfer_ReplayCronologicoConservaElOrden(t *testing.T) {
	f := newFixture()
	from := f.intake(t, 50, "kg")
	to := f.intake(t, 0.5, "kg")

	_, err := f.uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: from.ID,
		ToLotID:   to.ID,
		Quantity:  decimal.NewFromInt(10),
	}, "user-1")
	require.NoError(t, err)

	movs, err := f.store.Movements().ListByItem(from.ItemType, from.ID, nil, nil)
	require.NoError(t, err)
	trail, err := ledger.RunningTrail(movs)
	require.NoError(t, err)
	// El saldo del origen nunca pasa por un estado imposible.
	for _, e := range trail {
		assert.False(t, e.Balance.IsNegative(), "saldo negativo en el replay: %s", e.Balance)
	}
}

func TestTransfer_MismoLoteEsViolacionDeIntegridad(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 50, "kg")

	_, err := f.uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: l.ID,
		ToLotID:   l.ID,
		Quantity:  decimal.NewFromInt(1),
	}, "user-1")
	assert.ErrorIs(t, err, domain.ErrIntegrityViolation)
}

func TestTransfer_UnidadesDistintas(t *testing.T) {
	f := newFixture()
	from := f.intake(t, 50, "kg")
	to := f.intake(t, 50, "l")

	_, err := f.uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: from.ID,
		ToLotID:   to.ID,
		Quantity:  decimal.NewFromInt(1),
	}, "user-1")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestTransfer_ExcedeSaldoDelOrigen(t *testing.T) {
	f := newFixture()
	from := f.intake(t, 5, "kg")
	to := f.intake(t, 5, "kg")

	_, err := f.uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: from.ID,
		ToLotID:   to.ID,
		Quantity:  decimal.NewFromInt(6),
	}, "user-1")
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	assert.True(t, f.available(t, from.ID).Equal(decimal.NewFromInt(5)))
	assert.True(t, f.available(t, to.ID).Equal(decimal.NewFromInt(5)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Serialización de escritores en un traslado
// ──────────────────────────────────────────────────────────────────────────────

// lockingLotRepo envuelve el repo de lotes y anota cada fila tomada FOR UPDATE.
type lockingLotRepo struct {
	repository.LotRepository
	locked []string
}

func (r *lockingLotRepo) GetByIDForUpdate(id string) (*entity.Lot, error) {
	r.locked = append(r.locked, id)
	return r.LotRepository.GetByIDForUpdate(id)
}

// instrumentedRunner corre el comando contra el store inyectando el repo de
// lotes instrumentado.
type instrumentedRunner struct {
	store *memory.Store
	lots  *lockingLotRepo
}

func (tr *instrumentedRunner) RunWasteTransfer(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	movRepo repository.StockMovementRepository,
	wtRepo repository.WasteTransferRepository,
	seqRepo repository.SequenceRepository,
) error) error {
	return fn(tr.lots, tr.store.Movements(), tr.store.WasteTransfers(), tr.store.Sequences())
}

func TestTransfer_BloqueaAmbosLotesEnOrdenDeterminista(t *testing.T) {
	f := newFixture()
	a := f.intake(t, 50, "kg")
	b := f.intake(t, 50, "kg")

	lots := &lockingLotRepo{LotRepository: f.store.Lots()}
	uc := wastetransfer.NewUseCase(&instrumentedRunner{store: f.store, lots: lots}, identifier.NewAllocator(0))

	// El destino también se bloquea: su caché se sobreescribe en esta
	// transacción y otro escritor concurrente sobre él lo dejaría desfasado.
	_, err := uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: a.ID,
		ToLotID:   b.ID,
		Quantity:  decimal.NewFromInt(5),
	}, "user-1")
	require.NoError(t, err)
	firstOrder := append([]string(nil), lots.locked...)
	require.Len(t, firstOrder, 2, "origen y destino se toman FOR UPDATE")
	assert.ElementsMatch(t, []string{a.ID, b.ID}, firstOrder)

	// La dirección opuesta adquiere los locks en la misma secuencia, así dos
	// traslados cruzados no se interbloquean.
	lots.locked = nil
	_, err = uc.TransferBetweenLots(context.Background(), dto.TransferRequest{
		FromLotID: b.ID,
		ToLotID:   a.ID,
		Quantity:  decimal.NewFromInt(5),
	}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, firstOrder, lots.locked)
}
