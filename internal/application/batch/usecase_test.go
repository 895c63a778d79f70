package batch_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Planta-api/internal/application/batch"
	"github.com/jhoicas/Planta-api/internal/application/dto"
	"github.com/jhoicas/Planta-api/internal/application/identifier"
	"github.com/jhoicas/Planta-api/internal/application/lot"
	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/domain/ledger"
	"github.com/jhoicas/Planta-api/internal/infrastructure/memory"
)

type fixture struct {
	store *memory.Store
	uc    *batch.UseCase
	lots  *lot.UseCase
}

func newFixture() *fixture {
	store := memory.NewStore()
	alloc := identifier.NewAllocator(0)
	return &fixture{
		store: store,
		uc:    batch.NewUseCase(memory.NewTxRunner(store), store.Batches(), store.Goods(), alloc),
		lots:  lot.NewUseCase(memory.NewTxRunner(store), store.Lots(), store.WasteTransfers(), alloc, decimal.NewFromInt(1)),
	}
}

func (f *fixture) intake(t *testing.T, qty float64) *entity.Lot {
	t.Helper()
	l, err := f.lots.Intake(context.Background(), dto.IntakeLotRequest{
		ItemType: entity.ItemTypeRawMaterial,
		Name:     "Cacao en grano",
		Unit:     "kg",
		Quantity: decimal.NewFromFloat(qty),
	}, "user-1")
	require.NoError(t, err)
	return l
}

func (f *fixture) draft(t *testing.T) *entity.ProductionBatch {
	t.Helper()
	b, err := f.uc.Create(context.Background(), dto.CreateBatchRequest{})
	require.NoError(t, err)
	return b
}

func (f *fixture) consume(t *testing.T, b *entity.ProductionBatch, l *entity.Lot, qty float64) *entity.BatchMaterial {
	t.Helper()
	line, err := f.uc.AddConsumedMaterial(context.Background(), b.ID, dto.AddMaterialRequest{
		LotID:    l.ID,
		Quantity: decimal.NewFromFloat(qty),
	}, "user-1")
	require.NoError(t, err)
	return line
}

func (f *fixture) declare(t *testing.T, b *entity.ProductionBatch, name string, qty float64) *entity.BatchOutput {
	t.Helper()
	out, err := f.uc.DeclareOutput(context.Background(), b.ID, dto.OutputRequest{
		Name:        name,
		CategoryTag: "chocolate",
		Quantity:    decimal.NewFromFloat(qty),
		Unit:        "und",
	})
	require.NoError(t, err)
	return out
}

func (f *fixture) available(t *testing.T, lotID string) decimal.Decimal {
	t.Helper()
	l, err := f.store.Lots().GetByID(lotID)
	require.NoError(t, err)
	require.NotNil(t, l)
	return l.QuantityAvailable
}

// ──────────────────────────────────────────────────────────────────────────────
// Creación y consumo
// ──────────────────────────────────────────────────────────────────────────────

func TestCreate_BorradorConCodigoYQAPending(t *testing.T) {
	f := newFixture()
	b := f.draft(t)

	assert.Equal(t, "BATCH-0001", b.Code)
	assert.False(t, b.IsLocked)
	assert.Equal(t, entity.QAPending, b.QAStatus)
}

func TestAddConsumedMaterial_PosteaCONSUMPTIONYActualizaCache(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)

	line := f.consume(t, b, l, 40)

	assert.Equal(t, l.Code, line.LotCode)
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(60)))

	movs, err := f.store.Movements().ListByReference(entity.ReferenceProductionBatch, b.ID)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovementConsumption, movs[0].Type)
	assert.Equal(t, ledger.Day(b.BusinessDate), movs[0].EffectiveDate,
		"el consumo se fecha a la fecha de negocio del batch")
}

func TestAddConsumedMaterial_ExcedeSaldo(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 10)
	b := f.draft(t)

	_, err := f.uc.AddConsumedMaterial(context.Background(), b.ID, dto.AddMaterialRequest{
		LotID:    l.ID,
		Quantity: decimal.NewFromInt(11),
	}, "user-1")
	require.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(10)))
}

func TestRemoveConsumedMaterial_ReversaSinTocarElOriginal(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)
	line := f.consume(t, b, l, 40)

	require.NoError(t, f.uc.RemoveConsumedMaterial(context.Background(), b.ID, line.ID, "user-1"))

	// El caché vuelve al valor pleno.
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(100)))

	// El libro conserva el CONSUMPTION original más el IN de reversa.
	movs, err := f.store.Movements().ListByReference(entity.ReferenceProductionBatch, b.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovementConsumption, movs[0].Type)
	assert.Equal(t, entity.MovementIN, movs[1].Type)

	// Y la línea desapareció del batch.
	_, materials, _, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	assert.Empty(t, materials)
}

// ──────────────────────────────────────────────────────────────────────────────
// Bloqueo con veredicto QA
// ──────────────────────────────────────────────────────────────────────────────

func TestLock_ApprovedMaterializaProductos(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)
	f.consume(t, b, l, 60)
	out := f.declare(t, b, "Tableta 70%", 500)

	goods, err := f.uc.Lock(context.Background(), b.ID, dto.LockBatchRequest{
		QAStatus: entity.QAApproved,
	})
	require.NoError(t, err)
	require.Len(t, goods, 1)
	assert.Equal(t, out.ID, goods[0].OutputID)
	assert.True(t, goods[0].QuantityCreated.Equal(decimal.NewFromInt(500)))
	assert.True(t, goods[0].QuantityAvailable.Equal(decimal.NewFromInt(500)))

	locked, _, _, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked)
	assert.Equal(t, entity.QAApproved, locked.QAStatus)

	// El consumo del lote sobrevive al bloqueo.
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(40)))
}

func TestLock_RejectedNoCreaProductos(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	f.declare(t, b, "Tableta 70%", 500)

	goods, err := f.uc.Lock(context.Background(), b.ID, dto.LockBatchRequest{
		QAStatus: entity.QARejected,
	})
	require.NoError(t, err)
	assert.Empty(t, goods)

	stored, err := f.uc.ProcessedGoods(b.ID)
	require.NoError(t, err)
	assert.Empty(t, stored, "un batch rechazado no materializa inventario")

	locked, _, _, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	assert.True(t, locked.IsLocked, "rejected también bloquea")
}

func TestLock_PendingYHoldSeRechazan(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	f.declare(t, b, "Tableta 70%", 500)
	ctx := context.Background()

	_, err := f.uc.Lock(ctx, b.ID, dto.LockBatchRequest{QAStatus: entity.QAPending})
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = f.uc.Lock(ctx, b.ID, dto.LockBatchRequest{QAStatus: entity.QAHold})
	assert.ErrorIs(t, err, domain.ErrInvalidState, "hold es válido pero no bloqueable")

	draft, _, _, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	assert.False(t, draft.IsLocked)
}

func TestLock_SinSalidasSeRechaza(t *testing.T) {
	f := newFixture()
	b := f.draft(t)

	_, err := f.uc.Lock(context.Background(), b.ID, dto.LockBatchRequest{QAStatus: entity.QAApproved})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLock_SalidaIncompletaSeRechaza(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	// Declarada sin categoría: válida en borrador, insuficiente para bloquear.
	_, err := f.uc.DeclareOutput(context.Background(), b.ID, dto.OutputRequest{
		Name:     "Tableta 70%",
		Quantity: decimal.NewFromInt(10),
		Unit:     "und",
	})
	require.NoError(t, err)

	_, err = f.uc.Lock(context.Background(), b.ID, dto.LockBatchRequest{QAStatus: entity.QAApproved})
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestLock_EsDeUnaSolaVia(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	f.declare(t, b, "Tableta 70%", 10)
	ctx := context.Background()

	_, err := f.uc.Lock(ctx, b.ID, dto.LockBatchRequest{QAStatus: entity.QAApproved})
	require.NoError(t, err)

	_, err = f.uc.Lock(ctx, b.ID, dto.LockBatchRequest{QAStatus: entity.QARejected})
	assert.ErrorIs(t, err, domain.ErrBatchLocked, "no hay segundo veredicto")
}

// ──────────────────────────────────────────────────────────────────────────────
// Inmutabilidad del batch bloqueado
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchBloqueado_TodaMutacionFalla(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)
	line := f.consume(t, b, l, 10)
	out := f.declare(t, b, "Tableta 70%", 10)
	ctx := context.Background()

	_, err := f.uc.Lock(ctx, b.ID, dto.LockBatchRequest{QAStatus: entity.QAApproved})
	require.NoError(t, err)

	_, err = f.uc.AddConsumedMaterial(ctx, b.ID, dto.AddMaterialRequest{LotID: l.ID, Quantity: decimal.NewFromInt(1)}, "user-1")
	assert.ErrorIs(t, err, domain.ErrBatchLocked)

	err = f.uc.RemoveConsumedMaterial(ctx, b.ID, line.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrBatchLocked)

	_, err = f.uc.DeclareOutput(ctx, b.ID, dto.OutputRequest{Name: "x", CategoryTag: "c", Quantity: decimal.NewFromInt(1), Unit: "und"})
	assert.ErrorIs(t, err, domain.ErrBatchLocked)

	_, err = f.uc.UpdateOutput(ctx, b.ID, out.ID, dto.OutputRequest{Name: "x", CategoryTag: "c", Quantity: decimal.NewFromInt(1), Unit: "und"})
	assert.ErrorIs(t, err, domain.ErrBatchLocked)

	err = f.uc.RemoveOutput(ctx, b.ID, out.ID)
	assert.ErrorIs(t, err, domain.ErrBatchLocked)

	err = f.uc.Delete(ctx, b.ID, "user-1")
	assert.ErrorIs(t, err, domain.ErrBatchLocked, "un batch bloqueado nunca se borra")
}

func TestRemoveConsumedMaterial_ReversaDespuesDelUltimoMovimientoDelBatch(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)
	line := f.consume(t, b, l, 40)

	// Un consumo del mismo batch registrado por un reloj adelantado: la
	// reversa debe quedar estrictamente después de él, no en el time.Now()
	// local, o el replay cronológico dependería del orden de inserción.
	ahead := time.Now().Add(time.Hour)
	require.NoError(t, f.store.Movements().Create(&entity.StockMovement{
		ID:            "mov-reloj-adelantado",
		ItemType:      l.ItemType,
		ItemID:        l.ID,
		LotCode:       l.Code,
		Type:          entity.MovementConsumption,
		Quantity:      decimal.NewFromInt(5),
		Unit:          l.Unit,
		EffectiveDate: ledger.Day(b.BusinessDate),
		RecordedAt:    ahead,
		ReferenceID:   b.ID,
		ReferenceType: entity.ReferenceProductionBatch,
		CreatedBy:     "user-2",
	}))

	require.NoError(t, f.uc.RemoveConsumedMaterial(context.Background(), b.ID, line.ID, "user-1"))

	movs, err := f.store.Movements().ListByReference(entity.ReferenceProductionBatch, b.ID)
	require.NoError(t, err)
	require.Len(t, movs, 3)
	reversal := movs[2]
	require.Equal(t, entity.MovementIN, reversal.Type)
	assert.True(t, reversal.RecordedAt.After(ahead),
		"la reversa se registra después del último movimiento del batch")

	// El recálculo incluye el consumo adelantado: 100 - 40 - 5 + 40.
	assert.True(t, f.available(t, l.ID).Equal(decimal.NewFromInt(95)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Borrado de borrador
// ──────────────────────────────────────────────────────────────────────────────

func TestDelete_BorradorReversaTodosLosConsumos(t *testing.T) {
	f := newFixture()
	l1 := f.intake(t, 100)
	l2 := f.intake(t, 50)
	b := f.draft(t)
	f.consume(t, b, l1, 30)
	f.consume(t, b, l2, 20)
	f.declare(t, b, "Tableta 70%", 10)

	require.NoError(t, f.uc.Delete(context.Background(), b.ID, "user-1"))

	// Los saldos vuelven al valor previo al batch.
	assert.True(t, f.available(t, l1.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, f.available(t, l2.ID).Equal(decimal.NewFromInt(50)))

	// El libro conserva consumos y reversas del batch borrado.
	movs, err := f.store.Movements().ListByReference(entity.ReferenceProductionBatch, b.ID)
	require.NoError(t, err)
	assert.Len(t, movs, 4, "dos CONSUMPTION y dos IN de reversa")

	_, _, _, err = f.uc.Get(b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Salidas declaradas
// ──────────────────────────────────────────────────────────────────────────────

func TestDeclareOutput_FormaLibreEnBorrador(t *testing.T) {
	f := newFixture()
	b := f.draft(t)

	// Sin nombre ni unidad: aceptado mientras el batch siga en borrador.
	out, err := f.uc.DeclareOutput(context.Background(), b.ID, dto.OutputRequest{})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ID)

	// Cantidad negativa no tiene lectura posible, ni en borrador.
	_, err = f.uc.DeclareOutput(context.Background(), b.ID, dto.OutputRequest{
		Quantity: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateOutput_YRemoveOutput(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	out := f.declare(t, b, "Tableta 70%", 10)
	ctx := context.Background()

	updated, err := f.uc.UpdateOutput(ctx, b.ID, out.ID, dto.OutputRequest{
		Name:        "Tableta 85%",
		CategoryTag: "chocolate",
		Quantity:    decimal.NewFromInt(12),
		Unit:        "und",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tableta 85%", updated.Name)

	require.NoError(t, f.uc.RemoveOutput(ctx, b.ID, out.ID))
	_, _, outputs, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consultas
// ──────────────────────────────────────────────────────────────────────────────

func TestBatchUsage_DevuelveBatchesQueConsumieronElLote(t *testing.T) {
	f := newFixture()
	l := f.intake(t, 100)
	b := f.draft(t)
	line := f.consume(t, b, l, 25)
	f.declare(t, b, "Tableta 70%", 10)

	usage, err := f.uc.BatchUsage(l.ID)
	require.NoError(t, err)
	require.Len(t, usage, 1)
	assert.Equal(t, b.Code, usage[0].BatchCode)
	assert.Equal(t, line.ID, usage[0].Material.ID)
	require.Len(t, usage[0].Outputs, 1)
}

func TestList_FiltraPorEstadoDeBloqueo(t *testing.T) {
	f := newFixture()
	b1 := f.draft(t)
	f.declare(t, b1, "Tableta 70%", 10)
	_ = f.draft(t)
	_, err := f.uc.Lock(context.Background(), b1.ID, dto.LockBatchRequest{QAStatus: entity.QAApproved})
	require.NoError(t, err)

	locked := true
	list, err := f.uc.List(&locked, 50, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, b1.ID, list[0].ID)

	unlocked := false
	list, err = f.uc.List(&unlocked, 50, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLock_GuardaVentanaDeProduccion(t *testing.T) {
	f := newFixture()
	b := f.draft(t)
	f.declare(t, b, "Tableta 70%", 10)

	start := time.Date(2026, 5, 2, 6, 0, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	_, err := f.uc.Lock(context.Background(), b.ID, dto.LockBatchRequest{
		QAStatus:        entity.QAApproved,
		ProductionStart: &start,
		ProductionEnd:   &end,
	})
	require.NoError(t, err)

	locked, _, _, err := f.uc.Get(b.ID)
	require.NoError(t, err)
	require.NotNil(t, locked.ProductionStart)
	require.NotNil(t, locked.ProductionEnd)
	assert.True(t, locked.ProductionStart.Equal(start))
	assert.True(t, locked.ProductionEnd.Equal(end))
}
