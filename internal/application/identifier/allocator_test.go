package identifier_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Planta-api/internal/application/identifier"
	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
	"github.com/jhoicas/Planta-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Format / LotCategory
// ──────────────────────────────────────────────────────────────────────────────

func TestFormat_PrefijoYAnchoPorCategoria(t *testing.T) {
	assert.Equal(t, "LOT-RM-007", identifier.Format(identifier.CategoryLotRawMaterial, 7))
	assert.Equal(t, "LOT-RP-012", identifier.Format(identifier.CategoryLotRecurringProduct, 12))
	assert.Equal(t, "BATCH-0001", identifier.Format(identifier.CategoryBatch, 1))
	assert.Equal(t, "WST-0003", identifier.Format(identifier.CategoryWaste, 3))
	assert.Equal(t, "TRF-0042", identifier.Format(identifier.CategoryTransfer, 42))
}

func TestFormat_SufijoCreceMasAllaDelAncho(t *testing.T) {
	assert.Equal(t, "LOT-RM-1000", identifier.Format(identifier.CategoryLotRawMaterial, 1000))
}

func TestLotCategory_PorTipoDeItem(t *testing.T) {
	assert.Equal(t, identifier.CategoryLotRawMaterial, identifier.LotCategory(entity.ItemTypeRawMaterial))
	assert.Equal(t, identifier.CategoryLotRecurringProduct, identifier.LotCategory(entity.ItemTypeRecurringProduct))
}

// ──────────────────────────────────────────────────────────────────────────────
// Allocate
// ──────────────────────────────────────────────────────────────────────────────

func TestAllocate_Secuencial(t *testing.T) {
	seq := memory.NewStore().Sequences()
	alloc := identifier.NewAllocator(0)

	first, err := alloc.Allocate(seq, identifier.CategoryBatch)
	require.NoError(t, err)
	assert.Equal(t, "BATCH-0001", first)

	second, err := alloc.Allocate(seq, identifier.CategoryBatch)
	require.NoError(t, err)
	assert.Equal(t, "BATCH-0002", second)
}

func TestAllocate_CategoriasIndependientes(t *testing.T) {
	seq := memory.NewStore().Sequences()
	alloc := identifier.NewAllocator(0)

	batch, err := alloc.Allocate(seq, identifier.CategoryBatch)
	require.NoError(t, err)
	waste, err := alloc.Allocate(seq, identifier.CategoryWaste)
	require.NoError(t, err)

	assert.Equal(t, "BATCH-0001", batch)
	assert.Equal(t, "WST-0001", waste, "cada prefijo lleva su propia secuencia")
}

func TestAllocate_ContinuaDesdeElMaximoReservado(t *testing.T) {
	seq := memory.NewStore().Sequences()
	ok, err := seq.Reserve("LOT-RM-041")
	require.NoError(t, err)
	require.True(t, ok)

	code, err := identifier.NewAllocator(0).Allocate(seq, identifier.CategoryLotRawMaterial)
	require.NoError(t, err)
	assert.Equal(t, "LOT-RM-042", code, "el candidato es max+1, no un conteo de filas")
}

func TestAllocate_OnceConcurrentesSinDuplicados(t *testing.T) {
	seq := memory.NewStore().Sequences()
	// Presupuesto holgado: en el peor caso cada asignación colisiona con
	// todas las que le ganaron.
	alloc := identifier.NewAllocator(50)

	const workers = 11
	codes := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := alloc.Allocate(seq, identifier.CategoryTransfer)
			assert.NoError(t, err)
			codes <- code
		}()
	}
	wg.Wait()
	close(codes)

	seen := make(map[string]bool)
	for code := range codes {
		assert.False(t, seen[code], "código duplicado %s", code)
		seen[code] = true
	}
	require.Len(t, seen, workers)
	for i := 1; i <= workers; i++ {
		assert.True(t, seen[identifier.Format(identifier.CategoryTransfer, i)],
			"debe existir el sufijo %d sin huecos", i)
	}
}

// alwaysTakenSeq simula un competidor que gana todas las carreras de reserva.
type alwaysTakenSeq struct{}

func (alwaysTakenSeq) MaxSuffix(string) (int, error) { return 0, nil }
func (alwaysTakenSeq) Reserve(string) (bool, error)  { return false, nil }

func TestAllocate_AgotaReintentos(t *testing.T) {
	alloc := identifier.NewAllocator(3)
	_, err := alloc.Allocate(alwaysTakenSeq{}, identifier.CategoryBatch)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAllocationExhausted)
}
