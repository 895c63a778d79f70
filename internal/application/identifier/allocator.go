// Package identifier implementa el asignador de códigos legibles
// (lotes, batches, mermas, traslados). Es el único punto del sistema donde
// se generan secuencias; el resto de componentes trata los códigos como
// salida opaca del asignador.
package identifier

import (
	"fmt"

	"github.com/jhoicas/Planta-api/internal/domain"
	"github.com/jhoicas/Planta-api/internal/domain/repository"
)

// Category describe una categoría de códigos: prefijo fijo y ancho del
// sufijo numérico con ceros a la izquierda.
type Category struct {
	Name   string
	Prefix string
	Width  int
}

// Categorías del sistema. El ancho es cosmético: si la secuencia supera el
// ancho, el sufijo simplemente crece un dígito.
var (
	CategoryLotRawMaterial      = Category{Name: "lot-raw-material", Prefix: "LOT-RM-", Width: 3}
	CategoryLotRecurringProduct = Category{Name: "lot-recurring-product", Prefix: "LOT-RP-", Width: 3}
	CategoryBatch               = Category{Name: "batch", Prefix: "BATCH-", Width: 4}
	CategoryWaste               = Category{Name: "waste", Prefix: "WST-", Width: 4}
	CategoryTransfer            = Category{Name: "transfer", Prefix: "TRF-", Width: 4}
)

// LotCategory devuelve la categoría de lote según el tipo de ítem.
func LotCategory(itemType string) Category {
	if itemType == "recurring_product" {
		return CategoryLotRecurringProduct
	}
	return CategoryLotRawMaterial
}

// Allocator asigna códigos con reintento optimista acotado: lee el máximo
// sufijo reservado, propone max+1 y reserva; si otro llamador ganó la
// carrera, relee el máximo y reintenta hasta agotar el presupuesto.
type Allocator struct {
	maxRetries int
}

// NewAllocator construye el asignador. maxRetries <= 0 usa el valor por defecto (10).
func NewAllocator(maxRetries int) *Allocator {
	if maxRetries <= 0 {
		maxRetries = 10
	}
	return &Allocator{maxRetries: maxRetries}
}

// Allocate reserva y devuelve el siguiente código de la categoría usando el
// repositorio de secuencias provisto (atado a pool o a la transacción del
// comando llamador). Devuelve ErrAllocationExhausted si el presupuesto de
// reintentos se agota por colisiones.
func (a *Allocator) Allocate(seq repository.SequenceRepository, cat Category) (string, error) {
	for attempt := 0; attempt < a.maxRetries; attempt++ {
		max, err := seq.MaxSuffix(cat.Prefix)
		if err != nil {
			return "", fmt.Errorf("asignador %s: leer máximo: %w", cat.Name, err)
		}
		code := Format(cat, max+1)
		ok, err := seq.Reserve(code)
		if err != nil {
			return "", fmt.Errorf("asignador %s: reservar %s: %w", cat.Name, code, err)
		}
		if ok {
			return code, nil
		}
		// Otro llamador reservó el candidato entre la lectura y la reserva:
		// releer el máximo y proponer el siguiente.
	}
	return "", fmt.Errorf("%w: categoría %s tras %d intentos", domain.ErrAllocationExhausted, cat.Name, a.maxRetries)
}

// Format arma el código con el prefijo y el sufijo con ceros a la izquierda.
func Format(cat Category, suffix int) string {
	return fmt.Sprintf("%s%0*d", cat.Prefix, cat.Width, suffix)
}
