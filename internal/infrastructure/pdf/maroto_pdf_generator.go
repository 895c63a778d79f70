// Package pdf implementa la generación de la ficha de producción de un batch.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Código de batch  │  Fecha de negocio + Estado QA   │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PRODUCCIÓN: inicio / fin / notas                           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Lote | Tipo | Cantidad | Unidad   (consumos)        │
//	│  TABLA: Producto | Categoría | Cantidad | Unidad (salidas)  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  PRODUCTOS PROCESADOS creados por el bloqueo                │
//	│  FOOTER: QR con el código del batch                         │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	appbatch "github.com/jhoicas/Planta-api/internal/application/batch"
	"github.com/jhoicas/Planta-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// ── Generator ─────────────────────────────────────────────────────────────────

var _ appbatch.ReportGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa batch.ReportGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateBatchReportPDF genera la ficha de producción y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateBatchReportPDF(
	_ context.Context,
	batch *entity.ProductionBatch,
	materials []*entity.BatchMaterial,
	outputs []*entity.BatchOutput,
	goods []*entity.ProcessedGood,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Ficha de Producción "+batch.Code, true).
		Build()

	m := maroto.New(cfg)

	// Header principal
	m.AddRows(headerRow(batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(productionRow(batch))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	// Consumos
	m.AddRows(sectionTitleRow("LOTES CONSUMIDOS"))
	m.AddRows(materialHeaderRow())
	for _, r := range materialRows(materials) {
		m.AddRows(r)
	}

	// Salidas declaradas
	m.AddRows(line.NewRow(2))
	m.AddRows(sectionTitleRow("SALIDAS DECLARADAS"))
	m.AddRows(outputHeaderRow())
	for _, r := range outputRows(outputs) {
		m.AddRows(r)
	}

	// Productos procesados (solo existen tras bloquear con QA aprobado)
	if len(goods) > 0 {
		m.AddRows(line.NewRow(2))
		m.AddRows(sectionTitleRow("PRODUCTOS PROCESADOS CREADOS"))
		m.AddRows(goodHeaderRow())
		for _, r := range goodRows(goods) {
			m.AddRows(r)
		}
	}

	// Footer con QR
	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(batch))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: código del batch (izq) y fecha de negocio + estado (der).
func headerRow(batch *entity.ProductionBatch) core.Row {
	estado := "BORRADOR"
	if batch.IsLocked {
		estado = "BLOQUEADO"
	}
	fecha := batch.BusinessDate.Format("02/01/2006")

	return row.New(18).Add(
		col.New(7).Add(
			text.New("FICHA DE PRODUCCIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(batch.Code, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 7,
			}),
		),
		col.New(5).Add(
			text.New(estado, props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("QA: "+batch.QAStatus, props.Text{
				Size: 9, Align: align.Right, Top: 8,
			}),
			text.New("Fecha de negocio: "+fecha, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

// productionRow: ventana de producción y notas.
func productionRow(batch *entity.ProductionBatch) core.Row {
	format := func(t *entity.ProductionBatch) (string, string) {
		inicio, fin := "—", "—"
		if t.ProductionStart != nil {
			inicio = t.ProductionStart.Format("02/01/2006 15:04")
		}
		if t.ProductionEnd != nil {
			fin = t.ProductionEnd.Format("02/01/2006 15:04")
		}
		return inicio, fin
	}
	inicio, fin := format(batch)

	return row.New(12).Add(
		col.New(12).Add(
			text.New("PRODUCCIÓN", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Inicio: %s   |   Fin: %s   |   Notas: %s",
				inicio, fin, nonEmpty(batch.Notes, "—"),
			), props.Text{Size: 8, Top: 7, Color: colorGray}),
		),
	)
}

func sectionTitleRow(title string) core.Row {
	return row.New(7).Add(col.New(12).Add(
		text.New(title, props.Text{
			Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
		}),
	))
}

func materialHeaderRow() core.Row {
	return row.New(7).Add(
		tableHeader("Lote", 3, align.Left),
		tableHeader("Tipo", 4, align.Left),
		tableHeader("Cantidad", 3, align.Right),
		tableHeader("Unidad", 2, align.Center),
	)
}

func materialRows(materials []*entity.BatchMaterial) []core.Row {
	result := make([]core.Row, 0, len(materials))
	for _, mat := range materials {
		result = append(result, row.New(6).Add(
			tableCell(mat.LotCode, 3, align.Left),
			tableCell(mat.LotType, 4, align.Left),
			tableCell(mat.Quantity.String(), 3, align.Right),
			tableCell(mat.Unit, 2, align.Center),
		))
	}
	if len(result) == 0 {
		result = append(result, emptyTableRow("Sin consumos registrados"))
	}
	return result
}

func outputHeaderRow() core.Row {
	return row.New(7).Add(
		tableHeader("Producto", 5, align.Left),
		tableHeader("Categoría", 2, align.Left),
		tableHeader("Cantidad", 3, align.Right),
		tableHeader("Unidad", 2, align.Center),
	)
}

func outputRows(outputs []*entity.BatchOutput) []core.Row {
	result := make([]core.Row, 0, len(outputs))
	for _, o := range outputs {
		name := o.Name
		if o.SizeLabel != "" {
			name += " (" + o.SizeLabel + ")"
		}
		result = append(result, row.New(6).Add(
			tableCell(name, 5, align.Left),
			tableCell(o.CategoryTag, 2, align.Left),
			tableCell(o.Quantity.String(), 3, align.Right),
			tableCell(o.Unit, 2, align.Center),
		))
	}
	if len(result) == 0 {
		result = append(result, emptyTableRow("Sin salidas declaradas"))
	}
	return result
}

func goodHeaderRow() core.Row {
	return row.New(7).Add(
		tableHeader("Producto", 5, align.Left),
		tableHeader("Creado", 3, align.Right),
		tableHeader("Disponible", 2, align.Right),
		tableHeader("Unidad", 2, align.Center),
	)
}

func goodRows(goods []*entity.ProcessedGood) []core.Row {
	result := make([]core.Row, 0, len(goods))
	for _, g := range goods {
		result = append(result, row.New(6).Add(
			tableCell(g.Name, 5, align.Left),
			tableCell(g.QuantityCreated.String(), 3, align.Right),
			tableCell(g.QuantityAvailable.String(), 2, align.Right),
			tableCell(g.Unit, 2, align.Center),
		))
	}
	return result
}

// footerRow: QR con el código del batch para localizarlo desde planta.
func footerRow(batch *entity.ProductionBatch) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(batch.Code, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("Escanea el código QR para consultar\neste batch en planta-pro.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Registro permanente de producción.\nUn batch bloqueado no se modifica.", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 20, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func tableHeader(label string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(label, props.Text{
		Style: fontstyle.Bold, Size: 8, Align: a,
		Color: colorPrimary, Top: 1, Left: 1, Right: 1,
	}))
}

func tableCell(value string, size int, a align.Type) core.Col {
	return col.New(size).Add(text.New(value, props.Text{
		Size: 8, Align: a, Top: 1, Left: 1, Right: 1,
	}))
}

func emptyTableRow(label string) core.Row {
	return row.New(6).Add(col.New(12).Add(
		text.New(label, props.Text{Size: 8, Color: colorGray, Top: 1, Left: 1}),
	))
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
