// Package export genera la lista de materiales costeada en PDF (Maroto v2) y XLSX (excelize).
//
// Layout de la página A4 del PDF:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + kits          │  Fecha de generación      │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Código | Descripción | Un | Cant | P.Unit | Subtotal │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Total / Cobertura de precios                       │
//	│  SIN PRECIO: códigos sin precio conocido                     │
//	└─────────────────────────────────────────────────────────────┘
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
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
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 40, Blue: 40}
)

// ── Renderer ──────────────────────────────────────────────────────────────────

// PDFRenderer genera la lista de materiales en PDF.
type PDFRenderer struct {
	title string
	now   func() time.Time
}

// NewPDFRenderer construye el renderer. title encabeza el documento.
func NewPDFRenderer(title string) *PDFRenderer {
	return &PDFRenderer{title: title, now: time.Now}
}

// ContentType MIME del documento.
func (r *PDFRenderer) ContentType() string { return "application/pdf" }

// Extension extensión de archivo sugerida.
func (r *PDFRenderer) Extension() string { return "pdf" }

// Render genera el PDF y devuelve sus bytes.
func (r *PDFRenderer) Render(_ context.Context, bom *entity.BillOfMaterials) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(r.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(r.title, bom.KitCodes, r.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(bom.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(bom))
	if len(bom.Unpriced) > 0 {
		m.AddRows(unpricedRows(bom.Unpriced)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, kits []string, at time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Kits: "+strings.Join(kits, ", "), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New("Generado: "+at.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 2, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Código", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("Un", 1, align.Center),
		h("Cant.", 1, align.Right),
		h("P. Unit.", 2, align.Right),
		h("Subtotal", 2, align.Right),
	)
}

// tableRows una fila por material; los sin precio van en rojo.
func tableRows(lines []entity.BOMLine) []core.Row {
	out := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		style := props.Text{Size: 8, Top: 1}
		if !l.Priced {
			style.Color = colorAlert
		}
		cell := func(s string, a align.Type) core.Component {
			p := style
			p.Align = a
			p.Left, p.Right = 1, 1
			return text.New(s, p)
		}
		price, subtotal := "—", "—"
		if l.Priced {
			price = "$" + formatMoney(l.UnitPrice)
			subtotal = "$" + formatMoney(l.LineSubtotal)
		}
		out = append(out, row.New(7).Add(
			col.New(2).Add(cell(l.Code, align.Left)),
			col.New(4).Add(cell(nonEmpty(l.Description, "(sin registro en catálogo)"), align.Left)),
			col.New(1).Add(cell(l.Unit, align.Center)),
			col.New(1).Add(cell(l.Quantity.String(), align.Right)),
			col.New(2).Add(cell(price, align.Right)),
			col.New(2).Add(cell(subtotal, align.Right)),
		))
	}
	return out
}

func totalsRow(bom *entity.BillOfMaterials) core.Row {
	label := func(s string) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(14).Add(
		col.New(6),
		col.New(3).Add(
			label("TOTAL:"),
			text.New("Cobertura de precios:", props.Text{Size: 8, Align: align.Right, Right: 2, Top: 6, Color: colorGray}),
		),
		col.New(3).Add(
			value("$"+formatMoney(bom.GrandTotal), 0),
			value(fmt.Sprintf("%d/%d (%.1f%%)", bom.PricedCount, bom.TotalCount, bom.CoverageRatio*100), 6),
		),
	)
}

func unpricedRows(codes []string) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("MATERIALES SIN PRECIO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorAlert, Top: 1}),
		)),
	}
	for _, chunk := range splitEvery(codes, 8) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(strings.Join(chunk, ", "), props.Text{Size: 7, Color: colorGray, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney separa miles con punto y decimales con coma. Ej: 1250.5 → "1.250,50".
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, frac, _ := strings.Cut(s, ".")

	n := len(intPart)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		return "-" + out
	}
	return out
}

// splitEvery divide codes en grupos de máximo n elementos.
func splitEvery(codes []string, n int) [][]string {
	var parts [][]string
	for len(codes) > n {
		parts = append(parts, codes[:n])
		codes = codes[n:]
	}
	if len(codes) > 0 {
		parts = append(parts, codes)
	}
	return parts
}
