package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

const sheetBOM = "BOM"

// XLSXRenderer genera la lista de materiales como planilla: una hoja con las líneas y los totales al pie.
type XLSXRenderer struct{}

// NewXLSXRenderer construye el renderer.
func NewXLSXRenderer() *XLSXRenderer { return &XLSXRenderer{} }

// ContentType MIME del documento.
func (r *XLSXRenderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension extensión de archivo sugerida.
func (r *XLSXRenderer) Extension() string { return "xlsx" }

// Render escribe la planilla y devuelve sus bytes. Los importes van como números para que la
// planilla pueda recalcular.
func (r *XLSXRenderer) Render(_ context.Context, bom *entity.BillOfMaterials) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetBOM); err != nil {
		return nil, fmt.Errorf("xlsx: hoja: %w", err)
	}

	header := []interface{}{"code", "description", "unit", "quantity", "unit_price", "line_subtotal", "priced", "in_catalog"}
	if err := f.SetSheetRow(sheetBOM, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: cabecera: %w", err)
	}

	row := 2
	for _, l := range bom.Lines {
		values := []interface{}{
			l.Code,
			l.Description,
			l.Unit,
			l.Quantity.InexactFloat64(),
			l.UnitPrice.InexactFloat64(),
			l.LineSubtotal.InexactFloat64(),
			l.Priced,
			l.InCatalog,
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	row++
	footer := [][]interface{}{
		{"kits", strings.Join(bom.KitCodes, ", ")},
		{"grand_total", bom.GrandTotal.InexactFloat64()},
		{"priced_count", bom.PricedCount},
		{"total_count", bom.TotalCount},
		{"coverage_ratio", bom.CoverageRatio},
		{"unpriced", strings.Join(bom.Unpriced, ", ")},
	}
	for _, values := range footer {
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: celda: %w", err)
	}
	if err := f.SetSheetRow(sheetBOM, cell, &values); err != nil {
		return fmt.Errorf("xlsx: fila %d: %w", row, err)
	}
	return nil
}
