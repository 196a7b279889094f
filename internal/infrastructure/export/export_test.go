package export_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/export"
)

func sampleBOM() *entity.BillOfMaterials {
	return &entity.BillOfMaterials{
		KitCodes: []string{"K1", "K2"},
		Lines: []entity.BOMLine{
			{Code: "300002", Description: "CABO", Unit: "M", Quantity: decimal.NewFromInt(4), UnitPrice: decimal.NewFromInt(5), LineSubtotal: decimal.NewFromInt(20), Priced: true, InCatalog: true},
			{Code: "300001", Description: "POSTE", Unit: "UN", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.Zero, LineSubtotal: decimal.Zero, InCatalog: true},
		},
		GrandTotal:    decimal.NewFromInt(20),
		PricedCount:   1,
		TotalCount:    2,
		CoverageRatio: 0.5,
		Unpriced:      []string{"300001"},
	}
}

func TestXLSXRenderer(t *testing.T) {
	r := export.NewXLSXRenderer()
	data, err := r.Render(context.Background(), sampleBOM())
	require.NoError(t, err)
	assert.Equal(t, "xlsx", r.Extension())

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("BOM")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 4)
	assert.Equal(t, "code", rows[0][0])
	assert.Equal(t, "300002", rows[1][0])
	assert.Equal(t, "20", rows[1][5])
	assert.Equal(t, "300001", rows[2][0])

	total, err := f.GetCellValue("BOM", "B6")
	require.NoError(t, err)
	assert.Equal(t, "20", total)
}

func TestPDFRenderer(t *testing.T) {
	r := export.NewPDFRenderer("Lista de materiales")
	data, err := r.Render(context.Background(), sampleBOM())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", r.ContentType())
}
