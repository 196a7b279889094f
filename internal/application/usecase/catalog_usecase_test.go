package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/application/costing"
	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/application/ingestion"
	"github.com/jhoicas/Catalogo-api/internal/application/usecase"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(_ context.Context, bom *entity.BillOfMaterials) ([]byte, error) {
	return []byte(bom.GrandTotal.String()), nil
}
func (fakeRenderer) ContentType() string { return "text/plain" }
func (fakeRenderer) Extension() string   { return "txt" }

func newCatalog(t *testing.T) (*usecase.CatalogUseCase, *usecase.IngestionUseCase) {
	t.Helper()
	store := memory.NewCatalogStore()
	coord := ingestion.NewCoordinator(store, nil, nil, logger.Nop(), 0)
	ing := usecase.NewIngestionUseCase(coord)

	_, err := ing.IngestBatch(context.Background(), dto.IngestBatchRequest{
		Source:     "seed",
		Confidence: "manual",
		Records: []entity.RawRecord{
			{Kind: entity.KindMaterial, Code: "300001", Description: "Poste", UnitPrice: "10"},
			{Kind: entity.KindMaterial, Code: "300002", Description: "Cabo", UnitPrice: "0"},
			{Kind: entity.KindMaterial, Code: "300003", Description: "Cabo grueso", UnitPrice: "3"},
			{Kind: entity.KindKitLine, KitCode: "K1", KitName: "Kit uno", MaterialCode: "300001", Quantity: "2"},
			{Kind: entity.KindKitLine, KitCode: "K1", MaterialCode: "300002", Quantity: "1"},
			{Kind: entity.KindKitLine, KitCode: "K1", MaterialCode: "777777", Quantity: "1"},
			{Kind: entity.KindService, Code: "MO00001", Description: "Instalar", GrossPrice: "50"},
		},
	})
	require.NoError(t, err)

	return usecase.NewCatalogUseCase(store, costing.NewEngine(store, nil), fakeRenderer{}), ing
}

func TestCatalogUseCase_Consultas(t *testing.T) {
	uc, _ := newCatalog(t)

	m, err := uc.GetMaterial(" 300001 ")
	require.NoError(t, err)
	assert.Equal(t, "manual", m.Confidence)
	assert.True(t, m.Priced)

	list := uc.ListMaterials(dto.MaterialListRequest{Query: "cabo", PageRequest: dto.PageRequest{Limit: 1}})
	require.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.Total)
	assert.Equal(t, "300002", list.Items[0].Code)

	page2 := uc.ListMaterials(dto.MaterialListRequest{PageRequest: dto.PageRequest{Limit: 2, Offset: 2}})
	require.Len(t, page2.Items, 1)
	assert.Equal(t, "300003", page2.Items[0].Code)

	unpriced := uc.UnpricedMaterials()
	require.Len(t, unpriced, 1)
	assert.Equal(t, "300002", unpriced[0].Code)

	kit, err := uc.GetKit("K1")
	require.NoError(t, err)
	assert.Equal(t, "Kit uno", kit.Name)
	require.Len(t, kit.Lines, 3)
	assert.False(t, kit.Lines[2].InCatalog)

	usage, err := uc.MaterialUsage("777777")
	require.NoError(t, err)
	assert.False(t, usage.InCatalog)
	assert.Equal(t, []string{"K1"}, usage.Kits)

	_, err = uc.MaterialUsage("999999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	assert.Equal(t, 1, uc.Stats().DanglingLineCount)
	assert.Len(t, uc.DanglingReferences(), 1)
	assert.Len(t, uc.ListServices(), 1)
	kits := uc.ListKits(dto.KitListRequest{Query: "uno"})
	assert.Equal(t, 1, kits.Page.Total)
}

func TestCatalogUseCase_PriceYExport(t *testing.T) {
	uc, _ := newCatalog(t)
	ctx := context.Background()

	bom, err := uc.PriceKits(ctx, dto.PriceKitsRequest{KitCodes: []string{"K1"}})
	require.NoError(t, err)
	assert.True(t, bom.GrandTotal.Equal(decimal.NewFromInt(20)))
	assert.Equal(t, []string{"300002", "777777"}, bom.Unpriced)

	doc, err := uc.ExportBOM(ctx, "TXT", dto.PriceKitsRequest{KitCodes: []string{"K1"}})
	require.NoError(t, err)
	assert.Equal(t, "bom_K1.txt", doc.FileName)
	assert.Equal(t, "20", string(doc.Data))

	_, err = uc.ExportBOM(ctx, "docx", dto.PriceKitsRequest{KitCodes: []string{"K1"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = uc.PriceKits(ctx, dto.PriceKitsRequest{KitCodes: []string{"NOPE"}})
	assert.True(t, errors.Is(err, domain.ErrUnknownKit))
}

func TestIngestionUseCase_ConfianzaDesconocida(t *testing.T) {
	_, ing := newCatalog(t)
	_, err := ing.IngestBatch(context.Background(), dto.IngestBatchRequest{Confidence: "muy alta"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = ing.Reseed(context.Background(), dto.ReseedRequest{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	report, err := ing.Reseed(context.Background(), dto.ReseedRequest{Sources: []dto.IngestBatchRequest{
		{Source: "seed", Confidence: "curated_registry", Records: []entity.RawRecord{{Kind: entity.KindMaterial, Code: "400001", Description: "X"}}},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Empty(t, report.Confidence)
}
