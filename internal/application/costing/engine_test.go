package costing_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/application/costing"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// buildCatalog K1={M1:2, M2:1}, K2={M2:3}; M1=$10, M2=precio indicado.
func buildCatalog(t *testing.T, m2Price int64) *memory.CatalogStore {
	t.Helper()
	s := memory.NewCatalogStore()
	_, err := s.UpsertMaterial(entity.Material{Code: "M0001", Description: "Isolador", Unit: "UN", UnitPrice: dec(10), Confidence: entity.ConfidenceManual})
	require.NoError(t, err)
	_, err = s.UpsertMaterial(entity.Material{Code: "M0002", Description: "cabo", Unit: "M", UnitPrice: dec(m2Price), Confidence: entity.ConfidenceManual})
	require.NoError(t, err)
	_, _ = s.UpsertKit("K1", "Kit 1")
	_, _ = s.UpsertKit("K2", "Kit 2")
	_, _ = s.AddLine("K1", "M0001", dec(2))
	_, _ = s.AddLine("K1", "M0002", dec(1))
	_, _ = s.AddLine("K2", "M0002", dec(3))
	return s
}

type recorder struct {
	calls int
	lines int
	err   error
}

func (r *recorder) ObservePricing(_ time.Duration, lines int, err error) {
	r.calls++
	r.lines = lines
	r.err = err
}

func TestPriceKits_Agregacion(t *testing.T) {
	obs := &recorder{}
	engine := costing.NewEngine(buildCatalog(t, 5), obs)

	bom, err := engine.PriceKits(context.Background(), []string{"K1", "K2"})
	require.NoError(t, err)

	require.Len(t, bom.Lines, 2)
	// Orden por descripción sin distinguir mayúsculas: "cabo" < "Isolador".
	assert.Equal(t, "M0002", bom.Lines[0].Code)
	assert.True(t, bom.Lines[0].Quantity.Equal(dec(4)))
	assert.True(t, bom.Lines[0].LineSubtotal.Equal(dec(20)))
	assert.Equal(t, "M", bom.Lines[0].Unit)
	assert.Equal(t, "M0001", bom.Lines[1].Code)
	assert.True(t, bom.Lines[1].Quantity.Equal(dec(2)))
	assert.True(t, bom.Lines[1].LineSubtotal.Equal(dec(20)))

	assert.True(t, bom.GrandTotal.Equal(dec(40)))
	assert.Equal(t, 1.0, bom.CoverageRatio)
	assert.Empty(t, bom.Unpriced)
	assert.Equal(t, []string{"K1", "K2"}, bom.KitCodes)

	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, 2, obs.lines)
	assert.NoError(t, obs.err)
}

func TestPriceKits_MaterialSinPrecio(t *testing.T) {
	engine := costing.NewEngine(buildCatalog(t, 0), nil)

	bom, err := engine.PriceKits(context.Background(), []string{"K1", "K2"})
	require.NoError(t, err)

	assert.True(t, bom.GrandTotal.Equal(dec(20)))
	assert.Equal(t, 0.5, bom.CoverageRatio)
	assert.Equal(t, []string{"M0002"}, bom.Unpriced)
	for _, l := range bom.Lines {
		if l.Code == "M0002" {
			assert.False(t, l.Priced)
			assert.True(t, l.LineSubtotal.IsZero())
			assert.True(t, l.InCatalog)
		}
	}
}

func TestPriceKits_ReferenciaColganteSeReporta(t *testing.T) {
	s := buildCatalog(t, 5)
	_, _ = s.AddLine("K2", "M9999", dec(7))
	engine := costing.NewEngine(s, nil)

	bom, err := engine.PriceKits(context.Background(), []string{"K2"})
	require.NoError(t, err)

	require.Len(t, bom.Lines, 2)
	assert.Equal(t, "M9999", bom.Lines[0].Code, "sin descripción ordena primero")
	assert.False(t, bom.Lines[0].InCatalog)
	assert.False(t, bom.Lines[0].Priced)
	assert.Equal(t, []string{"M9999"}, bom.Unpriced)
	assert.True(t, bom.GrandTotal.Equal(dec(15)))
}

func TestPriceKits_KitDesconocido(t *testing.T) {
	obs := &recorder{}
	engine := costing.NewEngine(buildCatalog(t, 5), obs)

	bom, err := engine.PriceKits(context.Background(), []string{"K1", "NOPE", "ZZZ"})
	assert.Nil(t, bom, "nunca un resultado parcial")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownKit))

	var kErr *domain.UnknownKitError
	require.ErrorAs(t, err, &kErr)
	assert.Equal(t, []string{"NOPE", "ZZZ"}, kErr.Missing)
	assert.Equal(t, err, obs.err)
}

func TestPriceKits_ConjuntoVacioYDuplicados(t *testing.T) {
	engine := costing.NewEngine(buildCatalog(t, 5), nil)

	_, err := engine.PriceKits(context.Background(), []string{" ", ""})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	bom, err := engine.PriceKits(context.Background(), []string{"K2", "K2", " K2 "})
	require.NoError(t, err)
	require.Len(t, bom.Lines, 1)
	assert.True(t, bom.Lines[0].Quantity.Equal(dec(3)), "un kit repetido en la solicitud cuenta una sola vez")
}

func TestPriceKits_KitVacio(t *testing.T) {
	s := buildCatalog(t, 5)
	_, _ = s.UpsertKit("VACIO", "Sin líneas")

	bom, err := costing.NewEngine(s, nil).PriceKits(context.Background(), []string{"VACIO"})
	require.NoError(t, err)
	assert.Empty(t, bom.Lines)
	assert.True(t, bom.GrandTotal.IsZero())
	assert.Equal(t, 1.0, bom.CoverageRatio)
}

func TestPriceKits_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := costing.NewEngine(buildCatalog(t, 5), nil).PriceKits(ctx, []string{"K1"})
	assert.ErrorIs(t, err, context.Canceled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rendimiento: decenas de miles de materiales y líneas, un puñado de kits.
// ──────────────────────────────────────────────────────────────────────────────

func largeCatalog(tb testing.TB) *memory.CatalogStore {
	tb.Helper()
	s := memory.NewCatalogStore()
	const materials, kits, linesPerKit = 30000, 5000, 8
	for i := 0; i < materials; i++ {
		_, err := s.UpsertMaterial(entity.Material{
			Code:        fmt.Sprintf("%06d", 100000+i),
			Description: fmt.Sprintf("MATERIAL %d", i),
			UnitPrice:   decimal.NewFromInt(int64(i%97 + 1)),
			Confidence:  entity.ConfidenceCuratedRegistry,
		})
		require.NoError(tb, err)
	}
	for k := 0; k < kits; k++ {
		code := fmt.Sprintf("KIT-%04d", k)
		for l := 0; l < linesPerKit; l++ {
			_, err := s.AddLine(code, fmt.Sprintf("%06d", 100000+(k*linesPerKit+l)%materials), dec(int64(l+1)))
			require.NoError(tb, err)
		}
	}
	return s
}

func TestPriceKits_RendimientoCatalogoGrande(t *testing.T) {
	if testing.Short() {
		t.Skip("catálogo grande")
	}
	engine := costing.NewEngine(largeCatalog(t), nil)
	kits := []string{"KIT-0001", "KIT-0100", "KIT-2500", "KIT-4999", "KIT-3333"}

	start := time.Now()
	bom, err := engine.PriceKits(context.Background(), kits)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, bom.Lines, 40)
	assert.Less(t, elapsed, 100*time.Millisecond)
}

func BenchmarkPriceKits(b *testing.B) {
	engine := costing.NewEngine(largeCatalog(b), nil)
	kits := []string{"KIT-0001", "KIT-0100", "KIT-2500", "KIT-4999", "KIT-3333"}
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.PriceKits(ctx, kits); err != nil {
			b.Fatal(err)
		}
	}
}
