package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Catalogo-api/pkg/config"
)

// Requiere una base desechable: TEST_DATABASE_URL=postgres://... go test ./internal/infrastructure/postgres/
func newRepo(t *testing.T) *postgres.SnapshotRepo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	require.NoError(t, postgres.Migrate(ctx, dsn))

	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.NewSnapshotRepository(postgres.NewTxRunner(pool))
}

func TestSnapshotRepo_SaveLoadIdaYVuelta(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	store := memory.NewCatalogStore()
	_, _ = store.UpsertMaterial(entity.Material{Code: "300001", Description: "POSTE", Unit: "UN", UnitPrice: decimal.RequireFromString("1250.5"), Confidence: entity.ConfidenceManual})
	_, _ = store.UpsertMaterial(entity.Material{Code: "300002", Description: "CABO", Unit: "M", Confidence: entity.ConfidenceGenericScrape})
	_, _ = store.UpsertKit("N1", "Estrutura N1")
	_, _ = store.SetLine("N1", "300001", decimal.NewFromInt(1))
	_, _ = store.SetLine("N1", "999999", decimal.RequireFromString("2.5"))
	_, _ = store.UpsertService(entity.Service{Code: "MO00001", Description: "INSTALAR", GrossPrice: decimal.NewFromInt(80), Confidence: entity.ConfidenceCuratedRegistry})

	want := store.Snapshot()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)

	restored := memory.NewCatalogStore()
	require.NoError(t, restored.Restore(got))
	assert.Equal(t, store.Stats(), restored.Stats())
	require.Len(t, got.Materials, 2)
	assert.True(t, got.Materials[0].UnitPrice.Equal(want.Materials[0].UnitPrice))
	assert.Equal(t, entity.ConfidenceManual, got.Materials[0].Confidence)
	require.Len(t, got.Composition, 2)
	assert.True(t, got.Composition[1].Quantity.Equal(decimal.RequireFromString("2.5")))
	assert.Equal(t, []entity.KitSummary{{Code: "N1", Name: "Estrutura N1", LineCount: 2}}, got.Kits)

	// Un segundo Save reemplaza el contenido completo.
	require.NoError(t, repo.Save(ctx, &entity.Snapshot{}))
	empty, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Materials)
	assert.Empty(t, empty.Kits)
	assert.Empty(t, empty.Composition)
	assert.Empty(t, empty.Services)
}
