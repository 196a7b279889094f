package memory_test

import (
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/memory"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func material(code, desc string, price int64, c entity.Confidence) entity.Material {
	return entity.Material{Code: code, Description: desc, Unit: entity.DefaultUnit, UnitPrice: dec(price), Confidence: c}
}

// ──────────────────────────────────────────────────────────────────────────────
// Catálogo de materiales
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogStore_UpsertMaterialYGet(t *testing.T) {
	s := memory.NewCatalogStore()

	out, err := s.UpsertMaterial(material("300001", "POSTE", 10, entity.ConfidenceManual))
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeCreated, out)

	out, err = s.UpsertMaterial(material("300001", "POSTE", 20, entity.ConfidenceGenericScrape))
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeUnchanged, out)

	m, err := s.GetMaterial("300001")
	require.NoError(t, err)
	assert.True(t, m.UnitPrice.Equal(dec(10)))

	_, err = s.GetMaterial("999999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalogStore_GetDevuelveCopia(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertMaterial(material("300001", "POSTE", 10, entity.ConfidenceManual))

	m, _ := s.GetMaterial("300001")
	m.Description = "MODIFICADO"

	again, _ := s.GetMaterial("300001")
	assert.Equal(t, "POSTE", again.Description)
}

func TestCatalogStore_RechazaPrecioNegativo(t *testing.T) {
	s := memory.NewCatalogStore()
	_, err := s.UpsertMaterial(material("300001", "POSTE", -1, entity.ConfidenceManual))
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestCatalogStore_BusquedaYSinPrecio(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertMaterial(material("300002", "Cabo de aluminio", 0, entity.ConfidenceManual))
	_, _ = s.UpsertMaterial(material("300001", "POSTE DT", 10, entity.ConfidenceManual))
	_, _ = s.UpsertMaterial(material("400001", "CABO COBRE", 3, entity.ConfidenceManual))

	found := s.SearchMaterials("cabo", 0)
	require.Len(t, found, 2)
	assert.Equal(t, "300002", found[0].Code)
	assert.Equal(t, "400001", found[1].Code)

	assert.Len(t, s.SearchMaterials("", 1), 1)

	unpriced := s.UnpricedMaterials()
	require.Len(t, unpriced, 1)
	assert.Equal(t, "300002", unpriced[0].Code)

	all := s.ListMaterials()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"300001", "300002", "400001"}, []string{all[0].Code, all[1].Code, all[2].Code})
}

// ──────────────────────────────────────────────────────────────────────────────
// Kits
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogStore_AddLineSuma(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertKit("K", "Kit K")

	out, err := s.AddLine("K", "300001", dec(2))
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeCreated, out)
	out, err = s.AddLine("K", "300001", dec(3))
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeUpdated, out)

	comp, err := s.GetComposition("K")
	require.NoError(t, err)
	require.Len(t, comp, 1)
	assert.True(t, comp["300001"].Equal(dec(5)))
}

func TestCatalogStore_SetLineIdempotente(t *testing.T) {
	s := memory.NewCatalogStore()

	out, _ := s.SetLine("K", "300001", dec(4))
	assert.Equal(t, entity.OutcomeCreated, out)
	out, _ = s.SetLine("K", "300001", dec(4))
	assert.Equal(t, entity.OutcomeUnchanged, out)
	out, _ = s.SetLine("K", "300001", dec(6))
	assert.Equal(t, entity.OutcomeUpdated, out)

	kit, err := s.GetKit("K")
	require.NoError(t, err)
	assert.Equal(t, "K", kit.Name, "un kit creado por una línea usa su código como nombre")
	assert.True(t, kit.Composition["300001"].Equal(dec(6)))
}

func TestCatalogStore_UpsertKitNoBorraLineas(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertKit("K", "Viejo")
	_, _ = s.AddLine("K", "300001", dec(1))

	out, err := s.UpsertKit("K", "Nuevo")
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeUpdated, out)

	out, _ = s.EnsureKit("K", "Otro")
	assert.Equal(t, entity.OutcomeUnchanged, out)

	kits := s.ListKits()
	require.Len(t, kits, 1)
	assert.Equal(t, entity.KitSummary{Code: "K", Name: "Nuevo", LineCount: 1}, kits[0])
}

func TestCatalogStore_CantidadNoPositivaRechazada(t *testing.T) {
	s := memory.NewCatalogStore()
	_, err := s.AddLine("K", "300001", decimal.Zero)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	_, err = s.GetKit("K")
	assert.True(t, errors.Is(err, domain.ErrNotFound), "un registro rechazado no deja escrituras parciales")
}

func TestCatalogStore_IndiceDeUsoYReferenciasColgantes(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertMaterial(material("300001", "POSTE", 10, entity.ConfidenceManual))
	_, _ = s.AddLine("K2", "300001", dec(1))
	_, _ = s.AddLine("K1", "300001", dec(1))
	_, _ = s.AddLine("K1", "777777", dec(2))

	assert.Equal(t, []string{"K1", "K2"}, s.KitsUsingMaterial("300001"))
	assert.Empty(t, s.KitsUsingMaterial("000000"))

	dangling := s.DanglingReferences()
	require.Len(t, dangling, 1)
	assert.Equal(t, "K1", dangling[0].KitCode)
	assert.Equal(t, "777777", dangling[0].MaterialCode)

	st := s.Stats()
	assert.Equal(t, entity.Stats{Materials: 1, PricedMaterials: 1, Kits: 2, CompositionLines: 3, DanglingLineCount: 1}, st)
}

func TestCatalogStore_Servicios(t *testing.T) {
	s := memory.NewCatalogStore()
	out, err := s.UpsertService(entity.Service{Code: "MO00001", Description: "INSTALAR", GrossPrice: dec(50), Confidence: entity.ConfidenceCuratedRegistry})
	require.NoError(t, err)
	assert.Equal(t, entity.OutcomeCreated, out)

	svc, err := s.GetService("MO00001")
	require.NoError(t, err)
	assert.Equal(t, entity.DefaultUnit, svc.Unit)
	assert.Len(t, s.ListServices(), 1)

	_, err = s.GetService("MO99999")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Snapshot, restauración y re-seed
// ──────────────────────────────────────────────────────────────────────────────

func TestCatalogStore_SnapshotRestoreIdaYVuelta(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertMaterial(material("300001", "POSTE", 10, entity.ConfidenceManual))
	_, _ = s.UpsertKit("K", "Kit")
	_, _ = s.AddLine("K", "300001", dec(2))
	_, _ = s.UpsertService(entity.Service{Code: "MO00001", Description: "X", GrossPrice: dec(5)})

	snap := s.Snapshot()
	restored := memory.NewCatalogStore()
	require.NoError(t, restored.Restore(snap))

	assert.Equal(t, snap, restored.Snapshot())
}

func TestCatalogStore_RestoreDetectaCorrupcion(t *testing.T) {
	snap := &entity.Snapshot{
		Kits:        []entity.KitSummary{{Code: "K", Name: "Kit"}},
		Composition: []entity.CompositionLine{{KitCode: "FANTASMA", MaterialCode: "300001", Quantity: dec(1)}},
	}
	err := memory.NewCatalogStore().Restore(snap)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrStoreCorruption))
	var cErr *domain.StoreCorruptionError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "kit_composition", cErr.Table)

	snap = &entity.Snapshot{Materials: []entity.Material{material("300001", "A", 1, entity.ConfidenceManual), material("300001", "B", 1, entity.ConfidenceManual)}}
	assert.True(t, errors.Is(memory.NewCatalogStore().Restore(snap), domain.ErrStoreCorruption))
}

func TestCatalogStore_RebuildFallidoNoPublica(t *testing.T) {
	s := memory.NewCatalogStore()
	_, _ = s.UpsertMaterial(material("300001", "POSTE", 10, entity.ConfidenceManual))

	boom := errors.New("falla de persistencia")
	err := s.Rebuild(func(w repository.CatalogWriter) error {
		_, err := w.UpsertMaterial(material("400001", "OTRO", 1, entity.ConfidenceManual))
		return err
	}, func(*entity.Snapshot) error { return boom })

	assert.ErrorIs(t, err, boom)
	_, err = s.GetMaterial("300001")
	assert.NoError(t, err, "el estado anterior sigue publicado")
	_, err = s.GetMaterial("400001")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// TestCatalogStore_RebuildEsAtomicoParaLectores: un lector concurrente nunca ve kits borrados con
// composición sobrante (ni materiales de una generación con kits de otra).
func TestCatalogStore_RebuildEsAtomicoParaLectores(t *testing.T) {
	s := memory.NewCatalogStore()
	populate := func(w repository.CatalogWriter, n int) error {
		for i := 0; i < n; i++ {
			code := strconv.Itoa(300000 + i)
			if _, err := w.UpsertMaterial(material(code, "M", 1, entity.ConfidenceManual)); err != nil {
				return err
			}
			if _, err := w.AddLine("K", code, dec(1)); err != nil {
				return err
			}
		}
		return nil
	}
	require.NoError(t, s.Rebuild(func(w repository.CatalogWriter) error { return populate(w, 200) }, nil))

	var stop atomic.Bool
	var inconsistent atomic.Int64
	var wg sync.WaitGroup
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				_ = s.View(func(v repository.CatalogReader) error {
					st := v.Stats()
					if st.CompositionLines != st.Materials || (st.Kits == 0) != (st.CompositionLines == 0) {
						inconsistent.Add(1)
					}
					return nil
				})
			}
		}()
	}

	for i := 0; i < 20; i++ {
		n := 100 + i*10
		require.NoError(t, s.Rebuild(func(w repository.CatalogWriter) error { return populate(w, n) }, nil))
	}
	stop.Store(true)
	wg.Wait()

	assert.Zero(t, inconsistent.Load())
	assert.Equal(t, 290, s.Stats().Materials)
}
