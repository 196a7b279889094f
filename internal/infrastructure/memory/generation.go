package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/catalog"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// defaultSearchLimit tope de resultados de búsqueda cuando el llamador no lo indica.
const defaultSearchLimit = 50

type kitRow struct {
	name  string
	lines entity.Composition
}

// generation estado completo de los tres almacenes. Se publica entera o no se publica.
// Los métodos sin bloqueo asumen que el llamador ya tomó mu.
type generation struct {
	mu        sync.RWMutex
	materials map[string]*entity.Material
	kits      map[string]*kitRow
	usage     map[string]map[string]struct{} // material_code -> kit_codes
	services  map[string]*entity.Service
}

func newGeneration() *generation {
	return &generation{
		materials: make(map[string]*entity.Material),
		kits:      make(map[string]*kitRow),
		usage:     make(map[string]map[string]struct{}),
		services:  make(map[string]*entity.Service),
	}
}

// ── Escritura ────────────────────────────────────────────────────────────────

func (g *generation) upsertMaterial(m entity.Material) (entity.Outcome, error) {
	if m.Code == "" {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindMaterial), "code", "", "código vacío")
	}
	if m.UnitPrice.IsNegative() {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindMaterial), "unit_price", m.UnitPrice.String(), "precio negativo")
	}
	if m.Unit == "" {
		m.Unit = entity.DefaultUnit
	}
	merged, outcome := catalog.MergeMaterial(g.materials[m.Code], m)
	if outcome != entity.OutcomeUnchanged {
		g.materials[m.Code] = &merged
	}
	return outcome, nil
}

func (g *generation) upsertService(s entity.Service) (entity.Outcome, error) {
	if s.Code == "" {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindService), "code", "", "código vacío")
	}
	if s.GrossPrice.IsNegative() {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindService), "gross_price", s.GrossPrice.String(), "precio negativo")
	}
	if s.Unit == "" {
		s.Unit = entity.DefaultUnit
	}
	merged, outcome := catalog.MergeService(g.services[s.Code], s)
	if outcome != entity.OutcomeUnchanged {
		g.services[s.Code] = &merged
	}
	return outcome, nil
}

func (g *generation) upsertKit(code, name string, rename bool) (entity.Outcome, error) {
	if code == "" {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindKit), "kit_code", "", "código de kit vacío")
	}
	row, ok := g.kits[code]
	if !ok {
		if name == "" {
			name = code
		}
		g.kits[code] = &kitRow{name: name, lines: entity.Composition{}}
		return entity.OutcomeCreated, nil
	}
	if !rename || name == "" || row.name == name {
		return entity.OutcomeUnchanged, nil
	}
	row.name = name
	return entity.OutcomeUpdated, nil
}

// putLine suma (add=true) o reemplaza la cantidad de la línea. Un kit desconocido se crea con su código como nombre.
func (g *generation) putLine(kitCode, materialCode string, qty decimal.Decimal, add bool) (entity.Outcome, error) {
	if kitCode == "" || materialCode == "" {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindKitLine), "kit_code/material_code", kitCode+"/"+materialCode, "código vacío")
	}
	if !qty.IsPositive() {
		return entity.OutcomeUnchanged, domain.NewValidationError(string(entity.KindKitLine), "quantity", qty.String(), "la cantidad debe ser mayor que cero")
	}
	row, ok := g.kits[kitCode]
	if !ok {
		row = &kitRow{name: kitCode, lines: entity.Composition{}}
		g.kits[kitCode] = row
	}
	current, exists := row.lines[materialCode]
	switch {
	case !exists:
		row.lines[materialCode] = qty
		kits := g.usage[materialCode]
		if kits == nil {
			kits = make(map[string]struct{})
			g.usage[materialCode] = kits
		}
		kits[kitCode] = struct{}{}
		return entity.OutcomeCreated, nil
	case add:
		row.lines[materialCode] = current.Add(qty)
		return entity.OutcomeUpdated, nil
	case current.Equal(qty):
		return entity.OutcomeUnchanged, nil
	default:
		row.lines[materialCode] = qty
		return entity.OutcomeUpdated, nil
	}
}

// ── Lectura ──────────────────────────────────────────────────────────────────

func (g *generation) getMaterial(code string) (*entity.Material, error) {
	m, ok := g.materials[code]
	if !ok {
		return nil, domain.NewNotFoundError("material", code)
	}
	cp := *m
	return &cp, nil
}

func (g *generation) listMaterials(filter func(*entity.Material) bool, limit int) []entity.Material {
	codes := make([]string, 0, len(g.materials))
	for code, m := range g.materials {
		if filter == nil || filter(m) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	out := make([]entity.Material, 0, len(codes))
	for _, code := range codes {
		out = append(out, *g.materials[code])
	}
	return out
}

func (g *generation) searchMaterials(query string, limit int) []entity.Material {
	q := strings.ToLower(strings.TrimSpace(query))
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return g.listMaterials(func(m *entity.Material) bool {
		return q == "" || strings.Contains(strings.ToLower(m.Code), q) || strings.Contains(strings.ToLower(m.Description), q)
	}, limit)
}

func (g *generation) unpricedMaterials() []entity.Material {
	return g.listMaterials(func(m *entity.Material) bool { return !m.IsPriced() }, 0)
}

func (g *generation) getKit(code string) (*entity.Kit, error) {
	row, ok := g.kits[code]
	if !ok {
		return nil, domain.NewNotFoundError("kit", code)
	}
	return &entity.Kit{Code: code, Name: row.name, Composition: row.lines.Clone()}, nil
}

func (g *generation) getComposition(code string) (entity.Composition, error) {
	row, ok := g.kits[code]
	if !ok {
		return nil, domain.NewNotFoundError("kit", code)
	}
	return row.lines.Clone(), nil
}

func (g *generation) listKits(filter func(code string, row *kitRow) bool, limit int) []entity.KitSummary {
	codes := make([]string, 0, len(g.kits))
	for code, row := range g.kits {
		if filter == nil || filter(code, row) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	out := make([]entity.KitSummary, 0, len(codes))
	for _, code := range codes {
		row := g.kits[code]
		out = append(out, entity.KitSummary{Code: code, Name: row.name, LineCount: len(row.lines)})
	}
	return out
}

func (g *generation) searchKits(query string, limit int) []entity.KitSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return g.listKits(func(code string, row *kitRow) bool {
		return q == "" || strings.Contains(strings.ToLower(code), q) || strings.Contains(strings.ToLower(row.name), q)
	}, limit)
}

func (g *generation) kitsUsingMaterial(materialCode string) []string {
	kits := g.usage[materialCode]
	out := make([]string, 0, len(kits))
	for k := range kits {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (g *generation) danglingReferences() []entity.DanglingReference {
	var out []entity.DanglingReference
	for materialCode, kits := range g.usage {
		if _, ok := g.materials[materialCode]; ok {
			continue
		}
		for kitCode := range kits {
			out = append(out, entity.DanglingReference{
				KitCode:      kitCode,
				MaterialCode: materialCode,
				Quantity:     g.kits[kitCode].lines[materialCode],
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].KitCode != out[j].KitCode {
			return out[i].KitCode < out[j].KitCode
		}
		return out[i].MaterialCode < out[j].MaterialCode
	})
	return out
}

func (g *generation) getService(code string) (*entity.Service, error) {
	s, ok := g.services[code]
	if !ok {
		return nil, domain.NewNotFoundError("servicio", code)
	}
	cp := *s
	return &cp, nil
}

func (g *generation) listServices() []entity.Service {
	codes := make([]string, 0, len(g.services))
	for code := range g.services {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	out := make([]entity.Service, 0, len(codes))
	for _, code := range codes {
		out = append(out, *g.services[code])
	}
	return out
}

func (g *generation) stats() entity.Stats {
	st := entity.Stats{
		Materials: len(g.materials),
		Kits:      len(g.kits),
		Services:  len(g.services),
	}
	for _, m := range g.materials {
		if m.IsPriced() {
			st.PricedMaterials++
		}
	}
	for _, row := range g.kits {
		st.CompositionLines += len(row.lines)
	}
	for materialCode, kits := range g.usage {
		if _, ok := g.materials[materialCode]; !ok {
			st.DanglingLineCount += len(kits)
		}
	}
	return st
}

func (g *generation) snapshot() *entity.Snapshot {
	snap := &entity.Snapshot{
		Materials: g.listMaterials(nil, 0),
		Kits:      g.listKits(nil, 0),
		Services:  g.listServices(),
	}
	for _, k := range snap.Kits {
		lines := g.kits[k.Code].lines
		for _, materialCode := range lines.Codes() {
			snap.Composition = append(snap.Composition, entity.CompositionLine{
				KitCode:      k.Code,
				MaterialCode: materialCode,
				Quantity:     lines[materialCode],
			})
		}
	}
	return snap
}
