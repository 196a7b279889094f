// Package memory implementa el almacén del catálogo en memoria. El estado completo (materiales,
// kits, composición, servicios) vive en una generación publicada mediante un puntero atómico:
// los lectores trabajan siempre sobre una única generación y el re-seed construye una nueva y la
// intercambia de una vez.
package memory

import (
	"sync"
	"sync/atomic"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

var _ repository.CatalogStore = (*CatalogStore)(nil)

// CatalogStore único escritor de la verdad del catálogo.
type CatalogStore struct {
	writeMu sync.Mutex // serializa escritores y re-seeds
	current atomic.Pointer[generation]
}

// NewCatalogStore crea un almacén vacío.
func NewCatalogStore() *CatalogStore {
	s := &CatalogStore{}
	s.current.Store(newGeneration())
	return s
}

// ── Escritura ────────────────────────────────────────────────────────────────

// UpsertMaterial aplica la regla de fusión por confianza al material.
func (s *CatalogStore) UpsertMaterial(m entity.Material) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.UpsertMaterial(m)
}

// UpsertKit crea el kit o actualiza solo su nombre; nunca borra líneas.
func (s *CatalogStore) UpsertKit(kitCode, name string) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.UpsertKit(kitCode, name)
}

// EnsureKit crea el kit solo si no existe.
func (s *CatalogStore) EnsureKit(kitCode, name string) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.EnsureKit(kitCode, name)
}

// AddLine suma qty a la línea (kit, material).
func (s *CatalogStore) AddLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.AddLine(kitCode, materialCode, qty)
}

// SetLine reemplaza la cantidad de la línea (kit, material).
func (s *CatalogStore) SetLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.SetLine(kitCode, materialCode, qty)
}

// UpsertService aplica la regla de fusión por confianza al servicio.
func (s *CatalogStore) UpsertService(svc entity.Service) (entity.Outcome, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return writer{g: s.current.Load()}.UpsertService(svc)
}

// Rebuild construye una generación nueva desde cero y la publica solo si build y commit terminan bien.
// Mientras tanto los lectores siguen viendo la generación anterior completa.
func (s *CatalogStore) Rebuild(build func(w repository.CatalogWriter) error, commit func(snap *entity.Snapshot) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := newGeneration()
	if err := build(writer{g: next}); err != nil {
		return err
	}
	if commit != nil {
		next.mu.RLock()
		snap := next.snapshot()
		next.mu.RUnlock()
		if err := commit(snap); err != nil {
			return err
		}
	}
	s.current.Store(next)
	return nil
}

// Restore valida el snapshot persistido y lo publica. Cualquier inconsistencia es StoreCorruptionError.
func (s *CatalogStore) Restore(snap *entity.Snapshot) error {
	next, err := fromSnapshot(snap)
	if err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.current.Store(next)
	return nil
}

// ── Lectura ──────────────────────────────────────────────────────────────────

// View ejecuta fn sobre una única generación bajo bloqueo de lectura.
func (s *CatalogStore) View(fn func(r repository.CatalogReader) error) error {
	g := s.current.Load()
	g.mu.RLock()
	defer g.mu.RUnlock()
	return fn(reader{g: g})
}

func (s *CatalogStore) read() (reader, func()) {
	g := s.current.Load()
	g.mu.RLock()
	return reader{g: g}, g.mu.RUnlock
}

// Snapshot copia el estado actual en formato tabular.
func (s *CatalogStore) Snapshot() *entity.Snapshot {
	r, done := s.read()
	defer done()
	return r.g.snapshot()
}

// GetMaterial busca un material por código.
func (s *CatalogStore) GetMaterial(code string) (*entity.Material, error) {
	r, done := s.read()
	defer done()
	return r.GetMaterial(code)
}

// ListMaterials lista todos los materiales ordenados por código.
func (s *CatalogStore) ListMaterials() []entity.Material {
	r, done := s.read()
	defer done()
	return r.ListMaterials()
}

// SearchMaterials busca por código o descripción.
func (s *CatalogStore) SearchMaterials(query string, limit int) []entity.Material {
	r, done := s.read()
	defer done()
	return r.SearchMaterials(query, limit)
}

// UnpricedMaterials materiales sin precio conocido.
func (s *CatalogStore) UnpricedMaterials() []entity.Material {
	r, done := s.read()
	defer done()
	return r.UnpricedMaterials()
}

// GetKit devuelve el kit con su composición.
func (s *CatalogStore) GetKit(kitCode string) (*entity.Kit, error) {
	r, done := s.read()
	defer done()
	return r.GetKit(kitCode)
}

// GetComposition devuelve la composición del kit.
func (s *CatalogStore) GetComposition(kitCode string) (entity.Composition, error) {
	r, done := s.read()
	defer done()
	return r.GetComposition(kitCode)
}

// ListKits resumen de kits ordenados por código.
func (s *CatalogStore) ListKits() []entity.KitSummary {
	r, done := s.read()
	defer done()
	return r.ListKits()
}

// SearchKits busca por código o nombre.
func (s *CatalogStore) SearchKits(query string, limit int) []entity.KitSummary {
	r, done := s.read()
	defer done()
	return r.SearchKits(query, limit)
}

// KitsUsingMaterial kits cuya composición incluye el material (índice por material).
func (s *CatalogStore) KitsUsingMaterial(materialCode string) []string {
	r, done := s.read()
	defer done()
	return r.KitsUsingMaterial(materialCode)
}

// DanglingReferences líneas que apuntan a materiales ausentes del catálogo.
func (s *CatalogStore) DanglingReferences() []entity.DanglingReference {
	r, done := s.read()
	defer done()
	return r.DanglingReferences()
}

// GetService busca un servicio por código.
func (s *CatalogStore) GetService(code string) (*entity.Service, error) {
	r, done := s.read()
	defer done()
	return r.GetService(code)
}

// ListServices lista los servicios ordenados por código.
func (s *CatalogStore) ListServices() []entity.Service {
	r, done := s.read()
	defer done()
	return r.ListServices()
}

// Stats conteos del catálogo.
func (s *CatalogStore) Stats() entity.Stats {
	r, done := s.read()
	defer done()
	return r.Stats()
}

// ── Adaptadores sobre una generación ─────────────────────────────────────────

// reader asume que el llamador tiene el bloqueo de lectura de g.
type reader struct{ g *generation }

func (r reader) GetMaterial(code string) (*entity.Material, error) {
	return r.g.getMaterial(code)
}

func (r reader) ListMaterials() []entity.Material {
	return r.g.listMaterials(nil, 0)
}

func (r reader) SearchMaterials(q string, limit int) []entity.Material {
	return r.g.searchMaterials(q, limit)
}

func (r reader) UnpricedMaterials() []entity.Material {
	return r.g.unpricedMaterials()
}

func (r reader) GetKit(code string) (*entity.Kit, error) {
	return r.g.getKit(code)
}

func (r reader) GetComposition(code string) (entity.Composition, error) {
	return r.g.getComposition(code)
}

func (r reader) ListKits() []entity.KitSummary {
	return r.g.listKits(nil, 0)
}

func (r reader) SearchKits(q string, limit int) []entity.KitSummary {
	return r.g.searchKits(q, limit)
}

func (r reader) KitsUsingMaterial(code string) []string {
	return r.g.kitsUsingMaterial(code)
}

func (r reader) DanglingReferences() []entity.DanglingReference {
	return r.g.danglingReferences()
}

func (r reader) GetService(code string) (*entity.Service, error) {
	return r.g.getService(code)
}

func (r reader) ListServices() []entity.Service {
	return r.g.listServices()
}

func (r reader) Stats() entity.Stats {
	return r.g.stats()
}

// writer toma el bloqueo de escritura de g en cada registro (confirmación atómica por registro).
type writer struct{ g *generation }

func (w writer) UpsertMaterial(m entity.Material) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.upsertMaterial(m)
}

func (w writer) UpsertKit(kitCode, name string) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.upsertKit(kitCode, name, true)
}

func (w writer) EnsureKit(kitCode, name string) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.upsertKit(kitCode, name, false)
}

func (w writer) AddLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.putLine(kitCode, materialCode, qty, true)
}

func (w writer) SetLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.putLine(kitCode, materialCode, qty, false)
}

func (w writer) UpsertService(s entity.Service) (entity.Outcome, error) {
	w.g.mu.Lock()
	defer w.g.mu.Unlock()
	return w.g.upsertService(s)
}

// ── Restauración ─────────────────────────────────────────────────────────────

func fromSnapshot(snap *entity.Snapshot) (*generation, error) {
	g := newGeneration()
	if snap == nil {
		return g, nil
	}
	for _, m := range snap.Materials {
		switch {
		case m.Code == "":
			return nil, corruption("materials", m.Code, "código vacío")
		case m.UnitPrice.IsNegative():
			return nil, corruption("materials", m.Code, "precio negativo")
		case !m.Confidence.Valid():
			return nil, corruption("materials", m.Code, "nivel de confianza fuera de rango")
		}
		if _, dup := g.materials[m.Code]; dup {
			return nil, corruption("materials", m.Code, "clave duplicada")
		}
		cp := m
		g.materials[m.Code] = &cp
	}
	for _, k := range snap.Kits {
		if k.Code == "" {
			return nil, corruption("kits", k.Code, "código vacío")
		}
		if _, dup := g.kits[k.Code]; dup {
			return nil, corruption("kits", k.Code, "clave duplicada")
		}
		g.kits[k.Code] = &kitRow{name: k.Name, lines: entity.Composition{}}
	}
	for _, l := range snap.Composition {
		key := l.KitCode + "/" + l.MaterialCode
		row, ok := g.kits[l.KitCode]
		switch {
		case !ok:
			return nil, corruption("kit_composition", key, "la línea no tiene kit")
		case l.MaterialCode == "":
			return nil, corruption("kit_composition", key, "código de material vacío")
		case !l.Quantity.IsPositive():
			return nil, corruption("kit_composition", key, "cantidad no positiva")
		}
		if _, dup := row.lines[l.MaterialCode]; dup {
			return nil, corruption("kit_composition", key, "clave duplicada")
		}
		if _, err := g.putLine(l.KitCode, l.MaterialCode, l.Quantity, false); err != nil {
			return nil, corruption("kit_composition", key, err.Error())
		}
	}
	for _, svc := range snap.Services {
		switch {
		case svc.Code == "":
			return nil, corruption("services", svc.Code, "código vacío")
		case svc.GrossPrice.IsNegative():
			return nil, corruption("services", svc.Code, "precio negativo")
		case !svc.Confidence.Valid():
			return nil, corruption("services", svc.Code, "nivel de confianza fuera de rango")
		}
		if _, dup := g.services[svc.Code]; dup {
			return nil, corruption("services", svc.Code, "clave duplicada")
		}
		cp := svc
		g.services[svc.Code] = &cp
	}
	return g, nil
}

func corruption(table, key, reason string) error {
	return &domain.StoreCorruptionError{Table: table, Key: key, Reason: reason}
}
