package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// CatalogReader consultas sobre materiales, kits y servicios. Las implementaciones devuelven copias.
type CatalogReader interface {
	GetMaterial(code string) (*entity.Material, error)
	ListMaterials() []entity.Material
	SearchMaterials(query string, limit int) []entity.Material
	UnpricedMaterials() []entity.Material

	GetKit(kitCode string) (*entity.Kit, error)
	GetComposition(kitCode string) (entity.Composition, error)
	ListKits() []entity.KitSummary
	SearchKits(query string, limit int) []entity.KitSummary
	KitsUsingMaterial(materialCode string) []string
	DanglingReferences() []entity.DanglingReference

	GetService(code string) (*entity.Service, error)
	ListServices() []entity.Service

	Stats() entity.Stats
}

// CatalogWriter escritura registro a registro. Cada llamada se confirma completa o no se aplica.
type CatalogWriter interface {
	UpsertMaterial(m entity.Material) (entity.Outcome, error)
	UpsertKit(kitCode, name string) (entity.Outcome, error)
	// EnsureKit crea el kit solo si no existe; nunca renombra.
	EnsureKit(kitCode, name string) (entity.Outcome, error)
	AddLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error)
	SetLine(kitCode, materialCode string, qty decimal.Decimal) (entity.Outcome, error)
	UpsertService(s entity.Service) (entity.Outcome, error)
}

// CatalogStore almacén del catálogo con lectura consistente y recarga atómica.
type CatalogStore interface {
	CatalogReader
	CatalogWriter

	// View ejecuta fn sobre una única generación del almacén (lectura consistente).
	View(fn func(r CatalogReader) error) error
	// Rebuild construye una generación nueva desde cero con build y la publica atómicamente
	// solo si build y commit terminan sin error.
	Rebuild(build func(w CatalogWriter) error, commit func(snap *entity.Snapshot) error) error
	// Snapshot copia el estado actual en formato tabular.
	Snapshot() *entity.Snapshot
	// Restore reemplaza el estado con un snapshot validado (carga al iniciar).
	Restore(snap *entity.Snapshot) error
}

// SnapshotRepository puerto de persistencia durable del catálogo completo.
type SnapshotRepository interface {
	Load(ctx context.Context) (*entity.Snapshot, error)
	Save(ctx context.Context, snap *entity.Snapshot) error
}
