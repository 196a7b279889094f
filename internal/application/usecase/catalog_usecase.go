package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// searchAll sin tope: la paginación se aplica después para informar el total real.
const searchAll = math.MaxInt32

// KitPricer calcula la lista de materiales de un conjunto de kits.
type KitPricer interface {
	PriceKits(ctx context.Context, kitCodes []string) (*entity.BillOfMaterials, error)
}

// BOMRenderer genera un documento descargable de la lista de materiales.
type BOMRenderer interface {
	Render(ctx context.Context, bom *entity.BillOfMaterials) ([]byte, error)
	ContentType() string
	Extension() string
}

// ExportedBOM documento generado.
type ExportedBOM struct {
	Data        []byte
	ContentType string
	FileName    string
}

// CatalogUseCase consultas del catálogo y costeo para la capa de presentación.
type CatalogUseCase struct {
	catalog   repository.CatalogReader
	pricer    KitPricer
	renderers map[string]BOMRenderer
}

// NewCatalogUseCase construye el caso de uso. renderers se indexan por extensión (xlsx, pdf).
func NewCatalogUseCase(catalog repository.CatalogReader, pricer KitPricer, renderers ...BOMRenderer) *CatalogUseCase {
	uc := &CatalogUseCase{catalog: catalog, pricer: pricer, renderers: make(map[string]BOMRenderer, len(renderers))}
	for _, r := range renderers {
		uc.renderers[r.Extension()] = r
	}
	return uc
}

// GetMaterial obtiene un material por código.
func (uc *CatalogUseCase) GetMaterial(code string) (*dto.MaterialResponse, error) {
	m, err := uc.catalog.GetMaterial(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	out := toMaterialResponse(*m)
	return &out, nil
}

// ListMaterials lista paginada; con Query filtra por código o descripción.
func (uc *CatalogUseCase) ListMaterials(in dto.MaterialListRequest) *dto.MaterialListResponse {
	in.DefaultPage()
	var all []entity.Material
	if q := strings.TrimSpace(in.Query); q != "" {
		all = uc.catalog.SearchMaterials(q, searchAll)
	} else {
		all = uc.catalog.ListMaterials()
	}
	items := page(all, in.PageRequest)
	out := &dto.MaterialListResponse{
		Items: make([]dto.MaterialResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: len(all)},
	}
	for _, m := range items {
		out.Items = append(out.Items, toMaterialResponse(m))
	}
	return out
}

// UnpricedMaterials materiales con precio cero.
func (uc *CatalogUseCase) UnpricedMaterials() []dto.MaterialResponse {
	ms := uc.catalog.UnpricedMaterials()
	out := make([]dto.MaterialResponse, 0, len(ms))
	for _, m := range ms {
		out = append(out, toMaterialResponse(m))
	}
	return out
}

// MaterialUsage kits cuya composición incluye el material (aunque no esté en el catálogo).
func (uc *CatalogUseCase) MaterialUsage(code string) (*dto.MaterialUsageResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("request", "code", "", "código vacío")
	}
	_, err := uc.catalog.GetMaterial(code)
	kits := uc.catalog.KitsUsingMaterial(code)
	if err != nil && len(kits) == 0 {
		return nil, err
	}
	return &dto.MaterialUsageResponse{MaterialCode: code, InCatalog: err == nil, Kits: kits}, nil
}

// GetKit kit con su composición; cada línea indica si el material existe en el catálogo.
func (uc *CatalogUseCase) GetKit(code string) (*dto.KitResponse, error) {
	var out *dto.KitResponse
	err := uc.view(func(r repository.CatalogReader) error {
		kit, err := r.GetKit(strings.TrimSpace(code))
		if err != nil {
			return err
		}
		out = &dto.KitResponse{Code: kit.Code, Name: kit.Name, Lines: make([]dto.KitLineResponse, 0, len(kit.Composition))}
		for _, materialCode := range kit.Composition.Codes() {
			line := dto.KitLineResponse{MaterialCode: materialCode, Quantity: kit.Composition[materialCode]}
			if m, err := r.GetMaterial(materialCode); err == nil {
				line.InCatalog = true
				line.Description = m.Description
			}
			out.Lines = append(out.Lines, line)
		}
		return nil
	})
	return out, err
}

// ListKits lista paginada; con Query filtra por código o nombre.
func (uc *CatalogUseCase) ListKits(in dto.KitListRequest) *dto.KitListResponse {
	in.DefaultPage()
	var all []entity.KitSummary
	if q := strings.TrimSpace(in.Query); q != "" {
		all = uc.catalog.SearchKits(q, searchAll)
	} else {
		all = uc.catalog.ListKits()
	}
	items := page(all, in.PageRequest)
	out := &dto.KitListResponse{
		Items: make([]dto.KitSummaryResponse, 0, len(items)),
		Page:  dto.PageResponse{Limit: in.Limit, Offset: in.Offset, Total: len(all)},
	}
	for _, k := range items {
		out.Items = append(out.Items, dto.KitSummaryResponse{Code: k.Code, Name: k.Name, LineCount: k.LineCount})
	}
	return out
}

// GetService obtiene un servicio por código.
func (uc *CatalogUseCase) GetService(code string) (*dto.ServiceResponse, error) {
	s, err := uc.catalog.GetService(strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	out := toServiceResponse(*s)
	return &out, nil
}

// ListServices lista todos los servicios.
func (uc *CatalogUseCase) ListServices() []dto.ServiceResponse {
	ss := uc.catalog.ListServices()
	out := make([]dto.ServiceResponse, 0, len(ss))
	for _, s := range ss {
		out = append(out, toServiceResponse(s))
	}
	return out
}

// Stats conteos del catálogo.
func (uc *CatalogUseCase) Stats() dto.StatsResponse {
	st := uc.catalog.Stats()
	return dto.StatsResponse{
		Materials:         st.Materials,
		PricedMaterials:   st.PricedMaterials,
		Kits:              st.Kits,
		CompositionLines:  st.CompositionLines,
		Services:          st.Services,
		DanglingLineCount: st.DanglingLineCount,
	}
}

// DanglingReferences reporte de líneas con material ausente.
func (uc *CatalogUseCase) DanglingReferences() []dto.DanglingReferenceResponse {
	refs := uc.catalog.DanglingReferences()
	out := make([]dto.DanglingReferenceResponse, 0, len(refs))
	for _, r := range refs {
		out = append(out, dto.DanglingReferenceResponse{KitCode: r.KitCode, MaterialCode: r.MaterialCode, Quantity: r.Quantity})
	}
	return out
}

// PriceKits calcula la lista de materiales.
func (uc *CatalogUseCase) PriceKits(ctx context.Context, in dto.PriceKitsRequest) (*dto.BOMResponse, error) {
	bom, err := uc.pricer.PriceKits(ctx, in.KitCodes)
	if err != nil {
		return nil, err
	}
	return toBOMResponse(bom), nil
}

// ExportBOM calcula la lista de materiales y la genera en el formato pedido.
func (uc *CatalogUseCase) ExportBOM(ctx context.Context, format string, in dto.PriceKitsRequest) (*ExportedBOM, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	r, ok := uc.renderers[format]
	if !ok {
		return nil, domain.NewValidationError("request", "format", format, "formato no soportado; use "+strings.Join(uc.formats(), " o "))
	}
	bom, err := uc.pricer.PriceKits(ctx, in.KitCodes)
	if err != nil {
		return nil, err
	}
	data, err := r.Render(ctx, bom)
	if err != nil {
		return nil, fmt.Errorf("exportar BOM: %w", err)
	}
	return &ExportedBOM{
		Data:        data,
		ContentType: r.ContentType(),
		FileName:    "bom_" + strings.Join(bom.KitCodes, "_") + "." + r.Extension(),
	}, nil
}

func (uc *CatalogUseCase) formats() []string {
	out := make([]string, 0, len(uc.renderers))
	for f := range uc.renderers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// view usa una lectura consistente si el catálogo la ofrece.
func (uc *CatalogUseCase) view(fn func(r repository.CatalogReader) error) error {
	if v, ok := uc.catalog.(interface {
		View(fn func(r repository.CatalogReader) error) error
	}); ok {
		return v.View(fn)
	}
	return fn(uc.catalog)
}

// ── mapeos ───────────────────────────────────────────────────────────────────

func page[T any](all []T, p dto.PageRequest) []T {
	if p.Offset >= len(all) {
		return nil
	}
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[p.Offset:end]
}

func toMaterialResponse(m entity.Material) dto.MaterialResponse {
	return dto.MaterialResponse{
		Code:        m.Code,
		Description: m.Description,
		Unit:        m.Unit,
		UnitPrice:   m.UnitPrice,
		Priced:      m.IsPriced(),
		Confidence:  m.Confidence.String(),
	}
}

func toServiceResponse(s entity.Service) dto.ServiceResponse {
	return dto.ServiceResponse{
		Code:        s.Code,
		Description: s.Description,
		Unit:        s.Unit,
		GrossPrice:  s.GrossPrice,
		Confidence:  s.Confidence.String(),
	}
}

func toBOMResponse(bom *entity.BillOfMaterials) *dto.BOMResponse {
	out := &dto.BOMResponse{
		KitCodes:      bom.KitCodes,
		Lines:         make([]dto.BOMLineResponse, 0, len(bom.Lines)),
		GrandTotal:    bom.GrandTotal,
		PricedCount:   bom.PricedCount,
		TotalCount:    bom.TotalCount,
		CoverageRatio: bom.CoverageRatio,
		Unpriced:      bom.Unpriced,
	}
	if out.Unpriced == nil {
		out.Unpriced = []string{}
	}
	for _, l := range bom.Lines {
		out.Lines = append(out.Lines, dto.BOMLineResponse{
			Code:         l.Code,
			Description:  l.Description,
			Unit:         l.Unit,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			LineSubtotal: l.LineSubtotal,
			Priced:       l.Priced,
			InCatalog:    l.InCatalog,
		})
	}
	return out
}
