package costing

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
)

// CatalogViewer lectura consistente del catálogo (una sola generación por llamada).
type CatalogViewer interface {
	View(fn func(r repository.CatalogReader) error) error
}

// Observer recibe la duración de cada costeo (métricas).
type Observer interface {
	ObservePricing(elapsed time.Duration, lines int, err error)
}

// Engine motor de costeo: expande kits, agrega cantidades por material y cruza con el catálogo.
type Engine struct {
	catalog  CatalogViewer
	observer Observer
}

// NewEngine construye el motor. observer puede ser nil.
func NewEngine(catalog CatalogViewer, observer Observer) *Engine {
	return &Engine{catalog: catalog, observer: observer}
}

// PriceKits costea la unión de los kits pedidos. Si algún kit no existe falla la solicitud completa
// con *domain.UnknownKitError; nunca devuelve una lista parcial.
func (e *Engine) PriceKits(ctx context.Context, kitCodes []string) (bom *entity.BillOfMaterials, err error) {
	start := time.Now()
	defer func() {
		if e.observer != nil {
			lines := 0
			if bom != nil {
				lines = len(bom.Lines)
			}
			e.observer.ObservePricing(time.Since(start), lines, err)
		}
	}()

	codes := uniqueCodes(kitCodes)
	if len(codes) == 0 {
		return nil, domain.NewValidationError("request", "kit_codes", "", "debe indicar al menos un kit")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = e.catalog.View(func(r repository.CatalogReader) error {
		totals, err := aggregate(r, codes)
		if err != nil {
			return err
		}
		bom = price(r, codes, totals)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bom, nil
}

// aggregate suma cantidades por material en una sola pasada con un acumulador.
func aggregate(r repository.CatalogReader, kitCodes []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal)
	var missing []string
	for _, code := range kitCodes {
		comp, err := r.GetComposition(code)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				missing = append(missing, code)
				continue
			}
			return nil, err
		}
		if len(missing) > 0 {
			continue
		}
		for materialCode, qty := range comp {
			totals[materialCode] = totals[materialCode].Add(qty)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &domain.UnknownKitError{Missing: missing}
	}
	return totals, nil
}

func price(r repository.CatalogReader, kitCodes []string, totals map[string]decimal.Decimal) *entity.BillOfMaterials {
	bom := &entity.BillOfMaterials{
		KitCodes:   kitCodes,
		Lines:      make([]entity.BOMLine, 0, len(totals)),
		GrandTotal: decimal.Zero,
	}
	for code, qty := range totals {
		line := entity.BOMLine{Code: code, Quantity: qty, Unit: entity.DefaultUnit, UnitPrice: decimal.Zero, LineSubtotal: decimal.Zero}
		if m, err := r.GetMaterial(code); err == nil {
			line.InCatalog = true
			line.Description = m.Description
			line.Unit = m.Unit
			line.UnitPrice = m.UnitPrice
		}
		if line.UnitPrice.IsPositive() {
			line.Priced = true
			line.LineSubtotal = qty.Mul(line.UnitPrice)
			bom.GrandTotal = bom.GrandTotal.Add(line.LineSubtotal)
			bom.PricedCount++
		} else {
			bom.Unpriced = append(bom.Unpriced, code)
		}
		bom.Lines = append(bom.Lines, line)
	}
	bom.TotalCount = len(bom.Lines)
	bom.CoverageRatio = 1
	if bom.TotalCount > 0 {
		bom.CoverageRatio = float64(bom.PricedCount) / float64(bom.TotalCount)
	}

	// cases.Caser no se comparte entre goroutines: uno por llamada.
	fold := cases.Fold()
	keys := make(map[string]string, len(bom.Lines))
	for _, l := range bom.Lines {
		keys[l.Code] = fold.String(l.Description)
	}
	sort.Slice(bom.Lines, func(i, j int) bool {
		ki, kj := keys[bom.Lines[i].Code], keys[bom.Lines[j].Code]
		if ki != kj {
			return ki < kj
		}
		return bom.Lines[i].Code < bom.Lines[j].Code
	})
	sort.Strings(bom.Unpriced)
	return bom
}

func uniqueCodes(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
