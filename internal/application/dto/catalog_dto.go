package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// MaterialListRequest filtros del listado de materiales.
type MaterialListRequest struct {
	PageRequest
	Query string `query:"q"`
}

// MaterialResponse salida de un material.
type MaterialResponse struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Priced      bool            `json:"priced"`
	Confidence  string          `json:"confidence"`
}

// MaterialListResponse lista paginada de materiales.
type MaterialListResponse struct {
	Items []MaterialResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// MaterialUsageResponse kits que usan un material.
type MaterialUsageResponse struct {
	MaterialCode string   `json:"material_code"`
	InCatalog    bool     `json:"in_catalog"`
	Kits         []string `json:"kits"`
}

// KitListRequest filtros del listado de kits.
type KitListRequest struct {
	PageRequest
	Query string `query:"q"`
}

// KitSummaryResponse resumen de un kit.
type KitSummaryResponse struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	LineCount int    `json:"line_count"`
}

// KitListResponse lista paginada de kits.
type KitListResponse struct {
	Items []KitSummaryResponse `json:"items"`
	Page  PageResponse         `json:"page"`
}

// KitLineResponse una línea de composición.
type KitLineResponse struct {
	MaterialCode string          `json:"material_code"`
	Description  string          `json:"description,omitempty"`
	Quantity     decimal.Decimal `json:"quantity"`
	InCatalog    bool            `json:"in_catalog"`
}

// KitResponse kit con su composición ordenada por código de material.
type KitResponse struct {
	Code  string            `json:"code"`
	Name  string            `json:"name"`
	Lines []KitLineResponse `json:"lines"`
}

// ServiceResponse salida de un servicio (mano de obra).
type ServiceResponse struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Unit        string          `json:"unit"`
	GrossPrice  decimal.Decimal `json:"gross_price"`
	Confidence  string          `json:"confidence"`
}

// StatsResponse conteos del catálogo.
type StatsResponse struct {
	Materials         int `json:"materials"`
	PricedMaterials   int `json:"priced_materials"`
	Kits              int `json:"kits"`
	CompositionLines  int `json:"composition_lines"`
	Services          int `json:"services"`
	DanglingLineCount int `json:"dangling_line_count"`
}

// DanglingReferenceResponse línea que apunta a un material ausente del catálogo.
type DanglingReferenceResponse struct {
	KitCode      string          `json:"kit_code"`
	MaterialCode string          `json:"material_code"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// PriceKitsRequest entrada del costeo.
type PriceKitsRequest struct {
	KitCodes []string `json:"kit_codes"`
}

// BOMLineResponse línea de la lista de materiales.
type BOMLineResponse struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LineSubtotal decimal.Decimal `json:"line_subtotal"`
	Priced       bool            `json:"priced"`
	InCatalog    bool            `json:"in_catalog"`
}

// BOMResponse lista de materiales costeada.
type BOMResponse struct {
	KitCodes      []string          `json:"kit_codes"`
	Lines         []BOMLineResponse `json:"lines"`
	GrandTotal    decimal.Decimal   `json:"grand_total"`
	PricedCount   int               `json:"priced_count"`
	TotalCount    int               `json:"total_count"`
	CoverageRatio float64           `json:"coverage_ratio"`
	Unpriced      []string          `json:"unpriced"`
}

// IngestBatchRequest lote de registros crudos de una fuente.
type IngestBatchRequest struct {
	Source     string             `json:"source"`
	Confidence string             `json:"confidence"`
	Records    []entity.RawRecord `json:"records"`
}

// ReseedRequest fuentes en orden de aplicación para reconstruir el catálogo.
type ReseedRequest struct {
	Sources []IngestBatchRequest `json:"sources"`
}

// IngestionReportResponse resumen de una pasada de ingesta.
type IngestionReportResponse struct {
	BatchID    string             `json:"batch_id"`
	Source     string             `json:"source"`
	Confidence string             `json:"confidence,omitempty"`
	Created    int                `json:"created"`
	Updated    int                `json:"updated"`
	Unchanged  int                `json:"unchanged"`
	Rejected   int                `json:"rejected"`
	Rejections []entity.Rejection `json:"rejections,omitempty"`
}
