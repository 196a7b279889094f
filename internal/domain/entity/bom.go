package entity

import "github.com/shopspring/decimal"

// BOMLine línea agregada de la lista de materiales.
type BOMLine struct {
	Code         string
	Description  string
	Unit         string
	UnitPrice    decimal.Decimal
	Quantity     decimal.Decimal
	LineSubtotal decimal.Decimal
	Priced       bool
	InCatalog    bool
}

// BillOfMaterials resultado de expandir y costear un conjunto de kits.
type BillOfMaterials struct {
	KitCodes      []string
	Lines         []BOMLine
	GrandTotal    decimal.Decimal
	PricedCount   int
	TotalCount    int
	CoverageRatio float64
	Unpriced      []string // códigos sin precio o fuera del catálogo
}
