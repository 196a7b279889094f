package entity

import "github.com/shopspring/decimal"

// CompositionLine fila de la tabla kit_composition.
type CompositionLine struct {
	KitCode      string
	MaterialCode string
	Quantity     decimal.Decimal
}

// Snapshot estado completo de los tres almacenes, en el formato tabular persistido.
type Snapshot struct {
	Materials   []Material
	Kits        []KitSummary // LineCount se ignora al restaurar
	Composition []CompositionLine
	Services    []Service
}

// Stats conteos del catálogo.
type Stats struct {
	Materials         int
	PricedMaterials   int
	Kits              int
	CompositionLines  int
	Services          int
	DanglingLineCount int
}
