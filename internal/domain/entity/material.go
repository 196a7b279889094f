package entity

import "github.com/shopspring/decimal"

// DefaultUnit unidad genérica cuando la fuente no la informa.
const DefaultUnit = "UN"

// Material representa un ítem del catálogo canónico, identificado por su código (SAP).
// UnitPrice en cero significa "sin precio conocido", nunca un precio real.
type Material struct {
	Code        string
	Description string
	Unit        string
	UnitPrice   decimal.Decimal
	Confidence  Confidence // nivel de la fuente más confiable que aportó datos
}

// IsPriced indica si el material tiene precio conocido (> 0).
func (m Material) IsPriced() bool {
	return m.UnitPrice.IsPositive()
}
