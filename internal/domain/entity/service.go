package entity

import "github.com/shopspring/decimal"

// Service ítem de mano de obra / servicio con precio bruto plano. No se compone en kits.
type Service struct {
	Code        string
	Description string
	Unit        string
	GrossPrice  decimal.Decimal
	Confidence  Confidence
}
