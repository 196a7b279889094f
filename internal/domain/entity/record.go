package entity

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RecordKind tipo de registro candidato emitido por los extractores.
type RecordKind string

const (
	KindMaterial RecordKind = "material"
	KindKit      RecordKind = "kit"
	KindKitLine  RecordKind = "kit_line"
	KindService  RecordKind = "service"
)

// RawValue valor crudo de una celda. Acepta string, número o null en JSON y conserva el texto.
type RawValue string

// UnmarshalJSON conserva el literal de números y desempaqueta strings; null queda vacío.
func (v *RawValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = RawValue(s)
		return nil
	}
	*v = RawValue(b)
	return nil
}

// RawRecord registro candidato sin validar, tal como lo entrega un extractor.
type RawRecord struct {
	Kind         RecordKind `json:"kind"`
	Code         RawValue   `json:"code"`
	Description  RawValue   `json:"description"`
	Unit         RawValue   `json:"unit"`
	UnitPrice    RawValue   `json:"unit_price"`
	GrossPrice   RawValue   `json:"gross_price"`
	KitCode      RawValue   `json:"kit_code"`
	Name         RawValue   `json:"name"`
	KitName      RawValue   `json:"kit_name"`
	MaterialCode RawValue   `json:"material_code"`
	Quantity     RawValue   `json:"quantity"`
}

// NormalizedRecord registro validado y canonicalizado. Price es unit_price o gross_price según Kind.
type NormalizedRecord struct {
	Kind         RecordKind
	Code         string
	Description  string
	Unit         string
	Price        decimal.Decimal
	KitCode      string
	KitName      string
	MaterialCode string
	Quantity     decimal.Decimal
}

// Outcome resultado de aplicar un registro a un almacén.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeCreated
	OutcomeUpdated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}
