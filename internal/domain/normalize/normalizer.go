// Package normalize valida y canonicaliza los registros candidatos que entregan los extractores
// (planillas y PDFs) antes de que lleguen a los almacenes del catálogo.
package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// MinItemCodeLength largo mínimo de códigos de material y servicio.
const MinItemCodeLength = 5

// MaxExponent tope del exponente decimal de precios y cantidades; fuera de ±MaxExponent el valor es ausente.
const MaxExponent = 30

// Representaciones de "sin dato" que dejan las conversiones de planillas.
var missingTokens = map[string]struct{}{
	"nan":  {},
	"none": {},
	"null": {},
	"<na>": {},
}

// Normalize valida un registro crudo. Devuelve *domain.ValidationError si debe rechazarse.
func Normalize(raw entity.RawRecord) (entity.NormalizedRecord, error) {
	kind := entity.RecordKind(strings.ToLower(strings.TrimSpace(string(raw.Kind))))
	out := entity.NormalizedRecord{Kind: kind}
	var err error

	switch kind {
	case entity.KindMaterial:
		if out.Code, err = itemCode(kind, "code", raw.Code); err != nil {
			return out, err
		}
		if out.Description, err = requiredText(kind, "description", raw.Description); err != nil {
			return out, err
		}
		out.Unit = Unit(string(raw.Unit))
		out.Price = price(raw.UnitPrice)

	case entity.KindService:
		if out.Code, err = itemCode(kind, "code", raw.Code); err != nil {
			return out, err
		}
		if out.Description, err = requiredText(kind, "description", raw.Description); err != nil {
			return out, err
		}
		out.Unit = Unit(string(raw.Unit))
		out.Price = price(raw.GrossPrice)

	case entity.KindKit:
		if out.KitCode, err = kitCode(kind, raw.KitCode, raw.Code); err != nil {
			return out, err
		}
		if out.KitName, err = requiredText(kind, "name", firstNonEmpty(raw.Name, raw.KitName)); err != nil {
			return out, err
		}

	case entity.KindKitLine:
		if out.KitCode, err = kitCode(kind, raw.KitCode, ""); err != nil {
			return out, err
		}
		if out.MaterialCode, err = itemCode(kind, "material_code", raw.MaterialCode); err != nil {
			return out, err
		}
		out.KitName, _ = Text(string(raw.KitName))
		qty, ok := ParseNumber(string(raw.Quantity))
		if !ok {
			qty = decimal.NewFromInt(1)
		}
		if !qty.IsPositive() {
			return out, domain.NewValidationError(string(kind), "quantity", string(raw.Quantity), "la cantidad debe ser mayor que cero")
		}
		out.Quantity = qty

	default:
		return out, domain.NewValidationError(string(kind), "kind", string(raw.Kind), "tipo de registro desconocido")
	}
	return out, nil
}

// Code recorta espacios y elimina el sufijo ".0" que deja la conversión número→texto.
func Code(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ".0")
	return strings.TrimSpace(s)
}

// Text recorta y colapsa espacios; ok=false si queda vacío o es un marcador de dato faltante.
func Text(s string) (string, bool) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || IsMissing(s) {
		return "", false
	}
	return s, true
}

// IsMissing indica si el texto es un marcador de "sin dato" (nan, none, null, <na>).
func IsMissing(s string) bool {
	_, ok := missingTokens[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// Unit canonicaliza la unidad de medida (mayúsculas); vacía o faltante → DefaultUnit.
func Unit(s string) string {
	u, ok := Text(s)
	if !ok {
		return entity.DefaultUnit
	}
	return strings.ToUpper(u)
}

// ParseNumber interpreta un número tolerando coma decimal, separadores de miles y prefijo de moneda.
// ok=false si no se puede interpretar, es NaN o infinito.
func ParseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" || IsMissing(s) {
		return decimal.Zero, false
	}

	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case comma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case dot >= 0 && strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	}

	// Desbordes ("1e400") llegan como ±Inf con ErrRange: también son ausentes.
	if f, err := strconv.ParseFloat(s, 64); (err == nil || errors.Is(err, strconv.ErrRange)) && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > MaxExponent || exp < -MaxExponent {
		return decimal.Zero, false
	}
	return d, true
}

func price(v entity.RawValue) decimal.Decimal {
	d, ok := ParseNumber(string(v))
	if !ok || d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func itemCode(kind entity.RecordKind, field string, v entity.RawValue) (string, error) {
	code := Code(string(v))
	switch {
	case code == "" || IsMissing(code):
		return "", domain.NewValidationError(string(kind), field, string(v), "código vacío")
	case len([]rune(code)) < MinItemCodeLength:
		return "", domain.NewValidationError(string(kind), field, string(v), "código demasiado corto")
	case strings.IndexFunc(code, unicode.IsDigit) < 0:
		return "", domain.NewValidationError(string(kind), field, string(v), "el código no contiene dígitos")
	}
	return code, nil
}

// kitCode los códigos de kit son alfanuméricos libres; solo se rechaza el vacío.
func kitCode(kind entity.RecordKind, v entity.RawValue, fallback entity.RawValue) (string, error) {
	code := Code(string(v))
	if code == "" {
		code = Code(string(fallback))
	}
	if code == "" || IsMissing(code) {
		return "", domain.NewValidationError(string(kind), "kit_code", string(v), "código de kit vacío")
	}
	return code, nil
}

func requiredText(kind entity.RecordKind, field string, v entity.RawValue) (string, error) {
	s, ok := Text(string(v))
	if !ok {
		return "", domain.NewValidationError(string(kind), field, string(v), "texto vacío o marcador de dato faltante")
	}
	return s, nil
}

func firstNonEmpty(vals ...entity.RawValue) entity.RawValue {
	for _, v := range vals {
		if strings.TrimSpace(string(v)) != "" {
			return v
		}
	}
	return ""
}
