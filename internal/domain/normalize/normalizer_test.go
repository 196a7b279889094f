package normalize_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/normalize"
)

// ──────────────────────────────────────────────────────────────────────────────
// Códigos
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_MaterialValido(t *testing.T) {
	rec, err := normalize.Normalize(entity.RawRecord{
		Kind:        "material",
		Code:        " 300012.0 ",
		Description: "  CABO   ALUMINIO 4 AWG ",
		Unit:        "m",
		UnitPrice:   "12,50",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.KindMaterial, rec.Kind)
	assert.Equal(t, "300012", rec.Code)
	assert.Equal(t, "CABO ALUMINIO 4 AWG", rec.Description)
	assert.Equal(t, "M", rec.Unit)
	assert.True(t, rec.Price.Equal(decimal.RequireFromString("12.5")))
}

func TestNormalize_CodigosRechazados(t *testing.T) {
	cases := map[string]entity.RawValue{
		"vacío":       "   ",
		"solo .0":     ".0",
		"corto":       "1234",
		"sin dígitos": "ABCDEF",
		"marcador":    "nan",
	}
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := normalize.Normalize(entity.RawRecord{Kind: "material", Code: code, Description: "X"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "code", vErr.Field)
		})
	}
}

func TestNormalize_CodigoDeKitSinDigitosEsValido(t *testing.T) {
	rec, err := normalize.Normalize(entity.RawRecord{Kind: "kit", KitCode: "CE-A", Name: "Estrutura CE"})
	require.NoError(t, err)
	assert.Equal(t, "CE-A", rec.KitCode)
	assert.Equal(t, "Estrutura CE", rec.KitName)
}

// ──────────────────────────────────────────────────────────────────────────────
// Textos
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalize_DescripcionFaltante(t *testing.T) {
	for _, desc := range []entity.RawValue{"", "  ", "NaN", "None", "NULL", "<NA>"} {
		_, err := normalize.Normalize(entity.RawRecord{Kind: "material", Code: "300012", Description: desc})
		assert.Error(t, err, "descripción %q debe rechazarse", desc)
	}
}

func TestNormalize_KitSinNombreRechazado(t *testing.T) {
	_, err := normalize.Normalize(entity.RawRecord{Kind: "kit", KitCode: "CE2", Name: "nan"})
	assert.Error(t, err)
}

func TestNormalize_TipoDesconocido(t *testing.T) {
	_, err := normalize.Normalize(entity.RawRecord{Kind: "structure", Code: "300012"})
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "kind", vErr.Field)
}

// ──────────────────────────────────────────────────────────────────────────────
// Números
// ──────────────────────────────────────────────────────────────────────────────

func TestParseNumber(t *testing.T) {
	ok := map[string]string{
		"10":          "10",
		"12,5":        "12.5",
		"1.234,56":    "1234.56",
		"1,234.56":    "1234.56",
		"R$ 1.234,56": "1234.56",
		"1.234.567":   "1234567",
		" 3.75 ":      "3.75",
		"-2":          "-2",
	}
	for in, want := range ok {
		got, parsed := normalize.ParseNumber(in)
		require.True(t, parsed, "entrada %q", in)
		assert.True(t, got.Equal(decimal.RequireFromString(want)), "entrada %q: got %s want %s", in, got, want)
	}
	for _, in := range []string{"", "abc", "nan", "NaN", "inf", "-Infinity", "none", "1e400", "-1e400", "1e50000000", "1e-400"} {
		_, parsed := normalize.ParseNumber(in)
		assert.False(t, parsed, "entrada %q no debe interpretarse", in)
	}
}

func TestNormalize_PrecioInvalidoCaeAlDefecto(t *testing.T) {
	for _, p := range []entity.RawValue{"abc", "nan", "inf", "-5", "", "1e400", "-1e400"} {
		rec, err := normalize.Normalize(entity.RawRecord{Kind: "material", Code: "300012", Description: "X", UnitPrice: p})
		require.NoError(t, err, "un precio inválido no rechaza el registro")
		assert.True(t, rec.Price.IsZero())
		assert.Equal(t, entity.DefaultUnit, rec.Unit)
	}
}

func TestNormalize_CantidadDesbordadaUsaDefecto(t *testing.T) {
	rec, err := normalize.Normalize(entity.RawRecord{Kind: "kit_line", KitCode: "CE2", MaterialCode: "300012", Quantity: "1e400"})
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(1)))

	got, ok := normalize.ParseNumber("1e30")
	require.True(t, ok, "exponente en el tope se acepta")
	assert.True(t, got.Equal(decimal.New(1, 30)))
}

func TestNormalize_LineaDeKit(t *testing.T) {
	rec, err := normalize.Normalize(entity.RawRecord{Kind: "kit_line", KitCode: "CE2", MaterialCode: "300012", Quantity: "2,5"})
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.RequireFromString("2.5")))

	rec, err = normalize.Normalize(entity.RawRecord{Kind: "kit_line", KitCode: "CE2", MaterialCode: "300012", Quantity: "nan"})
	require.NoError(t, err)
	assert.True(t, rec.Quantity.Equal(decimal.NewFromInt(1)), "cantidad ausente usa el valor por defecto")

	_, err = normalize.Normalize(entity.RawRecord{Kind: "kit_line", KitCode: "CE2", MaterialCode: "300012", Quantity: "0"})
	assert.Error(t, err, "cantidad cero viola la composición")
}

func TestNormalize_Servicio(t *testing.T) {
	rec, err := normalize.Normalize(entity.RawRecord{Kind: "service", Code: "MO10025", Description: "INSTALAR POSTE", GrossPrice: "350,00"})
	require.NoError(t, err)
	assert.True(t, rec.Price.Equal(decimal.NewFromInt(350)))
}

func TestRawValue_AceptaNumerosYNull(t *testing.T) {
	var rec entity.RawRecord
	err := json.Unmarshal([]byte(`{"kind":"material","code":300012,"description":"X","unit":null,"unit_price":12.5}`), &rec)
	require.NoError(t, err)
	assert.Equal(t, entity.RawValue("300012"), rec.Code)
	assert.Equal(t, entity.RawValue(""), rec.Unit)
	assert.Equal(t, entity.RawValue("12.5"), rec.UnitPrice)
}
