package entity

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Composition cantidades por código de material dentro de un kit. Cantidades siempre > 0.
type Composition map[string]decimal.Decimal

// Add suma qty a la línea del material (líneas repetidas se acumulan, no se duplican).
func (c Composition) Add(materialCode string, qty decimal.Decimal) {
	c[materialCode] = c[materialCode].Add(qty)
}

// Clone copia la composición.
func (c Composition) Clone() Composition {
	out := make(Composition, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Codes devuelve los códigos de material ordenados.
func (c Composition) Codes() []string {
	codes := make([]string, 0, len(c))
	for k := range c {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

// Kit plantilla reutilizable de materiales (estructura / ramal).
type Kit struct {
	Code        string
	Name        string
	Composition Composition
}

// KitSummary resumen para listados.
type KitSummary struct {
	Code      string
	Name      string
	LineCount int
}

// DanglingReference línea de composición que apunta a un material ausente del catálogo.
type DanglingReference struct {
	KitCode      string
	MaterialCode string
	Quantity     decimal.Decimal
}
