package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// Entry campos sujetos a la regla de fusión por confianza (comunes a Material y Service).
type Entry struct {
	Description string
	Unit        string
	Price       decimal.Decimal
	Confidence  entity.Confidence
}

// Merge aplica la regla de fusión por confianza (servicio de dominio, determinista e idempotente).
//
//   - current nil: se inserta tal cual (created).
//   - confianza mayor: sobrescribe descripción y unidad; precio solo si el entrante es > 0; sube la confianza.
//   - confianza igual: solo completa campos sin valor (descripción vacía, precio cero, unidad por defecto).
//   - confianza menor: solo completa un precio cero con uno distinto de cero.
//
// Un precio cero nunca borra un precio conocido.
func Merge(current *Entry, in Entry) (Entry, entity.Outcome) {
	if current == nil {
		return in, entity.OutcomeCreated
	}
	out := *current
	switch {
	case in.Confidence > current.Confidence:
		out.Description = in.Description
		out.Unit = in.Unit
		if in.Price.IsPositive() {
			out.Price = in.Price
		}
		out.Confidence = in.Confidence
		return out, entity.OutcomeUpdated

	case in.Confidence == current.Confidence:
		changed := false
		if out.Description == "" && in.Description != "" {
			out.Description = in.Description
			changed = true
		}
		if isDefaultUnit(out.Unit) && !isDefaultUnit(in.Unit) {
			out.Unit = in.Unit
			changed = true
		}
		if fillPrice(&out, in.Price) {
			changed = true
		}
		if changed {
			return out, entity.OutcomeUpdated
		}
		return out, entity.OutcomeUnchanged

	default:
		if fillPrice(&out, in.Price) {
			return out, entity.OutcomeUpdated
		}
		return out, entity.OutcomeUnchanged
	}
}

// MergeMaterial aplica Merge sobre un material. current nil = código nuevo.
func MergeMaterial(current *entity.Material, in entity.Material) (entity.Material, entity.Outcome) {
	var cur *Entry
	if current != nil {
		cur = &Entry{Description: current.Description, Unit: current.Unit, Price: current.UnitPrice, Confidence: current.Confidence}
	}
	e, outcome := Merge(cur, Entry{Description: in.Description, Unit: in.Unit, Price: in.UnitPrice, Confidence: in.Confidence})
	return entity.Material{
		Code:        in.Code,
		Description: e.Description,
		Unit:        e.Unit,
		UnitPrice:   e.Price,
		Confidence:  e.Confidence,
	}, outcome
}

// MergeService aplica Merge sobre un servicio (GrossPrice cumple el rol de precio).
func MergeService(current *entity.Service, in entity.Service) (entity.Service, entity.Outcome) {
	var cur *Entry
	if current != nil {
		cur = &Entry{Description: current.Description, Unit: current.Unit, Price: current.GrossPrice, Confidence: current.Confidence}
	}
	e, outcome := Merge(cur, Entry{Description: in.Description, Unit: in.Unit, Price: in.GrossPrice, Confidence: in.Confidence})
	return entity.Service{
		Code:        in.Code,
		Description: e.Description,
		Unit:        e.Unit,
		GrossPrice:  e.Price,
		Confidence:  e.Confidence,
	}, outcome
}

func fillPrice(e *Entry, incoming decimal.Decimal) bool {
	if e.Price.IsPositive() || !incoming.IsPositive() {
		return false
	}
	e.Price = incoming
	return true
}

func isDefaultUnit(u string) bool {
	return u == "" || u == entity.DefaultUnit
}
