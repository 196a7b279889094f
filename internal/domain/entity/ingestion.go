package entity

// Rejection motivo de rechazo de un registro (diagnóstico de la fuente).
type Rejection struct {
	Index  int        `json:"index"`
	Kind   RecordKind `json:"kind"`
	Field  string     `json:"field,omitempty"`
	Value  string     `json:"value,omitempty"`
	Reason string     `json:"reason"`
}

// IngestionReport resumen de una pasada de ingesta.
type IngestionReport struct {
	BatchID    string
	Source     string
	Confidence Confidence
	Created    int
	Updated    int
	Unchanged  int
	Rejected   int
	Rejections []Rejection // acotado por la configuración del coordinador
}

// Count acumula un resultado.
func (r *IngestionReport) Count(o Outcome) {
	switch o {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	default:
		r.Unchanged++
	}
}

// Merge suma los contadores de otro reporte (re-seed de varias fuentes).
func (r *IngestionReport) Merge(other IngestionReport, maxRejections int) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Unchanged += other.Unchanged
	r.Rejected += other.Rejected
	for _, rej := range other.Rejections {
		if len(r.Rejections) >= maxRejections {
			break
		}
		r.Rejections = append(r.Rejections, rej)
	}
}

// Total registros procesados (aceptados + rechazados).
func (r IngestionReport) Total() int {
	return r.Created + r.Updated + r.Unchanged + r.Rejected
}
