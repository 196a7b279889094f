package ingestion

import (
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// Recorder recibe los resultados de cada pasada de ingesta (métricas). Puede ser nil.
type Recorder interface {
	ObserveBatch(report entity.IngestionReport)
	ObserveStore(stats entity.Stats)
}

// Source una fuente de registros con su nivel de confianza.
type Source struct {
	Name       string
	Records    []entity.RawRecord
	Confidence entity.Confidence
}
