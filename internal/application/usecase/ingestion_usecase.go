package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/Catalogo-api/internal/application/dto"
	"github.com/jhoicas/Catalogo-api/internal/application/ingestion"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

// Ingester operaciones de ingesta del coordinador.
type Ingester interface {
	IngestSource(ctx context.Context, src ingestion.Source) (entity.IngestionReport, error)
	ResetAndReingest(ctx context.Context, sources []ingestion.Source) (entity.IngestionReport, error)
}

// IngestionUseCase traduce lotes recibidos por la API al coordinador de ingesta.
type IngestionUseCase struct {
	ingester Ingester
}

// NewIngestionUseCase construye el caso de uso.
func NewIngestionUseCase(ingester Ingester) *IngestionUseCase {
	return &IngestionUseCase{ingester: ingester}
}

// IngestBatch aplica un lote sobre el catálogo vigente.
func (uc *IngestionUseCase) IngestBatch(ctx context.Context, in dto.IngestBatchRequest) (*dto.IngestionReportResponse, error) {
	src, err := toSource(in)
	if err != nil {
		return nil, err
	}
	report, err := uc.ingester.IngestSource(ctx, src)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

// Reseed reconstruye el catálogo desde cero con las fuentes en orden.
func (uc *IngestionUseCase) Reseed(ctx context.Context, in dto.ReseedRequest) (*dto.IngestionReportResponse, error) {
	if len(in.Sources) == 0 {
		return nil, domain.NewValidationError("request", "sources", "", "debe indicar al menos una fuente")
	}
	sources := make([]ingestion.Source, 0, len(in.Sources))
	for _, s := range in.Sources {
		src, err := toSource(s)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	report, err := uc.ingester.ResetAndReingest(ctx, sources)
	if err != nil {
		return nil, err
	}
	return toReportResponse(report), nil
}

func toSource(in dto.IngestBatchRequest) (ingestion.Source, error) {
	conf, err := entity.ParseConfidence(in.Confidence)
	if err != nil {
		return ingestion.Source{}, domain.NewValidationError("request", "confidence", in.Confidence, err.Error())
	}
	name := strings.TrimSpace(in.Source)
	if name == "" {
		name = "api"
	}
	return ingestion.Source{Name: name, Records: in.Records, Confidence: conf}, nil
}

func toReportResponse(r entity.IngestionReport) *dto.IngestionReportResponse {
	out := &dto.IngestionReportResponse{
		BatchID:    r.BatchID,
		Source:     r.Source,
		Created:    r.Created,
		Updated:    r.Updated,
		Unchanged:  r.Unchanged,
		Rejected:   r.Rejected,
		Rejections: r.Rejections,
	}
	if r.Confidence != entity.ConfidenceUnknown {
		out.Confidence = r.Confidence.String()
	}
	return out
}
