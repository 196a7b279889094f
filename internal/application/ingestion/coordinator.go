// Package ingestion aplica lotes de registros candidatos al catálogo: normaliza, fusiona por
// confianza, confirma registro a registro y persiste el estado resultante.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
	"github.com/jhoicas/Catalogo-api/internal/domain/normalize"
	"github.com/jhoicas/Catalogo-api/internal/domain/repository"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// DefaultMaxRejections tope de motivos de rechazo que se guardan en un reporte.
const DefaultMaxRejections = 100

// Coordinator orquesta la ingesta sobre el almacén del catálogo.
type Coordinator struct {
	mu            sync.Mutex // una pasada (aplicar + persistir) a la vez
	store         repository.CatalogStore
	snapshots     repository.SnapshotRepository
	recorder      Recorder
	log           *logger.Logger
	maxRejections int
}

// NewCoordinator construye el coordinador. snapshots y recorder pueden ser nil (sin persistencia / sin métricas).
func NewCoordinator(
	store repository.CatalogStore,
	snapshots repository.SnapshotRepository,
	recorder Recorder,
	log *logger.Logger,
	maxRejections int,
) *Coordinator {
	if maxRejections <= 0 {
		maxRejections = DefaultMaxRejections
	}
	return &Coordinator{
		store:         store,
		snapshots:     snapshots,
		recorder:      recorder,
		log:           log,
		maxRejections: maxRejections,
	}
}

// IngestBatch aplica un lote anónimo con el nivel de confianza indicado.
func (c *Coordinator) IngestBatch(ctx context.Context, records []entity.RawRecord, confidence entity.Confidence) (entity.IngestionReport, error) {
	return c.IngestSource(ctx, Source{Name: "batch", Records: records, Confidence: confidence})
}

// IngestSource normaliza y aplica cada registro sobre el estado vigente. Un registro inválido se
// cuenta como rechazado y la pasada continúa. Aplicar el mismo lote dos veces deja el mismo estado.
func (c *Coordinator) IngestSource(ctx context.Context, src Source) (entity.IngestionReport, error) {
	if !src.Confidence.Valid() {
		return entity.IngestionReport{}, domain.NewValidationError("batch", "confidence", src.Confidence.String(), "nivel de confianza inválido")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	report, err := c.apply(ctx, c.store, src)
	c.finish(report)
	if err != nil {
		return report, err
	}

	if c.snapshots != nil {
		if err := c.snapshots.Save(ctx, c.store.Snapshot()); err != nil {
			c.log.Error().Err(err).Str("batch_id", report.BatchID).Msg("no se pudo persistir el catálogo")
			return report, fmt.Errorf("persistir catálogo: %w", err)
		}
	}
	return report, nil
}

// ResetAndReingest reconstruye el catálogo desde cero con las fuentes en orden, lo persiste y lo
// publica de una vez. Si algo falla el estado anterior sigue vigente.
func (c *Coordinator) ResetAndReingest(ctx context.Context, sources []Source) (entity.IngestionReport, error) {
	for _, src := range sources {
		if !src.Confidence.Valid() {
			return entity.IngestionReport{}, domain.NewValidationError("source", "confidence", src.Name, "nivel de confianza inválido")
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	total := entity.IngestionReport{BatchID: uuid.NewString(), Source: "reseed"}
	var reports []entity.IngestionReport

	build := func(w repository.CatalogWriter) error {
		for _, src := range sources {
			report, err := c.apply(ctx, w, src)
			reports = append(reports, report)
			total.Merge(report, c.maxRejections)
			if err != nil {
				return err
			}
		}
		return nil
	}

	var commit func(*entity.Snapshot) error
	if c.snapshots != nil {
		commit = func(snap *entity.Snapshot) error {
			if err := c.snapshots.Save(ctx, snap); err != nil {
				return fmt.Errorf("persistir catálogo: %w", err)
			}
			return nil
		}
	}

	if err := c.store.Rebuild(build, commit); err != nil {
		c.log.Error().Err(err).Str("batch_id", total.BatchID).Msg("re-seed abortado; se conserva el catálogo anterior")
		return total, err
	}

	for _, r := range reports {
		c.finish(r)
	}
	c.log.Info().
		Str("batch_id", total.BatchID).
		Int("sources", len(sources)).
		Int("created", total.Created).
		Int("rejected", total.Rejected).
		Msg("re-seed completado")
	return total, nil
}

// stagedLine acumula las líneas de kit del lote antes de confirmarlas.
type stagedLine struct {
	kitCode      string
	kitName      string
	materialCode string
	quantity     decimal.Decimal
	indexes      []int
}

func (c *Coordinator) apply(ctx context.Context, w repository.CatalogWriter, src Source) (entity.IngestionReport, error) {
	report := entity.IngestionReport{
		BatchID:    uuid.NewString(),
		Source:     src.Name,
		Confidence: src.Confidence,
	}

	var order []string
	staged := make(map[string]*stagedLine)

	for i, raw := range src.Records {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec, err := normalize.Normalize(raw)
		if err != nil {
			c.reject(&report, i, raw.Kind, err)
			continue
		}

		var outcome entity.Outcome
		switch rec.Kind {
		case entity.KindMaterial:
			outcome, err = w.UpsertMaterial(entity.Material{
				Code:        rec.Code,
				Description: rec.Description,
				Unit:        rec.Unit,
				UnitPrice:   rec.Price,
				Confidence:  src.Confidence,
			})
		case entity.KindService:
			outcome, err = w.UpsertService(entity.Service{
				Code:        rec.Code,
				Description: rec.Description,
				Unit:        rec.Unit,
				GrossPrice:  rec.Price,
				Confidence:  src.Confidence,
			})
		case entity.KindKit:
			outcome, err = w.UpsertKit(rec.KitCode, rec.KitName)
		case entity.KindKitLine:
			key := rec.KitCode + "\x00" + rec.MaterialCode
			line, ok := staged[key]
			if !ok {
				line = &stagedLine{kitCode: rec.KitCode, materialCode: rec.MaterialCode, quantity: decimal.Zero}
				staged[key] = line
				order = append(order, key)
			}
			line.quantity = line.quantity.Add(rec.Quantity)
			if line.kitName == "" {
				line.kitName = rec.KitName
			}
			line.indexes = append(line.indexes, i)
			continue
		}
		if err != nil {
			c.reject(&report, i, rec.Kind, err)
			continue
		}
		report.Count(outcome)
	}

	for _, key := range order {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		line := staged[key]
		if line.kitName != "" {
			if _, err := w.EnsureKit(line.kitCode, line.kitName); err != nil {
				c.rejectAll(&report, line.indexes, err)
				continue
			}
		}
		outcome, err := w.SetLine(line.kitCode, line.materialCode, line.quantity)
		if err != nil {
			c.rejectAll(&report, line.indexes, err)
			continue
		}
		for range line.indexes {
			report.Count(outcome)
		}
	}
	return report, nil
}

func (c *Coordinator) rejectAll(report *entity.IngestionReport, indexes []int, err error) {
	for _, i := range indexes {
		c.reject(report, i, entity.KindKitLine, err)
	}
}

func (c *Coordinator) reject(report *entity.IngestionReport, index int, kind entity.RecordKind, err error) {
	report.Rejected++
	rej := entity.Rejection{Index: index, Kind: kind, Reason: err.Error()}
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		rej.Field = vErr.Field
		rej.Value = vErr.Value
		rej.Reason = vErr.Reason
	}
	c.log.Debug().
		Str("batch_id", report.BatchID).
		Int("index", index).
		Str("kind", string(kind)).
		Str("field", rej.Field).
		Msg(rej.Reason)
	if len(report.Rejections) < c.maxRejections {
		report.Rejections = append(report.Rejections, rej)
	}
}

// finish registra el reporte en log y métricas.
func (c *Coordinator) finish(report entity.IngestionReport) {
	c.log.Info().
		Str("batch_id", report.BatchID).
		Str("source", report.Source).
		Str("confidence", report.Confidence.String()).
		Int("created", report.Created).
		Int("updated", report.Updated).
		Int("unchanged", report.Unchanged).
		Int("rejected", report.Rejected).
		Msg("lote aplicado")
	if c.recorder != nil {
		c.recorder.ObserveBatch(report)
		c.recorder.ObserveStore(c.store.Stats())
	}
}
