// Package metrics expone métricas Prometheus del catálogo: resultados de ingesta, latencia de
// costeo y tamaño de los almacenes.
package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/Catalogo-api/internal/application/costing"
	"github.com/jhoicas/Catalogo-api/internal/application/ingestion"
	"github.com/jhoicas/Catalogo-api/internal/domain"
	"github.com/jhoicas/Catalogo-api/internal/domain/entity"
)

var (
	_ costing.Observer   = (*Metrics)(nil)
	_ ingestion.Recorder = (*Metrics)(nil)
)

// Metrics agrupa los colectores sobre un registro propio.
type Metrics struct {
	registry *prometheus.Registry

	records  *prometheus.CounterVec
	batches  *prometheus.CounterVec
	pricing  *prometheus.HistogramVec
	bomLines prometheus.Histogram
	store    *prometheus.GaugeVec
}

// New registra los colectores. namespace suele ser el nombre de la app sin guiones.
func New(namespace string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_records_total",
			Help:      "Registros procesados por resultado y confianza de la fuente.",
		}, []string{"outcome", "confidence"}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingestion_batches_total",
			Help:      "Lotes aplicados por confianza de la fuente.",
		}, []string{"confidence"}),
		pricing: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_duration_seconds",
			Help:      "Latencia de PriceKits.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}, []string{"result"}),
		bomLines: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bom_lines",
			Help:      "Líneas por lista de materiales calculada.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		store: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_entries",
			Help:      "Tamaño actual de los almacenes del catálogo.",
		}, []string{"store"}),
	}
	m.registry.MustRegister(
		m.records, m.batches, m.pricing, m.bomLines, m.store,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry registro subyacente (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObservePricing registra la latencia de un costeo.
func (m *Metrics) ObservePricing(elapsed time.Duration, lines int, err error) {
	m.pricing.WithLabelValues(pricingResult(err)).Observe(elapsed.Seconds())
	if err == nil {
		m.bomLines.Observe(float64(lines))
	}
}

func pricingResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrUnknownKit):
		return "unknown_kit"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

// ObserveBatch suma los contadores de un reporte de ingesta.
func (m *Metrics) ObserveBatch(r entity.IngestionReport) {
	conf := r.Confidence.String()
	m.records.WithLabelValues(entity.OutcomeCreated.String(), conf).Add(float64(r.Created))
	m.records.WithLabelValues(entity.OutcomeUpdated.String(), conf).Add(float64(r.Updated))
	m.records.WithLabelValues(entity.OutcomeUnchanged.String(), conf).Add(float64(r.Unchanged))
	m.records.WithLabelValues("rejected", conf).Add(float64(r.Rejected))
	m.batches.WithLabelValues(conf).Inc()
}

// ObserveStore actualiza los gauges de tamaño.
func (m *Metrics) ObserveStore(st entity.Stats) {
	m.store.WithLabelValues("materials").Set(float64(st.Materials))
	m.store.WithLabelValues("materials_priced").Set(float64(st.PricedMaterials))
	m.store.WithLabelValues("kits").Set(float64(st.Kits))
	m.store.WithLabelValues("composition_lines").Set(float64(st.CompositionLines))
	m.store.WithLabelValues("dangling_lines").Set(float64(st.DanglingLineCount))
	m.store.WithLabelValues("services").Set(float64(st.Services))
}
