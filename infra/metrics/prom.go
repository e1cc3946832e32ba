package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/gridsync/gridsync/core/metrics"
)

// PromSink records ingestion events in Prometheus metrics.
type PromSink struct {
	extractions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	rows        *prometheus.CounterVec
	cycles      *prometheus.CounterVec
	cycleTime   prometheus.Histogram
}

// NewPromSink registers ingestion metrics on the default Prometheus
// registerer. The Prometheus server should be started separately using
// cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.Sink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(cfg coremetrics.Config, reg prometheus.Registerer) (coremetrics.Sink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	extractions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_extractions_total",
		Help: "Terminal outcomes of upstream calls, after retries",
	}, []string{"endpoint", "success", "error_class"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ingest_extraction_seconds",
		Help:    "Total elapsed time of a logical upstream call including retries",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint", "success"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_rows_total",
		Help: "Rows persisted per source",
	}, []string{"source"})
	cycles := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_cycles_total",
		Help: "Completed ingestion cycles",
	}, []string{"degraded"})
	cycleTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ingest_cycle_seconds",
		Help:    "Duration of a full ingestion cycle",
		Buckets: prometheus.DefBuckets,
	})

	if err := reg.Register(extractions); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			extractions = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(rows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			rows = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cycles); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycles = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(cycleTime); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			cycleTime = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}

	return &PromSink{extractions: extractions, latency: latency, rows: rows, cycles: cycles, cycleTime: cycleTime}, nil
}

// RecordExtraction counts the terminal call outcome and observes its latency.
func (s *PromSink) RecordExtraction(ev coremetrics.ExtractionEvent) error {
	success := strconv.FormatBool(ev.Success)
	s.extractions.WithLabelValues(ev.Endpoint, success, ev.ErrorClass).Inc()
	s.latency.WithLabelValues(ev.Endpoint, success).Observe(ev.Duration.Seconds())
	return nil
}

// RecordRowsLoaded adds the persisted batch size to the per-source counter.
func (s *PromSink) RecordRowsLoaded(ev coremetrics.RowsLoadedEvent) error {
	s.rows.WithLabelValues(ev.Source).Add(float64(ev.Rows))
	return nil
}

// RecordCycle counts the cycle and observes its duration.
func (s *PromSink) RecordCycle(ev coremetrics.CycleEvent) error {
	s.cycles.WithLabelValues(strconv.FormatBool(ev.Failures > 0)).Inc()
	s.cycleTime.Observe(ev.Duration.Seconds())
	return nil
}
