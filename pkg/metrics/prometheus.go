// Package metrics provides Prometheus metrics for the recap deck generator.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Generation
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	fieldsBound        *prometheus.CounterVec
	locatorMisses      *prometheus.CounterVec
	aliasMisses        *prometheus.CounterVec
	anchorMissing      prometheus.Counter
	datasetCells       prometheus.Histogram

	// Jobs
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueRejected  prometheus.Counter
	workersBusy    prometheus.Gauge
	workerCount    prometheus.Gauge
	jobsTimedOut   prometheus.Counter
	batchesTotal   prometheus.Gauge
	batchStoreErrs prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var globalManager *Manager //nolint:gochecknoglobals // process-wide collectors

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // collectors must exist before any recorder is called
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "recap",
		subsystem:        "deck",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets, ConstLabels: m.constLabels}
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.generations = auto.NewCounterVec(m.counterOpts("generations_total", "Deck generations by outcome"), []string{"outcome"})
	m.generationDuration = auto.NewHistogram(m.histogramOpts("generation_duration_milliseconds", "End-to-end generation latency", m.histogramBuckets))
	m.fieldsBound = auto.NewCounterVec(m.counterOpts("fields_total", "Binding rule results by status"), []string{"status"})
	m.locatorMisses = auto.NewCounterVec(m.counterOpts("locator_misses_total", "Metrics not found in the dataset"), []string{"metric"})
	m.aliasMisses = auto.NewCounterVec(m.counterOpts("column_alias_misses_total", "Configured column aliases absent from the dataset"), []string{"alias"})
	m.anchorMissing = auto.NewCounter(m.counterOpts("anchor_missing_total", "Datasets without the proposed metrics anchor"))
	m.datasetCells = auto.NewHistogram(m.histogramOpts("dataset_cells", "Cells per loaded dataset", prometheus.ExponentialBuckets(64, 4, 8)))

	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum queued jobs"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_rejected_total", "Jobs rejected by backpressure"))
	m.workersBusy = auto.NewGauge(m.gaugeOpts("workers_busy", "Workers currently generating"))
	m.workerCount = auto.NewGauge(m.gaugeOpts("worker_count", "Configured workers"))
	m.jobsTimedOut = auto.NewCounter(m.counterOpts("jobs_timed_out_total", "Jobs that hit the generation deadline"))
	m.batchesTotal = auto.NewGauge(m.gaugeOpts("batches", "Batch records persisted"))
	m.batchStoreErrs = auto.NewCounter(m.counterOpts("batch_store_errors_total", "Batch file read/write failures"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts("http_requests_total", "HTTP requests by endpoint"), []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts("http_request_duration_milliseconds", "HTTP request latency", m.histogramBuckets), []string{"endpoint", "method", "status_code"})
}

// RecordGeneration counts one finished generation. outcome is ok, failed or timeout.
func RecordGeneration(outcome string, durationMs float64) {
	globalManager.generations.WithLabelValues(outcome).Inc()
	globalManager.generationDuration.Observe(durationMs)
}

// RecordFields adds binding results to the per-status counters.
func RecordFields(filled, blank, missed int) {
	globalManager.fieldsBound.WithLabelValues("filled").Add(float64(filled))
	globalManager.fieldsBound.WithLabelValues("blank").Add(float64(blank))
	globalManager.fieldsBound.WithLabelValues("template_miss").Add(float64(missed))
}

// RecordLocatorMiss counts a metric that was absent from the dataset.
func RecordLocatorMiss(metric string) {
	globalManager.locatorMisses.WithLabelValues(metric).Inc()
}

// RecordAliasMiss counts a configured column alias absent from the dataset.
func RecordAliasMiss(alias string) {
	globalManager.aliasMisses.WithLabelValues(alias).Inc()
}

// RecordAnchorMissing counts a dataset without the proposed metrics block.
func RecordAnchorMissing() {
	globalManager.anchorMissing.Inc()
}

// ObserveDatasetCells records the size of a loaded dataset.
func ObserveDatasetCells(cells int) {
	globalManager.datasetCells.Observe(float64(cells))
}

func UpdateQueueSize(size int)         { globalManager.queueSize.Set(float64(size)) }
func UpdateQueueCapacity(capacity int) { globalManager.queueCapacity.Set(float64(capacity)) }
func RecordQueueRejected()             { globalManager.queueRejected.Inc() }
func UpdateWorkerCount(count int)      { globalManager.workerCount.Set(float64(count)) }
func WorkerBusy()                      { globalManager.workersBusy.Inc() }
func WorkerIdle()                      { globalManager.workersBusy.Dec() }
func RecordJobTimeout()                { globalManager.jobsTimedOut.Inc() }
func UpdateBatchCount(count int)       { globalManager.batchesTotal.Set(float64(count)) }
func RecordBatchStoreError()           { globalManager.batchStoreErrs.Inc() }

// RecordHTTPRequest records a request and its latency.
func RecordHTTPRequest(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// GetRegistry returns the registry the global collectors live in.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
