package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "enel_"

	resultSuccess = "success"
	resultError   = "error"
)

var (
	registerOnce sync.Once

	documentsTotal   *prometheus.CounterVec
	extractLatency   prometheus.Histogram
	duplicatesTotal  *prometheus.CounterVec
	alertsTotal      prometheus.Counter
	unmappedTotal    prometheus.Counter
	runsTotal        *prometheus.CounterVec
	runLatency       prometheus.Histogram
	registryEntries  prometheus.Gauge
	missingSites     prometheus.Gauge
	exportTotal      *prometheus.CounterVec
	exportLatency    *prometheus.HistogramVec
	notifyTotal      *prometheus.CounterVec
	lastRunTimestamp prometheus.Gauge
)

// Init registers pipeline metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		documentsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "documents_total",
				Help: "Processed documents by terminal status",
			},
			[]string{"status"},
		)
		extractLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "extract_latency_seconds",
				Help:    "Per-document extraction latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		)
		duplicatesTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "duplicates_total",
				Help: "Duplicate documents by reason",
			},
			[]string{"reason"},
		)
		alertsTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "consumption_alerts_total",
				Help: "High consumption alerts raised",
			},
		)
		unmappedTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "unmapped_accounts_total",
				Help: "Accepted invoices with no registry entry",
			},
		)
		runsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Pipeline runs by result",
			},
			[]string{"result"},
		)
		runLatency = prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_latency_seconds",
				Help:    "Pipeline run latency in seconds",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)
		registryEntries = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "registry_entries",
				Help: "Sites in the loaded registry",
			},
		)
		missingSites = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "missing_sites",
				Help: "Registry sites without an accepted invoice in the last run",
			},
		)
		exportTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "report_export_total",
				Help: "Report exports by format and result",
			},
			[]string{"format", "result"},
		)
		exportLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "report_export_latency_seconds",
				Help:    "Report export latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"format", "result"},
		)
		notifyTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "notifications_total",
				Help: "Alert notifications by result",
			},
			[]string{"result"},
		)
		lastRunTimestamp = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "last_run_timestamp_seconds",
				Help: "Unix time of the last completed run",
			},
		)

		prometheus.MustRegister(
			documentsTotal,
			extractLatency,
			duplicatesTotal,
			alertsTotal,
			unmappedTotal,
			runsTotal,
			runLatency,
			registryEntries,
			missingSites,
			exportTotal,
			exportLatency,
			notifyTotal,
			lastRunTimestamp,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// IncDocument counts a document's terminal status.
func IncDocument(status string) {
	if status == "" {
		status = "unknown"
	}
	if documentsTotal != nil {
		documentsTotal.WithLabelValues(status).Inc()
	}
}

// ObserveExtract records one document's extraction latency.
func ObserveExtract(duration time.Duration) {
	if extractLatency != nil {
		extractLatency.Observe(duration.Seconds())
	}
}

// IncDuplicate counts a duplicate by reason.
func IncDuplicate(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	if duplicatesTotal != nil {
		duplicatesTotal.WithLabelValues(reason).Inc()
	}
}

// IncAlert counts a raised high consumption alert.
func IncAlert() {
	if alertsTotal != nil {
		alertsTotal.Inc()
	}
}

// IncUnmapped counts an accepted invoice without a registry entry.
func IncUnmapped() {
	if unmappedTotal != nil {
		unmappedTotal.Inc()
	}
}

// ObserveRun records a pipeline run.
func ObserveRun(result string, duration time.Duration, finishedAt time.Time) {
	if result == "" {
		result = resultSuccess
	}
	if runsTotal != nil {
		runsTotal.WithLabelValues(result).Inc()
	}
	if runLatency != nil {
		runLatency.Observe(duration.Seconds())
	}
	if lastRunTimestamp != nil && !finishedAt.IsZero() {
		lastRunTimestamp.Set(float64(finishedAt.Unix()))
	}
}

// SetRegistrySize publishes the loaded registry size.
func SetRegistrySize(n int) {
	if registryEntries != nil {
		registryEntries.Set(float64(n))
	}
}

// SetMissingSites publishes the missing-site count of the last run.
func SetMissingSites(n int) {
	if missingSites != nil {
		missingSites.Set(float64(n))
	}
}

// ObserveExport records report export latency and result.
func ObserveExport(format, result string, duration time.Duration) {
	if format == "" {
		format = "unknown"
	}
	if result == "" {
		result = resultSuccess
	}
	if exportTotal != nil {
		exportTotal.WithLabelValues(format, result).Inc()
	}
	if exportLatency != nil {
		exportLatency.WithLabelValues(format, result).Observe(duration.Seconds())
	}
}

// IncNotify counts an alert notification attempt.
func IncNotify(result string) {
	if result == "" {
		result = resultSuccess
	}
	if notifyTotal != nil {
		notifyTotal.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
	ResultPartial = "partial"
)
