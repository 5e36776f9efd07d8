package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	samplePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fit_tracker",
		Subsystem: "persistence",
		Name:      "last_sample_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent raw sample written to Postgres.",
	})
	summaryUpsertCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "persistence",
		Name:      "summary_upserts_total",
		Help:      "Number of daily summary rows inserted or updated.",
	})
	csvExportCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "api",
		Name:      "csv_exports_total",
		Help:      "Number of successful CSV summary exports.",
	})
)

func init() {
	prometheus.MustRegister(samplePersistGauge, summaryUpsertCounter, csvExportCounter)
}

// RecordSamplePersisted updates the persistence watermark gauge.
func RecordSamplePersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	samplePersistGauge.Set(float64(ts.Unix()))
}

// RecordSummaryUpserted counts a summary insert-or-update.
func RecordSummaryUpserted() {
	summaryUpsertCounter.Inc()
}

// RecordCSVExport counts a completed export.
func RecordCSVExport() {
	csvExportCounter.Inc()
}
