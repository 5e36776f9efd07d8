package ingest

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	processedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "frames_processed_total",
		Help:      "Number of feed frames decoded, enriched, and persisted.",
	})

	decodeErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "decode_errors_total",
		Help:      "Number of malformed feed frames dropped.",
	})

	enrichmentErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "enrichment_errors_total",
		Help:      "Number of frames dropped because the biometrics lookup failed.",
	})

	persistErrorCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "persist_errors_total",
		Help:      "Number of frames dropped because the sample write failed.",
	})

	reconnectCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "reconnects_total",
		Help:      "Number of times the feed connection was re-established.",
	})

	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "connected",
		Help:      "1 while the feed connection is established, 0 otherwise.",
	})

	lastFrameGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "fit_tracker",
		Subsystem: "ingest",
		Name:      "last_frame_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed frame.",
	})
)

func init() {
	prometheus.MustRegister(
		processedCounter,
		decodeErrorCounter,
		enrichmentErrorCounter,
		persistErrorCounter,
		reconnectCounter,
		connectedGauge,
		lastFrameGauge,
	)
}

func recordProcessed(ts time.Time) {
	processedCounter.Inc()
	if !ts.IsZero() {
		lastFrameGauge.Set(float64(ts.Unix()))
	}
}

func recordDecodeError() { decodeErrorCounter.Inc() }

func recordEnrichmentError() { enrichmentErrorCounter.Inc() }

func recordPersistError() { persistErrorCounter.Inc() }

func recordReconnect() { reconnectCounter.Inc() }

func recordConnected(up bool) {
	if up {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
}
