package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_rows_total",
		Help: "Total number of non-blank rows read by import kind",
	}, []string{"kind"})

	// importEntities tracks entities by kind and outcome (created, updated, skipped, failed).
	importEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_entities_total",
		Help: "Total number of imported entities by kind and outcome",
	}, []string{"kind", "outcome"})

	importDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulk_import_duration_seconds",
		Help:    "Time taken to run one import job by kind and status",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"kind", "status"})

	lookupDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bulk_import_lookup_duration_seconds",
		Help:    "Time taken by one batched lookup chunk",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"lookup"})

	lookupErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_lookup_errors_total",
		Help: "Total number of failed lookup attempts",
	}, []string{"lookup"})

	jobsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bulk_import_jobs_in_flight",
		Help: "Number of import jobs currently running",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_http_requests_total",
		Help: "Total number of HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	droppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bulk_import_dropped_events_total",
		Help: "Progress events dropped because the bus queue was full",
	}, []string{"event_type"})
)

func RecordRows(kind string, total int) {
	importRows.WithLabelValues(kind).Add(float64(total))
}

// RecordEntities records the per-entity outcome counts of one finished import.
func RecordEntities(kind string, created, updated, skipped, failed int) {
	importEntities.WithLabelValues(kind, "created").Add(float64(created))
	importEntities.WithLabelValues(kind, "updated").Add(float64(updated))
	importEntities.WithLabelValues(kind, "skipped").Add(float64(skipped))
	importEntities.WithLabelValues(kind, "failed").Add(float64(failed))
}

func RecordImport(kind, status string, duration time.Duration) {
	importDuration.WithLabelValues(kind, status).Observe(duration.Seconds())
}

func RecordLookup(lookup string, duration time.Duration, err error) {
	lookupDuration.WithLabelValues(lookup).Observe(duration.Seconds())
	if err != nil {
		lookupErrors.WithLabelValues(lookup).Inc()
	}
}

func JobStarted() {
	jobsInFlight.Inc()
}

func JobFinished() {
	jobsInFlight.Dec()
}

func RecordHTTPRequest(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func RecordDroppedEvent(eventType string) {
	droppedEvents.WithLabelValues(eventType).Inc()
}
