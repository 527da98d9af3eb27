package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	entryPersistGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "journal",
		Subsystem: "persistence",
		Name:      "last_entry_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent entry write, labeled by kind.",
	}, []string{"kind"})

	insightsComputedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "insights",
		Name:      "series_computed_total",
		Help:      "Number of insight series computed, labeled by series.",
	}, []string{"series"})

	httpRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, labeled by route, method and status code.",
	}, []string{"route", "method", "code"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "journal",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by route.",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(entryPersistGauge, insightsComputedCounter, httpRequestsCounter, httpDuration)
}

// RecordEntryPersisted updates the persistence watermark for kind.
func RecordEntryPersisted(kind string, ts time.Time) {
	if ts.IsZero() {
		return
	}
	entryPersistGauge.WithLabelValues(kind).Set(float64(ts.Unix()))
}

// RecordInsightsComputed counts one computed series.
func RecordInsightsComputed(series string) {
	insightsComputedCounter.WithLabelValues(series).Inc()
}

// RecordHTTPRequest records a served request.
func RecordHTTPRequest(route, method string, status int, elapsed time.Duration) {
	httpRequestsCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
