package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequestCountsByStatus(t *testing.T) {
	before := testutil.ToFloat64(httpRequestsCounter.WithLabelValues("/v1/tags", "GET", "200"))

	RecordHTTPRequest("/v1/tags", "GET", 200, 12*time.Millisecond)
	RecordHTTPRequest("/v1/tags", "GET", 200, 8*time.Millisecond)
	RecordHTTPRequest("/v1/tags", "GET", 401, time.Millisecond)

	require.Equal(t, before+2, testutil.ToFloat64(httpRequestsCounter.WithLabelValues("/v1/tags", "GET", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(httpRequestsCounter.WithLabelValues("/v1/tags", "GET", "401")))
}

func TestRecordEntryPersistedIgnoresZeroTime(t *testing.T) {
	ts := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	RecordEntryPersisted("reflection", ts)
	RecordEntryPersisted("reflection", time.Time{})

	require.Equal(t, float64(ts.Unix()), testutil.ToFloat64(entryPersistGauge.WithLabelValues("reflection")))
}

func TestRecordInsightsComputed(t *testing.T) {
	before := testutil.ToFloat64(insightsComputedCounter.WithLabelValues("weekly"))
	RecordInsightsComputed("weekly")
	require.Equal(t, before+1, testutil.ToFloat64(insightsComputedCounter.WithLabelValues("weekly")))
}
