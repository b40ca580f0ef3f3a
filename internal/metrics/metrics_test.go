package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRows(t *testing.T) {
	before := testutil.ToFloat64(rowsTotal.WithLabelValues("metrics_test", "dropped"))
	RecordRows("metrics_test", 5, 2, 1)
	assert.Equal(t, before+2, testutil.ToFloat64(rowsTotal.WithLabelValues("metrics_test", "dropped")))
	assert.Equal(t, 5.0, testutil.ToFloat64(rowsTotal.WithLabelValues("metrics_test", "kept")))
}

func TestRecordIngestSuccessIgnoresZeroTime(t *testing.T) {
	ts := time.Unix(1700000000, 0)
	RecordIngestSuccess(ts)
	RecordIngestSuccess(time.Time{})
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastIngestGauge))
}

func TestRecordSummary(t *testing.T) {
	RecordSummary("metrics_test", true)
	RecordSummary("metrics_test", false)
	RecordSummary("metrics_test", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(summaryRequests.WithLabelValues("metrics_test", "hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(summaryRequests.WithLabelValues("metrics_test", "miss")))
}
