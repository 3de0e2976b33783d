package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordColumnsScanned_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(scanColumnsTotal)
	RecordColumnsScanned(3)
	assert.Equal(t, before+3, testutil.ToFloat64(scanColumnsTotal))
}

func TestRecordPiiColumnsFound_IncrementsCounter(t *testing.T) {
	before := testutil.ToFloat64(scanPiiColumnsTotal)
	RecordPiiColumnsFound(2)
	assert.Equal(t, before+2, testutil.ToFloat64(scanPiiColumnsTotal))
}

func TestSetDetectionCacheHitRatio_SetsGauge(t *testing.T) {
	SetDetectionCacheHitRatio(0.75)
	assert.Equal(t, 0.75, testutil.ToFloat64(detectionCacheHitRatio))
}

func TestRecordScanJobDuration_ObservesIntoHistogram(t *testing.T) {
	RecordScanJobDuration("COMPLETED", 12.5)
	count := testutil.CollectAndCount(scanJobDuration)
	assert.True(t, count > 0)
}

func TestHandler_ReturnsNonNilHTTPHandler(t *testing.T) {
	assert.NotNil(t, Handler())
}

func TestRecordHTTPRequest_ObservesIntoAllThreeHistograms(t *testing.T) {
	RecordHTTPRequest("GET", "/api/v1/scans/{jobId}", 200, 15*time.Millisecond, 128, 512)

	assert.True(t, testutil.CollectAndCount(httpRequestDuration) > 0)
	assert.True(t, testutil.CollectAndCount(httpRequestSize) > 0)
	assert.True(t, testutil.CollectAndCount(httpResponseSize) > 0)
}
