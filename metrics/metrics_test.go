package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.FrameProcessed()
	m.FrameProcessed()
	m.FrameSaved()
	m.SaveFailed()
	m.DetectFailed()
	m.Detection("bottle", true, 1.5)
	m.Detection("bottle", true, 2.5)
	m.Detection("cat", false, 0)
	m.ObserveFrame(20 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesProcessed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FramesSaved))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SaveErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DetectErrors))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Detections.WithLabelValues("bottle", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Detections.WithLabelValues("cat", "false")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Distance))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.FrameProcessed()
		m.FrameSaved()
		m.SaveFailed()
		m.DetectFailed()
		m.Detection("cup", true, 3)
		m.ObserveFrame(time.Second)
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.FrameProcessed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "rangefinder_frames_processed_total 1")
}
