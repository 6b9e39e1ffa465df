// Package metrics exposes per-run throughput and detection counters to
// Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the run's Prometheus collectors. A nil *Metrics is valid and
// records nothing, so callers never need to guard.
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed prometheus.Counter
	FramesSaved     prometheus.Counter
	SaveErrors      prometheus.Counter
	DetectErrors    prometheus.Counter
	Detections      *prometheus.CounterVec
	Distance        *prometheus.HistogramVec
	FrameLatency    prometheus.Histogram
}

// New creates a Metrics instance on its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FramesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rangefinder_frames_processed_total",
			Help: "Frames acquired from the camera and processed",
		}),
		FramesSaved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rangefinder_frames_saved_total",
			Help: "Annotated frames written to the run directory",
		}),
		SaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rangefinder_frame_save_errors_total",
			Help: "Annotated frames that could not be written",
		}),
		DetectErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rangefinder_detect_errors_total",
			Help: "Frames on which the detector returned an error",
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rangefinder_detections_total",
			Help: "Detections seen, by class and whether a real width was configured",
		}, []string{"class", "calibrated"}),
		Distance: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rangefinder_distance",
			Help:    "Estimated distance of calibrated detections in configured units",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"class"}),
		FrameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rangefinder_frame_seconds",
			Help:    "Wall time spent processing one frame",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		m.FramesProcessed,
		m.FramesSaved,
		m.SaveErrors,
		m.DetectErrors,
		m.Detections,
		m.Distance,
		m.FrameLatency,
	)
	return m
}

// Handler returns an HTTP handler for Prometheus metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// FrameProcessed counts one acquired frame
func (m *Metrics) FrameProcessed() {
	if m == nil {
		return
	}
	m.FramesProcessed.Inc()
}

// FrameSaved counts one persisted frame
func (m *Metrics) FrameSaved() {
	if m == nil {
		return
	}
	m.FramesSaved.Inc()
}

// SaveFailed counts one frame that could not be written
func (m *Metrics) SaveFailed() {
	if m == nil {
		return
	}
	m.SaveErrors.Inc()
}

// DetectFailed counts one detector error
func (m *Metrics) DetectFailed() {
	if m == nil {
		return
	}
	m.DetectErrors.Inc()
}

// Detection records one detection; distance is only observed when calibrated.
func (m *Metrics) Detection(class string, calibrated bool, distance float64) {
	if m == nil {
		return
	}
	if calibrated {
		m.Detections.WithLabelValues(class, "true").Inc()
		m.Distance.WithLabelValues(class).Observe(distance)
		return
	}
	m.Detections.WithLabelValues(class, "false").Inc()
}

// ObserveFrame records the processing time of one frame
func (m *Metrics) ObserveFrame(d time.Duration) {
	if m == nil {
		return
	}
	m.FrameLatency.Observe(d.Seconds())
}
