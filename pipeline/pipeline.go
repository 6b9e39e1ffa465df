// Package pipeline runs the per-frame loop: acquire, detect, resolve
// calibration, estimate, annotate, persist, display. It is single-threaded;
// each frame is finished before the next one is read.
package pipeline

import (
	"context"
	"errors"
	"io"
	"time"

	"rangefinder/calibration"
	"rangefinder/detection"
	"rangefinder/geometry"
	"rangefinder/logger"
	"rangefinder/metrics"
	"rangefinder/session"
)

// Frame is one acquired image owned by the loop until Close.
type Frame interface {
	session.Image
	Close() error
}

// Source delivers frames in sequence. Next returns io.EOF at end of stream.
type Source[F Frame] interface {
	Next() (F, error)
	Width() int
	Close() error
}

// Detector is the external object detector.
type Detector[F Frame] interface {
	Detect(frame F) ([]detection.Detection, error)
}

// Annotator draws annotations onto a frame in place.
type Annotator[F Frame] interface {
	Annotate(frame F, anns []Annotation)
}

// Key is an operator signal read from the display.
type Key int

const (
	KeyNone Key = iota
	KeyQuit
	KeyCommit
)

// Display shows a frame and returns any operator signal.
type Display[F Frame] interface {
	Show(frame F) Key
}

// State of the processing loop
type State int

const (
	Running State = iota
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Annotation pairs a detection with its measurement. Measurement is nil
// when the class has no calibration entry.
type Annotation struct {
	Detection   detection.Detection
	Measurement *geometry.Measurement
}

// Calibrated reports whether a measurement was produced
func (a Annotation) Calibrated() bool {
	return a.Measurement != nil
}

// Config wires the loop's collaborators
type Config[F Frame] struct {
	Source    Source[F]
	Detector  Detector[F]
	Annotator Annotator[F]
	Display   Display[F]
	Store     *calibration.Store
	Session   *session.Session
	Estimator geometry.Estimator

	SaveFrames bool
	Metrics    *metrics.Metrics
	Log        *logger.Logger
}

// Loop is one run of the processing state machine.
type Loop[F Frame] struct {
	cfg    Config[F]
	log    *logger.Logger
	warned *calibration.WarnedClasses
	state  State
}

// New creates a loop in the Running state. The warned-class set is scoped
// to this loop. A zero Estimator.FrameWidth is taken from the source.
func New[F Frame](cfg Config[F]) *Loop[F] {
	log := cfg.Log
	if log == nil {
		log = logger.Default()
	}
	if cfg.Store == nil {
		cfg.Store = calibration.NewStore(nil)
	}
	if cfg.Estimator.FrameWidth == 0 && cfg.Source != nil {
		cfg.Estimator.FrameWidth = float64(cfg.Source.Width())
	}
	return &Loop[F]{
		cfg:    cfg,
		log:    log,
		warned: calibration.NewWarnedClasses(cfg.Store.Source(), log),
		state:  Running,
	}
}

// State returns the current loop state
func (l *Loop[F]) State() State {
	return l.state
}

// Warned returns the run's set of classes reported as uncalibrated
func (l *Loop[F]) Warned() *calibration.WarnedClasses {
	return l.warned
}

// Resolve looks up each detection's calibration and estimates range and
// bearing for the calibrated ones. Uncalibrated classes are warned once.
func (l *Loop[F]) Resolve(dets []detection.Detection) []Annotation {
	anns := make([]Annotation, 0, len(dets))
	for _, d := range dets {
		realWidth, ok := l.cfg.Store.Lookup(d.ClassName)
		if !ok {
			l.warned.WarnOnce(d.ClassName)
			l.cfg.Metrics.Detection(d.ClassName, false, 0)
			anns = append(anns, Annotation{Detection: d})
			continue
		}

		m := l.cfg.Estimator.Estimate(d.ClassName, d.Box, realWidth)
		l.cfg.Metrics.Detection(d.ClassName, true, m.Distance)
		l.log.Debug("ESTIMATE", "%s dist=%.2f angle=%.1fdeg", d.ClassName, m.Distance, m.Angle)
		anns = append(anns, Annotation{Detection: d, Measurement: &m})
	}
	return anns
}

// Run processes frames until end of stream, an operator quit, or ctx is
// cancelled. Cancellation is checked between frames only. The source is
// closed on every exit path and the session is finalized.
func (l *Loop[F]) Run(ctx context.Context) session.Stats {
	defer func() {
		if err := l.cfg.Source.Close(); err != nil {
			l.log.Warn("LOOP", "Error releasing camera: %v", err)
		}
	}()

	for l.state == Running {
		if ctx.Err() != nil {
			l.log.Info("LOOP", "Cancelled, stopping")
			l.state = Stopped
			break
		}
		l.step()
	}

	return l.cfg.Session.Finalize()
}

func (l *Loop[F]) step() {
	frame, err := l.cfg.Source.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			l.log.Info("LOOP", "End of stream")
		} else {
			l.log.Error("LOOP", "Frame acquisition failed: %v", err)
		}
		l.state = Stopped
		return
	}
	defer frame.Close()

	start := time.Now()
	l.cfg.Session.MarkProcessed()
	l.cfg.Metrics.FrameProcessed()

	dets, err := l.cfg.Detector.Detect(frame)
	if err != nil {
		l.log.Error("DETECT", "Detection failed: %v", err)
		l.cfg.Metrics.DetectFailed()
		dets = nil
	}

	anns := l.Resolve(dets)
	if l.cfg.Annotator != nil {
		l.cfg.Annotator.Annotate(frame, anns)
	}

	if l.cfg.SaveFrames {
		if err := l.cfg.Session.Persist(frame); err != nil {
			l.log.Error("SESSION", "%v", err)
			l.cfg.Metrics.SaveFailed()
		} else {
			l.cfg.Metrics.FrameSaved()
		}
	}
	l.cfg.Metrics.ObserveFrame(time.Since(start))

	if l.cfg.Display != nil && l.cfg.Display.Show(frame) == KeyQuit {
		l.log.Info("LOOP", "Quit requested")
		l.state = Stopped
	}
}
