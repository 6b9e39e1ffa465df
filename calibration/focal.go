package calibration

import (
	"fmt"
	"io"
	"math"

	"rangefinder/detection"
)

// FocalLength derives the pinhole focal length from one reference sample:
// an object of knownWidth placed knownDistance from the camera that spans
// pixelWidth pixels.
func FocalLength(knownWidth, knownDistance, pixelWidth float64) (float64, error) {
	if knownWidth <= 0 {
		return 0, fmt.Errorf("known width must be positive, got %v", knownWidth)
	}
	if knownDistance <= 0 {
		return 0, fmt.Errorf("known distance must be positive, got %v", knownDistance)
	}
	return (pixelWidth * knownDistance) / knownWidth, nil
}

// FocalCalibration is one committed focal length sample
type FocalCalibration struct {
	KnownWidth         float64
	KnownDistance      float64
	MeasuredPixelWidth float64
	FocalLength        float64
	ClassName          string
	Confidence         float64
}

// Report prints the advisory output for the operator to copy into the config
func (c FocalCalibration) Report(w io.Writer) {
	fmt.Fprintf(w, "Measured pixel width: %.0f px (%s %.0f%%)\n", c.MeasuredPixelWidth, c.ClassName, c.Confidence*100)
	fmt.Fprintf(w, "Computed focal_length: %.2f\n", c.FocalLength)
	fmt.Fprintf(w, "Paste this value into %s -> \"focal_length\" (or pass -focal-length)\n", DefaultConfigPath)
}

// FocalSampler keeps the latest frame's detections so an operator commit can
// turn the first qualifying one into a focal length.
type FocalSampler struct {
	knownWidth    float64
	knownDistance float64
	threshold     float64
	last          []detection.Detection
}

// NewFocalSampler validates the reference measurements up front
func NewFocalSampler(knownWidth, knownDistance, threshold float64) (*FocalSampler, error) {
	if _, err := FocalLength(knownWidth, knownDistance, 0); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("confidence threshold must be within [0,1], got %v", threshold)
	}
	return &FocalSampler{knownWidth: knownWidth, knownDistance: knownDistance, threshold: threshold}, nil
}

// Observe replaces the remembered detections with the current frame's
func (s *FocalSampler) Observe(dets []detection.Detection) {
	s.last = append(s.last[:0], dets...)
}

// Threshold returns the minimum confidence a sample must have
func (s *FocalSampler) Threshold() float64 {
	return s.threshold
}

// Commit computes a focal length from the first detection of the last
// observed frame at or above the threshold. It returns false, and changes
// nothing, when no detection qualifies.
func (s *FocalSampler) Commit() (FocalCalibration, bool) {
	d, ok := detection.FirstAbove(s.last, s.threshold)
	if !ok {
		return FocalCalibration{}, false
	}

	// whole pixels, matching what the operator sees on the overlay
	px := math.Trunc(d.Box.Width())
	focal, _ := FocalLength(s.knownWidth, s.knownDistance, px)

	return FocalCalibration{
		KnownWidth:         s.knownWidth,
		KnownDistance:      s.knownDistance,
		MeasuredPixelWidth: px,
		FocalLength:        focal,
		ClassName:          d.ClassName,
		Confidence:         d.Confidence,
	}, true
}

// CommitTo commits a sample and writes its report to w. Without a qualifying
// detection nothing is written.
func (s *FocalSampler) CommitTo(w io.Writer) bool {
	c, ok := s.Commit()
	if !ok {
		return false
	}
	fmt.Fprintln(w)
	c.Report(w)
	fmt.Fprintln(w)
	return true
}
