// Package detection holds the typed detection value that every detector
// backend is normalized into before it reaches calibration or estimation.
package detection

import (
	"fmt"

	"rangefinder/geometry"
)

// Detection represents one object found by a detector in a single frame
type Detection struct {
	ClassName  string
	Box        geometry.Box
	Confidence float64 // [0,1]
}

func (d Detection) String() string {
	return fmt.Sprintf("%s %.0f%% [%.0f,%.0f,%.0f,%.0f]",
		d.ClassName, d.Confidence*100, d.Box.X1, d.Box.Y1, d.Box.X2, d.Box.Y2)
}

// FirstAbove returns the first detection, in detector order, whose confidence
// is at least threshold. No ranking is applied.
func FirstAbove(dets []Detection, threshold float64) (Detection, bool) {
	for _, d := range dets {
		if d.Confidence >= threshold {
			return d, true
		}
	}
	return Detection{}, false
}

// Filter returns the detections whose confidence is at least threshold,
// preserving order.
func Filter(dets []Detection, threshold float64) []Detection {
	var out []Detection
	for _, d := range dets {
		if d.Confidence >= threshold {
			out = append(out, d)
		}
	}
	return out
}

// ClassSeparated shifts each box diagonally by classes[i]*span so that a
// class-agnostic suppression pass over the result only compares boxes of the
// same class. span must be at least the frame's largest dimension.
func ClassSeparated(boxes []geometry.Box, classes []int, span float64) []geometry.Box {
	out := make([]geometry.Box, len(boxes))
	for i, b := range boxes {
		off := float64(classes[i]) * span
		out[i] = geometry.Box{X1: b.X1 + off, Y1: b.Y1 + off, X2: b.X2 + off, Y2: b.Y2 + off}
	}
	return out
}
