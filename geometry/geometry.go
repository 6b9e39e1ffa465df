// Package geometry implements the similar-triangles range model and the
// bearing angle of an image point relative to the optical axis.
package geometry

import "math"

// Box is an axis-aligned bounding box in pixel coordinates.
type Box struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the box width in pixels. Degenerate boxes report 0.
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the box height in pixels
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// CenterX returns the horizontal center of the box
func (b Box) CenterX() float64 {
	return (b.X1 + b.X2) / 2
}

// CenterY returns the vertical center of the box
func (b Box) CenterY() float64 {
	return (b.Y1 + b.Y2) / 2
}

// Measurement is the range and bearing derived for one detection in one frame.
type Measurement struct {
	ClassName string
	Distance  float64 // same unit as the configured real width
	Angle     float64 // degrees, negative left of center, positive right
	Box       Box
}

// Distance returns realWidth*focalLength/pixelWidth.
//
// A zero pixel width yields 0 rather than an error. Callers must not read a
// zero distance as "object at the camera"; it marks a degenerate box.
func Distance(realWidth, focalLength, pixelWidth float64) float64 {
	if pixelWidth == 0 {
		return 0
	}
	return (realWidth * focalLength) / pixelWidth
}

// BearingAngle returns the horizontal angle in degrees between the optical
// axis and the ray through centerX. Positive means right of the midline.
func BearingAngle(centerX, frameWidth, focalLength float64) float64 {
	offset := centerX - frameWidth/2
	return math.Atan(offset/focalLength) * 180 / math.Pi
}

// Estimator binds the per-deployment constants used by Distance and BearingAngle.
type Estimator struct {
	FocalLength float64
	FrameWidth  float64
}

// Estimate computes the measurement for a box of a class with known real width.
func (e Estimator) Estimate(className string, box Box, realWidth float64) Measurement {
	return Measurement{
		ClassName: className,
		Distance:  Distance(realWidth, e.FocalLength, box.Width()),
		Angle:     BearingAngle(box.CenterX(), e.FrameWidth, e.FocalLength),
		Box:       box,
	}
}
