package overlay

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"rangefinder/camera"
	"rangefinder/detection"
	"rangefinder/pipeline"
)

// Renderer handles visualization and overlay rendering
type Renderer struct {
	frameWidth  int
	frameHeight int

	calibratedColor   color.RGBA
	uncalibratedColor color.RGBA
	guideColor        color.RGBA
	crosshairColor    color.RGBA
	pixelWidthColor   color.RGBA
}

// NewRenderer creates a renderer for frames of the given size
func NewRenderer(frameWidth, frameHeight int) *Renderer {
	return &Renderer{
		frameWidth:        frameWidth,
		frameHeight:       frameHeight,
		calibratedColor:   color.RGBA{R: 0, G: 255, B: 0, A: 255},
		uncalibratedColor: color.RGBA{R: 150, G: 150, B: 150, A: 255},
		guideColor:        color.RGBA{R: 255, G: 255, B: 0, A: 255},
		crosshairColor:    color.RGBA{R: 255, G: 0, B: 0, A: 255},
		pixelWidthColor:   color.RGBA{R: 0, G: 0, B: 255, A: 255},
	}
}

// Annotate implements pipeline.Annotator: boxes, labels, guide lines to
// calibrated objects and the optical-center crosshair.
func (r *Renderer) Annotate(f *camera.Frame, anns []pipeline.Annotation) {
	img := &f.Mat
	bottomCenter := image.Pt(r.frameWidth/2, r.frameHeight)

	for _, a := range anns {
		d := a.Detection
		rect := toRect(d)
		c := r.uncalibratedColor
		label := d.ClassName

		if m := a.Measurement; m != nil {
			c = r.calibratedColor
			label = fmt.Sprintf("%s | Dist: %.2fm | Angle: %.1fdeg", d.ClassName, m.Distance, m.Angle)
			center := image.Pt(int(d.Box.CenterX()), int(d.Box.CenterY()))
			gocv.Line(img, bottomCenter, center, r.guideColor, 1)
		}

		gocv.Rectangle(img, rect, c, 2)
		gocv.PutText(img, label, labelOrigin(rect), gocv.FontHersheySimplex, 0.5, c, 2)
	}

	r.drawCrosshair(img)
}

// DrawPixelWidths marks detections at or above threshold with their pixel
// width, for the focal length calibration preview.
func (r *Renderer) DrawPixelWidths(f *camera.Frame, dets []detection.Detection, threshold float64) {
	img := &f.Mat
	for _, d := range detection.Filter(dets, threshold) {
		rect := toRect(d)
		gocv.Rectangle(img, rect, r.calibratedColor, 2)
		label := fmt.Sprintf("w_px: %d", int(d.Box.Width()))
		gocv.PutText(img, label, image.Pt(rect.Min.X, rect.Min.Y-10), gocv.FontHersheySimplex, 0.6, r.pixelWidthColor, 2)
	}
}

func (r *Renderer) drawCrosshair(img *gocv.Mat) {
	cx, cy := r.frameWidth/2, r.frameHeight/2
	gocv.Line(img, image.Pt(cx, cy-10), image.Pt(cx, cy+10), r.crosshairColor, 1)
	gocv.Line(img, image.Pt(cx-10, cy), image.Pt(cx+10, cy), r.crosshairColor, 1)
}

func toRect(d detection.Detection) image.Rectangle {
	return image.Rect(int(d.Box.X1), int(d.Box.Y1), int(d.Box.X2), int(d.Box.Y2))
}

// labelOrigin keeps the label inside the frame for boxes near the top edge
func labelOrigin(rect image.Rectangle) image.Point {
	y := rect.Min.Y - 10
	if y < 20 {
		y = 20
	}
	return image.Pt(rect.Min.X, y)
}
