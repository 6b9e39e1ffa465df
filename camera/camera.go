// Package camera adapts OpenCV capture devices and windows to the
// processing loop.
package camera

import (
	"fmt"
	"io"
	"strconv"

	"gocv.io/x/gocv"

	"rangefinder/logger"
	"rangefinder/pipeline"
)

// Frame wraps a captured gocv.Mat
type Frame struct {
	Mat gocv.Mat
}

// WriteImage encodes the frame to path; the extension selects the codec
func (f *Frame) WriteImage(path string) error {
	if !gocv.IMWrite(path, f.Mat) {
		return fmt.Errorf("IMWrite failed for %s", path)
	}
	return nil
}

// Close releases the underlying Mat
func (f *Frame) Close() error {
	return f.Mat.Close()
}

// Camera is an opened capture device
type Camera struct {
	capture *gocv.VideoCapture
	width   int
	height  int
}

// Open opens a capture device by index ("0") or by URL/file path and
// requests the given frame size. The size actually granted is read back.
func Open(device string, width, height int) (*Camera, error) {
	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, convErr := strconv.Atoi(device); convErr == nil {
		capture, err = gocv.OpenVideoCapture(id)
	} else {
		capture, err = gocv.VideoCaptureFile(device)
	}
	if err != nil {
		return nil, fmt.Errorf("error opening video capture device %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("video capture device %s is not open", device)
	}

	capture.Set(gocv.VideoCaptureFrameWidth, float64(width))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(height))

	c := &Camera{
		capture: capture,
		width:   int(capture.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
	if c.width != width || c.height != height {
		logger.Warn("CAMERA", "Requested %dx%d, device delivers %dx%d", width, height, c.width, c.height)
	}
	return c, nil
}

// Next reads the next frame. io.EOF marks end of stream.
func (c *Camera) Next() (*Frame, error) {
	img := gocv.NewMat()
	if ok := c.capture.Read(&img); !ok || img.Empty() {
		img.Close()
		return nil, io.EOF
	}
	return &Frame{Mat: img}, nil
}

// Width returns the frame width granted by the device
func (c *Camera) Width() int { return c.width }

// Height returns the frame height granted by the device
func (c *Camera) Height() int { return c.height }

// Close releases the capture device
func (c *Camera) Close() error {
	return c.capture.Close()
}

// Window shows frames in a HighGUI window and maps key presses to signals
type Window struct {
	window    *gocv.Window
	quitKey   int
	commitKey int
}

// NewWindow opens a preview window. 'q' quits and 'c' commits.
func NewWindow(title string) *Window {
	return &Window{
		window:    gocv.NewWindow(title),
		quitKey:   'q',
		commitKey: 'c',
	}
}

// Show displays the frame and polls the keyboard once
func (w *Window) Show(f *Frame) pipeline.Key {
	w.window.IMShow(f.Mat)
	switch w.window.WaitKey(1) & 0xFF {
	case w.quitKey:
		return pipeline.KeyQuit
	case w.commitKey:
		return pipeline.KeyCommit
	}
	return pipeline.KeyNone
}

// Close destroys the window
func (w *Window) Close() error {
	return w.window.Close()
}

// Headless is a display that never shows anything or signals
type Headless struct{}

// Show implements pipeline.Display
func (Headless) Show(*Frame) pipeline.Key { return pipeline.KeyNone }
