package yolo

import (
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"rangefinder/detection"
	"rangefinder/geometry"
)

// onnxModel is the shared network state behind the CPU and GPU providers
type onnxModel struct {
	net        gocv.Net
	classNames []string
	opts       Options
	loaded     bool
	mu         sync.Mutex
}

func (m *onnxModel) load(modelPath, namesPath string, opts Options, backend gocv.NetBackendType, target gocv.NetTargetType) error {
	if opts.InputSize <= 0 {
		opts.InputSize = DefaultOptions().InputSize
	}

	names, err := loadClassNames(namesPath)
	if err != nil {
		return err
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return fmt.Errorf("failed to load YOLO network from %s", modelPath)
	}
	if err := net.SetPreferableBackend(backend); err != nil {
		net.Close()
		return fmt.Errorf("failed to set backend: %w", err)
	}
	if err := net.SetPreferableTarget(target); err != nil {
		net.Close()
		return fmt.Errorf("failed to set target: %w", err)
	}

	m.net = net
	m.classNames = names
	m.opts = opts
	m.loaded = true
	return nil
}

func (m *onnxModel) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.loaded {
		return nil
	}
	m.loaded = false
	return m.net.Close()
}

// loadClassNames reads one class label per line
func loadClassNames(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read class names: %w", err)
	}
	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no class names in %s", path)
	}
	return names, nil
}

// detect letterboxes the frame into a square, runs the network and decodes
// the [1, 4+classes, anchors] head into frame-space detections.
func (m *onnxModel) detect(frame gocv.Mat) ([]detection.Detection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, fmt.Errorf("model not loaded")
	}
	if frame.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	width, height := frame.Cols(), frame.Rows()
	maxDim := width
	if height > maxDim {
		maxDim = height
	}

	// Pad to a square so the aspect ratio survives the resize
	square := gocv.NewMatWithSize(maxDim, maxDim, gocv.MatTypeCV8UC3)
	defer square.Close()
	roi := square.Region(image.Rect(0, 0, width, height))
	frame.CopyTo(&roi)
	roi.Close()

	size := m.opts.InputSize
	scale := float32(maxDim) / float32(size)

	blob := gocv.BlobFromImage(square, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	// Exports differ on whether attributes or anchors come first
	attrs, anchors := dims[1], dims[2]
	transposed := false
	if attrs > anchors {
		attrs, anchors = anchors, attrs
		transposed = true
	}
	at := func(attr, anchor int) float32 {
		if transposed {
			return output.GetFloatAt3(0, anchor, attr)
		}
		return output.GetFloatAt3(0, attr, anchor)
	}

	numClasses := attrs - 4
	if numClasses <= 0 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	var (
		boxes   []geometry.Box
		scores  []float32
		classes []int
	)
	minScore := float32(m.opts.Confidence)

	for i := 0; i < anchors; i++ {
		classID, best := 0, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, i); s > best {
				best, classID = s, c
			}
		}
		if best < minScore {
			continue
		}

		cx, cy, w, h := at(0, i), at(1, i), at(2, i), at(3, i)
		box := clampBox(geometry.Box{
			X1: float64((cx - w/2) * scale),
			Y1: float64((cy - h/2) * scale),
			X2: float64((cx + w/2) * scale),
			Y2: float64((cy + h/2) * scale),
		}, width, height)

		boxes = append(boxes, box)
		scores = append(scores, best)
		classes = append(classes, classID)
	}

	if len(boxes) == 0 {
		return nil, nil
	}

	// Suppress within each class only
	separated := detection.ClassSeparated(boxes, classes, float64(maxDim))
	rects := make([]image.Rectangle, len(separated))
	for i, b := range separated {
		rects[i] = image.Rect(int(b.X1), int(b.Y1), int(b.X2), int(b.Y2))
	}
	keep := gocv.NMSBoxes(rects, scores, minScore, float32(m.opts.NMS))

	dets := make([]detection.Detection, 0, len(keep))
	for _, idx := range keep {
		name := fmt.Sprintf("class_%d", classes[idx])
		if classes[idx] < len(m.classNames) {
			name = m.classNames[classes[idx]]
		}
		dets = append(dets, detection.Detection{
			ClassName:  name,
			Box:        boxes[idx],
			Confidence: float64(scores[idx]),
		})
	}
	return dets, nil
}

func clampBox(b geometry.Box, width, height int) geometry.Box {
	clamp := func(v float64, hi int) float64 {
		if v < 0 {
			return 0
		}
		if v > float64(hi) {
			return float64(hi)
		}
		return v
	}
	return geometry.Box{
		X1: clamp(b.X1, width),
		Y1: clamp(b.Y1, height),
		X2: clamp(b.X2, width),
		Y2: clamp(b.Y2, height),
	}
}
