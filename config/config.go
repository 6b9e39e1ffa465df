// Package config collects the run options gathered from flags and the
// calibration file and validates them before any device is opened.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"rangefinder/calibration"
)

// SupportedImageExts are the encodings accepted for saved frames
var SupportedImageExts = []string{"jpg", "jpeg", "png", "bmp"}

// Run is the resolved configuration for one estimation run
type Run struct {
	Device      string
	FrameWidth  int
	FrameHeight int

	ModelPath  string
	NamesPath  string
	InputSize  int
	Confidence float64
	NMS        float64

	ConfigPath  string
	FocalLength float64

	OutputDir   string
	SaveFrames  bool
	ImageExt    string
	ShowPreview bool

	MetricsAddr string
	LogLevel    string
}

// Default returns the run defaults used by the command-line flags
func Default() Run {
	return Run{
		Device:      "0",
		FrameWidth:  640,
		FrameHeight: 480,
		ModelPath:   "models/yolo11n.onnx",
		NamesPath:   "models/coco.names",
		InputSize:   640,
		Confidence:  0.25,
		NMS:         0.45,
		ConfigPath:  calibration.DefaultConfigPath,
		OutputDir:   "runs",
		SaveFrames:  true,
		ImageExt:    "jpg",
		ShowPreview: true,
		LogLevel:    "info",
	}
}

// ResolveFocalLength picks the flag value when set, otherwise the value from
// the calibration file.
func (r *Run) ResolveFocalLength(fromFile float64) {
	if r.FocalLength == 0 {
		r.FocalLength = fromFile
	}
}

// ModelName is the model file name without directory or extension
func (r Run) ModelName() string {
	base := filepath.Base(r.ModelPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RunBase is the directory under which run<N> directories are allocated
func (r Run) RunBase() string {
	return filepath.Join(r.OutputDir, r.ModelName())
}

// Validate checks the configuration.
func (r Run) Validate() error {
	if r.FocalLength <= 0 {
		return fmt.Errorf("focal length must be positive, got %v (run the focallength tool and set -focal-length or \"focal_length\" in %s)", r.FocalLength, r.ConfigPath)
	}
	if r.ModelPath == "" {
		return fmt.Errorf("model path is required")
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("confidence must be within [0,1], got %v", r.Confidence)
	}
	if r.NMS < 0 || r.NMS > 1 {
		return fmt.Errorf("NMS threshold must be within [0,1], got %v", r.NMS)
	}
	if r.InputSize <= 0 || r.InputSize%32 != 0 {
		return fmt.Errorf("input size must be a positive multiple of 32, got %d", r.InputSize)
	}
	if r.FrameWidth <= 0 || r.FrameHeight <= 0 {
		return fmt.Errorf("frame size must be positive, got %dx%d", r.FrameWidth, r.FrameHeight)
	}
	if r.SaveFrames {
		ext := strings.ToLower(strings.TrimPrefix(r.ImageExt, "."))
		ok := false
		for _, e := range SupportedImageExts {
			if ext == e {
				ok = true
				break
			}
		}
		if !ok {
			return fmt.Errorf("unsupported image extension %q (supported: %s)", r.ImageExt, strings.Join(SupportedImageExts, ", "))
		}
	}
	return nil
}
