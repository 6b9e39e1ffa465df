package yolo

import (
	"gocv.io/x/gocv"

	"rangefinder/detection"
)

// CPUProvider implements YOLO inference using OpenCV CPU backend
type CPUProvider struct {
	model onnxModel
}

// Initialize initializes the CPU provider with model files
func (cp *CPUProvider) Initialize(modelPath, namesPath string, opts Options) error {
	return cp.model.load(modelPath, namesPath, opts, gocv.NetBackendDefault, gocv.NetTargetCPU)
}

// Detect performs object detection on a frame using CPU
func (cp *CPUProvider) Detect(frame gocv.Mat) ([]detection.Detection, error) {
	return cp.model.detect(frame)
}

// Close releases resources used by the CPU provider
func (cp *CPUProvider) Close() error {
	return cp.model.close()
}

// GetProviderInfo returns information about the CPU provider
func (cp *CPUProvider) GetProviderInfo() ProviderInfo {
	return ProviderInfo{
		Type:         "CPU",
		Backend:      "OpenCV CPU",
		Device:       "CPU",
		EstimatedFPS: 15, // Conservative estimate for CPU inference
	}
}
