package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangefinder/calibration"
)

func validRun() Run {
	r := Default()
	r.FocalLength = 412
	return r
}

func TestDefaultIsValidOnceFocalLengthIsSet(t *testing.T) {
	require.NoError(t, validRun().Validate())
	assert.Error(t, Default().Validate(), "default has no focal length")
}

func TestDefaultConfigPathMatchesCalibration(t *testing.T) {
	assert.Equal(t, calibration.DefaultConfigPath, Default().ConfigPath)
}

func TestValidateFocalLength(t *testing.T) {
	for _, f := range []float64{0, -400} {
		r := validRun()
		r.FocalLength = f
		err := r.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "focal length")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Run)
	}{
		{"empty model", func(r *Run) { r.ModelPath = "" }},
		{"confidence above 1", func(r *Run) { r.Confidence = 1.2 }},
		{"negative nms", func(r *Run) { r.NMS = -0.1 }},
		{"input size not multiple of 32", func(r *Run) { r.InputSize = 300 }},
		{"zero frame width", func(r *Run) { r.FrameWidth = 0 }},
		{"bad extension", func(r *Run) { r.ImageExt = "gif" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRun()
			tt.mutate(&r)
			assert.Error(t, r.Validate())
		})
	}
}

func TestExtensionIgnoredWhenNotSaving(t *testing.T) {
	r := validRun()
	r.SaveFrames = false
	r.ImageExt = "gif"
	assert.NoError(t, r.Validate())

	r.SaveFrames = true
	r.ImageExt = ".PNG"
	assert.NoError(t, r.Validate())
}

func TestResolveFocalLength(t *testing.T) {
	r := Default()
	r.ResolveFocalLength(398.5)
	assert.Equal(t, 398.5, r.FocalLength)

	r.FocalLength = 412
	r.ResolveFocalLength(398.5)
	assert.Equal(t, 412.0, r.FocalLength, "flag wins over file")
}

func TestModelNameAndRunBase(t *testing.T) {
	r := Default()
	r.ModelPath = "models/yolo11s.onnx"
	r.OutputDir = "out"
	assert.Equal(t, "yolo11s", r.ModelName())
	assert.Equal(t, filepath.Join("out", "yolo11s"), r.RunBase())
}
