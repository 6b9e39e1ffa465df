package calibration

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rangefinder/detection"
	"rangefinder/geometry"
)

func TestFocalLength(t *testing.T) {
	f, err := FocalLength(7.5, 30.0, 100)
	require.NoError(t, err)
	assert.InDelta(t, 400.0, f, 1e-9)
}

func TestFocalLengthRejectsNonPositiveReference(t *testing.T) {
	_, err := FocalLength(0, 30, 100)
	assert.Error(t, err)
	_, err = FocalLength(7.5, -1, 100)
	assert.Error(t, err)
}

func TestNewFocalSamplerValidation(t *testing.T) {
	_, err := NewFocalSampler(0, 30, 0.5)
	assert.Error(t, err)
	_, err = NewFocalSampler(7.5, 30, 1.5)
	assert.Error(t, err)

	s, err := NewFocalSampler(7.5, 30, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0.5, s.Threshold())
}

func sample(class string, conf, x1, x2 float64) detection.Detection {
	return detection.Detection{ClassName: class, Confidence: conf, Box: geometry.Box{X1: x1, Y1: 50, X2: x2, Y2: 150}}
}

func TestFocalSamplerCommit(t *testing.T) {
	s, err := NewFocalSampler(7.5, 30, 0.5)
	require.NoError(t, err)

	s.Observe([]detection.Detection{
		sample("cup", 0.3, 0, 300),
		sample("bottle", 0.8, 200, 300.9),
		sample("bottle", 0.95, 0, 50),
	})

	c, ok := s.Commit()
	require.True(t, ok)
	assert.Equal(t, 100.0, c.MeasuredPixelWidth)
	assert.InDelta(t, 400.0, c.FocalLength, 1e-9)
	assert.Equal(t, "bottle", c.ClassName)
	assert.Equal(t, 7.5, c.KnownWidth)
	assert.Equal(t, 30.0, c.KnownDistance)
}

func TestFocalSamplerCommitWithoutQualifyingDetection(t *testing.T) {
	s, err := NewFocalSampler(7.5, 30, 0.5)
	require.NoError(t, err)

	_, ok := s.Commit()
	assert.False(t, ok, "nothing observed yet")

	s.Observe([]detection.Detection{sample("cup", 0.49, 0, 100)})
	_, ok = s.Commit()
	assert.False(t, ok)
}

func TestFocalSamplerUsesLatestFrameOnly(t *testing.T) {
	s, err := NewFocalSampler(7.5, 30, 0.5)
	require.NoError(t, err)

	s.Observe([]detection.Detection{sample("cup", 0.9, 0, 100)})
	s.Observe(nil)

	_, ok := s.Commit()
	assert.False(t, ok)
}

func TestFocalCalibrationReport(t *testing.T) {
	var buf bytes.Buffer
	FocalCalibration{MeasuredPixelWidth: 100, FocalLength: 400, ClassName: "bottle", Confidence: 0.8}.Report(&buf)

	out := buf.String()
	assert.Contains(t, out, "Measured pixel width: 100 px")
	assert.Contains(t, out, "Computed focal_length: 400.00")
	assert.Contains(t, out, "focal_length")
}

func TestCommitToIsSilentWithoutQualifyingDetection(t *testing.T) {
	logs := captureLogs(t)
	s, err := NewFocalSampler(7.5, 30, 0.5)
	require.NoError(t, err)
	s.Observe([]detection.Detection{sample("cup", 0.2, 0, 100)})

	var out bytes.Buffer
	assert.False(t, s.CommitTo(&out))
	assert.Empty(t, out.String())
	assert.Empty(t, logs.String())

	s.Observe([]detection.Detection{sample("bottle", 0.9, 200, 300)})
	assert.True(t, s.CommitTo(&out))
	assert.Contains(t, out.String(), "Computed focal_length: 400.00")
}
